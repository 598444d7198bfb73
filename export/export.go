// Package export turns a scene into downloadable image bytes.
package export

import (
	"context"
	"fmt"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/render"
	"github.com/Skryldev/photo-editor/scene"
	"github.com/Skryldev/photo-editor/viewport"
)

// Preset is a named export configuration offered to users.
type Preset struct {
	Name    string
	Format  core.Format
	Quality int
}

// Presets lists the built-in export configurations, best quality first.
var Presets = []Preset{
	{Name: "PNG (lossless)", Format: core.FormatPNG, Quality: 100},
	{Name: "JPEG high", Format: core.FormatJPEG, Quality: 90},
	{Name: "JPEG compact", Format: core.FormatJPEG, Quality: 80},
	{Name: "WebP", Format: core.FormatWebP, Quality: 90},
}

// Exporter renders a scene at its logical dimensions and encodes the result.
type Exporter struct {
	registry       core.Registry
	renderer       *render.Renderer
	defaultQuality int
	logger         core.Logger
}

// New creates an Exporter.
func New(registry core.Registry, renderer *render.Renderer, defaultQuality int, logger core.Logger) *Exporter {
	if defaultQuality <= 0 {
		defaultQuality = 85
	}
	return &Exporter{
		registry:       registry,
		renderer:       renderer,
		defaultQuality: defaultQuality,
		logger:         logger,
	}
}

// Export rasterizes sc at its logical width×height and encodes it in the
// requested format.  The viewport transform is reset to identity for the
// duration of the render and restored afterwards, whatever the outcome, so a
// zoomed or panned view never changes the exported pixels.
func (e *Exporter) Export(ctx context.Context, sc *scene.Scene, vp *viewport.Controller, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "export", err)
	}

	for _, obj := range sc.Objects() {
		if obj.Kind == scene.KindImage && obj.Image.Tainted {
			return nil, apperrors.New(apperrors.CategoryExport, "export", apperrors.ErrTaintedCanvas)
		}
	}

	enc, ok := e.registry.EncoderFor(opts.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryExport, "export",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, opts.Format))
	}

	if vp != nil {
		prev := vp.Transform()
		vp.SetTransform(viewport.Identity())
		defer vp.SetTransform(prev)
	}

	raster, err := e.renderer.Render(sc)
	if err != nil {
		return nil, err
	}

	if opts.Quality <= 0 {
		opts.Quality = e.defaultQuality
	}
	data, err := enc.Encode(ctx, raster, opts)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("scene exported",
		"format", string(opts.Format),
		"quality", opts.Quality,
		"width", sc.Width(),
		"height", sc.Height(),
		"bytes", len(data),
	)
	return data, nil
}
