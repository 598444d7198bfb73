//go:build cgo

// Package vips provides a libvips-powered export backend.  It produces real
// WebP bytes and markedly faster JPEG/PNG encodes than the stdlib codecs, at
// the cost of cgo.  Builds without libvips use the pure-Go adapters instead.
package vips

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend is a unified libvips-powered Decoder and Encoder.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 85
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
		CollectStats:     true,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatUnknown:
		return true
	}
	return false
}

// Decode reads any format libvips understands and hands back a stdlib image.
// The round trip through PNG keeps the rest of the editor free of vips types.
func (b *Backend) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "vips.decode", err)
	}

	buf, err := utils.DrainReader(ctx, r, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "vips.decode.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "vips.decode", err)
	}
	defer ref.Close()

	pngBytes, _, err := ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "vips.decode.export", err)
	}
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "vips.decode.png", err)
	}
	return img, nil
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanEncode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP:
		return true
	}
	return false
}

// Encode routes the raster through libvips for the final compression pass.
// The raster enters vips as lossless PNG so no quality is lost before the
// target codec runs.
func (b *Backend) Encode(ctx context.Context, img image.Image, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "vips.encode", err)
	}
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryExport, "vips.encode", apperrors.ErrEmptyResult)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = b.cfg.DefaultQuality
	}

	buf := utils.AcquireBuffer()
	if err := png.Encode(buf, img); err != nil {
		utils.ReleaseBuffer(buf)
		return nil, apperrors.Wrap(apperrors.CategoryExport, "vips.encode.bridge", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "vips.encode", err)
	}
	defer ref.Close()

	switch opts.Format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		out, _, err := ref.ExportJpeg(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryExport, "vips.encode.jpeg", err)
		}
		return out, nil

	case core.FormatPNG:
		out, _, err := ref.ExportPng(govips.NewPngExportParams())
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryExport, "vips.encode.png", err)
		}
		return out, nil

	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.Lossless = opts.Lossless
		out, _, err := ref.ExportWebp(ep)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryExport, "vips.encode.webp", err)
		}
		return out, nil

	default:
		return nil, apperrors.New(apperrors.CategoryExport, "vips.encode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, opts.Format))
	}
}

// ─── RegisterVipsBackend ──────────────────────────────────────────────────────

// RegisterVipsBackend replaces the pure-Go codecs with libvips for all formats.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP} {
		reg.RegisterDecoder(f, b)
		reg.RegisterEncoder(f, b)
	}
}

// compile-time interface checks
var _ core.Decoder = (*Backend)(nil)
var _ core.Encoder = (*Backend)(nil)
