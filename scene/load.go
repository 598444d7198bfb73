package scene

import (
	"context"
	"fmt"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/utils"
)

// LoadProject constructs a scene from persisted project metadata: the source
// image is fetched from the blob store, decoded, scaled to fit the logical
// canvas, and centered.  A saved canvas state, when present, is then restored
// on top; a corrupt saved state is logged and skipped rather than failing the
// load, matching the open-with-what-we-have behavior users expect.
func LoadProject(ctx context.Context, p core.Project, store core.BlobStore, reg core.Registry, logger core.Logger) (*Scene, error) {
	sc, err := New(p.Width, p.Height, logger)
	if err != nil {
		return nil, err
	}

	if p.SourceURL != "" {
		raw, err := store.Fetch(ctx, p.SourceURL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryStorage, "scene.load.fetch", err)
		}
		format := core.Format(utils.DetectFormat(raw))
		dec, ok := reg.DecoderFor(format)
		if !ok {
			return nil, apperrors.New(apperrors.CategoryValidation, "scene.load.decode",
				fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
		}
		src, err := dec.Decode(ctx, utils.BytesReader(raw))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryValidation, "scene.load.decode", err)
		}

		obj := NewImage(src, p.SourceURL)
		// Scale to fit: the smaller axis ratio wins, so the whole image is
		// visible inside the logical canvas.
		scale := fitScale(obj.Image.Width, obj.Image.Height, p.Width, p.Height)
		obj.ScaleX = scale
		obj.ScaleY = scale
		obj.Left = float64(p.Width) / 2
		obj.Top = float64(p.Height) / 2
		sc.Add(obj)
	}

	if len(p.CanvasState) > 0 {
		if err := sc.Restore(Snapshot(p.CanvasState)); err != nil && logger != nil {
			logger.Warn("scene.load.saved_state_skipped", "project", p.ID, "error", err.Error())
		}
	}
	return sc, nil
}

// fitScale returns the uniform scale that fits a srcW×srcH image inside a
// dstW×dstH canvas.
func fitScale(srcW, srcH, dstW, dstH int) float64 {
	if srcW <= 0 || srcH <= 0 {
		return 1
	}
	sx := float64(dstW) / float64(srcW)
	sy := float64(dstH) / float64(srcH)
	if sx < sy {
		return sx
	}
	return sy
}
