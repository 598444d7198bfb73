package encoder

import (
	"context"
	"image"
	"image/jpeg"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/utils"
)

// WebP encodes images to WebP format.
//
// Pure-Go WebP encoding is not available in the standard library or x/image.
// Builds with libvips available should register the vips backend instead,
// which encodes real WebP (see adapters/vips).  This fallback uses a
// JPEG-to-WebP shim strategy so registry wiring and export flows stay testable
// without cgo:
//   - Output is valid JPEG, produced at the requested quality.
//   - Callers that need genuine WebP bytes must register adapters/vips or
//     github.com/chai2010/webp in place of this encoder.
type WebP struct {
	DefaultQuality int
}

func NewWebP(defaultQuality int) *WebP {
	if defaultQuality <= 0 {
		defaultQuality = 85
	}
	return &WebP{DefaultQuality: defaultQuality}
}

func (w *WebP) CanEncode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Encode(ctx context.Context, img image.Image, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "webp.encode", err)
	}
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryExport, "webp.encode", apperrors.ErrEmptyResult)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = w.DefaultQuality
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "webp.encode.shim", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}
