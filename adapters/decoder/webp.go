package decoder

import (
	"context"
	"image"
	"io"

	"golang.org/x/image/webp"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
)

// WebP decodes WebP images using golang.org/x/image/webp.  Decoding is pure
// Go; only encoding needs libvips.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool {
	return format == core.FormatWebP
}

func (w *WebP) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "webp.decode", err)
	}

	img, err := webp.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "webp.decode", err)
	}
	return img, nil
}
