// Package decoder provides format-specific image decoders that plug into the
// core registry.
package decoder

import (
	"context"
	"image"
	"image/png"
	"io"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
)

// PNG decodes PNG images using the standard library.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool {
	return format == core.FormatPNG
}

func (p *PNG) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "png.decode", err)
	}

	img, err := png.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryValidation, "png.decode", err)
	}
	return img, nil
}
