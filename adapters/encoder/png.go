package encoder

import (
	"context"
	"image"
	"image/png"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/utils"
)

// PNG encodes images to PNG format.  PNG is lossless, so EncodeOptions.Quality
// is ignored.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanEncode(format core.Format) bool {
	return format == core.FormatPNG
}

func (p *PNG) Encode(ctx context.Context, img image.Image, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "png.encode", err)
	}
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryExport, "png.encode", apperrors.ErrEmptyResult)
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	if err := png.Encode(buf, img); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "png.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}
