package encoder

import (
	"context"
	"image"
	"image/jpeg"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/utils"
)

// JPEG encodes images to JPEG format.
type JPEG struct {
	DefaultQuality int // used when EncodeOptions.Quality == 0
}

func NewJPEG(defaultQuality int) *JPEG {
	if defaultQuality <= 0 {
		defaultQuality = 85
	}
	return &JPEG{DefaultQuality: defaultQuality}
}

func (j *JPEG) CanEncode(format core.Format) bool {
	return format == core.FormatJPEG
}

func (j *JPEG) Encode(ctx context.Context, img image.Image, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "jpeg.encode", err)
	}
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryExport, "jpeg.encode", apperrors.ErrEmptyResult)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = j.DefaultQuality
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryExport, "jpeg.encode", err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}
