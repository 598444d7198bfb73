package session

import (
	"context"
	"fmt"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/scene"
	"github.com/Skryldev/photo-editor/utils"
)

// RemoveBackground cuts the subject out of the target image.
func (s *Session) RemoveBackground(ctx context.Context) error {
	return s.instrument(ctx, "remove_background", func() error {
		return s.runRemote(ctx, core.OpRemoveBackground, "Removing background...", nil, nil)
	})
}

// ChangeBackground replaces the target image's background from a text prompt.
func (s *Session) ChangeBackground(ctx context.Context, prompt string) error {
	return s.instrument(ctx, "change_background", func() error {
		return s.runRemote(ctx, core.OpChangeBackground, "Changing background...",
			core.Params{"prompt": prompt}, nil)
	})
}

// EditImage applies a free-form prompt edit.  extraURLs are additional
// reference images already in blob storage; together with the canvas image
// they may not exceed the configured upload limit.
func (s *Session) EditImage(ctx context.Context, prompt string, extraURLs []string) error {
	return s.instrument(ctx, "edit_image", func() error {
		if len(extraURLs)+1 > s.cfg.MaxUploadImages {
			return apperrors.New(apperrors.CategoryValidation, "session.edit_image",
				fmt.Errorf("too many images: %d, limit %d", len(extraURLs)+1, s.cfg.MaxUploadImages))
		}
		return s.runRemote(ctx, core.OpEditImage, "Editing image...",
			core.Params{"prompt": prompt}, extraURLs)
	})
}

// Upscale increases the target image's resolution.
func (s *Session) Upscale(ctx context.Context) error {
	return s.instrument(ctx, "upscale", func() error {
		return s.runRemote(ctx, core.OpUpscale, "Upscaling image...", nil, nil)
	})
}

// Restore repairs damage and compression artifacts in the target image.
func (s *Session) Restore(ctx context.Context) error {
	return s.instrument(ctx, "restore", func() error {
		return s.runRemote(ctx, core.OpRestore, "Restoring image...", nil, nil)
	})
}

// runRemote is the shared remote-edit flow: credit gate, upload, one service
// call, stale-response fence, result swap, then deduction.  Credits are only
// deducted after the result has been applied, so a failed call costs nothing.
func (s *Session) runRemote(ctx context.Context, op core.Operation, msg string, params core.Params, extraURLs []string) error {
	if s.deps.Remote == nil || s.deps.Store == nil {
		return apperrors.New(apperrors.CategoryRemote, string(op), apperrors.ErrStorageUnavailable)
	}

	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, string(op), apperrors.ErrNoActiveImage)
	}
	img := sc.ActiveImage()
	if img == nil {
		s.deps.Notifier.Error("Add an image to the canvas first")
		return apperrors.New(apperrors.CategoryValidation, string(op), apperrors.ErrNoActiveImage)
	}

	cost := s.cfg.CreditCosts[op]
	if s.deps.Credits != nil && cost > 0 {
		bal, err := s.deps.Credits.Balance(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.CategoryRemote, string(op), err)
		}
		if bal < cost {
			s.deps.Notifier.Error("Not enough credits")
			return apperrors.New(apperrors.CategoryRemote, string(op), apperrors.ErrInsufficientCredits)
		}
	}

	gen := s.generation.Load()
	s.setProcessing(msg)
	defer s.setProcessing("")

	srcURL, err := s.sourceURL(ctx, img)
	if err != nil {
		s.deps.Notifier.Error("Could not prepare the image")
		return err
	}
	urls := append([]string{srcURL}, extraURLs...)

	callCtx := ctx
	if s.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.JobTimeout)
		defer cancel()
	}

	resultURL, err := s.deps.Remote.Invoke(callCtx, op, urls, params)
	if err != nil {
		s.deps.Notifier.Error("The edit failed, please try again")
		return apperrors.Wrap(apperrors.CategoryRemote, string(op), err)
	}

	// The user may have switched projects while the service worked; a late
	// result must not land on the wrong scene.
	if s.generation.Load() != gen || sc.Disposed() {
		s.deps.Logger.Warn("late remote result discarded", "operation", string(op))
		return apperrors.New(apperrors.CategoryRemote, string(op), apperrors.ErrStaleResult)
	}

	if err := s.applyResult(ctx, sc, img, resultURL); err != nil {
		s.deps.Notifier.Error("Could not load the edited image")
		return err
	}

	if s.deps.Credits != nil && cost > 0 {
		if err := s.deps.Credits.Deduct(ctx, cost); err != nil {
			// The edit already landed; a deduction failure is an accounting
			// problem, not grounds to roll the canvas back.
			s.deps.Logger.Error("credit deduction failed", "operation", string(op), "error", err.Error())
		}
	}
	s.deps.Notifier.Success("Done")
	return nil
}

// sourceURL returns a blob URL for the image, uploading the current pixels
// when the object has no usable remote source.
func (s *Session) sourceURL(ctx context.Context, img *scene.Object) (string, error) {
	if img.Image.SourceURL != "" {
		return img.Image.SourceURL, nil
	}

	enc, ok := s.deps.Registry.EncoderFor(core.FormatPNG)
	if !ok {
		return "", apperrors.New(apperrors.CategoryExport, "session.upload",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, core.FormatPNG))
	}
	data, err := enc.Encode(ctx, img.Image.Src, core.EncodeOptions{Format: core.FormatPNG})
	if err != nil {
		return "", err
	}
	ref, err := s.deps.Store.Upload(ctx, data, "canvas.png")
	if err != nil {
		return "", err
	}
	img.Image.SourceURL = ref.URL
	return ref.URL, nil
}

// applyResult fetches the edited image and swaps it into the object in place.
// Position, scale and filters survive the swap.
func (s *Session) applyResult(ctx context.Context, sc *scene.Scene, img *scene.Object, resultURL string) error {
	raw, err := s.deps.Store.Fetch(ctx, resultURL)
	if err != nil {
		return err
	}
	format := core.Format(utils.DetectFormat(raw))
	dec, ok := s.deps.Registry.DecoderFor(format)
	if !ok {
		return apperrors.New(apperrors.CategoryValidation, "session.apply_result",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}
	decoded, err := dec.Decode(ctx, utils.BytesReader(raw))
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryValidation, "session.apply_result", err)
	}

	b := decoded.Bounds()
	img.Image.Src = decoded
	img.Image.Width = b.Dx()
	img.Image.Height = b.Dy()
	img.Image.SourceURL = resultURL
	img.Image.Tainted = false
	sc.MarkModified(img)
	return nil
}
