package session

import (
	"image"

	xdraw "golang.org/x/image/draw"

	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/filter"
	"github.com/Skryldev/photo-editor/scene"
	"github.com/Skryldev/photo-editor/viewport"
)

// ApplyAdjustments replaces the target image's filter list from the given
// slider values.  The list is rebuilt wholesale on every call, so stale
// entries from a previous adjustment can never survive.
func (s *Session) ApplyAdjustments(values map[filter.Kind]int) error {
	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.adjust", apperrors.ErrNoActiveImage)
	}
	img := sc.ActiveImage()
	if img == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.adjust", apperrors.ErrNoActiveImage)
	}
	img.Image.Filters = filter.Compute(values)
	sc.MarkModified(img)
	return nil
}

// AdjustmentValues reads the target image's filter list back into slider
// values, so reopening the adjust tool shows the settings currently in effect.
func (s *Session) AdjustmentValues() (map[filter.Kind]int, error) {
	sc := s.Scene()
	if sc == nil {
		return nil, apperrors.New(apperrors.CategoryValidation, "session.adjust", apperrors.ErrNoActiveImage)
	}
	img := sc.ActiveImage()
	if img == nil {
		return nil, apperrors.New(apperrors.CategoryValidation, "session.adjust", apperrors.ErrNoActiveImage)
	}
	return filter.Extract(img.Image.Filters), nil
}

// ResetAdjustments returns every slider to its neutral value.
func (s *Session) ResetAdjustments() error {
	return s.ApplyAdjustments(filter.Defaults())
}

// AddText places a new text object at the canvas center and selects it, which
// switches the session into the text tool.
func (s *Session) AddText(value string, fontSize float64, fill string) (*scene.Object, error) {
	sc := s.Scene()
	if sc == nil {
		return nil, apperrors.New(apperrors.CategoryValidation, "session.add_text", apperrors.ErrSceneDisposed)
	}
	obj := scene.NewText(value, fontSize, fill)
	obj.Left, obj.Top = sc.Center()
	sc.Add(obj)
	sc.SetActive(obj)
	return obj, nil
}

// Select makes obj the current selection.
func (s *Session) Select(obj *scene.Object) {
	if sc := s.Scene(); sc != nil {
		sc.SetActive(obj)
	}
}

// SetBackground sets the canvas background color.
func (s *Session) SetBackground(hex string) error {
	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.background", apperrors.ErrSceneDisposed)
	}
	sc.SetBackground(hex)
	return nil
}

// Crop reduces the canvas to the given region.  Objects keep their absolute
// positions relative to the region's origin, so content inside the rectangle
// stays where the user framed it and content outside falls off the canvas.
func (s *Session) Crop(x, y, width, height int) error {
	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.crop", apperrors.ErrSceneDisposed)
	}
	if width < s.cfg.MinCanvasPx || height < s.cfg.MinCanvasPx ||
		width > s.cfg.MaxCanvasPx || height > s.cfg.MaxCanvasPx {
		return apperrors.New(apperrors.CategoryValidation, "session.crop", apperrors.ErrInvalidDimensions)
	}
	if x < 0 || y < 0 || x+width > sc.Width() || y+height > sc.Height() {
		return apperrors.New(apperrors.CategoryValidation, "session.crop", apperrors.ErrInvalidDimensions)
	}

	for _, obj := range sc.Objects() {
		obj.Left -= float64(x)
		obj.Top -= float64(y)
	}
	if err := sc.SetDimensions(width, height); err != nil {
		return err
	}
	s.vp.Refit(sc)
	return nil
}

// ApplyResize changes the logical canvas dimensions.  Object positions are
// left alone: shrinking crops the composition, growing adds blank margin.
func (s *Session) ApplyResize(width, height int) error {
	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.resize", apperrors.ErrSceneDisposed)
	}
	return s.vp.ApplyResize(sc, width, height)
}

// ApplyAspectPreset resizes the canvas to the given aspect ratio while
// keeping the pixel area roughly constant.
func (s *Session) ApplyAspectPreset(r viewport.AspectRatio) error {
	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.resize", apperrors.ErrSceneDisposed)
	}
	w, h := viewport.PresetDimensions(r.RatioW, r.RatioH, sc.Width(), sc.Height())
	return s.vp.ApplyResize(sc, w, h)
}

// CropImage crops the target image's own pixels to a region of the image,
// leaving the canvas dimensions alone.  The region is in unscaled source
// pixel coordinates.
func (s *Session) CropImage(rect image.Rectangle) error {
	sc := s.Scene()
	if sc == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.crop_image", apperrors.ErrSceneDisposed)
	}
	obj := sc.ActiveImage()
	if obj == nil {
		return apperrors.New(apperrors.CategoryValidation, "session.crop_image", apperrors.ErrNoActiveImage)
	}
	bounds := image.Rect(0, 0, obj.Image.Width, obj.Image.Height)
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return apperrors.New(apperrors.CategoryValidation, "session.crop_image", apperrors.ErrInvalidDimensions)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Copy(dst, image.Point{}, obj.Image.Src, rect, xdraw.Src, nil)
	obj.Image.Src = dst
	obj.Image.Width = rect.Dx()
	obj.Image.Height = rect.Dy()
	sc.MarkModified(obj)
	return nil
}
