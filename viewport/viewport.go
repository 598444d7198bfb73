// Package viewport maps logical scene dimensions onto on-screen rendered
// size.  The transform is derived state: always recomputed from container
// and scene dimensions, never persisted.
package viewport

import (
	"math"

	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/scene"
)

// Transform is the display-only zoom/pan applied to the rendering surface.
// It never affects stored object coordinates.
type Transform struct {
	Zoom       float64
	TranslateX float64
	TranslateY float64
}

// Identity returns the neutral transform used for export.
func Identity() Transform { return Transform{Zoom: 1} }

// FitToContainer computes the zoom that fits a sceneW×sceneH canvas inside a
// containerW×containerH area.  The editing view never upscales past 1:1;
// export ignores this cap.
func FitToContainer(containerW, containerH, sceneW, sceneH int) float64 {
	if sceneW <= 0 || sceneH <= 0 || containerW <= 0 || containerH <= 0 {
		return 1
	}
	zoom := math.Min(float64(containerW)/float64(sceneW), float64(containerH)/float64(sceneH))
	return math.Min(zoom, 1)
}

// PresetDimensions computes new canvas dimensions for a target aspect ratio
// while approximately preserving the current pixel area:
//
//	newHeight = sqrt(area / ratio); newWidth = newHeight * ratio
func PresetDimensions(ratioW, ratioH, curW, curH int) (int, int) {
	area := float64(curW) * float64(curH)
	ratio := float64(ratioW) / float64(ratioH)
	h := math.Sqrt(area / ratio)
	w := h * ratio
	return int(math.Round(w)), int(math.Round(h))
}

// AspectRatio is a named resize preset.
type AspectRatio struct {
	Name   string
	RatioW int
	RatioH int
	Label  string
}

// AspectRatios are the built-in resize presets.
var AspectRatios = []AspectRatio{
	{Name: "Instagram Story", RatioW: 9, RatioH: 16, Label: "9:16"},
	{Name: "Instagram Post", RatioW: 1, RatioH: 1, Label: "1:1"},
	{Name: "Youtube Thumbnail", RatioW: 16, RatioH: 9, Label: "16:9"},
	{Name: "Portrait", RatioW: 2, RatioH: 3, Label: "2:3"},
	{Name: "Facebook Cover", RatioW: 851, RatioH: 315, Label: "2.7:1"},
	{Name: "Twitter Header", RatioW: 3, RatioH: 1, Label: "3:1"},
}

// HeightForWidth returns the aspect-locked height for a new width given the
// original dimensions.
func HeightForWidth(newWidth, origW, origH int) int {
	if origW <= 0 {
		return 0
	}
	return int(math.Round(float64(newWidth) * float64(origH) / float64(origW)))
}

// WidthForHeight returns the aspect-locked width for a new height given the
// original dimensions.
func WidthForHeight(newHeight, origW, origH int) int {
	if origH <= 0 {
		return 0
	}
	return int(math.Round(float64(newHeight) * float64(origW) / float64(origH)))
}

// Controller tracks the container size and current transform for one scene.
type Controller struct {
	containerW int
	containerH int
	padding    int

	minPx int
	maxPx int

	transform Transform
}

// NewController creates a Controller.  padding is subtracted from each
// container axis before fitting; minPx/maxPx bound resize requests.
func NewController(padding, minPx, maxPx int) *Controller {
	return &Controller{
		padding:   padding,
		minPx:     minPx,
		maxPx:     maxPx,
		transform: Identity(),
	}
}

// SetContainerSize records the on-screen container and refits sc.
func (c *Controller) SetContainerSize(w, h int, sc *scene.Scene) {
	c.containerW = w
	c.containerH = h
	c.Refit(sc)
}

// Refit recomputes the zoom from the current container and scene dimensions.
func (c *Controller) Refit(sc *scene.Scene) {
	if sc == nil || c.containerW == 0 || c.containerH == 0 {
		return
	}
	zoom := FitToContainer(c.containerW-c.padding, c.containerH-c.padding, sc.Width(), sc.Height())
	c.transform = Transform{Zoom: zoom}
}

// Transform returns the current display transform.
func (c *Controller) Transform() Transform { return c.transform }

// SetTransform overrides the transform.  Export uses this to swap in the
// identity transform and restore the prior one afterwards.
func (c *Controller) SetTransform(t Transform) { c.transform = t }

// ApplyResize destructively rewrites the scene's logical dimensions and then
// refits the view.  Object positions and scales are left numerically
// untouched: objects keep their pixel size and position, not their
// proportional placement, so shrinking crops the composition and growing
// adds blank margin.
func (c *Controller) ApplyResize(sc *scene.Scene, newWidth, newHeight int) error {
	if newWidth < c.minPx || newWidth > c.maxPx || newHeight < c.minPx || newHeight > c.maxPx {
		return apperrors.New(apperrors.CategoryValidation, "viewport.resize", apperrors.ErrInvalidDimensions)
	}
	if err := sc.SetDimensions(newWidth, newHeight); err != nil {
		return err
	}
	c.Refit(sc)
	return nil
}
