package scene

import (
	"image"

	"github.com/Skryldev/photo-editor/filter"
)

// ObjectKind discriminates the SceneObject union.
type ObjectKind string

const (
	KindImage ObjectKind = "image"
	KindText  ObjectKind = "text"
	KindShape ObjectKind = "shape"
)

// ShapeForm selects the shape primitive.
type ShapeForm string

const (
	ShapeRect    ShapeForm = "rect"
	ShapeEllipse ShapeForm = "ellipse"
)

// Object is one placed element on the scene.  Left/Top are the coordinates of
// the object's CENTER in logical scene pixels, not its top-left corner; this
// keeps scale and rotate math anchor-free and is relied on throughout.
type Object struct {
	Kind       ObjectKind
	Left, Top  float64
	ScaleX     float64
	ScaleY     float64
	Angle      float64 // radians
	Selectable bool
	Evented    bool

	// Exactly one of the following is non-nil, matching Kind.
	Image *ImageProps
	Text  *TextProps
	Shape *ShapeProps
}

// ImageProps holds the Image variant payload.
type ImageProps struct {
	Src       image.Image // decoded pixels; nil only for unresolved snapshots
	SourceURL string      // blob-store URL the pixels came from, "" if local-only
	Width     int         // natural pixel dimensions of Src
	Height    int
	// Tainted marks pixels fetched without cross-origin access; a tainted
	// image blocks export rather than producing corrupt output.
	Tainted bool
	// Filters is always regenerated wholesale from the current slider-value
	// map; entries are never mutated in place.
	Filters []filter.Filter
}

// TextProps holds the Text variant payload.
type TextProps struct {
	Value      string
	FontSize   float64
	FontFamily string
	Fill       string // hex color, e.g. "#ffffff"
}

// ShapeProps holds the Shape variant payload.
type ShapeProps struct {
	Form        ShapeForm
	Width       float64
	Height      float64
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// NewImage creates a centered image object at natural scale.
func NewImage(src image.Image, sourceURL string) *Object {
	b := src.Bounds()
	return &Object{
		Kind:       KindImage,
		ScaleX:     1,
		ScaleY:     1,
		Selectable: true,
		Evented:    true,
		Image: &ImageProps{
			Src:       src,
			SourceURL: sourceURL,
			Width:     b.Dx(),
			Height:    b.Dy(),
		},
	}
}

// NewText creates a text object.
func NewText(value string, fontSize float64, fill string) *Object {
	return &Object{
		Kind:       KindText,
		ScaleX:     1,
		ScaleY:     1,
		Selectable: true,
		Evented:    true,
		Text: &TextProps{
			Value:    value,
			FontSize: fontSize,
			Fill:     fill,
		},
	}
}

// NewShape creates a shape object.
func NewShape(form ShapeForm, w, h float64, fill string) *Object {
	return &Object{
		Kind:       KindShape,
		ScaleX:     1,
		ScaleY:     1,
		Selectable: true,
		Evented:    true,
		Shape: &ShapeProps{
			Form:   form,
			Width:  w,
			Height: h,
			Fill:   fill,
		},
	}
}
