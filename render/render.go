// Package render rasterizes a scene at its logical dimensions.  The viewport
// transform is a display concern and plays no part here: callers that want
// on-screen pixels scale the output, callers that want export bytes use the
// raster as-is.
package render

import (
	"image"
	"image/draw"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/filter"
	"github.com/Skryldev/photo-editor/scene"
)

// Renderer composes scene objects onto an RGBA raster.  Safe for concurrent
// use; font faces are cached per size.
type Renderer struct {
	font *truetype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// New creates a Renderer with the bundled default font.  Custom fonts can be
// supplied with NewWithFont.
func New() (*Renderer, error) {
	return NewWithFont(goregular.TTF)
}

// NewWithFont creates a Renderer rendering text with the given TTF data.
func NewWithFont(ttf []byte) (*Renderer, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryRender, "render.font", err)
	}
	return &Renderer{font: f, faces: make(map[float64]font.Face)}, nil
}

func (r *Renderer) face(size float64) font.Face {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[size] = f
	return f
}

// Render rasterizes sc at its logical width×height.  Objects draw in z-order;
// image objects get their filter list applied to a working copy first, so the
// scene's pixels are never mutated by rendering.
func (r *Renderer) Render(sc *scene.Scene) (*image.RGBA, error) {
	w, h := sc.Width(), sc.Height()
	dc := gg.NewContext(w, h)
	dc.SetHexColor(sc.Background())
	dc.Clear()

	for _, obj := range sc.Objects() {
		switch obj.Kind {
		case scene.KindImage:
			if err := r.drawImage(dc, obj); err != nil {
				return nil, err
			}
		case scene.KindText:
			r.drawText(dc, obj)
		case scene.KindShape:
			r.drawShape(dc, obj)
		}
	}

	out, ok := dc.Image().(*image.RGBA)
	if !ok {
		// gg backs its context with *image.RGBA today; copy if that changes.
		b := dc.Image().Bounds()
		cp := image.NewRGBA(b)
		draw.Draw(cp, b, dc.Image(), b.Min, draw.Src)
		out = cp
	}
	return out, nil
}

func (r *Renderer) drawImage(dc *gg.Context, obj *scene.Object) error {
	src := obj.Image.Src
	if src == nil {
		return nil // unresolved snapshot reference; nothing to draw
	}

	work := cloneRGBA(src)
	filter.Apply(work, obj.Image.Filters)

	dstW := int(float64(obj.Image.Width)*obj.ScaleX + 0.5)
	dstH := int(float64(obj.Image.Height)*obj.ScaleY + 0.5)
	if dstW <= 0 || dstH <= 0 {
		return apperrors.New(apperrors.CategoryRender, "render.image", apperrors.ErrInvalidDimensions)
	}
	var scaled image.Image = work
	if dstW != obj.Image.Width || dstH != obj.Image.Height {
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), work, work.Bounds(), xdraw.Over, nil)
		scaled = dst
	}

	dc.Push()
	dc.Translate(obj.Left, obj.Top)
	if obj.Angle != 0 {
		dc.Rotate(obj.Angle)
	}
	dc.DrawImageAnchored(scaled, 0, 0, 0.5, 0.5)
	dc.Pop()
	return nil
}

func (r *Renderer) drawText(dc *gg.Context, obj *scene.Object) {
	t := obj.Text
	if t.Value == "" {
		return
	}
	dc.Push()
	dc.Translate(obj.Left, obj.Top)
	if obj.Angle != 0 {
		dc.Rotate(obj.Angle)
	}
	if obj.ScaleX != 1 || obj.ScaleY != 1 {
		dc.Scale(obj.ScaleX, obj.ScaleY)
	}
	dc.SetFontFace(r.face(t.FontSize))
	dc.SetHexColor(t.Fill)
	dc.DrawStringAnchored(t.Value, 0, 0, 0.5, 0.5)
	dc.Pop()
}

func (r *Renderer) drawShape(dc *gg.Context, obj *scene.Object) {
	s := obj.Shape
	dc.Push()
	dc.Translate(obj.Left, obj.Top)
	if obj.Angle != 0 {
		dc.Rotate(obj.Angle)
	}
	if obj.ScaleX != 1 || obj.ScaleY != 1 {
		dc.Scale(obj.ScaleX, obj.ScaleY)
	}
	switch s.Form {
	case scene.ShapeEllipse:
		dc.DrawEllipse(0, 0, s.Width/2, s.Height/2)
	default:
		dc.DrawRectangle(-s.Width/2, -s.Height/2, s.Width, s.Height)
	}
	if s.Fill != "" {
		dc.SetHexColor(s.Fill)
		if s.Stroke != "" && s.StrokeWidth > 0 {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if s.Stroke != "" && s.StrokeWidth > 0 {
		dc.SetHexColor(s.Stroke)
		dc.SetLineWidth(s.StrokeWidth)
		dc.Stroke()
	}
	dc.Pop()
}

// cloneRGBA returns a mutable RGBA copy of src.
func cloneRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
