package scene

import (
	"errors"
	"image"
	"image/color"
	"testing"

	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/filter"
)

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	sc, err := New(400, 300, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sc
}

func newTestImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 77, A: 255})
		}
	}
	return img
}

func TestNew_RejectsNonPositiveDimensions(t *testing.T) {
	cases := []struct{ w, h int }{{0, 100}, {100, 0}, {-1, 100}, {100, -1}}
	for _, tc := range cases {
		if _, err := New(tc.w, tc.h, nil); !errors.Is(err, apperrors.ErrInvalidDimensions) {
			t.Errorf("New(%d,%d): got %v, want ErrInvalidDimensions", tc.w, tc.h, err)
		}
	}
}

func TestAdd_PreservesZOrder(t *testing.T) {
	sc := newTestScene(t)
	a := NewText("a", 20, "#000000")
	b := NewText("b", 20, "#000000")
	c := NewShape(ShapeRect, 50, 50, "#ff0000")
	sc.Add(a)
	sc.Add(b)
	sc.Add(c)

	objs := sc.Objects()
	if len(objs) != 3 {
		t.Fatalf("objects: got %d, want 3", len(objs))
	}
	if objs[0] != a || objs[1] != b || objs[2] != c {
		t.Error("insertion order not preserved")
	}

	sc.Remove(b)
	objs = sc.Objects()
	if len(objs) != 2 || objs[0] != a || objs[1] != c {
		t.Error("removal broke relative z-order")
	}
}

func TestRemove_ActiveObjectClearsSelection(t *testing.T) {
	sc := newTestScene(t)
	obj := NewText("a", 20, "#000000")
	sc.Add(obj)
	sc.SetActive(obj)

	sc.Remove(obj)

	if sc.ActiveObject() != nil {
		t.Error("selection survived removal of the active object")
	}
}

func TestActiveImage_PrefersSelectionThenZOrder(t *testing.T) {
	sc := newTestScene(t)
	if sc.ActiveImage() != nil {
		t.Fatal("ActiveImage on empty scene: want nil")
	}

	first := NewImage(newTestImage(10, 10), "")
	second := NewImage(newTestImage(10, 10), "")
	text := NewText("caption", 20, "#000000")
	sc.Add(first)
	sc.Add(second)
	sc.Add(text)

	if got := sc.ActiveImage(); got != first {
		t.Error("no selection: want first image in z-order")
	}

	sc.SetActive(second)
	if got := sc.ActiveImage(); got != second {
		t.Error("image selected: want the selection")
	}

	sc.SetActive(text)
	if got := sc.ActiveImage(); got != first {
		t.Error("non-image selected: want fallback to first image")
	}
}

func TestSetDimensions_LeavesObjectPositionsAlone(t *testing.T) {
	sc := newTestScene(t)
	obj := NewText("a", 20, "#000000")
	obj.Left, obj.Top = 200, 150
	sc.Add(obj)

	if err := sc.SetDimensions(800, 600); err != nil {
		t.Fatalf("SetDimensions: %v", err)
	}

	if obj.Left != 200 || obj.Top != 150 {
		t.Errorf("position moved to (%v,%v), want (200,150)", obj.Left, obj.Top)
	}
	if sc.Width() != 800 || sc.Height() != 600 {
		t.Errorf("dimensions: got %dx%d, want 800x600", sc.Width(), sc.Height())
	}
}

func TestOnChange_EventsAndUnsubscribe(t *testing.T) {
	sc := newTestScene(t)
	var got []ChangeKind
	unsub := sc.OnChange(func(ev Event) { got = append(got, ev.Kind) })

	obj := NewText("a", 20, "#000000")
	sc.Add(obj)
	sc.SetActive(obj)
	sc.MarkModified(obj)
	sc.Remove(obj)

	want := []ChangeKind{ChangeAdded, ChangeSelected, ChangeModified, ChangeRemoved}
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}

	unsub()
	sc.Add(NewText("b", 20, "#000000"))
	if len(got) != len(want) {
		t.Error("listener fired after unsubscribe")
	}
}

func TestSerializeRestore_RoundTrip(t *testing.T) {
	sc := newTestScene(t)
	sc.SetBackground("#112233")

	img := NewImage(newTestImage(16, 12), "https://blobs.example.com/a.png")
	img.Left, img.Top = 100, 80
	img.ScaleX, img.ScaleY = 2, 2
	img.Image.Filters = filter.Compute(map[filter.Kind]int{filter.Brightness: 25})
	sc.Add(img)

	text := NewText("hello", 32, "#ff00ff")
	text.Left, text.Top = 50, 40
	text.Angle = 0.5
	sc.Add(text)

	shape := NewShape(ShapeEllipse, 60, 30, "#00ff00")
	sc.Add(shape)

	snap, err := sc.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	dst := newTestScene(t)
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if dst.Width() != 400 || dst.Height() != 300 {
		t.Errorf("dimensions: got %dx%d, want 400x300", dst.Width(), dst.Height())
	}
	if dst.Background() != "#112233" {
		t.Errorf("background: got %s, want #112233", dst.Background())
	}

	objs := dst.Objects()
	if len(objs) != 3 {
		t.Fatalf("objects: got %d, want 3", len(objs))
	}

	ri := objs[0]
	if ri.Kind != KindImage || ri.Left != 100 || ri.Top != 80 || ri.ScaleX != 2 {
		t.Errorf("image object mismatch: %+v", ri)
	}
	if ri.Image.Src == nil {
		t.Error("image pixels not restored")
	}
	if ri.Image.Width != 16 || ri.Image.Height != 12 {
		t.Errorf("image dims: got %dx%d, want 16x12", ri.Image.Width, ri.Image.Height)
	}
	values := filter.Extract(ri.Image.Filters)
	if values[filter.Brightness] != 25 {
		t.Errorf("brightness filter: got %d, want 25", values[filter.Brightness])
	}

	rt := objs[1]
	if rt.Kind != KindText || rt.Text.Value != "hello" || rt.Text.FontSize != 32 || rt.Angle != 0.5 {
		t.Errorf("text object mismatch: %+v", rt)
	}

	rs := objs[2]
	if rs.Kind != KindShape || rs.Shape.Form != ShapeEllipse || rs.Shape.Width != 60 {
		t.Errorf("shape object mismatch: %+v", rs)
	}
}

func TestRestore_MalformedLeavesSceneUntouched(t *testing.T) {
	cases := []struct {
		name string
		snap string
	}{
		{"not json", `{{{`},
		{"wrong version", `{"version":99,"width":100,"height":100}`},
		{"zero dimensions", `{"version":1,"width":0,"height":100}`},
		{"missing payload", `{"version":1,"width":100,"height":100,"background":"#fff","objects":[{"kind":"text"}]}`},
		{"unknown kind", `{"version":1,"width":100,"height":100,"background":"#fff","objects":[{"kind":"blob"}]}`},
		{"bad pixels", `{"version":1,"width":100,"height":100,"background":"#fff","objects":[{"kind":"image","image":{"pixels":"!!!"}}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := newTestScene(t)
			sc.SetBackground("#abcdef")
			sc.Add(NewText("keep me", 20, "#000000"))

			err := sc.Restore(Snapshot(tc.snap))
			if !errors.Is(err, apperrors.ErrMalformedSnapshot) {
				t.Fatalf("Restore: got %v, want ErrMalformedSnapshot", err)
			}

			if got := len(sc.Objects()); got != 1 {
				t.Errorf("objects: got %d, want 1", got)
			}
			if sc.Background() != "#abcdef" {
				t.Errorf("background changed to %s", sc.Background())
			}
			if sc.Width() != 400 || sc.Height() != 300 {
				t.Errorf("dimensions changed to %dx%d", sc.Width(), sc.Height())
			}
		})
	}
}

func TestDispose_SilencesListeners(t *testing.T) {
	sc := newTestScene(t)
	fired := 0
	sc.OnChange(func(Event) { fired++ })

	sc.Dispose()
	sc.Add(NewText("a", 20, "#000000"))

	if fired != 0 {
		t.Errorf("listener fired %d times after dispose", fired)
	}
	if !sc.Disposed() {
		t.Error("Disposed() false after Dispose")
	}
}
