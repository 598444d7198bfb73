package photoeditor_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	photoeditor "github.com/Skryldev/photo-editor"
	"github.com/Skryldev/photo-editor/adapters/storage"
	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/filter"
	"github.com/Skryldev/photo-editor/hooks"
	"github.com/Skryldev/photo-editor/viewport"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func newGradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(255 * x / w),
				G: uint8(255 * y / h),
				B: 120,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func newEditor(t *testing.T) (*photoeditor.Editor, *storage.Local) {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir(), 0o644)
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}

	editor, err := photoeditor.New(photoeditor.DefaultConfig(), photoeditor.Deps{
		Store:    store,
		Credits:  hooks.NewMemoryLedger(10),
		Logger:   hooks.NopLogger{},
		Notifier: hooks.NewChannelNotifier(4),
	})
	if err != nil {
		t.Fatalf("photoeditor.New: %v", err)
	}
	t.Cleanup(editor.Close)
	return editor, store
}

func openGradientProject(t *testing.T, editor *photoeditor.Editor, store *storage.Local, canvasW, canvasH int) {
	t.Helper()
	ref, err := store.Upload(context.Background(), newGradientPNG(t, 120, 90), "source.png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	err = editor.OpenProject(context.Background(), core.Project{
		ID:        "test",
		SourceURL: ref.URL,
		FileID:    ref.ID,
		Width:     canvasW,
		Height:    canvasH,
	})
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
}

// ── Export ────────────────────────────────────────────────────────────────────

func TestExport_UsesLogicalDimensionsNotZoom(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 300, 200)

	// Zoom the view far out; the export must not notice.
	editor.Viewport().SetContainerSize(100, 100, editor.Scene())
	if editor.Viewport().Transform().Zoom >= 1 {
		t.Fatal("test setup: expected a zoomed-out viewport")
	}

	data, err := editor.Export(context.Background(), core.EncodeOptions{Format: photoeditor.PNG})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 300 || b.Dy() != 200 {
		t.Errorf("exported dims: got %dx%d, want 300x200", b.Dx(), b.Dy())
	}
}

func TestExport_RestoresViewportTransform(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 300, 200)

	editor.Viewport().SetTransform(viewport.Transform{Zoom: 0.25, TranslateX: 10, TranslateY: -5})
	before := editor.Viewport().Transform()

	if _, err := editor.Export(context.Background(), core.EncodeOptions{Format: photoeditor.JPEG, Quality: 80}); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if got := editor.Viewport().Transform(); got != before {
		t.Errorf("viewport transform: got %+v, want %+v", got, before)
	}
}

func TestExport_RepeatedExportsAreByteIdentical(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 300, 200)

	// Noise is the only nondeterministic-looking filter; it must still
	// produce identical bytes on re-render.
	err := editor.ApplyAdjustments(map[filter.Kind]int{
		filter.Noise:      250,
		filter.Brightness: 10,
	})
	if err != nil {
		t.Fatalf("ApplyAdjustments: %v", err)
	}

	first, err := editor.Export(context.Background(), core.EncodeOptions{Format: photoeditor.PNG})
	if err != nil {
		t.Fatalf("first Export: %v", err)
	}
	second, err := editor.Export(context.Background(), core.EncodeOptions{Format: photoeditor.PNG})
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("repeated exports differ")
	}
}

func TestExport_TaintedImageBlocksExport(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 300, 200)

	editor.Scene().ActiveImage().Image.Tainted = true

	_, err := editor.Export(context.Background(), core.EncodeOptions{Format: photoeditor.PNG})
	if !errors.Is(err, apperrors.ErrTaintedCanvas) {
		t.Errorf("got %v, want ErrTaintedCanvas", err)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 300, 200)

	_, err := editor.Export(context.Background(), core.EncodeOptions{Format: core.Format("bmp")})
	if !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

// ── End-to-end editing flow ───────────────────────────────────────────────────

func TestEditor_AdjustUndoExportFlow(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 300, 200)

	if err := editor.ApplyAdjustments(map[filter.Kind]int{filter.Brightness: 30}); err != nil {
		t.Fatalf("ApplyAdjustments: %v", err)
	}
	editor.History().Flush()

	if _, err := editor.AddText("watermark", 36, "#ffffff"); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	editor.History().Flush()

	if err := editor.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := len(editor.Scene().Objects()); got != 1 {
		t.Fatalf("objects after undo: got %d, want 1", got)
	}

	// Brightness survives the text undo.
	values, err := editor.AdjustmentValues()
	if err != nil {
		t.Fatalf("AdjustmentValues: %v", err)
	}
	if values[filter.Brightness] != 30 {
		t.Errorf("brightness after undo: got %d, want 30", values[filter.Brightness])
	}

	data, err := editor.Export(context.Background(), core.EncodeOptions{Format: photoeditor.PNG})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty export")
	}
}

func TestEditor_AspectPresetKeepsArea(t *testing.T) {
	editor, store := newEditor(t)
	openGradientProject(t, editor, store, 1200, 800)

	var square viewport.AspectRatio
	for _, r := range viewport.AspectRatios {
		if r.Label == "1:1" {
			square = r
		}
	}

	if err := editor.ApplyAspectPreset(square); err != nil {
		t.Fatalf("ApplyAspectPreset: %v", err)
	}

	sc := editor.Scene()
	if sc.Width() != 980 || sc.Height() != 980 {
		t.Errorf("canvas: got %dx%d, want 980x980", sc.Width(), sc.Height())
	}
}
