package session_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/Skryldev/photo-editor/adapters/decoder"
	"github.com/Skryldev/photo-editor/adapters/encoder"
	"github.com/Skryldev/photo-editor/config"
	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/export"
	"github.com/Skryldev/photo-editor/filter"
	"github.com/Skryldev/photo-editor/hooks"
	"github.com/Skryldev/photo-editor/render"
	"github.com/Skryldev/photo-editor/session"
)

// ── Test doubles ──────────────────────────────────────────────────────────────

type fakeStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	uploads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (f *fakeStore) put(url string, data []byte) {
	f.mu.Lock()
	f.blobs[url] = data
	f.mu.Unlock()
}

func (f *fakeStore) Upload(_ context.Context, data []byte, filename string) (core.BlobRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	url := fmt.Sprintf("mem://upload-%d/%s", f.uploads, filename)
	f.blobs[url] = data
	return core.BlobRef{URL: url, ID: fmt.Sprintf("id-%d", f.uploads)}, nil
}

func (f *fakeStore) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[url]
	if !ok {
		return nil, apperrors.New(apperrors.CategoryStorage, "fake.fetch", apperrors.ErrStorageUnavailable)
	}
	return data, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error { return nil }

type fakeRemote struct {
	mu        sync.Mutex
	calls     int
	lastOp    core.Operation
	lastURLs  []string
	resultURL string
	err       error
	onInvoke  func() // runs mid-call, before the result returns
}

func (f *fakeRemote) Invoke(_ context.Context, op core.Operation, urls []string, _ core.Params) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastOp = op
	f.lastURLs = urls
	hook := f.onInvoke
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.resultURL, nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (f *fakeNotifier) Success(msg string) {
	f.mu.Lock()
	f.successes = append(f.successes, msg)
	f.mu.Unlock()
}

func (f *fakeNotifier) Error(msg string) {
	f.mu.Lock()
	f.errors = append(f.errors, msg)
	f.mu.Unlock()
}

func (f *fakeNotifier) errorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 90, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	sess     *session.Session
	store    *fakeStore
	remote   *fakeRemote
	ledger   *hooks.MemoryLedger
	notifier *fakeNotifier
}

func newFixture(t *testing.T, credits int) *fixture {
	t.Helper()

	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(85))

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	logger := hooks.NopLogger{}

	f := &fixture{
		store:    newFakeStore(),
		remote:   &fakeRemote{},
		ledger:   hooks.NewMemoryLedger(credits),
		notifier: &fakeNotifier{},
	}

	cfg := config.Default()
	cfg.DebounceWindow = 10 * time.Millisecond // keep tests fast
	sess, err := session.New(cfg, session.Deps{
		Registry: reg,
		Exporter: export.New(reg, renderer, cfg.DefaultQuality, logger),
		Store:    f.store,
		Remote:   f.remote,
		Credits:  f.ledger,
		Logger:   logger,
		Notifier: f.notifier,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	f.sess = sess
	t.Cleanup(sess.Close)
	return f
}

func (f *fixture) openProject(t *testing.T) {
	t.Helper()
	f.store.put("mem://source.png", encodePNG(t, 100, 80))
	err := f.sess.OpenProject(context.Background(), core.Project{
		ID:        "p1",
		SourceURL: "mem://source.png",
		Width:     200,
		Height:    150,
	})
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}
}

func (f *fixture) balance(t *testing.T) int {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	return bal
}

// ── Project lifecycle ─────────────────────────────────────────────────────────

func TestOpenProject_LoadsCenteredFittedImage(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)

	sc := f.sess.Scene()
	objs := sc.Objects()
	if len(objs) != 1 {
		t.Fatalf("objects: got %d, want 1", len(objs))
	}
	img := objs[0]
	if img.Left != 100 || img.Top != 75 {
		t.Errorf("image not centered: (%v,%v), want (100,75)", img.Left, img.Top)
	}
	// fit scale = min(200/100, 150/80) = 1.875
	if img.ScaleX != 1.875 || img.ScaleY != 1.875 {
		t.Errorf("fit scale: got (%v,%v), want 1.875", img.ScaleX, img.ScaleY)
	}
}

func TestOpenProject_DisposesPreviousScene(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	old := f.sess.Scene()

	f.openProject(t)

	if !old.Disposed() {
		t.Error("previous scene not disposed")
	}
	if f.sess.Scene() == old {
		t.Error("scene not replaced")
	}
}

// ── Adjustments ───────────────────────────────────────────────────────────────

func TestAdjustments_ApplyReadBackReset(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)

	if err := f.sess.ApplyAdjustments(map[filter.Kind]int{filter.Brightness: 20}); err != nil {
		t.Fatalf("ApplyAdjustments: %v", err)
	}
	values, err := f.sess.AdjustmentValues()
	if err != nil {
		t.Fatalf("AdjustmentValues: %v", err)
	}
	if values[filter.Brightness] != 20 {
		t.Errorf("brightness: got %d, want 20", values[filter.Brightness])
	}

	// A second apply replaces the whole list: brightness not carried over
	// unless passed again.
	if err := f.sess.ApplyAdjustments(map[filter.Kind]int{filter.Contrast: -15}); err != nil {
		t.Fatalf("ApplyAdjustments: %v", err)
	}
	values, _ = f.sess.AdjustmentValues()
	if values[filter.Brightness] != 0 {
		t.Errorf("brightness survived wholesale replacement: %d", values[filter.Brightness])
	}
	if values[filter.Contrast] != -15 {
		t.Errorf("contrast: got %d, want -15", values[filter.Contrast])
	}

	if err := f.sess.ResetAdjustments(); err != nil {
		t.Fatalf("ResetAdjustments: %v", err)
	}
	values, _ = f.sess.AdjustmentValues()
	for k, w := range filter.Defaults() {
		if values[k] != w {
			t.Errorf("%s after reset: got %d, want %d", k, values[k], w)
		}
	}
}

func TestAdjustments_NoImage(t *testing.T) {
	f := newFixture(t, 5)
	err := f.sess.OpenProject(context.Background(), core.Project{ID: "empty", Width: 200, Height: 150})
	if err != nil {
		t.Fatalf("OpenProject: %v", err)
	}

	if err := f.sess.ApplyAdjustments(map[filter.Kind]int{filter.Brightness: 10}); !errors.Is(err, apperrors.ErrNoActiveImage) {
		t.Errorf("got %v, want ErrNoActiveImage", err)
	}
}

// ── Tool switching ────────────────────────────────────────────────────────────

func TestAddText_SwitchesToTextTool(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	f.sess.SetTool(session.ToolAdjust)

	obj, err := f.sess.AddText("hello", 48, "#ffffff")
	if err != nil {
		t.Fatalf("AddText: %v", err)
	}

	if got := f.sess.ActiveTool(); got != session.ToolText {
		t.Errorf("tool: got %s, want %s", got, session.ToolText)
	}
	if f.sess.Scene().ActiveObject() != obj {
		t.Error("text object not selected")
	}
	cx, cy := f.sess.Scene().Center()
	if obj.Left != cx || obj.Top != cy {
		t.Errorf("text not centered: (%v,%v), want (%v,%v)", obj.Left, obj.Top, cx, cy)
	}
}

func TestOnToolChange_NotifiesAndUnsubscribes(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)

	var seen []session.Tool
	unsub := f.sess.OnToolChange(func(tl session.Tool) { seen = append(seen, tl) })

	f.sess.SetTool(session.ToolCrop)
	f.sess.SetTool(session.ToolCrop) // no change, no event
	f.sess.SetTool(session.ToolResize)
	unsub()
	f.sess.SetTool(session.ToolAdjust)

	want := []session.Tool{session.ToolCrop, session.ToolResize}
	if len(seen) != len(want) {
		t.Fatalf("events: got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestSelectImage_DoesNotSwitchTool(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	f.sess.SetTool(session.ToolAdjust)

	f.sess.Select(f.sess.Scene().ActiveImage())

	if got := f.sess.ActiveTool(); got != session.ToolAdjust {
		t.Errorf("tool: got %s, want %s", got, session.ToolAdjust)
	}
}

// ── Canvas ops ────────────────────────────────────────────────────────────────

func TestCrop_ShiftsObjectsAndResizes(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	img := f.sess.Scene().ActiveImage()

	if err := f.sess.Crop(50, 25, 100, 100); err != nil {
		t.Fatalf("Crop: %v", err)
	}

	sc := f.sess.Scene()
	if sc.Width() != 100 || sc.Height() != 100 {
		t.Errorf("canvas: got %dx%d, want 100x100", sc.Width(), sc.Height())
	}
	if img.Left != 50 || img.Top != 50 {
		t.Errorf("image origin: got (%v,%v), want (50,50)", img.Left, img.Top)
	}
}

func TestCrop_RejectsOutOfBounds(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)

	for _, c := range [][4]int{
		{150, 0, 100, 100}, // x+w past right edge
		{0, 100, 100, 100}, // y+h past bottom edge
		{-10, 0, 100, 100},
		{0, 0, 50, 100}, // below MinCanvasPx
	} {
		if err := f.sess.Crop(c[0], c[1], c[2], c[3]); !errors.Is(err, apperrors.ErrInvalidDimensions) {
			t.Errorf("Crop(%v): got %v, want ErrInvalidDimensions", c, err)
		}
	}
}

// ── Remote operations ─────────────────────────────────────────────────────────

func TestRemoteOp_InsufficientCreditsShortCircuits(t *testing.T) {
	f := newFixture(t, 0)
	f.openProject(t)

	err := f.sess.RemoveBackground(context.Background())
	if !errors.Is(err, apperrors.ErrInsufficientCredits) {
		t.Fatalf("got %v, want ErrInsufficientCredits", err)
	}
	if f.remote.callCount() != 0 {
		t.Error("remote called despite failed credit gate")
	}
	if f.notifier.errorCount() == 0 {
		t.Error("user not notified")
	}
}

func TestRemoteOp_SuccessSwapsImageAndDeducts(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	f.store.put("mem://result.png", encodePNG(t, 64, 48))
	f.remote.resultURL = "mem://result.png"

	if err := f.sess.RemoveBackground(context.Background()); err != nil {
		t.Fatalf("RemoveBackground: %v", err)
	}

	img := f.sess.Scene().ActiveImage()
	if img.Image.Width != 64 || img.Image.Height != 48 {
		t.Errorf("image dims: got %dx%d, want 64x48", img.Image.Width, img.Image.Height)
	}
	if img.Image.SourceURL != "mem://result.png" {
		t.Errorf("source url: got %s", img.Image.SourceURL)
	}
	if got := f.balance(t); got != 4 {
		t.Errorf("balance: got %d, want 4", got)
	}
	if f.remote.lastOp != core.OpRemoveBackground {
		t.Errorf("operation: got %s", f.remote.lastOp)
	}
	if f.sess.ProcessingMessage() != "" {
		t.Error("processing message not cleared")
	}
}

func TestRemoteOp_FailureCostsNothing(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	f.remote.err = errors.New("backend exploded")
	img := f.sess.Scene().ActiveImage()
	origURL := img.Image.SourceURL

	err := f.sess.Upscale(context.Background())
	if err == nil {
		t.Fatal("Upscale: want error")
	}
	if got := f.balance(t); got != 5 {
		t.Errorf("balance after failure: got %d, want 5", got)
	}
	if img.Image.SourceURL != origURL {
		t.Error("image swapped despite failure")
	}
	if f.notifier.errorCount() == 0 {
		t.Error("user not notified of failure")
	}
}

func TestRemoteOp_StaleResultDiscarded(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	f.store.put("mem://result.png", encodePNG(t, 64, 48))
	f.remote.resultURL = "mem://result.png"
	// Switch projects while the service call is in flight.
	f.remote.onInvoke = func() { f.openProject(t) }

	err := f.sess.ChangeBackground(context.Background(), "make it night")
	if !errors.Is(err, apperrors.ErrStaleResult) {
		t.Fatalf("got %v, want ErrStaleResult", err)
	}

	if got := f.balance(t); got != 5 {
		t.Errorf("balance after discarded result: got %d, want 5", got)
	}
	img := f.sess.Scene().ActiveImage()
	if img.Image.SourceURL == "mem://result.png" {
		t.Error("stale result applied to the new scene")
	}
}

func TestEditImage_EnforcesUploadLimit(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)

	extra := make([]string, 8) // +1 canvas image exceeds the default limit of 8
	err := f.sess.EditImage(context.Background(), "add a hat", extra)
	if err == nil {
		t.Fatal("EditImage: want error")
	}
	if f.remote.callCount() != 0 {
		t.Error("remote called despite limit violation")
	}
}

func TestRemoteOp_PassesExtraURLs(t *testing.T) {
	f := newFixture(t, 5)
	f.openProject(t)
	f.store.put("mem://result.png", encodePNG(t, 32, 32))
	f.remote.resultURL = "mem://result.png"

	if err := f.sess.EditImage(context.Background(), "blend these", []string{"mem://ref1.png", "mem://ref2.png"}); err != nil {
		t.Fatalf("EditImage: %v", err)
	}

	if len(f.remote.lastURLs) != 3 {
		t.Fatalf("urls: got %d, want 3", len(f.remote.lastURLs))
	}
	if f.remote.lastURLs[0] != "mem://source.png" {
		t.Errorf("canvas image not first: %v", f.remote.lastURLs)
	}
}
