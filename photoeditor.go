// Package photoeditor is a headless raster image editor: a scene of image,
// text and shape objects with adjustable filters, snapshot-based undo/redo,
// viewport fitting, credit-gated remote edits, and multi-format export.
package photoeditor

import (
	"context"
	"image"

	"github.com/Skryldev/photo-editor/adapters/decoder"
	"github.com/Skryldev/photo-editor/adapters/encoder"
	"github.com/Skryldev/photo-editor/config"
	"github.com/Skryldev/photo-editor/core"
	"github.com/Skryldev/photo-editor/export"
	"github.com/Skryldev/photo-editor/filter"
	"github.com/Skryldev/photo-editor/history"
	"github.com/Skryldev/photo-editor/render"
	"github.com/Skryldev/photo-editor/scene"
	"github.com/Skryldev/photo-editor/session"
	"github.com/Skryldev/photo-editor/viewport"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Deps bundles the external collaborators an Editor needs.  Logger and
// Notifier are required; Store, Remote and Credits may be nil for
// offline-only use, which disables the remote edit operations.
type Deps struct {
	Store    core.BlobStore
	Remote   core.RemoteEditor
	Credits  core.CreditLedger
	Logger   core.Logger
	Notifier core.Notifier
	Hooks    []core.Hook
}

// Editor is the primary entry point.  It wires the codec registry, renderer,
// exporter and session together; most per-project work happens on the
// Session returned by, or embedded in, the editor.
type Editor struct {
	cfg     config.Config
	reg     *core.DefaultRegistry
	session *session.Session
}

// New creates a fully wired Editor with default JPEG, PNG, and WebP codecs
// registered.  Pass a custom config.Config to override defaults.
func New(cfg config.Config, deps Deps) (*Editor, error) {
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.DefaultQuality))
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())
	reg.RegisterEncoder(core.FormatWebP, encoder.NewWebP(cfg.DefaultQuality))

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	exporter := export.New(reg, renderer, cfg.DefaultQuality, deps.Logger)

	sess, err := session.New(cfg, session.Deps{
		Registry: reg,
		Exporter: exporter,
		Store:    deps.Store,
		Remote:   deps.Remote,
		Credits:  deps.Credits,
		Logger:   deps.Logger,
		Notifier: deps.Notifier,
		Hooks:    deps.Hooks,
	})
	if err != nil {
		return nil, err
	}
	return &Editor{cfg: cfg, reg: reg, session: sess}, nil
}

// RegisterDecoder registers a custom decoder for the given format.
func (e *Editor) RegisterDecoder(f core.Format, d core.Decoder) { e.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (e *Editor) RegisterEncoder(f core.Format, enc core.Encoder) { e.reg.RegisterEncoder(f, enc) }

// Session returns the underlying session for direct access.
func (e *Editor) Session() *session.Session { return e.session }

// OpenProject loads a project and makes it current.
func (e *Editor) OpenProject(ctx context.Context, p core.Project) error {
	return e.session.OpenProject(ctx, p)
}

// Scene returns the current scene, or nil when no project is open.
func (e *Editor) Scene() *scene.Scene { return e.session.Scene() }

// History returns the undo/redo manager.
func (e *Editor) History() *history.Manager { return e.session.History() }

// Viewport returns the viewport controller.
func (e *Editor) Viewport() *viewport.Controller { return e.session.Viewport() }

// SetTool switches the active tool.
func (e *Editor) SetTool(t session.Tool) { e.session.SetTool(t) }

// Undo reverts the most recent change.
func (e *Editor) Undo() error { return e.session.Undo() }

// Redo reapplies the most recently undone change.
func (e *Editor) Redo() error { return e.session.Redo() }

// ApplyAdjustments sets the target image's filter sliders.
func (e *Editor) ApplyAdjustments(values map[filter.Kind]int) error {
	return e.session.ApplyAdjustments(values)
}

// AdjustmentValues reads the slider values currently in effect.
func (e *Editor) AdjustmentValues() (map[filter.Kind]int, error) {
	return e.session.AdjustmentValues()
}

// ResetAdjustments returns every slider to neutral.
func (e *Editor) ResetAdjustments() error { return e.session.ResetAdjustments() }

// AddText places a text object at the canvas center and selects it.
func (e *Editor) AddText(value string, fontSize float64, fill string) (*scene.Object, error) {
	return e.session.AddText(value, fontSize, fill)
}

// Crop reduces the canvas to the given region.
func (e *Editor) Crop(x, y, width, height int) error { return e.session.Crop(x, y, width, height) }

// CropImage crops the target image's own pixels.
func (e *Editor) CropImage(rect image.Rectangle) error { return e.session.CropImage(rect) }

// ApplyResize changes the logical canvas dimensions.
func (e *Editor) ApplyResize(width, height int) error { return e.session.ApplyResize(width, height) }

// ApplyAspectPreset resizes to an aspect ratio at roughly constant area.
func (e *Editor) ApplyAspectPreset(r viewport.AspectRatio) error {
	return e.session.ApplyAspectPreset(r)
}

// RemoveBackground cuts the subject out of the target image.
func (e *Editor) RemoveBackground(ctx context.Context) error {
	return e.session.RemoveBackground(ctx)
}

// ChangeBackground replaces the background from a text prompt.
func (e *Editor) ChangeBackground(ctx context.Context, prompt string) error {
	return e.session.ChangeBackground(ctx, prompt)
}

// EditImage applies a free-form prompt edit.
func (e *Editor) EditImage(ctx context.Context, prompt string, extraURLs []string) error {
	return e.session.EditImage(ctx, prompt, extraURLs)
}

// Upscale increases the target image's resolution.
func (e *Editor) Upscale(ctx context.Context) error { return e.session.Upscale(ctx) }

// Restore repairs damage and compression artifacts.
func (e *Editor) Restore(ctx context.Context) error { return e.session.Restore(ctx) }

// Export renders the scene at its logical dimensions and encodes it.
func (e *Editor) Export(ctx context.Context, opts core.EncodeOptions) ([]byte, error) {
	return e.session.Export(ctx, opts)
}

// Close releases the editor and its open scene.
func (e *Editor) Close() { e.session.Close() }
