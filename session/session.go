// Package session coordinates a single editing session: one open project, its
// scene, history, viewport, and the tool state driving them.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skryldev/photo-editor/config"
	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/export"
	"github.com/Skryldev/photo-editor/history"
	"github.com/Skryldev/photo-editor/scene"
	"github.com/Skryldev/photo-editor/viewport"
)

// Tool identifies the active editing tool.
type Tool string

const (
	ToolNone       Tool = ""
	ToolResize     Tool = "resize"
	ToolCrop       Tool = "crop"
	ToolAdjust     Tool = "adjust"
	ToolText       Tool = "text"
	ToolBackground Tool = "background"
)

// Deps bundles the collaborators a Session needs.  Registry, Logger and
// Notifier are required; Store, Remote and Credits may be nil when the build
// is offline-only, in which case remote operations fail with a storage error.
type Deps struct {
	Registry core.Registry
	Exporter *export.Exporter
	Store    core.BlobStore
	Remote   core.RemoteEditor
	Credits  core.CreditLedger
	Logger   core.Logger
	Notifier core.Notifier
	Hooks    []core.Hook
}

// Session owns the mutable editing state for one user working on one project
// at a time.  Methods are safe for concurrent use; internally the session
// never holds its own lock while calling into the scene, so scene change
// listeners can call back into the session.
type Session struct {
	cfg  config.Config
	deps Deps

	mu         sync.Mutex
	sc         *scene.Scene
	hist       *history.Manager
	vp         *viewport.Controller
	project    core.Project
	activeTool Tool
	processing string // user-visible message while a remote job runs
	unsubSel   func()

	toolListeners map[int]func(Tool)
	nextToolSub   int

	// generation fences remote responses: a response whose generation no
	// longer matches is for a scene the user has already left.
	generation atomic.Uint64
}

// New creates a Session.  No project is open until OpenProject succeeds.
func New(cfg config.Config, deps Deps) (*Session, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "session.new", err)
	}
	s := &Session{
		cfg:  cfg,
		deps: deps,
		hist: history.New(cfg.MaxHistoryDepth, cfg.DebounceWindow, deps.Logger, deps.Notifier),
		vp:   viewport.NewController(cfg.ContainerPadding, cfg.MinCanvasPx, cfg.MaxCanvasPx),
	}
	return s, nil
}

// OpenProject loads p and makes it the session's current project.  Any
// previously open scene is detached from history and disposed first, so its
// listeners and pending captures cannot leak into the new project.
func (s *Session) OpenProject(ctx context.Context, p core.Project) error {
	sc, err := scene.LoadProject(ctx, p, s.deps.Store, s.deps.Registry, s.deps.Logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old, oldUnsub := s.sc, s.unsubSel
	s.sc = sc
	s.project = p
	s.activeTool = ToolNone
	s.processing = ""
	s.mu.Unlock()
	s.generation.Add(1)

	if oldUnsub != nil {
		oldUnsub()
	}
	s.hist.Detach()
	if old != nil {
		old.Dispose()
	}

	// Selecting a text object puts the user straight into the text tool.
	unsub := sc.OnChange(func(ev scene.Event) {
		if ev.Kind == scene.ChangeSelected && ev.Object != nil && ev.Object.Kind == scene.KindText {
			s.SetTool(ToolText)
		}
	})
	s.mu.Lock()
	s.unsubSel = unsub
	s.mu.Unlock()

	s.vp.Refit(sc)
	if err := s.hist.ObserveScene(sc); err != nil {
		return err
	}

	s.deps.Logger.Info("project opened",
		"project", p.ID,
		"width", p.Width,
		"height", p.Height,
	)
	return nil
}

// Scene returns the current scene, or nil when no project is open.
func (s *Session) Scene() *scene.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sc
}

// Project returns the metadata of the open project.
func (s *Session) Project() core.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// History returns the session's history manager.
func (s *Session) History() *history.Manager { return s.hist }

// Viewport returns the session's viewport controller.
func (s *Session) Viewport() *viewport.Controller { return s.vp }

// SetTool switches the active tool and notifies tool-change listeners.
func (s *Session) SetTool(t Tool) {
	s.mu.Lock()
	prev := s.activeTool
	s.activeTool = t
	var listeners []func(Tool)
	if prev != t {
		listeners = make([]func(Tool), 0, len(s.toolListeners))
		for _, fn := range s.toolListeners {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()
	if prev != t {
		s.deps.Logger.Debug("tool switched", "from", string(prev), "to", string(t))
		for _, fn := range listeners {
			fn(t)
		}
	}
}

// OnToolChange registers fn to run whenever the active tool changes.  The
// returned function removes the registration.
func (s *Session) OnToolChange(fn func(Tool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toolListeners == nil {
		s.toolListeners = make(map[int]func(Tool))
	}
	id := s.nextToolSub
	s.nextToolSub++
	s.toolListeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.toolListeners, id)
	}
}

// ActiveTool returns the active tool.
func (s *Session) ActiveTool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTool
}

// ProcessingMessage returns the user-visible message for the remote job in
// flight, or "" when the session is idle.
func (s *Session) ProcessingMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

func (s *Session) setProcessing(msg string) {
	s.mu.Lock()
	s.processing = msg
	s.mu.Unlock()
}

// Undo reverts the most recent scene change.
func (s *Session) Undo() error { return s.instrument(context.Background(), "undo", s.hist.Undo) }

// Redo reapplies the most recently undone change.
func (s *Session) Redo() error { return s.instrument(context.Background(), "redo", s.hist.Redo) }

// Export renders the scene at its logical dimensions and encodes it.
func (s *Session) Export(ctx context.Context, opts core.EncodeOptions) ([]byte, error) {
	sc := s.Scene()
	if sc == nil {
		return nil, apperrors.New(apperrors.CategoryExport, "session.export", apperrors.ErrNoActiveImage)
	}

	s.setProcessing("Preparing your download...")
	defer s.setProcessing("")

	var data []byte
	err := s.instrument(ctx, "export", func() error {
		var err error
		data, err = s.deps.Exporter.Export(ctx, sc, s.vp, opts)
		return err
	})
	return data, err
}

// Close releases the session.  The open scene, if any, is disposed.
func (s *Session) Close() {
	s.mu.Lock()
	sc, unsub := s.sc, s.unsubSel
	s.sc = nil
	s.unsubSel = nil
	s.mu.Unlock()
	s.generation.Add(1)

	if unsub != nil {
		unsub()
	}
	s.hist.Detach()
	if sc != nil {
		sc.Dispose()
	}
}

// instrument runs fn surrounded by the registered hooks.
func (s *Session) instrument(ctx context.Context, action string, fn func() error) error {
	for _, h := range s.deps.Hooks {
		h.BeforeAction(ctx, action)
	}
	start := time.Now()
	err := fn()
	for _, h := range s.deps.Hooks {
		h.AfterAction(ctx, action, time.Since(start), err)
	}
	return err
}
