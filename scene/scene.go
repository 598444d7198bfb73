// Package scene holds the authoritative in-memory representation of the
// editable canvas: logical dimensions, background, and the ordered object
// list.  Slice order is z-order; later objects render on top.
package scene

import (
	"sync"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
)

// ChangeKind classifies scene change events.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
	ChangeSelected ChangeKind = "selected"
	ChangeRestored ChangeKind = "restored"
)

// Event describes a single scene change.  Object is nil for whole-scene
// events such as ChangeRestored.
type Event struct {
	Kind   ChangeKind
	Object *Object
}

// Scene is the mutable scene graph.  All mutation goes through its mutex,
// the Go stand-in for the original's single UI thread.
type Scene struct {
	mu         sync.Mutex
	width      int
	height     int
	background string
	objects    []*Object
	active     *Object
	disposed   bool

	listeners    map[int]func(Event)
	nextListener int

	logger core.Logger
}

// New creates an empty scene with a white background.  Width and height must
// be positive; the caller validates tool bounds, the scene only guards the
// structural invariant.
func New(width, height int, logger core.Logger) (*Scene, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.New(apperrors.CategoryValidation, "scene.new", apperrors.ErrInvalidDimensions)
	}
	return &Scene{
		width:      width,
		height:     height,
		background: "#ffffff",
		listeners:  make(map[int]func(Event)),
		logger:     logger,
	}, nil
}

// Width returns the logical pixel width.
func (s *Scene) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

// Height returns the logical pixel height.
func (s *Scene) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height
}

// Center returns the scene center in logical coordinates.
func (s *Scene) Center() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.width) / 2, float64(s.height) / 2
}

// Background returns the background color as a hex string.
func (s *Scene) Background() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

// SetBackground sets the background color.
func (s *Scene) SetBackground(hex string) {
	s.mu.Lock()
	s.background = hex
	s.mu.Unlock()
	s.notify(Event{Kind: ChangeModified})
}

// SetDimensions rewrites the logical dimensions.  Object positions and scales
// are intentionally left untouched: shrinking crops the composition, growing
// adds blank margin.
func (s *Scene) SetDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return apperrors.New(apperrors.CategoryValidation, "scene.set_dimensions", apperrors.ErrInvalidDimensions)
	}
	s.mu.Lock()
	s.width = width
	s.height = height
	s.mu.Unlock()
	s.notify(Event{Kind: ChangeModified})
	return nil
}

// Add appends obj to the top of the z-order.
func (s *Scene) Add(obj *Object) {
	s.mu.Lock()
	s.objects = append(s.objects, obj)
	s.mu.Unlock()
	s.notify(Event{Kind: ChangeAdded, Object: obj})
}

// Remove deletes obj from the scene.  Removing the active object clears the
// selection.
func (s *Scene) Remove(obj *Object) {
	s.mu.Lock()
	removed := false
	for i, o := range s.objects {
		if o == obj {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			removed = true
			break
		}
	}
	if s.active == obj {
		s.active = nil
	}
	s.mu.Unlock()
	if removed {
		s.notify(Event{Kind: ChangeRemoved, Object: obj})
	}
}

// Objects returns a copy of the object list in z-order.
func (s *Scene) Objects() []*Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Object, len(s.objects))
	copy(out, s.objects)
	return out
}

// SetActive marks obj as the current selection.
func (s *Scene) SetActive(obj *Object) {
	s.mu.Lock()
	s.active = obj
	s.mu.Unlock()
	if obj != nil {
		s.notify(Event{Kind: ChangeSelected, Object: obj})
	}
}

// ActiveObject returns the current selection, or nil.
func (s *Scene) ActiveObject() *Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ActiveImage resolves the image that adjustment tools target: the current
// selection when it is an image, otherwise the first image in z-order.  The
// fallback is a convenience default and can be surprising when several images
// are present; callers that need precision should select explicitly.
func (s *Scene) ActiveImage() *Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.Kind == KindImage {
		return s.active
	}
	for _, o := range s.objects {
		if o.Kind == KindImage {
			return o
		}
	}
	return nil
}

// MarkModified reports an in-place mutation of obj (position drag, filter
// replacement, crop) to subscribers.
func (s *Scene) MarkModified(obj *Object) {
	s.notify(Event{Kind: ChangeModified, Object: obj})
}

// OnChange registers a change listener and returns its unsubscribe function.
func (s *Scene) OnChange(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispose detaches all listeners and marks the scene unusable for further
// notification.  Switching projects disposes the old scene before the new
// one takes over the rendering surface.
func (s *Scene) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.listeners = make(map[int]func(Event))
	s.mu.Unlock()
}

// Disposed reports whether Dispose has been called.
func (s *Scene) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

func (s *Scene) notify(ev Event) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
