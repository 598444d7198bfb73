// Package history implements the snapshot-based undo/redo stack.  Change
// detection is event-driven but debounced: a drag gesture with dozens of
// intermediate modify events settles into a single history entry.
package history

import (
	"sync"
	"time"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/scene"
)

// Manager owns the two snapshot stacks.  Invariant: the top of the undo stack
// always holds the CURRENT rendered state, so undo never drains past the
// initial load.
type Manager struct {
	mu   sync.Mutex
	undo [][]byte
	redo [][]byte

	// suppress is set while a programmatic undo/redo application is in
	// flight; without it the change listener would re-record the very state
	// being restored, instantly overwriting the undo.
	suppress bool

	maxDepth int
	deb      *Debouncer
	sc       *scene.Scene
	unsub    func()

	logger   core.Logger
	notifier core.Notifier
}

// New creates an empty Manager.
func New(maxDepth int, window time.Duration, logger core.Logger, notifier core.Notifier) *Manager {
	m := &Manager{
		maxDepth: maxDepth,
		logger:   logger,
		notifier: notifier,
	}
	m.deb = NewDebouncer(window, m.capture)
	return m
}

// ObserveScene attaches the manager to sc: the current state is recorded as
// the initial snapshot, and subsequent add/remove/modify events schedule a
// debounced capture.  Any previous observation is detached first.
func (m *Manager) ObserveScene(sc *scene.Scene) error {
	m.mu.Lock()
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	m.sc = sc
	m.undo = nil
	m.redo = nil
	m.mu.Unlock()

	snap, err := sc.Serialize()
	if err != nil {
		return err
	}
	m.Record(snap)

	unsub := sc.OnChange(func(ev scene.Event) {
		switch ev.Kind {
		case scene.ChangeAdded, scene.ChangeRemoved, scene.ChangeModified:
			m.mu.Lock()
			suppressed := m.suppress
			m.mu.Unlock()
			if !suppressed {
				m.deb.Schedule()
			}
		}
	})
	m.mu.Lock()
	m.unsub = unsub
	m.mu.Unlock()
	return nil
}

// Detach stops observation and cancels any pending capture.  The stacks are
// left intact for inspection; ObserveScene resets them.
func (m *Manager) Detach() {
	m.deb.Stop()
	m.mu.Lock()
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	m.sc = nil
	m.mu.Unlock()
}

// Flush forces a pending debounced capture to run now.  Test hook, also used
// before export so the latest gesture is undoable.
func (m *Manager) Flush() { m.deb.Flush() }

// capture serializes the observed scene and records it.
func (m *Manager) capture() {
	m.mu.Lock()
	sc := m.sc
	suppressed := m.suppress
	m.mu.Unlock()
	if sc == nil || suppressed {
		return
	}
	snap, err := sc.Serialize()
	if err != nil {
		if m.logger != nil {
			m.logger.Error("history.capture", "error", err.Error())
		}
		return
	}
	m.Record(snap)
}

// Record pushes snap as the new current state.  It is ignored while a
// programmatic restore is in flight.  Pushing truncates the stack to
// maxDepth from the front (oldest evicted first) and clears the redo stack:
// history is strictly linear.
func (m *Manager) Record(snap scene.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suppress {
		return
	}
	m.undo = append(m.undo, []byte(snap))
	if len(m.undo) > m.maxDepth {
		m.undo = m.undo[len(m.undo)-m.maxDepth:]
	}
	m.redo = nil
}

// CanUndo reports whether an undo step is available.  The last remaining
// entry is the current state and is never undone past.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 1
}

// CanRedo reports whether a redo step is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Depth returns the undo stack depth.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo)
}

// Undo moves the current state to the redo stack and applies the previous
// snapshot.  No-op when only the initial state remains.
//
// If applying the previous snapshot fails, that snapshot is consumed (dropped
// from the stack, never retried) and the current state stays both live and on
// top of the undo stack.
func (m *Manager) Undo() error {
	m.deb.Flush()

	m.mu.Lock()
	if len(m.undo) <= 1 || m.sc == nil {
		m.mu.Unlock()
		return nil
	}
	current := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current)
	target := m.undo[len(m.undo)-1]
	sc := m.sc
	m.suppress = true
	m.mu.Unlock()

	err := sc.Restore(scene.Snapshot(target))

	m.mu.Lock()
	m.suppress = false
	if err != nil {
		// Drop the poisoned entry and put the current state back on top so
		// the top-of-undo invariant holds.
		m.undo = m.undo[:len(m.undo)-1]
		m.undo = append(m.undo, current)
		m.redo = m.redo[:len(m.redo)-1]
	}
	m.mu.Unlock()

	if err != nil {
		m.report("undo", err)
		return apperrors.Wrap(apperrors.CategorySnapshot, "history.undo", err)
	}
	return nil
}

// Redo applies the most recently undone snapshot and pushes it back onto the
// undo stack as the new current state.  No-op when the redo stack is empty.
func (m *Manager) Redo() error {
	m.mu.Lock()
	if len(m.redo) == 0 || m.sc == nil {
		m.mu.Unlock()
		return nil
	}
	target := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	sc := m.sc
	m.suppress = true
	m.mu.Unlock()

	err := sc.Restore(scene.Snapshot(target))

	m.mu.Lock()
	m.suppress = false
	if err == nil {
		m.undo = append(m.undo, target)
		if len(m.undo) > m.maxDepth {
			m.undo = m.undo[len(m.undo)-m.maxDepth:]
		}
	}
	// On failure the popped entry is consumed: retrying a poisoned snapshot
	// would loop forever.
	m.mu.Unlock()

	if err != nil {
		m.report("redo", err)
		return apperrors.Wrap(apperrors.CategorySnapshot, "history.redo", err)
	}
	return nil
}

func (m *Manager) report(op string, err error) {
	if m.logger != nil {
		m.logger.Error("history."+op, "error", err.Error())
	}
	if m.notifier != nil {
		m.notifier.Error("Failed to " + op + " action")
	}
}
