// Package hooks provides production-ready Hook, Logger, Notifier and
// CreditLedger implementations.
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.log.Error(msg, fields...) }

// NopLogger discards everything.  Useful in tests.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each tool action.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeAction(_ context.Context, action string) {
	h.logger.Debug("action.start", "action", action)
}

func (h *LoggingHook) AfterAction(_ context.Context, action string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("action.error",
			"action", action,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
			"retryable", apperrors.IsRetryable(err),
		)
		return
	}
	h.logger.Debug("action.done",
		"action", action,
		"duration_ms", d.Milliseconds(),
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	actionDurationsMs map[string]int64 // cumulative ms per action
	actionCalls       map[string]int64
	actionErrors      map[string]int64

	totalThroughputB int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		actionDurationsMs: make(map[string]int64),
		actionCalls:       make(map[string]int64),
		actionErrors:      make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordActionTime(action string, d time.Duration) {
	m.mu.Lock()
	m.actionDurationsMs[action] += d.Milliseconds()
	m.actionCalls[action]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordError(action string) {
	m.mu.Lock()
	m.actionErrors[action]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	atomic.AddInt64(&m.totalThroughputB, bytes)
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	ActionDurationsMs map[string]int64
	ActionCalls       map[string]int64
	ActionErrors      map[string]int64
	TotalThroughputB  int64
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		ActionDurationsMs: make(map[string]int64, len(m.actionDurationsMs)),
		ActionCalls:       make(map[string]int64, len(m.actionCalls)),
		ActionErrors:      make(map[string]int64, len(m.actionErrors)),
		TotalThroughputB:  atomic.LoadInt64(&m.totalThroughputB),
	}
	for k, v := range m.actionDurationsMs {
		snap.ActionDurationsMs[k] = v
	}
	for k, v := range m.actionCalls {
		snap.ActionCalls[k] = v
	}
	for k, v := range m.actionErrors {
		snap.ActionErrors[k] = v
	}
	return snap
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds action events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeAction(_ context.Context, _ string) {}

func (h *MetricsHook) AfterAction(_ context.Context, action string, d time.Duration, err error) {
	h.collector.RecordActionTime(action, d)
	if err != nil {
		h.collector.RecordError(action)
	}
}

// ── Notifiers ─────────────────────────────────────────────────────────────────

// SlogNotifier routes user-facing messages to the log.
type SlogNotifier struct {
	logger core.Logger
}

func NewSlogNotifier(l core.Logger) *SlogNotifier { return &SlogNotifier{logger: l} }

func (n *SlogNotifier) Success(msg string) { n.logger.Info("notify.success", "message", msg) }
func (n *SlogNotifier) Error(msg string)   { n.logger.Warn("notify.error", "message", msg) }

// ChannelNotifier publishes messages on channels so a UI layer can consume
// them.  Sends are non-blocking; messages are dropped when nobody listens.
type ChannelNotifier struct {
	successCh chan string
	errorCh   chan string
}

// NewChannelNotifier creates a ChannelNotifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelNotifier{
		successCh: make(chan string, buffer),
		errorCh:   make(chan string, buffer),
	}
}

func (n *ChannelNotifier) Success(msg string) {
	select {
	case n.successCh <- msg:
	default:
	}
}

func (n *ChannelNotifier) Error(msg string) {
	select {
	case n.errorCh <- msg:
	default:
	}
}

// Successes returns the success message channel.
func (n *ChannelNotifier) Successes() <-chan string { return n.successCh }

// Errors returns the error message channel.
func (n *ChannelNotifier) Errors() <-chan string { return n.errorCh }

// ── In-memory credit ledger ───────────────────────────────────────────────────

// MemoryLedger is a CreditLedger holding a local balance.  Production builds
// wire a ledger backed by the account service instead.
type MemoryLedger struct {
	mu      sync.Mutex
	balance int
}

// NewMemoryLedger creates a ledger with the given starting balance.
func NewMemoryLedger(balance int) *MemoryLedger {
	return &MemoryLedger{balance: balance}
}

func (l *MemoryLedger) Balance(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, nil
}

func (l *MemoryLedger) Deduct(_ context.Context, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount > l.balance {
		return apperrors.New(apperrors.CategoryRemote, "ledger.deduct", apperrors.ErrInsufficientCredits)
	}
	l.balance -= amount
	return nil
}

var (
	_ core.Logger           = (*SlogLogger)(nil)
	_ core.Logger           = NopLogger{}
	_ core.Hook             = (*LoggingHook)(nil)
	_ core.Hook             = (*MetricsHook)(nil)
	_ core.MetricsCollector = (*InMemoryMetrics)(nil)
	_ core.Notifier         = (*SlogNotifier)(nil)
	_ core.Notifier         = (*ChannelNotifier)(nil)
	_ core.CreditLedger     = (*MemoryLedger)(nil)
)
