package config

import (
	"errors"
	"time"

	"github.com/Skryldev/photo-editor/core"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Config{} and override only what they need.
// Tool bounds are fixed product constants, not runtime-tunable knobs; they
// live here so every package reads the same values.
type Config struct {
	// History.
	MaxHistoryDepth int           // snapshot stack cap; default 20
	DebounceWindow  time.Duration // quiet period before a snapshot capture; default 500ms

	// Canvas bounds.
	MinCanvasPx int // default 100
	MaxCanvasPx int // default 5000

	// Viewport.
	ContainerPadding int // pixels subtracted from each container axis when fitting; default 40

	// Remote edits.
	MaxUploadImages int           // max source images per multi-image edit; default 8
	JobTimeout      time.Duration // per remote call; default 30s

	// CreditCosts maps each remote operation to its credit price.  Costs are
	// defined centrally here; call sites must never carry their own amounts.
	CreditCosts map[core.Operation]int

	// Export.
	DefaultQuality int // 1-100 used when EncodeOptions.Quality == 0; default 85

	// Fetch limits.
	MaxImageBytes int64 // 0 = no limit on fetched blobs

	// Logging.
	LogLevel string // "debug", "info", "warn", "error"
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		MaxHistoryDepth:  20,
		DebounceWindow:   500 * time.Millisecond,
		MinCanvasPx:      100,
		MaxCanvasPx:      5000,
		ContainerPadding: 40,
		MaxUploadImages:  8,
		JobTimeout:       30 * time.Second,
		CreditCosts: map[core.Operation]int{
			core.OpRemoveBackground: 1,
			core.OpChangeBackground: 1,
			core.OpEditImage:        1,
			core.OpUpscale:          1,
			core.OpRestore:          1,
		},
		DefaultQuality: 85,
		LogLevel:       "info",
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.MaxHistoryDepth < 2 {
		return errors.New("config: MaxHistoryDepth must be at least 2")
	}
	if c.DebounceWindow <= 0 {
		return errors.New("config: DebounceWindow must be positive")
	}
	if c.MinCanvasPx <= 0 || c.MaxCanvasPx < c.MinCanvasPx {
		return errors.New("config: canvas bounds must satisfy 0 < MinCanvasPx <= MaxCanvasPx")
	}
	if c.MaxUploadImages <= 0 {
		return errors.New("config: MaxUploadImages must be positive")
	}
	if c.DefaultQuality < 1 || c.DefaultQuality > 100 {
		return errors.New("config: DefaultQuality must be between 1 and 100")
	}
	for op, cost := range c.CreditCosts {
		if cost < 0 {
			return errors.New("config: CreditCosts[" + string(op) + "] must not be negative")
		}
	}
	return nil
}
