package orchestrator

import (
	"context"
	"time"

	"github.com/weftworks/weft/internal/quality"
	"github.com/weftworks/weft/internal/vcs"
)

// Defaults applied when no option overrides them.
const (
	defaultMaxWorkers  = 4
	defaultTaskTimeout = 5 * time.Minute
	defaultEventBuffer = 128
)

// Control reports run-level pause and stop requests. Implemented by
// watch.Controller; a nil Control means the run is never interrupted.
type Control interface {
	// Stopped reports whether a stop has been requested. Checked at wave
	// boundaries; in-flight tasks always resolve.
	Stopped() bool
	// WaitIfPaused blocks while a pause is in effect, returning early if
	// the context is cancelled.
	WaitIfPaused(ctx context.Context) error
}

// Option configures an Engine. Use With* functions to create Options.
type Option func(*engineOptions)

// engineOptions holds all optional configuration.
type engineOptions struct {
	maxWorkers  int
	taskTimeout time.Duration
	eventBuffer int
	gate        quality.Gate
	vcs         vcs.Port
	logger      *DebugLogger
	control     Control
	threshold   float64
}

func defaultOptions() engineOptions {
	return engineOptions{
		maxWorkers:  defaultMaxWorkers,
		taskTimeout: defaultTaskTimeout,
		eventBuffer: defaultEventBuffer,
		gate:        quality.AlwaysPass{},
	}
}

// WithMaxWorkers sets the maximum number of tasks dispatched concurrently
// within a wave.
func WithMaxWorkers(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.maxWorkers = n
		}
	}
}

// WithTaskTimeout sets the per-task agent timeout. Zero disables it.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *engineOptions) { o.taskTimeout = d }
}

// WithQualityGate sets the gate evaluating every generation result.
func WithQualityGate(g quality.Gate) Option {
	return func(o *engineOptions) {
		if g != nil {
			o.gate = g
		}
	}
}

// WithQualityThreshold records the threshold planned runs are gated at.
func WithQualityThreshold(t float64) Option {
	return func(o *engineOptions) { o.threshold = t }
}

// WithVCS sets the version control port used as the secondary restore
// path for checkpoints.
func WithVCS(p vcs.Port) Option {
	return func(o *engineOptions) { o.vcs = p }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithControl sets the pause/stop controller consulted at wave boundaries.
func WithControl(c Control) Option {
	return func(o *engineOptions) { o.control = c }
}

// WithEventBuffer sets the emitter's channel buffer size.
func WithEventBuffer(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}
