// Package blocking contains the global blocking switch.
package blocking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
)

// Persister stores the blocking state between restarts.
type Persister interface {
	// SetBlockingEnabled stores the blocking state.
	SetBlockingEnabled(ctx context.Context, enabled bool) (err error)
}

// Config is the configuration structure for [Switch].
type Config struct {
	// Logger is used for logging the operation of the switch.  It must not be
	// nil.
	Logger *slog.Logger

	// Clock is used to compute the revert time.  It must not be nil.
	Clock timeutil.Clock

	// Persister stores the state.  It must not be nil.
	Persister Persister

	// Enabled is the initial state.
	Enabled bool
}

// Switch is the blocking switch with an optional revert timer.
type Switch struct {
	logger    *slog.Logger
	clock     timeutil.Clock
	persister Persister

	// mu protects all fields below.
	mu *sync.Mutex

	// timer is the pending revert, if any.
	timer *time.Timer

	// revertAt is the time of the pending revert.  It is zero if there is no
	// pending revert.
	revertAt time.Time

	// gen is incremented on every change so that a stale timer does nothing.
	gen uint64

	enabled bool
}

// New returns a new switch.  conf must not be nil.
func New(conf *Config) (s *Switch) {
	return &Switch{
		logger:    conf.Logger,
		clock:     conf.Clock,
		persister: conf.Persister,
		mu:        &sync.Mutex{},
		enabled:   conf.Enabled,
	}
}

// Enabled returns true if blocking is enabled.
func (s *Switch) Enabled() (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enabled
}

// Status returns the state and the time of the pending revert.  revertAt is
// zero if there is none.
func (s *Switch) Status() (enabled bool, revertAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.enabled, s.revertAt
}

// Set applies the state immediately.  If delay is positive, the opposite state
// is applied after delay, otherwise any pending revert is cancelled.
func (s *Switch) Set(ctx context.Context, enabled bool, delay time.Duration) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimer()
	s.gen++

	if delay > 0 {
		gen := s.gen
		revertCtx := context.WithoutCancel(ctx)
		s.revertAt = s.clock.Now().Add(delay)
		s.timer = time.AfterFunc(delay, func() {
			s.revert(revertCtx, gen, !enabled)
		})
	}

	s.logger.InfoContext(ctx, "setting blocking", "enabled", enabled, "delay", delay)

	return s.apply(ctx, enabled)
}

// revert applies the state if no change happened since the timer was set.  It
// is intended to be used as a timer callback.
func (s *Switch) revert(ctx context.Context, gen uint64, enabled bool) {
	defer slogutil.RecoverAndLog(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}

	s.timer, s.revertAt = nil, time.Time{}

	s.logger.InfoContext(ctx, "reverting blocking", "enabled", enabled)

	err := s.apply(ctx, enabled)
	if err != nil {
		s.logger.ErrorContext(ctx, "reverting blocking", slogutil.KeyError, err)
	}
}

// apply sets and stores the state.  s.mu is expected to be locked.
func (s *Switch) apply(ctx context.Context, enabled bool) (err error) {
	s.enabled = enabled

	return s.persister.SetBlockingEnabled(ctx, enabled)
}

// stopTimer cancels the pending revert, if any.  s.mu is expected to be
// locked.
func (s *Switch) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}

	s.timer, s.revertAt = nil, time.Time{}
}
