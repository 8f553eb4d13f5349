package eventstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
)

// windowStart returns the start of the slot window containing ts.
func (s *Store) windowStart(ts int64) (start int64) {
	return ts - ts%s.width
}

// resetSlots clears the ring so that its last slot starts at last.  s.mu is
// expected to be locked, unless s is being created.
func (s *Store) resetSlots(last int64) {
	n := int64(len(s.slots))
	for i := range s.slots {
		s.slots[i] = Slot{
			Time: last - (n-1-int64(i))*s.width,
		}
	}

	for _, counts := range s.overTime {
		clear(counts)
	}
}

// rotate shifts the ring so that its last slot contains ts, if ts is past the
// end of the ring.  s.mu is expected to be locked.
func (s *Store) rotate(ts int64) {
	n := len(s.slots)
	shift := (s.windowStart(ts) - s.slots[n-1].Time) / s.width
	if shift <= 0 {
		return
	}

	if shift >= int64(n) {
		s.resetSlots(s.windowStart(ts))

		return
	}

	k := int(shift)
	copy(s.slots, s.slots[k:])
	last := s.slots[n-k-1].Time
	for i := n - k; i < n; i++ {
		last += s.width
		s.slots[i] = Slot{
			Time: last,
		}
	}

	for _, counts := range s.overTime {
		copy(counts, counts[k:])
		clear(counts[n-k:])
	}
}

// slotIndex returns the index of the slot containing ts or -1 if ts is outside
// of the ring.  s.mu is expected to be locked.
func (s *Store) slotIndex(ts int64) (i int) {
	off := ts - s.slots[0].Time
	if off < 0 {
		return -1
	}

	i = int(off / s.width)
	if i >= len(s.slots) {
		return -1
	}

	return i
}

// Rotate shifts the slot ring so that its last slot contains now.
func (s *Store) Rotate(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rotate(now.Unix())
}

// Rotator periodically rotates the slot ring of a store so that empty windows
// appear even when no queries arrive.
type Rotator struct {
	logger *slog.Logger
	store  *Store
	done   chan struct{}
	ivl    time.Duration
}

// NewRotator returns a new rotator for store.  ivl must be positive.
func NewRotator(logger *slog.Logger, store *Store, ivl time.Duration) (r *Rotator) {
	return &Rotator{
		logger: logger,
		store:  store,
		done:   make(chan struct{}),
		ivl:    ivl,
	}
}

// type check
var _ service.Interface = (*Rotator)(nil)

// Start implements the [service.Interface] interface for *Rotator.
func (r *Rotator) Start(ctx context.Context) (err error) {
	go r.rotateLoop(context.WithoutCancel(ctx))

	return nil
}

// Shutdown implements the [service.Interface] interface for *Rotator.
func (r *Rotator) Shutdown(_ context.Context) (err error) {
	close(r.done)

	return nil
}

// rotateLoop rotates the ring on every tick until r is shut down.
func (r *Rotator) rotateLoop(ctx context.Context) {
	defer slogutil.RecoverAndLog(ctx, r.logger)

	t := time.NewTicker(r.ivl)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			r.store.Rotate(r.store.clock.Now())
			r.logger.DebugContext(ctx, "rotated slots")
		case <-r.done:
			return
		}
	}
}
