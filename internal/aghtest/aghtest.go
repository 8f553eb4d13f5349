// Package aghtest contains utilities for testing.
package aghtest

import (
	"testing"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil/faketime"
	"github.com/stretchr/testify/require"
)

// SlotWidth is the slot width of the stores created by [NewStore].
const SlotWidth = 10 * time.Minute

// SlotCount is the number of slots of the stores created by [NewStore].
const SlotCount = 6

// Start is the initial time of the stores created by [NewStore].  It is aligned
// to a slot boundary, so the last slot of a new store starts at Start.
var Start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Clock is a settable clock for tests.  It is not safe for concurrent use.
type Clock struct {
	*faketime.Clock

	now time.Time
}

// Set sets the current time of the clock.
func (c *Clock) Set(now time.Time) {
	c.now = now
}

// NewClock returns a new clock showing now.
func NewClock(now time.Time) (c *Clock) {
	c = &Clock{
		now: now,
	}

	c.Clock = &faketime.Clock{
		OnNow: func() (t time.Time) { return c.now },
	}

	return c
}

// NewStore returns a new event store with [SlotCount] slots of [SlotWidth]
// created at [Start] and the clock it uses.
func NewStore(tb testing.TB, src privacy.Source) (s *eventstore.Store, clock *Clock) {
	tb.Helper()

	clock = NewClock(Start)
	conf := &eventstore.Config{
		Logger:    slogutil.NewDiscardLogger(),
		Clock:     clock,
		Privacy:   src,
		SlotWidth: SlotWidth,
		SlotCount: SlotCount,
	}
	require.NoError(tb, conf.Validate())

	return eventstore.New(conf), clock
}

// AddQueries adds n queries for the domain from the client with the status at
// the current time of the clock.
func AddQueries(
	s *eventstore.Store,
	clock *Clock,
	n int,
	domain string,
	clientIP string,
	status eventstore.Status,
) {
	for range n {
		ev := &eventstore.Event{
			Time:     clock.Now(),
			Domain:   domain,
			ClientIP: clientIP,
			Type:     eventstore.QueryTypeA,
			Status:   status,
			Reply:    eventstore.ReplyIP,
		}

		if status == eventstore.StatusForwarded {
			ev.ForwardIP = "198.51.100.1"
		}

		s.Add(ev)
	}
}
