package eventstore_test

import (
	"testing"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil/faketime"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSlotWidth is the slot width used in tests.
const testSlotWidth = 10 * time.Minute

// testStart is the time at which the test stores are created.  It is aligned
// to a slot boundary.
var testStart = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// newTestStore returns a store with four slots and a clock returning the value
// pointed to by now.
func newTestStore(tb testing.TB, now *time.Time, src privacy.Source) (s *eventstore.Store) {
	tb.Helper()

	conf := &eventstore.Config{
		Logger: slogutil.NewDiscardLogger(),
		Clock: &faketime.Clock{
			OnNow: func() (t time.Time) { return *now },
		},
		Privacy:   src,
		SlotWidth: testSlotWidth,
		SlotCount: 4,
	}
	require.NoError(tb, conf.Validate())

	return eventstore.New(conf)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	var conf *eventstore.Config
	assert.Error(t, conf.Validate())

	conf = &eventstore.Config{
		SlotWidth: 1500 * time.Millisecond,
	}

	err := conf.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "Logger")
	assert.Contains(t, err.Error(), "SlotWidth")
	assert.Contains(t, err.Error(), "SlotCount")
}

func TestStore_Add(t *testing.T) {
	t.Parallel()

	now := testStart
	s := newTestStore(t, &now, privacy.Fixed(privacy.LevelShowAll))

	s.Add(&eventstore.Event{
		Time:      now,
		Domain:    "example.org",
		ClientIP:  "192.0.2.1",
		ForwardIP: "198.51.100.1",
		Response:  20 * time.Millisecond,
		Type:      eventstore.QueryTypeA,
		Status:    eventstore.StatusForwarded,
		Reply:     eventstore.ReplyIP,
	})
	s.Add(&eventstore.Event{
		Time:       now.Add(time.Second),
		Domain:     "example.org",
		ClientIP:   "192.0.2.1",
		ClientName: "laptop",
		Type:       eventstore.QueryTypeAAAA,
		Status:     eventstore.StatusGravity,
		Reply:      eventstore.ReplyIP,
	})
	id := s.Add(&eventstore.Event{
		Time:     now.Add(2 * time.Second),
		Domain:   "example.net",
		ClientIP: "192.0.2.2",
		Type:     eventstore.QueryTypeA,
		Status:   eventstore.StatusCache,
		Reply:    eventstore.ReplyNXDOMAIN,
	})
	assert.Equal(t, 2, id)

	c := s.Counters()
	assert.Equal(t, int64(3), c.Queries)
	assert.Equal(t, int64(1), c.Blocked)
	assert.Equal(t, int64(1), c.Cached)
	assert.Equal(t, int64(1), c.Forwarded)
	assert.Equal(t, int64(2), c.Types[eventstore.QueryTypeA])
	assert.Equal(t, int64(1), c.Types[eventstore.QueryTypeAAAA])
	assert.Equal(t, int64(2), c.Reply(eventstore.ReplyIP))
	assert.Equal(t, int64(1), c.Reply(eventstore.ReplyNXDOMAIN))

	assert.Equal(t, []eventstore.Domain{{
		Name:    "example.org",
		ID:      0,
		Total:   2,
		Blocked: 1,
	}, {
		Name:  "example.net",
		ID:    1,
		Total: 1,
	}}, s.Domains())

	clients := s.Clients()
	require.Len(t, clients, 2)

	assert.Equal(t, "laptop", clients[0].Name)
	assert.Equal(t, int64(2), clients[0].Total)

	fwds := s.Forwards()
	require.Len(t, fwds, 1)

	assert.Equal(t, int64(1), fwds[0].Count)

	snap := s.Snapshot()
	require.Len(t, snap.Queries, 3)

	assert.Equal(t, 0, snap.Queries[0].ForwardID)
	assert.Equal(t, -1, snap.Queries[1].ForwardID)
	assert.Equal(t, int64(20_000), snap.Queries[0].ResponseMicros)

	slots := s.Slots()
	require.Len(t, slots, 4)

	assert.Equal(t, testStart.Unix(), slots[3].Time)
	assert.Equal(t, int64(3), slots[3].Total)
	assert.Equal(t, int64(1), slots[3].Blocked)
	assert.True(t, slots[0].IsEmpty())
}

func TestStore_Add_privacy(t *testing.T) {
	t.Parallel()

	now := testStart
	s := newTestStore(t, &now, privacy.Fixed(privacy.LevelHideDomainsAndClients))

	s.Add(&eventstore.Event{
		Time:       now,
		Domain:     "example.org",
		ClientIP:   "192.0.2.1",
		ClientName: "laptop",
		Status:     eventstore.StatusCache,
	})

	snap := s.Snapshot()
	require.Len(t, snap.Queries, 1)

	q := snap.Queries[0]
	assert.Equal(t, privacy.LevelHideDomainsAndClients, q.Privacy)
	assert.Equal(t, privacy.HiddenDomain, snap.Domain(q.DomainID).Name)
	assert.Equal(t, privacy.HiddenClientIP, snap.Client(q.ClientID).IP)
	assert.Equal(t, privacy.HiddenClientName, snap.Client(q.ClientID).Name)
}

func TestStore_Rotate(t *testing.T) {
	t.Parallel()

	now := testStart
	s := newTestStore(t, &now, privacy.Fixed(privacy.LevelShowAll))

	s.Add(&eventstore.Event{
		Time:     now,
		Domain:   "example.org",
		ClientIP: "192.0.2.1",
		Status:   eventstore.StatusCache,
	})

	now = now.Add(2 * testSlotWidth)
	s.Rotate(now)

	slots, clients, counts := s.ClientSlots()
	require.Len(t, slots, 4)
	require.Len(t, clients, 1)

	assert.Equal(t, now.Unix(), slots[3].Time)
	assert.Equal(t, testStart.Unix(), slots[1].Time)
	assert.Equal(t, int64(1), slots[1].Total)
	assert.Equal(t, []int64{0, 1, 0, 0}, counts[0])

	s.Rotate(now.Add(10 * testSlotWidth))
	for _, slot := range s.Slots() {
		assert.True(t, slot.IsEmpty())
	}

	_, _, counts = s.ClientSlots()
	assert.Equal(t, []int64{0, 0, 0, 0}, counts[0])

	// Totals are kept after the slots are gone.
	assert.Equal(t, int64(1), s.Counters().Queries)
}

func TestStore_Add_old(t *testing.T) {
	t.Parallel()

	now := testStart
	s := newTestStore(t, &now, privacy.Fixed(privacy.LevelShowAll))

	s.Add(&eventstore.Event{
		Time:     now.Add(-24 * time.Hour),
		Domain:   "example.org",
		ClientIP: "192.0.2.1",
		Status:   eventstore.StatusGravity,
	})

	for _, slot := range s.Slots() {
		assert.True(t, slot.IsEmpty())
	}

	assert.Equal(t, int64(1), s.Domains()[0].Blocked)
}

func TestStore_lookups(t *testing.T) {
	t.Parallel()

	now := testStart
	s := newTestStore(t, &now, privacy.Fixed(privacy.LevelShowAll))

	s.Add(&eventstore.Event{
		Time:        now,
		Domain:      "example.org",
		ClientIP:    "192.0.2.1",
		ClientName:  "laptop",
		Status:      eventstore.StatusForwarded,
		ForwardIP:   "198.51.100.1",
		ForwardName: "dns.example",
	})

	id, ok := s.DomainID("example.org")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	_, ok = s.DomainID("example.net")
	assert.False(t, ok)

	id, ok = s.ClientID("laptop")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	_, ok = s.ClientID("192.0.2.2")
	assert.False(t, ok)

	id, ok = s.ForwardID("dns.example")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	snap := s.Snapshot()
	assert.Panics(t, func() { snap.Domain(1) })
	assert.Panics(t, func() { snap.Client(-1) })
}

func TestStore_Add_normalize(t *testing.T) {
	t.Parallel()

	now := testStart
	s := newTestStore(t, &now, privacy.Fixed(privacy.LevelShowAll))

	for _, name := range []string{"Example.COM", "example.com", " example.com ", "Пример.РФ"} {
		s.Add(&eventstore.Event{
			Time:     now,
			Domain:   name,
			ClientIP: "192.0.2.1",
			Status:   eventstore.StatusCache,
		})
	}

	domains := s.Domains()
	require.Len(t, domains, 2)

	assert.Equal(t, "example.com", domains[0].Name)
	assert.Equal(t, int64(3), domains[0].Total)
	assert.Equal(t, "xn--e1afmkfd.xn--p1ai", domains[1].Name)

	id, ok := s.DomainID("EXAMPLE.com")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	id, ok = s.DomainID("пример.рф")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestQueryType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, eventstore.QueryTypeAAAA, eventstore.QueryTypeFromRR(dns.TypeAAAA))
	assert.Equal(t, eventstore.QueryTypeUnknown, eventstore.QueryTypeFromRR(dns.TypeHTTPS))
	assert.Equal(t, "TXT", eventstore.QueryTypeTXT.String())
	assert.Equal(t, "UNKN", eventstore.QueryTypeUnknown.String())

	qt, err := eventstore.ParseQueryType("1")
	require.NoError(t, err)
	assert.Equal(t, eventstore.QueryTypeA, qt)

	qt, err = eventstore.ParseQueryType("PTR")
	require.NoError(t, err)
	assert.Equal(t, eventstore.QueryTypePTR, qt)

	for _, s := range []string{"0", "8", "HTTPS", "bad"} {
		_, err = eventstore.ParseQueryType(s)
		assert.Error(t, err, s)
	}
}
