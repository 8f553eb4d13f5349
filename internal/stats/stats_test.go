package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/aghtest"
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/dnsreport/internal/setupvars"
	"github.com/AdguardTeam/dnsreport/internal/stats"
	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

// testSettings is a [stats.SettingsSource] returning fixed settings.
type testSettings struct {
	settings *setupvars.Settings
}

// type check
var _ stats.SettingsSource = (*testSettings)(nil)

// Settings implements the [stats.SettingsSource] interface for *testSettings.
func (s *testSettings) Settings() (settings *setupvars.Settings) {
	return s.settings
}

// testAudit is a [stats.AuditSource] returning a fixed predicate.
type testAudit struct {
	err     error
	audited []string
}

// type check
var _ stats.AuditSource = (*testAudit)(nil)

// Audited implements the [stats.AuditSource] interface for *testAudit.
func (a *testAudit) Audited(_ context.Context) (pred func(domain string) (ok bool), err error) {
	if a.err != nil {
		return nil, a.err
	}

	return container.NewMapSet(a.audited...).Has, nil
}

// testBlocking is a [stats.BlockingStatus] with a fixed state.
type testBlocking bool

// Enabled implements the [stats.BlockingStatus] interface for testBlocking.
func (b testBlocking) Enabled() (ok bool) {
	return bool(b)
}

// newTestReporter returns a reporter over a store filled with queries at the
// first two slots of the ring.  level is the level stamped on the queries as
// well as the current one.
func newTestReporter(
	tb testing.TB,
	level privacy.Level,
	settings *setupvars.Settings,
	audit *testAudit,
) (r *stats.Reporter, s *eventstore.Store) {
	tb.Helper()

	src := privacy.Fixed(level)
	s, clock := aghtest.NewStore(tb, src)

	clock.Set(aghtest.Start.Add(-aghtest.SlotWidth))
	aghtest.AddQueries(s, clock, 3, "ads.example", "192.0.2.1", eventstore.StatusGravity)
	aghtest.AddQueries(s, clock, 2, "example.org", "192.0.2.1", eventstore.StatusForwarded)

	clock.Set(aghtest.Start.Add(time.Minute))
	aghtest.AddQueries(s, clock, 1, "example.org", "192.0.2.2", eventstore.StatusCache)
	aghtest.AddQueries(s, clock, 4, "example.net", "192.0.2.2", eventstore.StatusForwarded)
	aghtest.AddQueries(s, clock, 1, "ads.example", "192.0.2.3", eventstore.StatusBlacklist)

	if settings == nil {
		settings = setupvars.Default()
	}

	if audit == nil {
		audit = &testAudit{}
	}

	return stats.New(&stats.Config{
		Logger:   slogutil.NewDiscardLogger(),
		Store:    s,
		Privacy:  src,
		Settings: &testSettings{settings: settings},
		Audit:    audit,
		Blocking: testBlocking(true),
	}), s
}

func TestReporter_TopDomains(t *testing.T) {
	t.Parallel()

	ctx := testutil.ContextWithTimeout(t, testTimeout)

	t.Run("permitted", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestReporter(t, privacy.LevelShowAll, nil, nil)
		got := r.TopDomains(ctx, &stats.TopRequest{})
		require.Len(t, got, 2)

		assert.Equal(t, "example.net", got[0].Name)
		assert.Equal(t, int64(4), got[0].Count)
		assert.Equal(t, "example.org", got[1].Name)
		assert.Equal(t, int64(3), got[1].Count)
	})

	t.Run("blocked", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestReporter(t, privacy.LevelShowAll, nil, nil)
		got := r.TopDomains(ctx, &stats.TopRequest{BlockedOnly: true})
		require.Len(t, got, 1)

		assert.Equal(t, "ads.example", got[0].Name)
		assert.Equal(t, int64(4), got[0].Count)
	})

	t.Run("hidden", func(t *testing.T) {
		t.Parallel()

		for _, l := range []privacy.Level{
			privacy.LevelHideDomains,
			privacy.LevelHideDomainsAndClients,
			privacy.LevelMaximum,
		} {
			r, _ := newTestReporter(t, l, nil, nil)
			assert.Empty(t, r.TopDomains(ctx, &stats.TopRequest{}), l)
		}
	})

	t.Run("not_shown", func(t *testing.T) {
		t.Parallel()

		settings := setupvars.Default()
		settings.QueryLogShow = setupvars.ShowBlockedOnly

		r, _ := newTestReporter(t, privacy.LevelShowAll, settings, nil)
		assert.Empty(t, r.TopDomains(ctx, &stats.TopRequest{}))
		assert.NotEmpty(t, r.TopDomains(ctx, &stats.TopRequest{BlockedOnly: true}))
	})

	t.Run("audit", func(t *testing.T) {
		t.Parallel()

		settings := setupvars.Default()
		settings.ExcludeDomains = container.NewMapSet("example.net")

		r, _ := newTestReporter(t, privacy.LevelShowAll, settings, &testAudit{
			audited: []string{"example.org"},
		})

		got := r.TopDomains(ctx, &stats.TopRequest{})
		require.Len(t, got, 1)
		assert.Equal(t, "example.org", got[0].Name)

		got = r.TopDomains(ctx, &stats.TopRequest{Audit: true})
		require.Len(t, got, 1)
		assert.Equal(t, "example.net", got[0].Name)
	})

	t.Run("audit_error", func(t *testing.T) {
		t.Parallel()

		const testError errors.Error = "test error"

		r, _ := newTestReporter(t, privacy.LevelShowAll, nil, &testAudit{err: testError})
		assert.Len(t, r.TopDomains(ctx, &stats.TopRequest{Audit: true}), 2)
	})
}

func TestReporter_TopClients(t *testing.T) {
	t.Parallel()

	ctx := testutil.ContextWithTimeout(t, testTimeout)

	r, _ := newTestReporter(t, privacy.LevelHideDomains, nil, nil)
	got := r.TopClients(ctx, &stats.TopRequest{})
	require.Len(t, got, 2)

	assert.Equal(t, "192.0.2.2", got[0].IP)
	assert.Equal(t, int64(5), got[0].Count)
	assert.Equal(t, "192.0.2.1", got[1].IP)

	got = r.TopClients(ctx, &stats.TopRequest{IncludeZero: true})
	assert.Len(t, got, 3)

	r, _ = newTestReporter(t, privacy.LevelHideDomainsAndClients, nil, nil)
	assert.Empty(t, r.TopClients(ctx, &stats.TopRequest{}))
	assert.Empty(t, r.ClientsOverTime(ctx).Clients)
}

func TestReporter_timeSeries(t *testing.T) {
	t.Parallel()

	ctx := testutil.ContextWithTimeout(t, testTimeout)

	r, _ := newTestReporter(t, privacy.LevelShowAll, nil, nil)

	hist := r.History(ctx)
	require.Len(t, hist, 2)

	assert.Equal(t, aghtest.Start.Add(-aghtest.SlotWidth).Unix(), hist[0].Time)
	assert.Equal(t, int64(5), hist[0].Total)
	assert.Equal(t, int64(3), hist[0].Blocked)
	assert.Equal(t, int64(6), hist[1].Total)

	cot := r.ClientsOverTime(ctx)
	require.Len(t, cot.Clients, 3)
	require.Len(t, cot.Slots, 2)

	assert.Equal(t, []int64{5, 0, 0}, cot.Slots[0].Counts)
	assert.Equal(t, []int64{0, 5, 1}, cot.Slots[1].Counts)
}

func TestReporter_Summary(t *testing.T) {
	t.Parallel()

	ctx := testutil.ContextWithTimeout(t, testTimeout)

	r, _ := newTestReporter(t, privacy.LevelShowAll, nil, nil)

	sum := r.Summary(ctx)
	assert.Equal(t, int64(11), sum.Counters.Queries)
	assert.Equal(t, int64(4), sum.Counters.Blocked)
	assert.Equal(t, int64(1), sum.Counters.Cached)
	assert.Equal(t, int64(6), sum.Counters.Forwarded)
	assert.InDelta(t, 36.36, sum.PercentBlocked, 0.01)
	assert.Equal(t, 3, sum.UniqueDomains)
	assert.Equal(t, 3, sum.TotalClients)
	assert.Equal(t, 3, sum.ActiveClients)
	assert.True(t, sum.BlockingEnabled)

	types := r.QueryTypes(ctx)
	require.Len(t, types, int(eventstore.QueryTypeUnknown))

	assert.Equal(t, stats.TypeCount{Name: "A", Count: 11}, types[0])
	assert.Equal(t, stats.TypeCount{Name: "TXT", Count: 0}, types[6])

	ups, c := r.Upstreams(ctx)
	require.Len(t, ups, 3)

	assert.Equal(t, int64(4), ups[0].Count)
	assert.Equal(t, int64(1), ups[1].Count)
	assert.Equal(t, int64(6), ups[2].Count)
	assert.Equal(t, int64(6), c.Forwarded)
}
