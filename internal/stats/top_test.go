package stats_test

import (
	"fmt"
	"testing"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/dnsreport/internal/stats"
	"github.com/AdguardTeam/golibs/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankDomains(t *testing.T) {
	t.Parallel()

	domains := []eventstore.Domain{{
		Name:    "zero.example",
		ID:      0,
		Total:   10,
		Blocked: 2,
	}, {
		Name:    "one.example",
		ID:      1,
		Total:   5,
		Blocked: 5,
	}, {
		Name: "two.example",
		ID:   2,
	}}

	t.Run("permitted", func(t *testing.T) {
		t.Parallel()

		got := stats.RankDomains(domains, &stats.TopParams{})
		assert.Equal(t, []stats.Entry{{
			Name:  "zero.example",
			ID:    0,
			Count: 8,
		}}, got)
	})

	t.Run("blocked", func(t *testing.T) {
		t.Parallel()

		got := stats.RankDomains(domains, &stats.TopParams{BlockedOnly: true})
		require.Len(t, got, 2)

		assert.Equal(t, 1, got[0].ID)
		assert.Equal(t, int64(5), got[0].Count)
		assert.Equal(t, 0, got[1].ID)
		assert.Equal(t, int64(2), got[1].Count)
	})

	t.Run("ascending", func(t *testing.T) {
		t.Parallel()

		got := stats.RankDomains(domains, &stats.TopParams{
			Ascending:   true,
			BlockedOnly: true,
		})
		require.Len(t, got, 2)

		assert.Equal(t, 0, got[0].ID)
		assert.Equal(t, 1, got[1].ID)
	})

	t.Run("excluded", func(t *testing.T) {
		t.Parallel()

		got := stats.RankDomains(domains, &stats.TopParams{
			Exclude:     container.NewMapSet("one.example"),
			BlockedOnly: true,
		})
		require.Len(t, got, 1)

		assert.Equal(t, 0, got[0].ID)
	})

	t.Run("audited", func(t *testing.T) {
		t.Parallel()

		got := stats.RankDomains(domains, &stats.TopParams{
			Exclude: container.NewMapSet("zero.example"),
			Audited: func(domain string) (ok bool) {
				return domain == "one.example"
			},
			BlockedOnly: true,
		})
		require.Len(t, got, 1)

		assert.Equal(t, 0, got[0].ID)
	})
}

// newDomains returns n domains with the blocked counts equal to their IDs
// modulo 3, so that there are ties.
func newDomains(n int) (domains []eventstore.Domain) {
	for i := range n {
		domains = append(domains, eventstore.Domain{
			Name:    fmt.Sprintf("d%d.example", i),
			ID:      i,
			Total:   10,
			Blocked: int64(i%3 + 1),
		})
	}

	return domains
}

func TestRankDomains_limit(t *testing.T) {
	t.Parallel()

	domains := newDomains(30)
	domains[2].Name = privacy.HiddenDomain

	exclude := container.NewMapSet("d5.example", "d8.example")
	got := stats.RankDomains(domains, &stats.TopParams{
		Exclude:     exclude,
		Limit:       5,
		BlockedOnly: true,
	})
	require.Len(t, got, 5)

	// The domains with the highest count are 2, 5, 8, 11, and so on, with 2, 5,
	// and 8 skipped.
	wantIDs := []int{11, 14, 17, 20, 23}
	for i, e := range got {
		assert.Equal(t, wantIDs[i], e.ID)
		assert.Equal(t, int64(3), e.Count)
	}

	got = stats.RankDomains(domains, &stats.TopParams{BlockedOnly: true})
	assert.Len(t, got, stats.DefaultLimit)

	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		require.GreaterOrEqual(t, prev.Count, cur.Count)

		if prev.Count == cur.Count {
			assert.Less(t, prev.ID, cur.ID)
		}
	}
}

func TestRankClients(t *testing.T) {
	t.Parallel()

	clients := []eventstore.Client{{
		IP:      "192.0.2.1",
		Name:    "laptop",
		ID:      0,
		Total:   4,
		Blocked: 1,
	}, {
		IP:      privacy.HiddenClientIP,
		Name:    privacy.HiddenClientName,
		ID:      1,
		Total:   100,
		Blocked: 0,
	}, {
		IP:      "192.0.2.3",
		ID:      2,
		Total:   2,
		Blocked: 2,
	}, {
		IP:    "192.0.2.4",
		ID:    3,
		Total: 9,
	}}

	t.Run("default", func(t *testing.T) {
		t.Parallel()

		got := stats.RankClients(clients, &stats.TopParams{})
		assert.Equal(t, []stats.Entry{{
			IP:    "192.0.2.4",
			ID:    3,
			Count: 9,
		}, {
			Name:  "laptop",
			IP:    "192.0.2.1",
			ID:    0,
			Count: 3,
		}}, got)
	})

	t.Run("with_zero", func(t *testing.T) {
		t.Parallel()

		got := stats.RankClients(clients, &stats.TopParams{IncludeZero: true})
		require.Len(t, got, 3)

		assert.Equal(t, 2, got[2].ID)
		assert.Zero(t, got[2].Count)
	})

	t.Run("excluded_by_name", func(t *testing.T) {
		t.Parallel()

		got := stats.RankClients(clients, &stats.TopParams{
			Exclude: container.NewMapSet("laptop"),
		})
		require.Len(t, got, 1)

		assert.Equal(t, 3, got[0].ID)
	})

	t.Run("excluded_by_ip", func(t *testing.T) {
		t.Parallel()

		got := stats.RankClients(clients, &stats.TopParams{
			Exclude:     container.NewMapSet("192.0.2.3"),
			BlockedOnly: true,
		})
		require.Len(t, got, 1)

		assert.Equal(t, 0, got[0].ID)
	})
}
