package privacy_test

import (
	"testing"

	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		want    privacy.Level
		in      string
		name    string
		wantErr bool
	}{{
		want: privacy.LevelShowAll,
		in:   "0",
		name: "show_all",
	}, {
		want: privacy.LevelHideDomains,
		in:   "1",
		name: "hide_domains",
	}, {
		want: privacy.LevelHideDomainsAndClients,
		in:   "2",
		name: "hide_clients",
	}, {
		want: privacy.LevelMaximum,
		in:   "3",
		name: "maximum",
	}, {
		in:      "4",
		name:    "too_high",
		wantErr: true,
	}, {
		in:      "",
		name:    "empty",
		wantErr: true,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, err := privacy.ParseLevel(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, errors.ErrBadEnumValue)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, l)
		})
	}
}

func TestGate(t *testing.T) {
	t.Parallel()

	assert.False(t, privacy.Gate(privacy.LevelShowAll, privacy.LevelHideDomains))
	assert.True(t, privacy.Gate(privacy.LevelHideDomains, privacy.LevelHideDomains))
	assert.True(t, privacy.Gate(privacy.LevelMaximum, privacy.LevelHideDomains))
	assert.False(t, privacy.Gate(privacy.LevelHideDomains, privacy.LevelHideDomainsAndClients))
}

func TestDisplayNames(t *testing.T) {
	t.Parallel()

	const (
		domain = "example.org"
		ip     = "192.0.2.1"
		name   = "laptop"
	)

	testCases := []struct {
		wantDomain string
		wantIP     string
		wantName   string
		name       string
		rec        privacy.Level
	}{{
		wantDomain: domain,
		wantIP:     ip,
		wantName:   name,
		name:       "show_all",
		rec:        privacy.LevelShowAll,
	}, {
		wantDomain: privacy.HiddenDomain,
		wantIP:     ip,
		wantName:   name,
		name:       "hide_domains",
		rec:        privacy.LevelHideDomains,
	}, {
		wantDomain: privacy.HiddenDomain,
		wantIP:     privacy.HiddenClientIP,
		wantName:   privacy.HiddenClientName,
		name:       "hide_clients",
		rec:        privacy.LevelHideDomainsAndClients,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.wantDomain, privacy.DomainName(tc.rec, domain))
			assert.Equal(t, tc.wantIP, privacy.ClientIP(tc.rec, ip))
			assert.Equal(t, tc.wantName, privacy.ClientName(tc.rec, name))
		})
	}

	assert.Empty(t, privacy.ClientName(privacy.LevelMaximum, ""))
}
