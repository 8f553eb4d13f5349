package cmd

import (
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a valid configuration listening on random loopback ports
// with the files in a temporary directory.
func testConfig(tb testing.TB) (conf string) {
	tb.Helper()

	dir := tb.TempDir()

	return `
http:
  addresses:
    - '127.0.0.1:0'
  timeout: 5s
metrics:
  address: '127.0.0.1:0'
store:
  slot_width: 10m
  slot_count: 144
  rotate_interval: 1m
log:
  verbose: true
auth:
  allow_loopback: true
settings_file: '` + filepath.Join(dir, "setupVars.conf") + `'
lists_db: '` + filepath.Join(dir, "lists.db") + `'
max_body_size: 2KB
`
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	c, err := parseConfig([]byte(testConfig(t)))
	require.NoError(t, err)

	assert.Equal(t, []netip.AddrPort{netip.MustParseAddrPort("127.0.0.1:0")}, c.HTTP.Addresses)
	assert.Equal(t, 5*time.Second, time.Duration(c.HTTP.Timeout))
	assert.True(t, c.Metrics.enabled())
	assert.Equal(t, 10*time.Minute, time.Duration(c.Store.SlotWidth))
	assert.Equal(t, 144, c.Store.SlotCount)
	assert.True(t, c.Log.Verbose)
	assert.True(t, c.Auth.AllowLoopback)
	assert.Equal(t, 2*datasize.KB, c.MaxBodySize)
}

func TestParseConfig_errors(t *testing.T) {
	t.Parallel()

	valid := testConfig(t)

	testCases := []struct {
		name       string
		conf       string
		wantErrMsg string
	}{{
		name:       "unknown_field",
		conf:       valid + "frobnicate: true\n",
		wantErrMsg: "decoding:",
	}, {
		name:       "bad_slot_width",
		conf:       strings.Replace(valid, "slot_width: 10m", "slot_width: 1500ms", 1),
		wantErrMsg: "slot_width",
	}, {
		name:       "bad_slot_count",
		conf:       strings.Replace(valid, "slot_count: 144", "slot_count: 0", 1),
		wantErrMsg: "slot_count",
	}, {
		name:       "bad_password_hash",
		conf:       strings.Replace(valid, "allow_loopback: true", "password_hash: 'plain'", 1),
		wantErrMsg: "PasswordHash",
	}, {
		name:       "no_http",
		conf:       "store: {}\n",
		wantErrMsg: "http",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseConfig([]byte(tc.conf))
			require.Error(t, err)

			assert.Contains(t, err.Error(), tc.wantErrMsg)
		})
	}
}

func TestParseConfig_defaults(t *testing.T) {
	t.Parallel()

	conf := strings.Replace(testConfig(t), "max_body_size: 2KB\n", "", 1)
	conf = strings.Replace(conf, "metrics:\n  address: '127.0.0.1:0'\n", "", 1)

	c, err := parseConfig([]byte(conf))
	require.NoError(t, err)

	assert.Equal(t, 1*datasize.KB, c.MaxBodySize)
	assert.False(t, c.Metrics.enabled())
}
