package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFmtModule(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		mod  *debug.Module
		name string
		want string
	}{{
		mod:  nil,
		name: "nil",
		want: "",
	}, {
		mod:  &debug.Module{Path: "example.org/mod", Version: "v1.2.3", Sum: "h1:abc="},
		name: "full",
		want: "example.org/mod@v1.2.3 (sum: h1:abc=)",
	}, {
		mod:  &debug.Module{Path: "example.org/mod", Version: "(devel)"},
		name: "devel",
		want: "example.org/mod (devel)",
	}, {
		mod: &debug.Module{
			Path:    "example.org/mod",
			Version: "v1.0.0",
			Replace: &debug.Module{Path: "example.org/fork", Version: "v1.0.1"},
		},
		name: "replace",
		want: "example.org/fork@v1.0.1",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, fmtModule(tc.mod))
		})
	}
}

func TestNewInfo(t *testing.T) {
	info := NewInfo()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, channel, info.Channel)
	assert.Equal(t, ChannelDevelopment, Channel())
	assert.Equal(t, "dnsreport, version "+Version(), Full())

	prev := committime
	t.Cleanup(func() { committime = prev })

	committime = "1704110400"
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), CommitTime())
	assert.Equal(t, "2024-01-01T12:00:00Z", NewInfo().CommitTime)

	committime = "bad"
	assert.True(t, CommitTime().IsZero())
	assert.True(t, strings.HasPrefix(Verbose(), "dnsreport\n"))
}
