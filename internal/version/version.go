// Package version contains the build information of dnsreport.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/stringutil"
)

// ChannelDevelopment is the release channel of the builds which do not set
// one.
const ChannelDevelopment = "development"

// These are set by the linker.  Unfortunately we cannot set constants during
// linking, and Go doesn't have a concept of immutable variables, so to be
// thorough we have to only export them through getters.
var (
	channel    string = ChannelDevelopment
	version    string
	committime string
)

// Channel returns the current release channel.
func Channel() (v string) {
	return channel
}

// Version returns the build version.
func Version() (v string) {
	return version
}

// vFmtFull defines the format of full version output.
const vFmtFull = "dnsreport, version %s"

// Full returns the full current version.
func Full() (v string) {
	return fmt.Sprintf(vFmtFull, version)
}

// CommitTime returns the time of the commit the binary was built from.  t is
// zero if the time is unknown or malformed.
func CommitTime() (t time.Time) {
	if committime == "" {
		return time.Time{}
	}

	sec, err := strconv.ParseInt(committime, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(sec, 0).UTC()
}

// Info is the build information served by the API.
type Info struct {
	CommitTime string `json:"commit_time,omitempty"`
	Channel    string `json:"channel"`
	GoVersion  string `json:"go_version"`
	Version    string `json:"version"`
}

// NewInfo returns the build information of the running binary.
func NewInfo() (info *Info) {
	info = &Info{
		Channel:   channel,
		GoVersion: runtime.Version(),
		Version:   version,
	}

	if t := CommitTime(); !t.IsZero() {
		info.CommitTime = t.Format(time.RFC3339)
	}

	return info
}

// fmtModule returns formatted information about module.  The result looks like:
//
//	github.com/Username/module@v1.2.3 (sum: someHASHSUM=)
func fmtModule(m *debug.Module) (formatted string) {
	if m == nil {
		return ""
	}

	if repl := m.Replace; repl != nil {
		return fmtModule(repl)
	}

	b := &strings.Builder{}

	stringutil.WriteToBuilder(b, m.Path)
	if ver := m.Version; ver != "" {
		sep := "@"
		if ver == "(devel)" {
			sep = " "
		}

		stringutil.WriteToBuilder(b, sep, ver)
	}

	if sum := m.Sum; sum != "" {
		stringutil.WriteToBuilder(b, " (sum: ", sum, ")")
	}

	return b.String()
}

// Verbose returns the build information in a human-readable form, one
// property per line, followed by the module dependencies:
//
//	dnsreport
//	Version: v0.1.0
//	Channel: development
//	Go version: go1.24.5
//	Commit time: 2024-01-01T12:00:00Z
//	GOOS: linux
//	GOARCH: amd64
//	Dependencies:
//		...
func Verbose() (v string) {
	info := NewInfo()
	b := &strings.Builder{}

	stringutil.WriteToBuilder(b, "dnsreport\n")
	writeProp(b, "Version", info.Version)
	writeProp(b, "Channel", info.Channel)
	writeProp(b, "Go version", info.GoVersion)
	if info.CommitTime != "" {
		writeProp(b, "Commit time", info.CommitTime)
	}

	writeProp(b, "GOOS", runtime.GOOS)
	writeProp(b, "GOARCH", runtime.GOARCH)

	bi, ok := debug.ReadBuildInfo()
	if !ok || len(bi.Deps) == 0 {
		return b.String()
	}

	stringutil.WriteToBuilder(b, "Dependencies:\n")
	for _, dep := range bi.Deps {
		if depStr := fmtModule(dep); depStr != "" {
			stringutil.WriteToBuilder(b, "\t", depStr, "\n")
		}
	}

	return b.String()
}

// writeProp writes a single "name: value" line to b.
func writeProp(b *strings.Builder, name, value string) {
	stringutil.WriteToBuilder(b, name, ": ", value, "\n")
}
