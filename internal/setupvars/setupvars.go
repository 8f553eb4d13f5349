// Package setupvars contains the key-value settings file shared with the
// administration scripts.
package setupvars

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/errors"
)

// Keys of the settings file.
const (
	KeyExcludeDomains  = "API_EXCLUDE_DOMAINS"
	KeyExcludeClients  = "API_EXCLUDE_CLIENTS"
	KeyQueryLogShow    = "API_QUERY_LOG_SHOW"
	KeyPrivacyLevel    = "PRIVACYLEVEL"
	KeyBlockingEnabled = "BLOCKING_ENABLED"
)

// Show is the set of queries the query log and the top lists show by
// default.
type Show uint8

// Show values.
const (
	ShowAll Show = iota
	ShowPermittedOnly
	ShowBlockedOnly
	ShowNothing
)

// ParseShow parses the value of the [KeyQueryLogShow] key.  Empty string means
// [ShowAll].
func ParseShow(s string) (show Show, err error) {
	switch s {
	case "", "all":
		return ShowAll, nil
	case "permittedonly":
		return ShowPermittedOnly, nil
	case "blockedonly":
		return ShowBlockedOnly, nil
	case "nothing":
		return ShowNothing, nil
	default:
		return ShowAll, fmt.Errorf("%w: %q", errors.ErrBadEnumValue, s)
	}
}

// String implements the [fmt.Stringer] interface for Show.
func (s Show) String() (str string) {
	switch s {
	case ShowAll:
		return "all"
	case ShowPermittedOnly:
		return "permittedonly"
	case ShowBlockedOnly:
		return "blockedonly"
	case ShowNothing:
		return "nothing"
	default:
		return fmt.Sprintf("!bad_show_%d", uint8(s))
	}
}

// Permitted returns true if permitted queries are shown.
func (s Show) Permitted() (ok bool) {
	return s == ShowAll || s == ShowPermittedOnly
}

// Blocked returns true if blocked queries are shown.
func (s Show) Blocked() (ok bool) {
	return s == ShowAll || s == ShowBlockedOnly
}

// Settings are the parsed contents of the settings file.  Settings are never
// modified after being published, so they must be treated as read-only.
type Settings struct {
	// ExcludeDomains are the domains removed from the top lists.  It is never
	// nil.
	ExcludeDomains *container.MapSet[string]

	// ExcludeClients are the client addresses and names removed from the top
	// lists and the clients over time.  It is never nil.
	ExcludeClients *container.MapSet[string]

	// QueryLogShow is the default visibility of queries.
	QueryLogShow Show

	// PrivacyLevel is the current privacy level.
	PrivacyLevel privacy.Level

	// BlockingEnabled is true if blocking is enabled.
	BlockingEnabled bool
}

// Default returns the settings used when there is no settings file.
func Default() (s *Settings) {
	return &Settings{
		ExcludeDomains:  container.NewMapSet[string](),
		ExcludeClients:  container.NewMapSet[string](),
		QueryLogShow:    ShowAll,
		PrivacyLevel:    privacy.LevelShowAll,
		BlockingEnabled: true,
	}
}

// line is a single line of the settings file.  key is empty for comments and
// blank lines.
type line struct {
	key string
	raw string
}

// parse parses the settings file data.  It returns the lines to preserve when
// writing the file back.
func parse(data []byte) (s *Settings, lines []line, err error) {
	s = Default()

	var errs []error
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		raw := sc.Text()
		key, val, ok := splitLine(raw)
		lines = append(lines, line{key: key, raw: raw})
		if !ok {
			continue
		}

		err = s.set(key, val)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %s: %w", n, key, err))
		}
	}

	err = sc.Err()
	if err != nil {
		return nil, nil, fmt.Errorf("scanning: %w", err)
	}

	return s, lines, errors.Join(errs...)
}

// splitLine returns the key and the value of the raw line.  ok is false for
// comments, blank lines, and lines without a separator.
func splitLine(raw string) (key, val string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed[0] == '#' {
		return "", "", false
	}

	key, val, ok = strings.Cut(trimmed, "=")
	if !ok {
		return "", "", false
	}

	return strings.TrimSpace(key), strings.TrimSpace(val), true
}

// set sets the field corresponding to key.  Unknown keys are ignored.
func (s *Settings) set(key, val string) (err error) {
	switch key {
	case KeyExcludeDomains:
		s.ExcludeDomains = parseList(val)
	case KeyExcludeClients:
		s.ExcludeClients = parseList(val)
	case KeyQueryLogShow:
		s.QueryLogShow, err = ParseShow(val)
	case KeyPrivacyLevel:
		s.PrivacyLevel, err = privacy.ParseLevel(val)
	case KeyBlockingEnabled:
		s.BlockingEnabled, err = strconv.ParseBool(val)
	default:
		// Go on.
	}

	return err
}

// parseList parses a comma-separated list of identifiers.
func parseList(val string) (set *container.MapSet[string]) {
	set = container.NewMapSet[string]()
	for _, v := range strings.Split(val, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			set.Add(v)
		}
	}

	return set
}

// render returns the file data with the key set to val.  A missing key is
// appended.
func render(lines []line, key, val string) (data []byte, next []line) {
	next = make([]line, 0, len(lines)+1)
	found := false
	for _, l := range lines {
		if l.key == key {
			if found {
				continue
			}

			l.raw, found = key+"="+val, true
		}

		next = append(next, l)
	}

	if !found {
		next = append(next, line{key: key, raw: key + "=" + val})
	}

	buf := &bytes.Buffer{}
	for _, l := range next {
		buf.WriteString(l.raw)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), next
}
