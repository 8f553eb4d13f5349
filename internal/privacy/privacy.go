// Package privacy contains the privacy levels which control how much of the
// collected query data the reports may reveal.
package privacy

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// Level is the privacy level.  Higher levels are more restrictive.
type Level uint8

// Level values.
const (
	// LevelShowAll shows everything.
	LevelShowAll Level = 0

	// LevelHideDomains hides domain names.
	LevelHideDomains Level = 1

	// LevelHideDomainsAndClients hides domain names as well as client
	// addresses and names.
	LevelHideDomainsAndClients Level = 2

	// LevelMaximum hides everything including individual queries.
	LevelMaximum Level = 3
)

// Sentinels substituted for identities which must not be disclosed.
const (
	// HiddenDomain is the domain name of queries recorded while domains were
	// hidden.
	HiddenDomain = "hidden"

	// HiddenClientIP is the address of clients recorded while clients were
	// hidden.
	HiddenClientIP = "0.0.0.0"

	// HiddenClientName is the name of clients recorded while clients were
	// hidden.
	HiddenClientName = "hidden"
)

// ParseLevel parses the decimal representation of a privacy level.
func ParseLevel(s string) (l Level, err error) {
	switch s {
	case "0":
		return LevelShowAll, nil
	case "1":
		return LevelHideDomains, nil
	case "2":
		return LevelHideDomainsAndClients, nil
	case "3":
		return LevelMaximum, nil
	default:
		return LevelShowAll, fmt.Errorf("privacy level: %w: %q", errors.ErrBadEnumValue, s)
	}
}

// Validate returns an error if l is not one of the known levels.
func (l Level) Validate() (err error) {
	if l > LevelMaximum {
		return fmt.Errorf("privacy level: %w: %d", errors.ErrBadEnumValue, l)
	}

	return nil
}

// String implements the [fmt.Stringer] interface for Level.
func (l Level) String() (s string) {
	switch l {
	case LevelShowAll:
		return "show_all"
	case LevelHideDomains:
		return "hide_domains"
	case LevelHideDomainsAndClients:
		return "hide_domains_and_clients"
	case LevelMaximum:
		return "maximum"
	default:
		return fmt.Sprintf("!bad_level_%d", uint8(l))
	}
}

// Source returns the current privacy level.  Implementations must be safe
// for concurrent use.
type Source interface {
	PrivacyLevel() (l Level)
}

// Fixed is a [Source] that always returns the same level.
type Fixed Level

// type check
var _ Source = Fixed(0)

// PrivacyLevel implements the [Source] interface for Fixed.
func (f Fixed) PrivacyLevel() (l Level) {
	return Level(f)
}

// Gate reports whether an operation restricted at threshold must return an
// empty result at the current level cur.
func Gate(cur, threshold Level) (closed bool) {
	return cur >= threshold
}

// DomainName returns the name of the domain as it may be displayed for a
// record created at level rec.
func DomainName(rec Level, name string) (shown string) {
	if rec >= LevelHideDomains {
		return HiddenDomain
	}

	return name
}

// ClientIP returns the address of the client as it may be displayed for a
// record created at level rec.
func ClientIP(rec Level, ip string) (shown string) {
	if rec >= LevelHideDomainsAndClients {
		return HiddenClientIP
	}

	return ip
}

// ClientName returns the name of the client as it may be displayed for a
// record created at level rec.  An empty name stays empty.
func ClientName(rec Level, name string) (shown string) {
	if name == "" {
		return ""
	}

	if rec >= LevelHideDomainsAndClients {
		return HiddenClientName
	}

	return name
}

// IsHiddenDomain returns true if name is the hidden-domain sentinel.
func IsHiddenDomain(name string) (ok bool) {
	return name == HiddenDomain
}

// IsHiddenClient returns true if ip is the hidden-client sentinel.
func IsHiddenClient(ip string) (ok bool) {
	return ip == HiddenClientIP
}
