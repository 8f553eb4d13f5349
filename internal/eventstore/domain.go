package eventstore

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeDomain returns the lowercase ASCII form of the domain name, which
// is the form the store keeps domains in.
func NormalizeDomain(s string) (name string, err error) {
	name, err = idna.ToASCII(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", fmt.Errorf("domain %q: %w", s, err)
	}

	return name, nil
}

// normalizeDomain is like [NormalizeDomain] but keeps the lowercase form of
// names which cannot be converted to ASCII.
func normalizeDomain(s string) (name string) {
	name, err := NormalizeDomain(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}

	return name
}
