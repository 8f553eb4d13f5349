// Package domainlist contains the allow and deny lists of domains and regular
// expressions.
package domainlist

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/errors"
	"golang.org/x/net/idna"
)

// Category is a named list of entries.
type Category uint8

// Category values.
const (
	CategoryExactAllow Category = iota
	CategoryExactDeny
	CategoryRegexAllow
	CategoryRegexDeny

	// CategoryAudit is the list of domains which have been reviewed and are
	// omitted from the top lists in audit mode.
	CategoryAudit

	categoryCount
)

// String implements the [fmt.Stringer] interface for Category.  The names are
// the table names of the lists.
func (c Category) String() (s string) {
	switch c {
	case CategoryExactAllow:
		return "whitelist"
	case CategoryExactDeny:
		return "blacklist"
	case CategoryRegexAllow:
		return "regex_whitelist"
	case CategoryRegexDeny:
		return "regex_blacklist"
	case CategoryAudit:
		return "auditlist"
	default:
		return fmt.Sprintf("!bad_category_%d", uint8(c))
	}
}

// IsRegex returns true if the entries of the category are regular expressions.
func (c Category) IsRegex() (ok bool) {
	return c == CategoryRegexAllow || c == CategoryRegexDeny
}

// Validate returns an error if c is not a known category.
func (c Category) Validate() (err error) {
	if c >= categoryCount {
		return fmt.Errorf("category: %w: %d", errors.ErrBadEnumValue, c)
	}

	return nil
}

// ErrNotFound is returned when removing an entry which is not in the list.
const ErrNotFound errors.Error = "no such entry"

// Store is the persistent storage of the lists.  All methods must be safe for
// concurrent use.
type Store interface {
	// Range calls fn for each entry of the category in storage order until fn
	// returns false.
	Range(ctx context.Context, cat Category, fn func(entry string) (cont bool)) (err error)

	// Add adds the entry to the category.  It returns an error wrapping
	// [errors.ErrDuplicated] if the entry is already there.
	Add(ctx context.Context, cat Category, entry string) (err error)

	// Remove removes the entry from the category.  It returns an error wrapping
	// [ErrNotFound] if there is no such entry.
	Remove(ctx context.Context, cat Category, entry string) (err error)
}

// StoreError is returned by [Manager] when a list operation fails.
type StoreError struct {
	// Err is the underlying error.  It must not be nil.
	Err error

	// Entry is the entry of the failed operation.
	Entry string

	// Category is the category of the failed operation.
	Category Category
}

// type check
var _ error = (*StoreError)(nil)

// Error implements the [error] interface for *StoreError.
func (err *StoreError) Error() (msg string) {
	return fmt.Sprintf("list %s: entry %q: %s", err.Category, err.Entry, err.Err)
}

// Unwrap returns the underlying error.
func (err *StoreError) Unwrap() (unwrapped error) {
	return err.Err
}

// Config is the configuration structure for [Manager].
type Config struct {
	// Logger is used for logging the operation of the manager.  It must not be
	// nil.
	Logger *slog.Logger

	// Store is the persistent storage of the lists.  It must not be nil.
	Store Store
}

// Manager is the facade over the lists.  Changes of one category are
// serialized.  Changes of different categories are independent, so the last
// write wins.
type Manager struct {
	logger *slog.Logger
	store  Store

	// mus serialize changes of each category.
	mus [categoryCount]*sync.Mutex
}

// New returns a new properly initialized *Manager.  conf must not be nil.
func New(conf *Config) (m *Manager) {
	m = &Manager{
		logger: conf.Logger,
		store:  conf.Store,
	}

	for i := range m.mus {
		m.mus[i] = &sync.Mutex{}
	}

	return m
}

// List returns the entries of the category.  Every iteration reads the current
// contents of the store.  A storage error is yielded as the last element.
func (m *Manager) List(ctx context.Context, cat Category) (seq iter.Seq2[string, error]) {
	return func(yield func(entry string, err error) (cont bool)) {
		err := cat.Validate()
		if err != nil {
			yield("", &StoreError{Err: err, Category: cat})

			return
		}

		stopped := false
		err = m.store.Range(ctx, cat, func(entry string) (cont bool) {
			stopped = !yield(entry, nil)

			return !stopped
		})
		if err != nil && !stopped {
			yield("", &StoreError{Err: err, Category: cat})
		}
	}
}

// Add adds the entry to the category.  Exact entries are normalized, regular
// expressions are stored verbatim.  Any error is a *StoreError.
func (m *Manager) Add(ctx context.Context, cat Category, entry string) (err error) {
	norm, err := normalize(cat, entry)
	if err != nil {
		return &StoreError{Err: err, Entry: entry, Category: cat}
	}

	m.mus[cat].Lock()
	defer m.mus[cat].Unlock()

	err = m.store.Add(ctx, cat, norm)
	if err != nil {
		return &StoreError{Err: err, Entry: norm, Category: cat}
	}

	m.logger.DebugContext(ctx, "added entry", "list", cat, "entry", norm)

	return nil
}

// Remove removes the entry from the category.  Any error is a *StoreError.
func (m *Manager) Remove(ctx context.Context, cat Category, entry string) (err error) {
	norm, err := normalize(cat, entry)
	if err != nil {
		return &StoreError{Err: err, Entry: entry, Category: cat}
	}

	m.mus[cat].Lock()
	defer m.mus[cat].Unlock()

	err = m.store.Remove(ctx, cat, norm)
	if err != nil {
		return &StoreError{Err: err, Entry: norm, Category: cat}
	}

	m.logger.DebugContext(ctx, "removed entry", "list", cat, "entry", norm)

	return nil
}

// Audited returns a predicate reporting whether a domain is on the audit list.
// The list is read once.
func (m *Manager) Audited(ctx context.Context) (pred func(domain string) (ok bool), err error) {
	audited := container.NewMapSet[string]()
	for d, rangeErr := range m.List(ctx, CategoryAudit) {
		if rangeErr != nil {
			return nil, rangeErr
		}

		audited.Add(d)
	}

	return audited.Has, nil
}

// normalize validates the entry and converts exact domain names into their
// lowercase ASCII form.
func normalize(cat Category, entry string) (norm string, err error) {
	err = cat.Validate()
	if err != nil {
		return "", err
	}

	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", fmt.Errorf("entry: %w", errors.ErrEmptyValue)
	}

	if cat.IsRegex() {
		return entry, nil
	}

	norm, err = idna.ToASCII(strings.ToLower(entry))
	if err != nil {
		return "", fmt.Errorf("converting %q: %w", entry, err)
	}

	return norm, nil
}
