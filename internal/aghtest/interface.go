package aghtest

import (
	"context"

	"github.com/AdguardTeam/dnsreport/internal/blocking"
	"github.com/AdguardTeam/dnsreport/internal/domainlist"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
)

// Interface Mocks
//
// Keep entities in this file in alphabetic order.

// Package blocking

// BlockingPersister is a fake [blocking.Persister] implementation for tests.
type BlockingPersister struct {
	OnSetBlockingEnabled func(ctx context.Context, enabled bool) (err error)
}

// type check
var _ blocking.Persister = (*BlockingPersister)(nil)

// SetBlockingEnabled implements the [blocking.Persister] interface for
// *BlockingPersister.
func (p *BlockingPersister) SetBlockingEnabled(ctx context.Context, enabled bool) (err error) {
	return p.OnSetBlockingEnabled(ctx, enabled)
}

// Package domainlist

// ListStore is a fake [domainlist.Store] implementation for tests.
type ListStore struct {
	OnRange func(
		ctx context.Context,
		cat domainlist.Category,
		fn func(entry string) (cont bool),
	) (err error)
	OnAdd    func(ctx context.Context, cat domainlist.Category, entry string) (err error)
	OnRemove func(ctx context.Context, cat domainlist.Category, entry string) (err error)
}

// type check
var _ domainlist.Store = (*ListStore)(nil)

// Range implements the [domainlist.Store] interface for *ListStore.
func (s *ListStore) Range(
	ctx context.Context,
	cat domainlist.Category,
	fn func(entry string) (cont bool),
) (err error) {
	return s.OnRange(ctx, cat, fn)
}

// Add implements the [domainlist.Store] interface for *ListStore.
func (s *ListStore) Add(ctx context.Context, cat domainlist.Category, entry string) (err error) {
	return s.OnAdd(ctx, cat, entry)
}

// Remove implements the [domainlist.Store] interface for *ListStore.
func (s *ListStore) Remove(ctx context.Context, cat domainlist.Category, entry string) (err error) {
	return s.OnRemove(ctx, cat, entry)
}

// Package privacy

// PrivacySource is a fake [privacy.Source] implementation for tests.
type PrivacySource struct {
	OnPrivacyLevel func() (l privacy.Level)
}

// type check
var _ privacy.Source = (*PrivacySource)(nil)

// PrivacyLevel implements the [privacy.Source] interface for *PrivacySource.
func (s *PrivacySource) PrivacyLevel() (l privacy.Level) {
	return s.OnPrivacyLevel()
}
