// Package store provides the in-memory Store implementation used by tests
// and the dev server.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-books/inkwell/books"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	ledger   []books.LedgerEntry
	stock    []books.StockEntry
	accounts map[string]books.Account
	docs     map[docKey]books.DocumentRecord
	names    map[string]bool // ledger + stock entry names
	stockSeq int64
}

type docKey struct {
	Kind string
	Name string
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]books.Account),
		docs:     make(map[docKey]books.DocumentRecord),
		names:    make(map[string]bool),
	}
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

func (m *Memory) InsertLedgerEntries(_ context.Context, entries []books.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLedgerLocked(entries)
}

func (m *Memory) insertLedgerLocked(entries []books.LedgerEntry) error {
	// Check every name before writing anything.
	for _, e := range entries {
		if m.names[e.Name] {
			return books.ErrDuplicateName
		}
	}
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		m.ledger = append(m.ledger, e)
		m.names[e.Name] = true
	}
	return nil
}

func (m *Memory) LedgerEntries(_ context.Context, f books.LedgerFilter) ([]books.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []books.LedgerEntry
	for _, e := range m.ledger {
		if matchLedger(e, f) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func matchLedger(e books.LedgerEntry, f books.LedgerFilter) bool {
	if f.Account != "" && e.Account != f.Account {
		return false
	}
	if f.Party != "" && e.Party != f.Party {
		return false
	}
	if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
		return false
	}
	if f.ReferenceName != "" && e.ReferenceName != f.ReferenceName {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}

func (m *Memory) MarkReverted(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ledger {
		if m.ledger[i].Name == name {
			m.ledger[i].Reverted = true
			return nil
		}
	}
	return &books.NotFoundError{Kind: "LedgerEntry", Name: name}
}

func (m *Memory) DeleteLedgerEntriesByReference(_ context.Context, refType, refName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.ledger[:0]
	for _, e := range m.ledger {
		if e.ReferenceType == refType && e.ReferenceName == refName {
			delete(m.names, e.Name)
			continue
		}
		kept = append(kept, e)
	}
	m.ledger = kept
	return nil
}

// =============================================================================
// STOCK ENTRIES
// =============================================================================

func (m *Memory) InsertStockEntries(_ context.Context, entries []books.StockEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertStockLocked(entries)
}

func (m *Memory) insertStockLocked(entries []books.StockEntry) error {
	for _, e := range entries {
		if m.names[e.Name] {
			return books.ErrDuplicateName
		}
	}
	for _, e := range entries {
		m.stockSeq++
		e.Seq = m.stockSeq
		m.stock = append(m.stock, e)
		m.names[e.Name] = true
	}
	return nil
}

func (m *Memory) StockEntries(_ context.Context, f books.StockFilter) ([]books.StockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []books.StockEntry
	for _, e := range m.stock {
		if matchStock(e, f) {
			result = append(result, e)
		}
	}
	// Replay order: (date, creation sequence, name).
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if result[i].Seq != result[j].Seq {
			return result[i].Seq < result[j].Seq
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func matchStock(e books.StockEntry, f books.StockFilter) bool {
	if f.Item != "" && e.Item != f.Item {
		return false
	}
	if f.Location != "" && e.Location != f.Location {
		return false
	}
	if f.OnOrBefore != nil && e.Date.After(*f.OnOrBefore) {
		return false
	}
	if f.ExcludeReference != "" && e.ReferenceName == f.ExcludeReference {
		return false
	}
	return true
}

func (m *Memory) DeleteStockEntriesByReference(_ context.Context, refType, refName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.stock[:0]
	for _, e := range m.stock {
		if e.ReferenceType == refType && e.ReferenceName == refName {
			delete(m.names, e.Name)
			continue
		}
		kept = append(kept, e)
	}
	m.stock = kept
	return nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) InsertAccount(_ context.Context, a books.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[a.Name]; ok {
		return books.ErrDuplicateName
	}
	m.accounts[a.Name] = a
	return nil
}

func (m *Memory) Account(_ context.Context, name string) (*books.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[name]
	if !ok {
		return nil, &books.NotFoundError{Kind: "Account", Name: name}
	}
	return &a, nil
}

func (m *Memory) Accounts(_ context.Context) ([]books.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]books.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// =============================================================================
// DOCUMENT RECORDS
// =============================================================================

func (m *Memory) InsertDocument(_ context.Context, d books.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{Kind: d.Kind, Name: d.Name}
	if _, ok := m.docs[k]; ok {
		return books.ErrDuplicateName
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	m.docs[k] = d
	return nil
}

func (m *Memory) Document(_ context.Context, kind, name string) (*books.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[docKey{Kind: kind, Name: name}]
	if !ok {
		return nil, &books.NotFoundError{Kind: kind, Name: name}
	}
	return &d, nil
}

func (m *Memory) Documents(_ context.Context, kind string) ([]books.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []books.DocumentRecord
	for k, d := range m.docs {
		if k.Kind == kind {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) UpdateDocumentStatus(_ context.Context, kind, name string, status books.DocStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{Kind: kind, Name: name}
	d, ok := m.docs[k]
	if !ok {
		return &books.NotFoundError{Kind: kind, Name: name}
	}
	d.Status = status
	m.docs[k] = d
	return nil
}

func (m *Memory) DeleteDocument(_ context.Context, kind, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := docKey{Kind: kind, Name: name}
	if _, ok := m.docs[k]; !ok {
		return &books.NotFoundError{Kind: kind, Name: name}
	}
	delete(m.docs, k)
	return nil
}

func (m *Memory) Exists(_ context.Context, kind, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.docs[docKey{Kind: kind, Name: name}]
	return ok, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn against the store, simulated with a snapshot that is
// restored if fn fails. Locking is left to the individual operations; the
// calling layer serializes writes per document.
func (m *Memory) WithTx(_ context.Context, fn func(books.Store) error) error {
	m.mu.Lock()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restoreLocked(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	ledger   []books.LedgerEntry
	stock    []books.StockEntry
	accounts map[string]books.Account
	docs     map[docKey]books.DocumentRecord
	names    map[string]bool
	stockSeq int64
}

func (m *Memory) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{
		ledger:   append([]books.LedgerEntry(nil), m.ledger...),
		stock:    append([]books.StockEntry(nil), m.stock...),
		accounts: make(map[string]books.Account, len(m.accounts)),
		docs:     make(map[docKey]books.DocumentRecord, len(m.docs)),
		names:    make(map[string]bool, len(m.names)),
		stockSeq: m.stockSeq,
	}
	for k, v := range m.accounts {
		snap.accounts[k] = v
	}
	for k, v := range m.docs {
		snap.docs[k] = v
	}
	for k, v := range m.names {
		snap.names[k] = v
	}
	return snap
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.ledger = s.ledger
	m.stock = s.stock
	m.accounts = s.accounts
	m.docs = s.docs
	m.names = s.names
	m.stockSeq = s.stockSeq
}
