package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/GoPolymarket/whaleledger/internal/keys"
)

// MemoryStore keeps records in process. Atomic units are serialised by a
// single lock; writes are staged and applied only when the unit succeeds.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[common.Hash]*memEntry
	seq     uint64
	now     func() time.Time
}

type memEntry struct {
	rec *Record
	seq uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[common.Hash]*memEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, slot keys.Slot, kind Kind) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.records[slot.Address]
	if !ok {
		return nil, ErrNotFound
	}
	if entry.rec.Kind != kind {
		return nil, ErrKindMismatch
	}
	return cloneRecord(entry.rec), nil
}

func (s *MemoryStore) List(_ context.Context, kind Kind, limit, offset int) ([]*Record, error) {
	limit, offset = normalizePage(limit, offset)
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*memEntry, 0)
	for _, entry := range s.records {
		if entry.rec.Kind == kind {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	if offset >= len(entries) {
		return []*Record{}, nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		out = append(out, cloneRecord(entry.rec))
	}
	return out, nil
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:   s,
		staged:  make(map[common.Hash]*Record),
		created: make(map[common.Hash]bool),
		now:     s.now(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, rec := range tx.staged {
		if rec == nil {
			delete(s.records, key)
			continue
		}
		if existing, ok := s.records[key]; ok && !tx.created[key] {
			existing.rec = rec
			continue
		}
		s.seq++
		s.records[key] = &memEntry{rec: rec, seq: s.seq}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

type memTx struct {
	store   *MemoryStore
	staged  map[common.Hash]*Record
	created map[common.Hash]bool
	now     time.Time
}

func (t *memTx) lookup(slot keys.Slot) (*Record, bool) {
	if rec, ok := t.staged[slot.Address]; ok {
		return rec, rec != nil
	}
	entry, ok := t.store.records[slot.Address]
	if !ok {
		return nil, false
	}
	return entry.rec, true
}

func (t *memTx) Get(_ context.Context, slot keys.Slot, kind Kind) (*Record, error) {
	rec, ok := t.lookup(slot)
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Kind != kind {
		return nil, ErrKindMismatch
	}
	return cloneRecord(rec), nil
}

func (t *memTx) View(ctx context.Context, slot keys.Slot, kind Kind) (*Record, error) {
	return t.Get(ctx, slot, kind)
}

func (t *memTx) Create(_ context.Context, slot keys.Slot, kind Kind, data []byte) error {
	if _, ok := t.lookup(slot); ok {
		return ErrAlreadyExists
	}
	t.created[slot.Address] = true
	t.staged[slot.Address] = &Record{
		Slot:      slot,
		Kind:      kind,
		Data:      append([]byte(nil), data...),
		CreatedAt: t.now,
		UpdatedAt: t.now,
	}
	return nil
}

func (t *memTx) Update(_ context.Context, slot keys.Slot, kind Kind, data []byte) error {
	rec, ok := t.lookup(slot)
	if !ok {
		return ErrNotFound
	}
	if rec.Kind != kind {
		return ErrKindMismatch
	}
	next := cloneRecord(rec)
	next.Data = append([]byte(nil), data...)
	next.UpdatedAt = t.now
	t.staged[slot.Address] = next
	return nil
}

func (t *memTx) Delete(_ context.Context, slot keys.Slot, kind Kind) error {
	rec, ok := t.lookup(slot)
	if !ok {
		return ErrNotFound
	}
	if rec.Kind != kind {
		return ErrKindMismatch
	}
	t.staged[slot.Address] = nil
	return nil
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	out.Data = append([]byte(nil), rec.Data...)
	return &out
}
