package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/queueup/waitlist/internal/model"
)

// MemoryStore is an in-process entry store guarded by a mutex.  It backs
// the STORE_DRIVER=memory mode used for local development and demos, and
// doubles as the store for unit tests.  Data does not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  uint64
	entries map[uint64]*model.QueueEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, entries: make(map[uint64]*model.QueueEntry)}
}

func (s *MemoryStore) clone(e *model.QueueEntry) *model.QueueEntry {
	c := *e
	if e.CalledAt != nil {
		t := *e.CalledAt
		c.CalledAt = &t
	}
	return &c
}

// Create assigns the next id and stores a copy of the entry.
func (s *MemoryStore) Create(_ context.Context, e *model.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.entries[e.ID] = s.clone(e)
	return nil
}

// Update replaces the stored entry with the given one.
func (s *MemoryStore) Update(_ context.Context, e *model.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		return ErrEntryNotFound
	}
	s.entries[e.ID] = s.clone(e)
	return nil
}

// GetByID returns a copy of the entry or ErrEntryNotFound.
func (s *MemoryStore) GetByID(_ context.Context, id uint64) (*model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return s.clone(e), nil
}

// latest picks the most recently created match; id breaks creation-time ties.
func (s *MemoryStore) latest(match func(*model.QueueEntry) bool) (*model.QueueEntry, error) {
	var best *model.QueueEntry
	for _, e := range s.entries {
		if !match(e) {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) ||
			(e.CreatedAt.Equal(best.CreatedAt) && e.ID > best.ID) {
			best = e
		}
	}
	if best == nil {
		return nil, ErrEntryNotFound
	}
	return s.clone(best), nil
}

// LatestByPhone returns the most recent entry for a phone number.
func (s *MemoryStore) LatestByPhone(_ context.Context, phone string) (*model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest(func(e *model.QueueEntry) bool { return e.PhoneNumber == phone })
}

// LatestByPhoneAndName returns the most recent entry matching phone and name.
func (s *MemoryStore) LatestByPhoneAndName(_ context.Context, phone, name string) (*model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest(func(e *model.QueueEntry) bool {
		return e.PhoneNumber == phone && e.Name == name
	})
}

func (s *MemoryStore) list(match func(*model.QueueEntry) bool) []model.QueueEntry {
	out := make([]model.QueueEntry, 0)
	for _, e := range s.entries {
		if match(e) {
			out = append(out, *s.clone(e))
		}
	}
	return out
}

// ListWaiting returns waiting entries ordered by ascending position.
func (s *MemoryStore) ListWaiting(_ context.Context) ([]model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.list(func(e *model.QueueEntry) bool { return e.Status == model.StatusWaiting })
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// ListAll returns every entry ordered by descending creation time.
func (s *MemoryStore) ListAll(_ context.Context) ([]model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.list(func(*model.QueueEntry) bool { return true })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListCalledBefore returns called entries with called_at older than cutoff.
func (s *MemoryStore) ListCalledBefore(_ context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(e *model.QueueEntry) bool {
		return e.Status == model.StatusCalled && e.CalledAt != nil && e.CalledAt.Before(cutoff)
	}), nil
}

// ListCreatedSince returns entries created at or after the given time.
func (s *MemoryStore) ListCreatedSince(_ context.Context, since time.Time) ([]model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(e *model.QueueEntry) bool { return !e.CreatedAt.Before(since) }), nil
}

// NextPosition returns one past the highest waiting position, or 1.
func (s *MemoryStore) NextPosition(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, e := range s.entries {
		if e.Status == model.StatusWaiting && e.Position > max {
			max = e.Position
		}
	}
	return max + 1, nil
}

// CountWaiting returns the number of waiting entries.
func (s *MemoryStore) CountWaiting(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == model.StatusWaiting {
			n++
		}
	}
	return n, nil
}

// CountWaitingAhead returns how many waiting entries have a smaller position.
func (s *MemoryStore) CountWaitingAhead(_ context.Context, position int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == model.StatusWaiting && e.Position < position {
			n++
		}
	}
	return n, nil
}

// CountAll returns the number of entries ever created.
func (s *MemoryStore) CountAll(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// CountDistinctPhones returns the number of unique phone numbers.
func (s *MemoryStore) CountDistinctPhones(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phones := make(map[string]struct{})
	for _, e := range s.entries {
		phones[e.PhoneNumber] = struct{}{}
	}
	return len(phones), nil
}
