// Package service implements the waitlist business rules on top of an
// abstract entry store: joining and deduplication, the status state
// machine, position ranking and the analytics aggregations.
package service

import (
	"context"
	"time"

	"github.com/queueup/waitlist/internal/model"
)

// EntryStore abstracts persistence of waitlist entries.  It is satisfied by
// both repository.EntryRepo (MySQL) and repository.MemoryStore.  Every
// operation reads current state from the store immediately before acting;
// no entries are cached across calls.
type EntryStore interface {
	Create(ctx context.Context, e *model.QueueEntry) error
	Update(ctx context.Context, e *model.QueueEntry) error
	GetByID(ctx context.Context, id uint64) (*model.QueueEntry, error)
	LatestByPhone(ctx context.Context, phone string) (*model.QueueEntry, error)
	LatestByPhoneAndName(ctx context.Context, phone, name string) (*model.QueueEntry, error)
	ListWaiting(ctx context.Context) ([]model.QueueEntry, error)
	ListAll(ctx context.Context) ([]model.QueueEntry, error)
	ListCalledBefore(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]model.QueueEntry, error)
	NextPosition(ctx context.Context) (int, error)
	CountWaiting(ctx context.Context) (int, error)
	CountWaitingAhead(ctx context.Context, position int) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountDistinctPhones(ctx context.Context) (int, error)
}
