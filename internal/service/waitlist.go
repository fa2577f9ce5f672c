package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/queueup/waitlist/internal/model"
	"github.com/queueup/waitlist/internal/repository"
)

// Party size bounds accepted on join.
const (
	minPeople = 1
	maxPeople = 15
)

// phoneLength is the number of digits a normalized phone number must have.
const phoneLength = 10

// Notifier publishes lifecycle notifications for downstream consumers
// (display boards, SMS relays).  Implementations must be best-effort: a
// publish failure never fails the operator's request.
type Notifier interface {
	EntryCalled(ctx context.Context, e *model.QueueEntry)
}

// WaitlistService is the queue lifecycle engine.  It owns the transition
// rules between waiting/called/cancelled/completed and the assignment of
// position numbers.  The joinMu single-writer lock serializes position
// allocation with entry persistence so two concurrent joins cannot read
// the same next position.
type WaitlistService struct {
	store    EntryStore
	notifier Notifier
	now      func() time.Time
	joinMu   sync.Mutex
}

// NewWaitlistService returns a WaitlistService bound to the given store.
// notifier may be nil to disable notifications.
func NewWaitlistService(store EntryStore, notifier Notifier) *WaitlistService {
	return &WaitlistService{store: store, notifier: notifier, now: func() time.Time { return time.Now().UTC() }}
}

// JoinResult carries the entry a join request resolved to plus the flags
// the client uses to render a "welcome back" versus "new" greeting.
type JoinResult struct {
	Entry      *model.QueueEntry
	IsExisting bool // the phone already has a waiting entry; returned unchanged
	IsReused   bool // a terminal entry for the same phone and name was reactivated
}

// PositionInfo is the customer's computed rank among waiting entries.
type PositionInfo struct {
	Position     int `json:"position"`
	TotalWaiting int `json:"totalWaiting"`
}

// validateJoin checks the join inputs against the schema constraints and
// returns a ValidationError naming the first offending field.
func validateJoin(name, phone string, people int) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	if len(phone) != phoneLength {
		return &ValidationError{Field: "phoneNumber", Message: "Phone number must be exactly 10 digits"}
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return &ValidationError{Field: "phoneNumber", Message: "Phone number must only contain digits"}
		}
	}
	if people < minPeople {
		return &ValidationError{Field: "numberOfPeople", Message: "At least 1 person required"}
	}
	if people > maxPeople {
		return &ValidationError{Field: "numberOfPeople", Message: "Maximum 15 people"}
	}
	return nil
}

// Join handles a customer's request to enter the waitlist.
//
// The phone number is the dedup key: when its most recent entry is still
// waiting that entry is returned unchanged (idempotent rejoin).  Otherwise
// a terminal entry matching both phone and name is reactivated with a
// fresh position, and failing that a brand-new entry is created.  The
// visit count of a reactivated entry is preserved; it only grows when a
// visit completes.
func (s *WaitlistService) Join(ctx context.Context, name, phone string, people int) (*JoinResult, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if err := validateJoin(name, phone, people); err != nil {
		return nil, err
	}

	latest, err := s.store.LatestByPhone(ctx, phone)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if latest != nil && latest.Status == model.StatusWaiting {
		return &JoinResult{Entry: latest, IsExisting: true}, nil
	}

	// Allocation and persistence happen under the lock so concurrent joins
	// observe each other's positions.
	s.joinMu.Lock()
	defer s.joinMu.Unlock()

	existing, err := s.store.LatestByPhoneAndName(ctx, phone, name)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	position, err := s.store.NextPosition(ctx)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.NumberOfPeople = people
		existing.Status = model.StatusWaiting
		existing.Position = position
		existing.CreatedAt = s.now()
		existing.CalledAt = nil
		if err := s.store.Update(ctx, existing); err != nil {
			return nil, err
		}
		return &JoinResult{Entry: existing, IsReused: true}, nil
	}

	entry := &model.QueueEntry{
		Name:           name,
		PhoneNumber:    phone,
		NumberOfPeople: people,
		Position:       position,
		Status:         model.StatusWaiting,
		CreatedAt:      s.now(),
		VisitCount:     1,
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, err
	}
	return &JoinResult{Entry: entry}, nil
}

// isNotFound reports whether err is the store's structured absence.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrEntryNotFound)
}

// Queue returns all waiting entries ordered by ascending position.
func (s *WaitlistService) Queue(ctx context.Context) ([]model.QueueEntry, error) {
	return s.store.ListWaiting(ctx)
}

// AllEntries returns every entry ordered by descending creation time.
func (s *WaitlistService) AllEntries(ctx context.Context) ([]model.QueueEntry, error) {
	return s.store.ListAll(ctx)
}

// Entry returns a single entry by id.
func (s *WaitlistService) Entry(ctx context.Context, id uint64) (*model.QueueEntry, error) {
	return s.store.GetByID(ctx, id)
}

// LatestByPhone returns the most recent entry for a phone number.
func (s *WaitlistService) LatestByPhone(ctx context.Context, phone string) (*model.QueueEntry, error) {
	return s.store.LatestByPhone(ctx, strings.TrimSpace(phone))
}

// Position reports the customer's 1-based rank among waiting entries and
// the total number waiting.  The rank is computed by counting waiting
// entries with a strictly smaller stored position, which tolerates the
// gaps cancellations leave behind.  Entries that are not waiting have no
// position; the store's not-found error is returned for them.
func (s *WaitlistService) Position(ctx context.Context, id uint64) (*PositionInfo, error) {
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != model.StatusWaiting {
		// Position is not applicable outside the waiting state; callers see
		// the same structured absence as an unknown id.
		return nil, repository.ErrEntryNotFound
	}
	ahead, err := s.store.CountWaitingAhead(ctx, entry.Position)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountWaiting(ctx)
	if err != nil {
		return nil, err
	}
	return &PositionInfo{Position: ahead + 1, TotalWaiting: total}, nil
}

// Call transitions a waiting entry to called, stamping calledAt.  The
// entry's position is cleared; rank is only defined while waiting.  A
// notification event is published best-effort.
func (s *WaitlistService) Call(ctx context.Context, id uint64) (*model.QueueEntry, error) {
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidTransition(model.EventCall, entry.Status) {
		return nil, ErrInvalidTransition
	}
	now := s.now()
	entry.Status = model.StatusCalled
	entry.CalledAt = &now
	entry.Position = 0
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.EntryCalled(ctx, entry)
	}
	return entry, nil
}

// Complete transitions a called entry to completed and increments its
// visit count.  This is the only place the visit count grows: a completed
// visit is the unit of customer loyalty tracking.
func (s *WaitlistService) Complete(ctx context.Context, id uint64) (*model.QueueEntry, error) {
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidTransition(model.EventComplete, entry.Status) {
		return nil, ErrInvalidTransition
	}
	entry.Status = model.StatusCompleted
	entry.Position = 0
	entry.VisitCount++
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Cancel transitions a waiting or called entry to cancelled.  It is used
// by customers backing out, by operators, and by the sweeper when a called
// customer never shows up.  Cancelling an already-cancelled entry is a
// no-op returning the entry unchanged; cancelling a completed entry is
// rejected.  The visit count is never touched here.
func (s *WaitlistService) Cancel(ctx context.Context, id uint64) (*model.QueueEntry, error) {
	entry, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status == model.StatusCancelled {
		return entry, nil
	}
	if !model.ValidTransition(model.EventCancel, entry.Status) {
		return nil, ErrInvalidTransition
	}
	entry.Status = model.StatusCancelled
	entry.Position = 0
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
