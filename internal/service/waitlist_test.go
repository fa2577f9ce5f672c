package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueup/waitlist/internal/model"
	"github.com/queueup/waitlist/internal/repository"
)

// recordingNotifier captures the entries published as called.
type recordingNotifier struct {
	called []uint64
}

func (n *recordingNotifier) EntryCalled(_ context.Context, e *model.QueueEntry) {
	n.called = append(n.called, e.ID)
}

func newTestService() (*WaitlistService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	svc := NewWaitlistService(store, nil)
	return svc, store
}

func mustJoin(t *testing.T, svc *WaitlistService, name, phone string, people int) *model.QueueEntry {
	t.Helper()
	res, err := svc.Join(context.Background(), name, phone, people)
	require.NoError(t, err)
	return res.Entry
}

func TestJoinAssignsSequentialPositions(t *testing.T) {
	svc, _ := newTestService()
	phones := []string{"5550000001", "5550000002", "5550000003", "5550000004"}
	for i, phone := range phones {
		entry := mustJoin(t, svc, "Guest", phone, 2)
		assert.Equal(t, i+1, entry.Position)
		assert.Equal(t, model.StatusWaiting, entry.Status)
		assert.Equal(t, 1, entry.VisitCount)
	}
}

func TestJoinValidation(t *testing.T) {
	svc, _ := newTestService()
	cases := []struct {
		name      string
		custName  string
		phone     string
		people    int
		wantField string
	}{
		{"empty name", "  ", "5551234567", 2, "name"},
		{"short phone", "Alice", "555123", 2, "phoneNumber"},
		{"long phone", "Alice", "55512345678", 2, "phoneNumber"},
		{"non-digit phone", "Alice", "555123456a", 2, "phoneNumber"},
		{"zero people", "Alice", "5551234567", 0, "numberOfPeople"},
		{"too many people", "Alice", "5551234567", 16, "numberOfPeople"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Join(context.Background(), tc.custName, tc.phone, tc.people)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.wantField, ve.Field)
		})
	}
}

func TestJoinTrimsInputs(t *testing.T) {
	svc, _ := newTestService()
	entry := mustJoin(t, svc, "  Alice  ", " 5551234567 ", 2)
	assert.Equal(t, "Alice", entry.Name)
	assert.Equal(t, "5551234567", entry.PhoneNumber)
}

func TestRejoinWhileWaitingIsIdempotent(t *testing.T) {
	svc, store := newTestService()
	first := mustJoin(t, svc, "Alice", "5551234567", 2)

	res, err := svc.Join(context.Background(), "Alice", "5551234567", 4)
	require.NoError(t, err)
	assert.True(t, res.IsExisting)
	assert.False(t, res.IsReused)
	assert.Equal(t, first.ID, res.Entry.ID)
	assert.Equal(t, first.Position, res.Entry.Position)
	// The waiting entry is returned unchanged, party size included.
	assert.Equal(t, 2, res.Entry.NumberOfPeople)

	total, err := store.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRejoinAfterCancelReactivates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	alice := mustJoin(t, svc, "Alice", "5551234567", 2)
	mustJoin(t, svc, "Bob", "5559876543", 4)

	_, err := svc.Cancel(ctx, alice.ID)
	require.NoError(t, err)

	res, err := svc.Join(ctx, "Alice", "5551234567", 3)
	require.NoError(t, err)
	assert.True(t, res.IsReused)
	assert.False(t, res.IsExisting)
	assert.Equal(t, alice.ID, res.Entry.ID, "reactivation revives the row, no new id")
	assert.Equal(t, 3, res.Entry.NumberOfPeople)
	assert.Equal(t, model.StatusWaiting, res.Entry.Status)
	assert.Equal(t, 3, res.Entry.Position, "new position is one past the highest waiting")
	assert.Nil(t, res.Entry.CalledAt)
	assert.Equal(t, 1, res.Entry.VisitCount, "reactivation never touches the visit count")
}

func TestRejoinAfterCompleteReactivatesAndKeepsVisits(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	alice := mustJoin(t, svc, "Alice", "5551234567", 2)

	_, err := svc.Call(ctx, alice.ID)
	require.NoError(t, err)
	done, err := svc.Complete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, done.VisitCount)

	res, err := svc.Join(ctx, "Alice", "5551234567", 2)
	require.NoError(t, err)
	assert.True(t, res.IsReused)
	assert.Equal(t, 2, res.Entry.VisitCount)
	assert.Nil(t, res.Entry.CalledAt, "reactivation clears the call timestamp")
}

func TestRejoinWithDifferentNameCreatesNewEntry(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	alice := mustJoin(t, svc, "Alice", "5551234567", 2)
	_, err := svc.Cancel(ctx, alice.ID)
	require.NoError(t, err)

	// Same phone, different name: the reactivation key does not match.
	res, err := svc.Join(ctx, "Alicia", "5551234567", 2)
	require.NoError(t, err)
	assert.False(t, res.IsReused)
	assert.False(t, res.IsExisting)
	assert.NotEqual(t, alice.ID, res.Entry.ID)

	total, err := store.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCallStampsCalledAtAndNotifies(t *testing.T) {
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewWaitlistService(store, notifier)
	ctx := context.Background()

	entry := mustJoin(t, svc, "Alice", "5551234567", 2)
	called, err := svc.Call(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCalled, called.Status)
	require.NotNil(t, called.CalledAt)
	assert.WithinDuration(t, time.Now().UTC(), *called.CalledAt, 2*time.Second)
	assert.Equal(t, 0, called.Position, "position is only defined while waiting")
	assert.Equal(t, []uint64{entry.ID}, notifier.called)
}

func TestCallRejectedUnlessWaiting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	entry := mustJoin(t, svc, "Alice", "5551234567", 2)

	_, err := svc.Call(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Call(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteIncrementsVisitCountExactlyOnce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	entry := mustJoin(t, svc, "Alice", "5551234567", 2)

	// Completing a waiting entry is rejected; it was never called.
	_, err := svc.Complete(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Call(ctx, entry.ID)
	require.NoError(t, err)
	done, err := svc.Complete(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, 0, done.Position)
	assert.Equal(t, 2, done.VisitCount)

	// A second complete is rejected and the count stays put.
	_, err = svc.Complete(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	current, err := svc.Entry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.VisitCount)
}

func TestCancelIsIdempotentAndLeavesVisitCount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	entry := mustJoin(t, svc, "Alice", "5551234567", 2)

	first, err := svc.Cancel(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, first.Status)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, first.VisitCount)

	again, err := svc.Cancel(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)
	assert.Equal(t, 1, again.VisitCount)
}

func TestCancelCompletedEntryRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	entry := mustJoin(t, svc, "Alice", "5551234567", 2)
	_, err := svc.Call(ctx, entry.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPositionRankTracksCancellationsAhead(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	alice := mustJoin(t, svc, "Alice", "5551234567", 2)
	bob := mustJoin(t, svc, "Bob", "5559876543", 4)
	assert.Equal(t, 1, alice.Position)
	assert.Equal(t, 2, bob.Position)

	pos, err := svc.Position(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &PositionInfo{Position: 2, TotalWaiting: 2}, pos)

	_, err = svc.Cancel(ctx, alice.ID)
	require.NoError(t, err)

	pos, err = svc.Position(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, &PositionInfo{Position: 1, TotalWaiting: 1}, pos)

	// Bob's stored position is untouched; only the computed rank moved.
	current, err := svc.Entry(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Position)
}

func TestPositionNotApplicableOutsideWaiting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	entry := mustJoin(t, svc, "Alice", "5551234567", 2)
	_, err := svc.Call(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.Position(ctx, entry.ID)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)

	_, err = svc.Position(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
}

func TestQueueOrderedByPositionAfterGaps(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	mustJoin(t, svc, "Alice", "5551111111", 1)
	bob := mustJoin(t, svc, "Bob", "5552222222", 2)
	mustJoin(t, svc, "Cara", "5553333333", 3)

	_, err := svc.Cancel(ctx, bob.ID)
	require.NoError(t, err)

	queue, err := svc.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "Alice", queue[0].Name)
	assert.Equal(t, "Cara", queue[1].Name)
	assert.Equal(t, 1, queue[0].Position)
	assert.Equal(t, 3, queue[1].Position)
}
