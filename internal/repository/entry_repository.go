package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/queueup/waitlist/internal/model"
)

// EntryRepo provides CRUD and query operations for waitlist entries backed
// by MySQL.  All timestamp fields are stored in UTC.  The repo owns entry
// identity: ids are assigned by the database on insert and never change.
type EntryRepo struct {
	db *sql.DB
}

// NewEntryRepo returns a new EntryRepo bound to the given database.
func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{db: db} }

const entryColumns = `id, name, phone_number, number_of_people, position, status, created_at, called_at, visit_count`

// scanEntry reads one row into a QueueEntry.  called_at is nullable.
func scanEntry(row interface{ Scan(...interface{}) error }) (*model.QueueEntry, error) {
	var e model.QueueEntry
	var calledAt sql.NullTime
	if err := row.Scan(
		&e.ID, &e.Name, &e.PhoneNumber, &e.NumberOfPeople, &e.Position,
		&e.Status, &e.CreatedAt, &calledAt, &e.VisitCount,
	); err != nil {
		return nil, err
	}
	if calledAt.Valid {
		t := calledAt.Time.UTC()
		e.CalledAt = &t
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// Create inserts a new entry and populates the generated ID on the provided
// record.  The caller is expected to have set status, position, created_at
// and visit_count beforehand.
func (r *EntryRepo) Create(ctx context.Context, e *model.QueueEntry) error {
	const q = `INSERT INTO queue_entries
		(name, phone_number, number_of_people, position, status, created_at, called_at, visit_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var calledAt interface{}
	if e.CalledAt != nil {
		calledAt = e.CalledAt.UTC()
	}
	result, err := r.db.ExecContext(ctx, q,
		e.Name, e.PhoneNumber, e.NumberOfPeople, e.Position, e.Status,
		e.CreatedAt.UTC(), calledAt, e.VisitCount,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Update persists every mutable field of an existing entry.  The engine
// always reads current state immediately before acting, so a full-row
// update keeps the write path simple.  ErrEntryNotFound is returned when
// the id does not exist.
func (r *EntryRepo) Update(ctx context.Context, e *model.QueueEntry) error {
	const q = `UPDATE queue_entries
		SET name = ?, phone_number = ?, number_of_people = ?, position = ?,
		    status = ?, created_at = ?, called_at = ?, visit_count = ?
		WHERE id = ?`
	var calledAt interface{}
	if e.CalledAt != nil {
		calledAt = e.CalledAt.UTC()
	}
	result, err := r.db.ExecContext(ctx, q,
		e.Name, e.PhoneNumber, e.NumberOfPeople, e.Position, e.Status,
		e.CreatedAt.UTC(), calledAt, e.VisitCount, e.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 when the row exists but nothing changed;
		// verify existence before reporting not found.
		var exists int
		const check = `SELECT 1 FROM queue_entries WHERE id = ?`
		if err := r.db.QueryRowContext(ctx, check, e.ID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEntryNotFound
			}
			return err
		}
	}
	return nil
}

// GetByID returns a single entry by id or ErrEntryNotFound.
func (r *EntryRepo) GetByID(ctx context.Context, id uint64) (*model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries WHERE id = ?`
	e, err := scanEntry(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// LatestByPhone returns the most recently created entry for a phone number
// regardless of status, or ErrEntryNotFound when the phone has never joined.
func (r *EntryRepo) LatestByPhone(ctx context.Context, phone string) (*model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries
		WHERE phone_number = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, q, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// LatestByPhoneAndName returns the most recent entry matching both the
// phone number and the customer name.  The pair is the reactivation key:
// a terminal entry found here is revived instead of inserting a new row.
func (r *EntryRepo) LatestByPhoneAndName(ctx context.Context, phone, name string) (*model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries
		WHERE phone_number = ? AND name = ? ORDER BY created_at DESC, id DESC LIMIT 1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, q, phone, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// listQuery runs a multi-row entry query and scans the results.
func (r *EntryRepo) listQuery(ctx context.Context, q string, args ...interface{}) ([]model.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.QueueEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListWaiting returns all waiting entries ordered by ascending position.
func (r *EntryRepo) ListWaiting(ctx context.Context) ([]model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries
		WHERE status = 'waiting' ORDER BY position ASC`
	return r.listQuery(ctx, q)
}

// ListAll returns every entry ordered by descending creation time, the
// order the admin dashboard displays (most recent activity first).
func (r *EntryRepo) ListAll(ctx context.Context) ([]model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries ORDER BY created_at DESC, id DESC`
	return r.listQuery(ctx, q)
}

// ListCalledBefore returns called entries whose called_at timestamp is
// older than the cutoff.  The sweeper uses this to find customers who did
// not show up after being called.
func (r *EntryRepo) ListCalledBefore(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries
		WHERE status = 'called' AND called_at IS NOT NULL AND called_at < ?`
	return r.listQuery(ctx, q, cutoff.UTC())
}

// ListCreatedSince returns all entries created at or after the given time,
// used by the analytics aggregator.
func (r *EntryRepo) ListCreatedSince(ctx context.Context, since time.Time) ([]model.QueueEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM queue_entries WHERE created_at >= ?`
	return r.listQuery(ctx, q, since.UTC())
}

// NextPosition computes the next sequential slot number: one past the
// highest position currently waiting, or 1 when the list is empty.
func (r *EntryRepo) NextPosition(ctx context.Context) (int, error) {
	const q = `SELECT COALESCE(MAX(position), 0) + 1 FROM queue_entries WHERE status = 'waiting'`
	var next int
	if err := r.db.QueryRowContext(ctx, q).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// CountWaiting returns the number of entries currently waiting.
func (r *EntryRepo) CountWaiting(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM queue_entries WHERE status = 'waiting'`
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountWaitingAhead returns how many waiting entries hold a strictly
// smaller position than the given one.  Rank-by-count tolerates the gaps
// cancellations leave in the stored position sequence.
func (r *EntryRepo) CountWaitingAhead(ctx context.Context, position int) (int, error) {
	const q = `SELECT COUNT(*) FROM queue_entries WHERE status = 'waiting' AND position < ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, position).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountAll returns the number of entries ever created.
func (r *EntryRepo) CountAll(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM queue_entries`
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountDistinctPhones returns the number of unique phone numbers across
// all entries.  One phone number is one customer, however many visits.
func (r *EntryRepo) CountDistinctPhones(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(DISTINCT phone_number) FROM queue_entries`
	var n int
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
