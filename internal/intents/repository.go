package intents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/db"
)

// graceDelay keeps the replay worker off intents whose original request is
// still running. The synchronous path normally commits well within this.
const graceDelay = time.Minute

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d} }

// Begin records a pending return intent for the ticket, or reuses the one
// already recorded. Returning the stored destination name means a replay
// lands on the same file the first attempt may already have copied.
func (r *Repository) Begin(ctx context.Context, ticketID, jobID, destName string) (int64, string, error) {
	row := r.db.QueryRow(ctx, `SELECT id, dest_name FROM return_intents WHERE ticket_id = ? AND status IN ('pending', 'retry') ORDER BY id LIMIT 1`, ticketID)
	var (
		id     int64
		stored string
	)
	err := row.Scan(&id, &stored)
	if err == nil {
		return id, stored, nil
	}
	if err != sql.ErrNoRows {
		return 0, "", fmt.Errorf("lookup return intent: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	nextTry := time.Now().UTC().Add(graceDelay).UnixMilli()
	res, err := r.db.Exec(ctx, `INSERT INTO return_intents (ticket_id, job_id, dest_name, status, next_try_at, created, updated) VALUES (?, ?, ?, 'pending', ?, ?, ?)`, ticketID, jobID, destName, nextTry, now, now)
	if err != nil {
		return 0, "", fmt.Errorf("record return intent: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, "", err
	}
	return id, destName, nil
}

// Commit marks the intent done
func (r *Repository) Commit(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE return_intents SET status = 'done', updated = ? WHERE id = ?`, time.Now().UTC().UnixMilli(), id)
	return err
}

// FetchNext returns the next intent due for replay, or nil when none is due
func (r *Repository) FetchNext(ctx context.Context) (*Intent, error) {
	now := time.Now().UTC().UnixMilli()
	q := `SELECT id, ticket_id, job_id, dest_name, status, attempts, max_attempts, next_try_at, last_error, created, updated FROM return_intents WHERE status IN ('pending', 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) ORDER BY created ASC LIMIT 1`
	row := r.db.QueryRow(ctx, q, now)
	var (
		in      Intent
		nextTry sql.NullInt64
		created int64
		updated int64
	)
	if err := row.Scan(&in.ID, &in.TicketID, &in.JobID, &in.DestName, &in.Status, &in.Attempts, &in.MaxAttempts, &nextTry, &in.LastError, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch next intent: %w", err)
	}
	if nextTry.Valid {
		t := time.UnixMilli(nextTry.Int64)
		in.NextTryAt = &t
	}
	in.Created = time.UnixMilli(created)
	in.Updated = time.UnixMilli(updated)
	return &in, nil
}

// Update persists status, attempts, next_try_at and last_error
func (r *Repository) Update(ctx context.Context, in *Intent) error {
	var nextTry any
	if in.NextTryAt != nil {
		nextTry = in.NextTryAt.UnixMilli()
	}
	_, err := r.db.Exec(ctx, `UPDATE return_intents SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`, in.Status, in.Attempts, nextTry, in.LastError, time.Now().UTC().UnixMilli(), in.ID)
	return err
}

// MoveToDeadLetter copies the intent to return_intents_dead and deletes the original
func (r *Repository) MoveToDeadLetter(ctx context.Context, in *Intent) error {
	tx, err := r.db.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	insert := `INSERT INTO return_intents_dead (intent_id, ticket_id, job_id, dest_name, attempts, last_error, failed) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, in.ID, in.TicketID, in.JobID, in.DestName, in.Attempts, in.LastError, time.Now().UTC().UnixMilli()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM return_intents WHERE id = ?`, in.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Get returns an intent by id, nil when absent
func (r *Repository) Get(ctx context.Context, id int64) (*Intent, error) {
	row := r.db.QueryRow(ctx, `SELECT id, ticket_id, job_id, dest_name, status, attempts, max_attempts, next_try_at, last_error, created, updated FROM return_intents WHERE id = ?`, id)
	var (
		in      Intent
		nextTry sql.NullInt64
		created int64
		updated int64
	)
	if err := row.Scan(&in.ID, &in.TicketID, &in.JobID, &in.DestName, &in.Status, &in.Attempts, &in.MaxAttempts, &nextTry, &in.LastError, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if nextTry.Valid {
		t := time.UnixMilli(nextTry.Int64)
		in.NextTryAt = &t
	}
	in.Created = time.UnixMilli(created)
	in.Updated = time.UnixMilli(updated)
	return &in, nil
}
