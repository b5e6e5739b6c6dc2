package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
)

func (r *SQLiteRepo) CreateAnnouncement(ctx context.Context, a *models.Announcement) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("announcement is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO announcements (title, body, is_active, created, updated) VALUES (?, ?, ?, ?, ?)`, a.Title, a.Body, boolToInt(a.IsActive), now(), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, title, body, is_active, created, updated FROM announcements WHERE id = ?`, id)
	return scanAnnouncement(row.Scan)
}

func (r *SQLiteRepo) ListAnnouncements(ctx context.Context, activeOnly bool) ([]models.Announcement, error) {
	q := `SELECT id, title, body, is_active, created, updated FROM announcements ORDER BY created DESC`
	if activeOnly {
		q = `SELECT id, title, body, is_active, created, updated FROM announcements WHERE is_active = 1 ORDER BY created DESC`
	}

	rows, err := r.conn.QueryRows(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	if a == nil {
		return fmt.Errorf("announcement is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE announcements SET title = ?, body = ?, is_active = ?, updated = ? WHERE id = ?`, a.Title, a.Body, boolToInt(a.IsActive), now(), a.ID)
	return err
}

func (r *SQLiteRepo) DeleteAnnouncement(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	return err
}

func scanAnnouncement(scan func(...any) error) (*models.Announcement, error) {
	var a models.Announcement
	var active int
	if err := scan(&a.ID, &a.Title, &a.Body, &active, &a.Created, &a.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	a.IsActive = active != 0

	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
