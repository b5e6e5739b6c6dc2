package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
)

func (r *SQLiteRepo) CreateConsultant(ctx context.Context, c *models.Consultant) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("consultant is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO consultants (name, email, company, category, notes, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?)`, c.Name, c.Email, c.Company, c.Category, c.Notes, now(), now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetConsultant(ctx context.Context, id int64) (*models.Consultant, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, email, company, category, notes, created, updated FROM consultants WHERE id = ?`, id)
	var c models.Consultant
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.Category, &c.Notes, &c.Created, &c.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &c, nil
}

func (r *SQLiteRepo) ListConsultants(ctx context.Context, category string) ([]models.Consultant, error) {
	q := `SELECT id, name, email, company, category, notes, created, updated FROM consultants ORDER BY category, name`
	args := []any{}
	if category != "" {
		q = `SELECT id, name, email, company, category, notes, created, updated FROM consultants WHERE category = ? ORDER BY name`
		args = append(args, category)
	}

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Consultant
	for rows.Next() {
		var c models.Consultant
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.Category, &c.Notes, &c.Created, &c.Updated); err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateConsultant(ctx context.Context, c *models.Consultant) error {
	if c == nil {
		return fmt.Errorf("consultant is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE consultants SET name = ?, email = ?, company = ?, category = ?, notes = ?, updated = ? WHERE id = ?`, c.Name, c.Email, c.Company, c.Category, c.Notes, now(), c.ID)
	return err
}

func (r *SQLiteRepo) DeleteConsultant(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM consultants WHERE id = ?`, id)
	return err
}
