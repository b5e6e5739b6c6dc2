package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
)

func (r *SQLiteRepo) CreateTemplate(ctx context.Context, t *models.AssessmentTemplate) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("template is nil")
	}
	if t.Version == "" {
		t.Version = "v1"
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO assessment_templates (title, category, content, version, created, updated) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(title, version) DO UPDATE SET category=excluded.category, content=excluded.content, updated=excluded.updated`, t.Title, t.Category, t.Content, t.Version, now(), now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetTemplate(ctx context.Context, id int64) (*models.AssessmentTemplate, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, title, category, content, version, created, updated FROM assessment_templates WHERE id = ?`, id)
	var t models.AssessmentTemplate
	if err := row.Scan(&t.ID, &t.Title, &t.Category, &t.Content, &t.Version, &t.Created, &t.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepo) ListTemplates(ctx context.Context, category string) ([]models.AssessmentTemplate, error) {
	q := `SELECT id, title, category, content, version, created, updated FROM assessment_templates ORDER BY title, version`
	args := []any{}
	if category != "" {
		q = `SELECT id, title, category, content, version, created, updated FROM assessment_templates WHERE category = ? ORDER BY title, version`
		args = append(args, category)
	}

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssessmentTemplate
	for rows.Next() {
		var t models.AssessmentTemplate
		if err := rows.Scan(&t.ID, &t.Title, &t.Category, &t.Content, &t.Version, &t.Created, &t.Updated); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateTemplate(ctx context.Context, t *models.AssessmentTemplate) error {
	if t == nil {
		return fmt.Errorf("template is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE assessment_templates SET title = ?, category = ?, content = ?, version = ?, updated = ? WHERE id = ?`, t.Title, t.Category, t.Content, t.Version, now(), t.ID)
	return err
}

func (r *SQLiteRepo) DeleteTemplate(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM assessment_templates WHERE id = ?`, id)
	return err
}
