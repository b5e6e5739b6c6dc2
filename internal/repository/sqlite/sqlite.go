package sqlite

import (
	"time"

	"log/slog"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/db"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.AnnouncementRepo = (*SQLiteRepo)(nil)
var _ repository.ConsultantRepo = (*SQLiteRepo)(nil)
var _ repository.AssessmentTemplateRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}
