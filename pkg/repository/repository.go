package repository

import (
	"context"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
)

// Repository interfaces for sqlite-backed entities. These are the public
// contracts consumers should depend on; concrete implementations live under
// internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type AnnouncementRepo interface {
	CreateAnnouncement(ctx context.Context, a *models.Announcement) (int64, error)
	GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error)
	ListAnnouncements(ctx context.Context, activeOnly bool) ([]models.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *models.Announcement) error
	DeleteAnnouncement(ctx context.Context, id int64) error
}

type ConsultantRepo interface {
	CreateConsultant(ctx context.Context, c *models.Consultant) (int64, error)
	GetConsultant(ctx context.Context, id int64) (*models.Consultant, error)
	ListConsultants(ctx context.Context, category string) ([]models.Consultant, error)
	UpdateConsultant(ctx context.Context, c *models.Consultant) error
	DeleteConsultant(ctx context.Context, id int64) error
}

type AssessmentTemplateRepo interface {
	CreateTemplate(ctx context.Context, t *models.AssessmentTemplate) (int64, error)
	GetTemplate(ctx context.Context, id int64) (*models.AssessmentTemplate, error)
	ListTemplates(ctx context.Context, category string) ([]models.AssessmentTemplate, error)
	UpdateTemplate(ctx context.Context, t *models.AssessmentTemplate) error
	DeleteTemplate(ctx context.Context, id int64) error
}
