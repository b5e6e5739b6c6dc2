package mock

import (
	"context"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo *mockUserRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo: &mockUserRepo{},
	}
}

type mockUserRepo struct {
	Stored    *models.User
	CreateErr error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.User{ID: 1, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash}
	return 1, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, u *models.User) error {
	m.Stored = u
	return nil
}

func (m *mockUserRepo) DeleteUser(ctx context.Context, id int64) error {
	if m.Stored != nil && m.Stored.ID == id {
		m.Stored = nil
	}
	return nil
}
