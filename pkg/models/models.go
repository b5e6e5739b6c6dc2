package models

// Account and admin records backed by the sqlite database.

type User struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	Updated      int64  `json:"updated" db:"updated"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
}

type Announcement struct {
	ID       int64  `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Body     string `json:"body" db:"body"`
	IsActive bool   `json:"is_active" db:"is_active"`
	Created  int64  `json:"created" db:"created"`
	Updated  int64  `json:"updated" db:"updated"`
}

// Consultant is a marketplace directory entry for one category.
type Consultant struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email,omitempty" db:"email"`
	Company  string `json:"company,omitempty" db:"company"`
	Category string `json:"category" db:"category"`
	Notes    string `json:"notes,omitempty" db:"notes"`
	Created  int64  `json:"created" db:"created"`
	Updated  int64  `json:"updated" db:"updated"`
}

// AssessmentTemplate is a pre-prepared assessment sold/attached to jobs.
type AssessmentTemplate struct {
	ID       int64  `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Category string `json:"category" db:"category"`
	Content  string `json:"content" db:"content"`
	Version  string `json:"version" db:"version"`
	Created  int64  `json:"created" db:"created"`
	Updated  int64  `json:"updated" db:"updated"`
}
