package engagement

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed request fields. Never retried.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return "missing required fields: " + strings.Join(e.Fields, ", ")
	}
	return e.Msg
}

// NotFoundError reports an absent ticket, job, work order or blob.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PreconditionError reports a valid request against state that is not ready,
// e.g. completing a work order before both documents are uploaded.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// TimeoutError reports a storage or blob operation that exceeded its budget.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// StorageError reports an I/O failure with enough context to replay the
// step by hand; the system has no automatic compensation.
type StorageError struct {
	Op       string
	JobID    string
	TicketID string
	Path     string
	Err      error
}

func (e *StorageError) Error() string {
	parts := []string{e.Op}
	if e.JobID != "" {
		parts = append(parts, "job="+e.JobID)
	}
	if e.TicketID != "" {
		parts = append(parts, "ticket="+e.TicketID)
	}
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
