package intents

import (
	"context"
	"time"
)

// Intent is a durable record of a document return that has been promised to
// a job. It is written before the blob copy so a crash between the copy and
// the job save can be replayed with the same destination name.
type Intent struct {
	ID          int64      `json:"id"`
	TicketID    string     `json:"ticketId"`
	JobID       string     `json:"jobId"`
	DestName    string     `json:"destName"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"maxAttempts"`
	NextTryAt   *time.Time `json:"nextTryAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Created     time.Time  `json:"created"`
	Updated     time.Time  `json:"updated"`
}

// ReturnFunc replays a return for the given ticket. It must be idempotent:
// the worker calls it for intents whose original request may have partially
// completed.
type ReturnFunc func(ctx context.Context, ticketID string) error

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
