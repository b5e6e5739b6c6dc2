package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

// ReturnResult is the outcome of a completed-document return.
type ReturnResult struct {
	Ticket  *models.ConsultantTicket
	Message string
}

// ReturnDocumentToJob copies a ticket's completed document into the job's
// document directory and marks the engagement and ticket completed.
//
// Ordered failure policy:
//   - missing ticket, job or source blob is fatal before anything mutates;
//   - a failed copy aborts before any state change;
//   - once the copy has happened it is not rolled back; the intent log
//     keeps the return replayable and the replay skips the copy when the
//     destination file already exists.
//
// A job whose consultants array has no matching engagement is tolerated:
// the document pointer and ticket still update, with a logged warning.
func (s *Service) ReturnDocumentToJob(ctx context.Context, ticketID string) (*ReturnResult, error) {
	if ticketID == "" {
		return nil, &ValidationError{Fields: []string{"ticketId"}}
	}

	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "ticket", ID: ticketID}
		}
		return nil, &StorageError{Op: "load ticket", TicketID: ticketID, Err: err}
	}
	if ticket.CompletedDocument == nil {
		return nil, &ValidationError{Msg: "ticket has no completed document to return"}
	}
	completed := *ticket.CompletedDocument

	unlock := s.locks.lock(ticket.JobID)
	defer unlock()

	srcPath := path.Join(ticket.Category, completed.FileName)
	exists, err := s.blobs.Exists(ctx, srcPath)
	if err != nil {
		return nil, &StorageError{Op: "check source blob", TicketID: ticketID, Path: srcPath, Err: err}
	}
	if !exists {
		// fatal and non-retryable; surfaced, never skipped
		return nil, &NotFoundError{Kind: "completed document file", ID: srcPath}
	}

	job, err := s.jobs.Get(ctx, ticket.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "job", ID: ticket.JobID}
		}
		return nil, &StorageError{Op: "load job", TicketID: ticketID, JobID: ticket.JobID, Err: err}
	}

	// collision-resistant destination name; a pending intent from an
	// earlier partial run supplies the name it already copied to
	proposed := fmt.Sprintf("%s_%d_%s", ticket.Category, time.Now().UnixMilli(), completed.FileName)
	intentID, destName, err := s.intents.Begin(ctx, ticket.ID, job.ID, proposed)
	if err != nil {
		return nil, &StorageError{Op: "record return intent", TicketID: ticketID, JobID: job.ID, Err: err}
	}

	dstPath := path.Join("jobs", job.ID, "documents", destName)
	copied, err := s.blobs.Exists(ctx, dstPath)
	if err != nil {
		return nil, &StorageError{Op: "check destination blob", TicketID: ticketID, Path: dstPath, Err: err}
	}
	if !copied {
		opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
		_, err = s.blobs.Copy(opCtx, srcPath, dstPath)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &TimeoutError{Op: "copy " + srcPath, Err: err}
			}
			return nil, &StorageError{Op: "copy completed document", TicketID: ticketID, JobID: job.ID, Path: dstPath, Err: err}
		}
	}

	size, err := s.blobs.Stat(ctx, dstPath)
	if err != nil {
		return nil, &StorageError{Op: "stat copied document", TicketID: ticketID, Path: dstPath, Err: err}
	}

	now := time.Now().UTC()
	if job.Documents == nil {
		job.Documents = make(map[string]models.FileReference)
	}
	job.Documents[ticket.Category] = models.FileReference{
		FileName:     destName,
		OriginalName: completed.FileName,
		Type:         completed.Type,
		UploadedAt:   now,
		Size:         size,
	}

	if eng := job.Engagement(ticket.Category, ticket.ConsultantID); eng != nil {
		if eng.Assessment == nil {
			eng.Assessment = &models.Assessment{CreatedAt: now}
		}
		eng.Assessment.Status = models.TicketCompleted
		eng.Assessment.ReturnedAt = &now
		eng.Assessment.UpdatedAt = now
		eng.Assessment.CompletedDocument = &models.FileReference{
			FileName:     destName,
			OriginalName: completed.FileName,
			Type:         completed.Type,
			UploadedAt:   now,
			Size:         size,
		}
	} else {
		// tolerated partial success: the job document pointer still moves
		s.logger.Warn("no engagement matches returning consultant",
			slog.String("jobId", job.ID),
			slog.String("ticketId", ticket.ID),
			slog.String("category", ticket.Category),
			slog.String("consultantId", ticket.ConsultantID),
		)
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		// the copied file stays; the pending intent lets the worker replay
		return nil, &StorageError{Op: "save job", TicketID: ticketID, JobID: job.ID, Path: dstPath, Err: err}
	}

	ticket.Status = models.TicketCompleted
	completed.ReturnedAt = &now
	ticket.CompletedDocument = &completed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, &StorageError{Op: "save ticket", TicketID: ticketID, JobID: job.ID, Err: err}
	}

	if err := s.intents.Commit(ctx, intentID); err != nil {
		// the return itself succeeded; a dangling intent only means one
		// redundant (idempotent) replay
		s.logger.Error("failed to commit return intent",
			slog.Int64("intentId", intentID),
			slog.String("ticketId", ticket.ID),
			slog.Any("err", err),
		)
	}

	return &ReturnResult{
		Ticket:  ticket,
		Message: fmt.Sprintf("completed document returned to job %s as %s", job.ID, destName),
	}, nil
}
