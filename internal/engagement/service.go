// Package engagement orchestrates the consultant work-order lifecycle:
// quote request -> acceptance -> work in progress -> completed document
// returned and merged into the job's document store.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/blob"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

// IntentLog records a document return before its blob copy so a failure
// between the copy and the store writes can be replayed instead of leaking
// an orphaned file.
type IntentLog interface {
	// Begin returns the id and destination file name for the ticket's
	// return. When a pending intent already exists its recorded
	// destination is reused, which keeps retried returns idempotent.
	Begin(ctx context.Context, ticketID, jobID, destName string) (int64, string, error)
	// Commit marks the intent done after job and ticket writes succeed.
	Commit(ctx context.Context, id int64) error
}

type noopIntents struct{}

func (noopIntents) Begin(ctx context.Context, ticketID, jobID, destName string) (int64, string, error) {
	return 0, destName, nil
}
func (noopIntents) Commit(ctx context.Context, id int64) error { return nil }

// Service runs the engagement state machine across the job, ticket and
// work-order stores and the blob store.
type Service struct {
	jobs      *store.JobStore
	tickets   *store.TicketStore
	orders    *store.WorkOrderStore
	documents *store.DocumentStore
	blobs     *blob.Store
	intents   IntentLog
	locks     keyedMutex
	opTimeout time.Duration
	logger    *slog.Logger
}

func NewService(
	jobs *store.JobStore,
	tickets *store.TicketStore,
	orders *store.WorkOrderStore,
	documents *store.DocumentStore,
	blobs *blob.Store,
	intents IntentLog,
	opTimeout time.Duration,
	logger *slog.Logger,
) *Service {
	if intents == nil {
		intents = noopIntents{}
	}
	if opTimeout <= 0 {
		opTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jobs:      jobs,
		tickets:   tickets,
		orders:    orders,
		documents: documents,
		blobs:     blobs,
		intents:   intents,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// FileUpload is an incoming file attached to a request.
type FileUpload struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// CreateTicketInput carries a new quote request.
type CreateTicketInput struct {
	JobID           string
	JobAddress      string
	Category        string
	ConsultantID    string
	ConsultantName  string
	DevelopmentType string
	AdditionalInfo  string
	QuoteFile       *FileUpload
}

// CreateTicketResult is the created ticket plus a warning when the job-side
// engagement write failed. The ticket write is never rolled back for that.
type CreateTicketResult struct {
	Ticket  *models.ConsultantTicket
	Warning string
}

// CreateTicket validates and persists a new quote request, stores any
// attached quote document, and upserts the matching engagement into the job.
// The job-side assessment is written as paid straight away; the stored
// ticket stays pending. That asymmetry is long-standing product behavior.
func (s *Service) CreateTicket(ctx context.Context, in CreateTicketInput) (*CreateTicketResult, error) {
	var missing []string
	if in.Category == "" {
		missing = append(missing, "category")
	}
	if in.ConsultantID == "" {
		missing = append(missing, "consultantId")
	}
	if in.ConsultantName == "" {
		missing = append(missing, "consultantName")
	}
	if in.JobAddress == "" {
		missing = append(missing, "jobAddress")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}
	if !models.ValidCategory(in.Category) {
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown category %q", in.Category)}
	}

	now := time.Now().UTC()
	ticket := &models.ConsultantTicket{
		ID:             uuid.NewString(),
		JobID:          in.JobID,
		JobAddress:     in.JobAddress,
		Category:       in.Category,
		ConsultantID:   in.ConsultantID,
		ConsultantName: in.ConsultantName,
		Status:         models.TicketPending,
		Assessment: models.Assessment{
			Status:          models.TicketPending,
			DevelopmentType: in.DevelopmentType,
			AdditionalInfo:  in.AdditionalInfo,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		CreatedAt: now,
	}

	doc := &models.Document{
		ID:       uuid.NewString(),
		Title:    fmt.Sprintf("%s quote request", in.Category),
		Path:     "consultant-tickets/" + ticket.ID,
		Category: in.Category,
		IsActive: true,
		Metadata: map[string]string{
			"jobId":    in.JobID,
			"ticketId": ticket.ID,
			"category": in.Category,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.QuoteFile != nil {
		fileName := ticket.ID + "_" + in.QuoteFile.Name
		blobPath := path.Join(in.Category, fileName)
		size, err := s.putBlob(ctx, blobPath, in.QuoteFile.Content)
		if err != nil {
			return nil, err
		}
		ref := models.FileReference{
			FileName:     fileName,
			OriginalName: in.QuoteFile.Name,
			Type:         in.QuoteFile.ContentType,
			UploadedAt:   now,
			Size:         size,
		}
		ticket.Assessment.Documents = append(ticket.Assessment.Documents, ref)
		doc.AddVersion(models.DocumentVersion{
			Version:      1,
			FileName:     fileName,
			OriginalName: in.QuoteFile.Name,
			Type:         in.QuoteFile.ContentType,
			Size:         size,
			UploadedAt:   now,
		})
	}
	// without a file the document stays at version zero, tracking the
	// category slot only

	if err := s.tickets.Append(ctx, ticket); err != nil {
		return nil, &StorageError{Op: "append ticket", TicketID: ticket.ID, Err: err}
	}
	if err := s.documents.Upsert(ctx, doc); err != nil {
		return nil, &StorageError{Op: "record ticket document", TicketID: ticket.ID, Err: err}
	}

	res := &CreateTicketResult{Ticket: ticket}
	if err := s.upsertEngagement(ctx, ticket); err != nil {
		// the ticket stands; the job record is out of sync until repaired
		s.logger.Error("engagement upsert failed after ticket write",
			slog.String("ticketId", ticket.ID),
			slog.String("jobId", ticket.JobID),
			slog.String("category", ticket.Category),
			slog.Any("err", err),
		)
		res.Warning = fmt.Sprintf("ticket created but job %s was not updated: %v", ticket.JobID, err)
	}
	return res, nil
}

// upsertEngagement merges the ticket's engagement into the job, promoting
// the assessment straight to paid.
func (s *Service) upsertEngagement(ctx context.Context, t *models.ConsultantTicket) error {
	unlock := s.locks.lock(t.JobID)
	defer unlock()

	job, err := s.jobs.Get(ctx, t.JobID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	assessment := t.Assessment
	assessment.Status = models.TicketPaid
	assessment.UpdatedAt = now

	if job.Consultants == nil {
		job.Consultants = make(map[string][]models.Engagement)
	}
	if existing := job.Engagement(t.Category, t.ConsultantID); existing != nil {
		existing.Name = t.ConsultantName
		existing.Assessment = &assessment
	} else {
		job.Consultants[t.Category] = append(job.Consultants[t.Category], models.Engagement{
			Name:         t.ConsultantName,
			ConsultantID: t.ConsultantID,
			Assessment:   &assessment,
		})
	}
	return s.jobs.Save(ctx, job)
}

// AcceptQuote turns a ticket into an in-progress work order. Accepting the
// same ticket again returns the existing non-terminal order instead of
// creating a duplicate.
func (s *Service) AcceptQuote(ctx context.Context, ticketID string) (*models.ConsultantWorkOrder, error) {
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

	existing, err := s.orders.FindActive(ctx, ticket.JobID, ticket.Category, ticket.ConsultantID)
	if err != nil {
		return nil, &StorageError{Op: "scan work orders", TicketID: ticketID, Err: err}
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	order := &models.ConsultantWorkOrder{
		ID:             uuid.NewString(),
		JobID:          ticket.JobID,
		JobAddress:     ticket.JobAddress,
		Category:       ticket.Category,
		ConsultantID:   ticket.ConsultantID,
		ConsultantName: ticket.ConsultantName,
		Status:         models.OrderInProgress,
		Assessment:     ticket.Assessment,
		AcceptedAt:     &now,
		CreatedAt:      now,
	}
	if err := s.orders.Append(ctx, order); err != nil {
		return nil, &StorageError{Op: "append work order", TicketID: ticketID, JobID: ticket.JobID, Err: err}
	}
	return order, nil
}

// UploadWorkOrderDocument stores a report or invoice against an order.
// Uploading never changes the order status.
func (s *Service) UploadWorkOrderDocument(ctx context.Context, orderID, kind string, file FileUpload) (*models.ConsultantWorkOrder, error) {
	if kind != "report" && kind != "invoice" {
		return nil, &ValidationError{Msg: fmt.Sprintf("kind must be report or invoice, got %q", kind)}
	}
	if file.Name == "" || file.Content == nil {
		return nil, &ValidationError{Fields: []string{"file"}}
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "work order", ID: orderID}
		}
		return nil, &StorageError{Op: "load work order", Err: err}
	}

	now := time.Now().UTC()
	fileName := fmt.Sprintf("%s_%s_%s", order.ID, kind, file.Name)
	blobPath := path.Join(order.Category, fileName)
	size, err := s.putBlob(ctx, blobPath, file.Content)
	if err != nil {
		return nil, err
	}

	ref := &models.FileReference{
		FileName:     fileName,
		OriginalName: file.Name,
		Type:         file.ContentType,
		UploadedAt:   now,
		Size:         size,
	}
	if kind == "report" {
		order.CompletedDocument = ref
	} else {
		order.Invoice = ref
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, &StorageError{Op: "save work order", JobID: order.JobID, Path: blobPath, Err: err}
	}
	return order, nil
}

// AttachCompletedDocument stores the consultant's finished assessment
// against the ticket. The ticket status is untouched; the return flow
// completes it.
func (s *Service) AttachCompletedDocument(ctx context.Context, ticketID string, file FileUpload) (*models.ConsultantTicket, error) {
	if file.Name == "" || file.Content == nil {
		return nil, &ValidationError{Fields: []string{"file"}}
	}
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "ticket", ID: ticketID}
		}
		return nil, &StorageError{Op: "load ticket", TicketID: ticketID, Err: err}
	}

	now := time.Now().UTC()
	fileName := fmt.Sprintf("%s_completed_%s", ticket.ID, file.Name)
	blobPath := path.Join(ticket.Category, fileName)
	size, err := s.putBlob(ctx, blobPath, file.Content)
	if err != nil {
		return nil, err
	}

	ticket.CompletedDocument = &models.FileReference{
		FileName:     fileName,
		OriginalName: file.Name,
		Type:         file.ContentType,
		UploadedAt:   now,
		Size:         size,
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, &StorageError{Op: "save ticket", TicketID: ticketID, Path: blobPath, Err: err}
	}
	return ticket, nil
}

// CompleteWorkOrder marks the order completed once both the report and the
// invoice are present. It does not copy anything into the job's document
// store; only the ticket-return flow does that.
func (s *Service) CompleteWorkOrder(ctx context.Context, orderID string) (*models.ConsultantWorkOrder, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "work order", ID: orderID}
		}
		return nil, &StorageError{Op: "load work order", Err: err}
	}

	if order.CompletedDocument == nil || order.Invoice == nil {
		return nil, &PreconditionError{Msg: "work order needs both the completed document and the invoice before it can be completed"}
	}
	if !order.Status.CanTransition(models.OrderCompleted) {
		return nil, &PreconditionError{Msg: fmt.Sprintf("work order cannot move from %s to completed", order.Status)}
	}

	order.Status = models.OrderCompleted
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, &StorageError{Op: "save work order", JobID: order.JobID, Err: err}
	}
	return order, nil
}

// putBlob writes a blob under the storage timeout.
func (s *Service) putBlob(ctx context.Context, blobPath string, r io.Reader) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	size, err := s.blobs.Put(opCtx, blobPath, r)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, &TimeoutError{Op: "store blob " + blobPath, Err: err}
		}
		return 0, &StorageError{Op: "store blob", Path: blobPath, Err: err}
	}
	return size, nil
}
