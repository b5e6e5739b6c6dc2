package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

const maxUploadSize = 32 << 20 // 32MB multipart memory budget

type TicketsHandler struct {
	svc     *engagement.Service
	tickets *store.TicketStore
}

func NewTicketsHandler(svc *engagement.Service, tickets *store.TicketStore) *TicketsHandler {
	return &TicketsHandler{svc: svc, tickets: tickets}
}

// createTicketSchema guards the JSON variant of ticket creation. The
// multipart variant validates field-by-field in the service instead.
var createTicketSchema = []byte(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["category", "consultantId", "consultantName", "jobAddress"],
	"properties": {
		"jobId": {"type": "string"},
		"jobAddress": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1},
		"consultantId": {"type": "string", "minLength": 1},
		"consultantName": {"type": "string", "minLength": 1},
		"developmentType": {"type": "string"},
		"additionalInfo": {"type": "string"}
	}
}`)

type createTicketRequest struct {
	JobID           string `json:"jobId"`
	JobAddress      string `json:"jobAddress"`
	Category        string `json:"category"`
	ConsultantID    string `json:"consultantId"`
	ConsultantName  string `json:"consultantName"`
	DevelopmentType string `json:"developmentType"`
	AdditionalInfo  string `json:"additionalInfo"`
}

type ticketResponse struct {
	Ticket  *models.ConsultantTicket `json:"ticket"`
	Warning string                   `json:"warning,omitempty"`
}

func validateCreateTicket(ctx context.Context, body []byte) error {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(createTicketSchema, rs); err != nil {
		return fmt.Errorf("compile ticket schema: %w", err)
	}
	errs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return &engagement.ValidationError{Msg: strings.Join(msgs, "; ")}
	}
	return nil
}

// CreateTicket accepts either a JSON body or a multipart form with an
// attached quote file under the "quote" field.
func (h *TicketsHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	in := engagement.CreateTicketInput{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		in.JobID = r.FormValue("jobId")
		in.JobAddress = r.FormValue("jobAddress")
		in.Category = r.FormValue("category")
		in.ConsultantID = r.FormValue("consultantId")
		in.ConsultantName = r.FormValue("consultantName")
		in.DevelopmentType = r.FormValue("developmentType")
		in.AdditionalInfo = r.FormValue("additionalInfo")

		if file, header, err := r.FormFile("quote"); err == nil {
			defer file.Close()
			in.QuoteFile = &engagement.FileUpload{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     file,
			}
		}
	} else {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body failed", http.StatusBadRequest)
			return
		}
		if err := validateCreateTicket(r.Context(), body); err != nil {
			writeError(w, err)
			return
		}
		var req createTicketRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in = engagement.CreateTicketInput{
			JobID:           req.JobID,
			JobAddress:      req.JobAddress,
			Category:        req.Category,
			ConsultantID:    req.ConsultantID,
			ConsultantName:  req.ConsultantName,
			DevelopmentType: req.DevelopmentType,
			AdditionalInfo:  req.AdditionalInfo,
		}
	}

	res, err := h.svc.CreateTicket(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, ticketResponse{Ticket: res.Ticket, Warning: res.Warning}, http.StatusCreated)
}

// ListTickets returns all tickets, optionally filtered by ?jobId=
func (h *TicketsHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	all, err := h.tickets.ListAll(r.Context())
	if err != nil {
		writeError(w, &engagement.StorageError{Op: "list tickets", Err: err})
		return
	}

	jobID := r.URL.Query().Get("jobId")
	items := make([]models.ConsultantTicket, 0, len(all))
	for _, t := range all {
		if jobID != "" && t.JobID != jobID {
			continue
		}
		items = append(items, t)
	}

	writeJSON(w, map[string]any{"total": len(items), "items": items}, http.StatusOK)
}

// AttachCompletedDocument stores the consultant's finished assessment
// against the ticket from a multipart "file" field.
func (h *TicketsHandler) AttachCompletedDocument(w http.ResponseWriter, r *http.Request) {
	ticketID := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ticket, err := h.svc.AttachCompletedDocument(r.Context(), ticketID, engagement.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, ticketResponse{Ticket: ticket}, http.StatusOK)
}

type returnResponse struct {
	Ticket  *models.ConsultantTicket `json:"ticket"`
	Message string                   `json:"message"`
}

// ReturnDocument copies the ticket's completed document into its job and
// completes the ticket.
func (h *TicketsHandler) ReturnDocument(w http.ResponseWriter, r *http.Request) {
	ticketID := mux.Vars(r)["id"]

	res, err := h.svc.ReturnDocumentToJob(r.Context(), ticketID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, returnResponse{Ticket: res.Ticket, Message: res.Message}, http.StatusOK)
}
