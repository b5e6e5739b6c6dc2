package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

type WorkOrdersHandler struct {
	svc    *engagement.Service
	orders *store.WorkOrderStore
}

func NewWorkOrdersHandler(svc *engagement.Service, orders *store.WorkOrderStore) *WorkOrdersHandler {
	return &WorkOrdersHandler{svc: svc, orders: orders}
}

type acceptQuoteRequest struct {
	TicketID string `json:"ticketId"`
}

// AcceptQuote promotes a ticket to an in-progress work order. Accepting the
// same ticket again returns the existing order.
func (h *WorkOrdersHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	var req acceptQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	order, err := h.svc.AcceptQuote(r.Context(), req.TicketID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, order, http.StatusCreated)
}

// ListWorkOrders returns all work orders, optionally filtered by ?jobId=
func (h *WorkOrdersHandler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	all, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(w, &engagement.StorageError{Op: "list work orders", Err: err})
		return
	}

	jobID := r.URL.Query().Get("jobId")
	items := make([]models.ConsultantWorkOrder, 0, len(all))
	for _, o := range all {
		if jobID != "" && o.JobID != jobID {
			continue
		}
		items = append(items, o)
	}

	writeJSON(w, map[string]any{"total": len(items), "items": items}, http.StatusOK)
}

// UploadDocument attaches a report or invoice to the order. The multipart
// form carries the file under "file" and the kind under "kind".
func (h *WorkOrdersHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	kind := r.FormValue("kind")
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	order, err := h.svc.UploadWorkOrderDocument(r.Context(), orderID, kind, engagement.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, order, http.StatusOK)
}

// Complete marks the order completed once both documents are present.
func (h *WorkOrdersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	order, err := h.svc.CompleteWorkOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, order, http.StatusOK)
}
