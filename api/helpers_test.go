package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/api"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/blob"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

// testEnv wires real stores in a temp dir behind an unauthenticated router,
// so handler tests exercise the same code paths the server serves.
type testEnv struct {
	router  *mux.Router
	jobs    *store.JobStore
	tickets *store.TicketStore
	orders  *store.WorkOrderStore
	docs    *store.DocumentStore
	blobs   *blob.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataDir := t.TempDir()

	blobs, err := blob.NewStore(dataDir + "/blobs")
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	jobs := store.NewJobStore(dataDir)
	tickets := store.NewTicketStore(dataDir)
	orders := store.NewWorkOrderStore(dataDir)
	docs := store.NewDocumentStore(dataDir)
	svc := engagement.NewService(jobs, tickets, orders, docs, blobs, nil, 5*time.Second, nil)

	ticketsHandler := api.NewTicketsHandler(svc, tickets)
	workOrdersHandler := api.NewWorkOrdersHandler(svc, orders)
	jobsHandler := api.NewJobsHandler(jobs)
	documentsHandler := api.NewDocumentsHandler(docs, blobs)

	r := mux.NewRouter()
	r.HandleFunc("/v1/consultant-tickets", ticketsHandler.CreateTicket).Methods("POST")
	r.HandleFunc("/v1/consultant-tickets", ticketsHandler.ListTickets).Methods("GET")
	r.HandleFunc("/v1/consultant-tickets/{id}/completed-document", ticketsHandler.AttachCompletedDocument).Methods("POST")
	r.HandleFunc("/v1/consultant-tickets/{id}/return", ticketsHandler.ReturnDocument).Methods("POST")
	r.HandleFunc("/v1/work-orders/accept", workOrdersHandler.AcceptQuote).Methods("POST")
	r.HandleFunc("/v1/work-orders", workOrdersHandler.ListWorkOrders).Methods("GET")
	r.HandleFunc("/v1/work-orders/{id}/documents", workOrdersHandler.UploadDocument).Methods("POST")
	r.HandleFunc("/v1/work-orders/{id}/complete", workOrdersHandler.Complete).Methods("POST")
	r.HandleFunc("/v1/jobs", jobsHandler.CreateJob).Methods("POST")
	r.HandleFunc("/v1/jobs", jobsHandler.ListJobs).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}", jobsHandler.PatchJob).Methods("PATCH")
	r.HandleFunc("/v1/documents", documentsHandler.Upload).Methods("POST")
	r.HandleFunc("/v1/documents", documentsHandler.List).Methods("GET")
	r.HandleFunc("/v1/documents/{id}/download", documentsHandler.Download).Methods("GET")
	r.HandleFunc("/v1/documents/{id}", documentsHandler.Delete).Methods("DELETE")

	return &testEnv{router: r, jobs: jobs, tickets: tickets, orders: orders, docs: docs, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doMultipart posts fields plus optional files (field name -> filename ->
// content) as a multipart form.
func (e *testEnv) doMultipart(t *testing.T, path string, fields map[string]string, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, nameAndContent := range files {
		fw, err := mw.CreateFormFile(field, nameAndContent[0])
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.Copy(fw, strings.NewReader(nameAndContent[1])); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

func (e *testEnv) seedJob(t *testing.T, id, address string) *models.Job {
	t.Helper()
	job := &models.Job{ID: id, Address: address}
	if err := e.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}
