package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

type JobsHandler struct {
	jobs *store.JobStore
}

func NewJobsHandler(jobs *store.JobStore) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

type createJobRequest struct {
	ID                 string         `json:"id"`
	Address            string         `json:"address"`
	Council            string         `json:"council"`
	SiteDetails        map[string]any `json:"siteDetails"`
	DevelopmentDetails map[string]any `json:"developmentDetails"`
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		writeError(w, &engagement.ValidationError{Fields: []string{"address"}})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	job := &models.Job{
		ID:                 req.ID,
		Address:            req.Address,
		Council:            req.Council,
		SiteDetails:        req.SiteDetails,
		DevelopmentDetails: req.DevelopmentDetails,
	}
	if err := h.jobs.Create(r.Context(), job); err != nil {
		writeError(w, &engagement.StorageError{Op: "create job", JobID: req.ID, Err: err})
		return
	}

	writeJSON(w, job, http.StatusCreated)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, &engagement.NotFoundError{Kind: "job", ID: id})
			return
		}
		writeError(w, &engagement.StorageError{Op: "load job", JobID: id, Err: err})
		return
	}

	writeJSON(w, job, http.StatusOK)
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		writeError(w, &engagement.StorageError{Op: "list jobs", Err: err})
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	writeJSON(w, map[string]any{"total": len(jobs), "items": jobs}, http.StatusOK)
}

type patchJobRequest struct {
	Address            *string        `json:"address"`
	Council            *string        `json:"council"`
	SiteDetails        map[string]any `json:"siteDetails"`
	DevelopmentDetails map[string]any `json:"developmentDetails"`
}

// PatchJob applies a partial update. Map fields merge key-wise rather than
// replacing the whole map. A concurrent save triggers a fresh read-modify-
// write; after a few stale rounds the conflict is surfaced.
func (h *JobsHandler) PatchJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req patchJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	var job *models.Job
	for attempt := 0; attempt < 3; attempt++ {
		var err error
		job, err = h.jobs.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, &engagement.NotFoundError{Kind: "job", ID: id})
				return
			}
			writeError(w, &engagement.StorageError{Op: "load job", JobID: id, Err: err})
			return
		}

		if req.Address != nil {
			job.Address = *req.Address
		}
		if req.Council != nil {
			job.Council = *req.Council
		}
		if len(req.SiteDetails) > 0 {
			if job.SiteDetails == nil {
				job.SiteDetails = make(map[string]any)
			}
			for k, v := range req.SiteDetails {
				job.SiteDetails[k] = v
			}
		}
		if len(req.DevelopmentDetails) > 0 {
			if job.DevelopmentDetails == nil {
				job.DevelopmentDetails = make(map[string]any)
			}
			for k, v := range req.DevelopmentDetails {
				job.DevelopmentDetails[k] = v
			}
		}

		err = h.jobs.Save(r.Context(), job)
		if err == nil {
			writeJSON(w, job, http.StatusOK)
			return
		}
		if !errors.Is(err, store.ErrStaleRevision) {
			writeError(w, &engagement.StorageError{Op: "save job", JobID: id, Err: err})
			return
		}
	}

	writeJSON(w, errorResponse{Error: "job is being modified concurrently, retry"}, http.StatusConflict)
}
