package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/repository"
)

// AdminHandler serves the announcement, consultant-directory and
// assessment-template CRUD surface.
type AdminHandler struct {
	announcementRepo repository.AnnouncementRepo
	consultantRepo   repository.ConsultantRepo
	templateRepo     repository.AssessmentTemplateRepo
}

func NewAdminHandler(
	ar repository.AnnouncementRepo,
	cr repository.ConsultantRepo,
	tr repository.AssessmentTemplateRepo,
) *AdminHandler {
	return &AdminHandler{announcementRepo: ar, consultantRepo: cr, templateRepo: tr}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// ListAnnouncements returns announcements; ?active=true hides retired ones.
func (h *AdminHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	rows, err := h.announcementRepo.ListAnnouncements(r.Context(), activeOnly)
	if err != nil {
		http.Error(w, fmt.Sprintf("list announcements: %v", err), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.Announcement{}
	}

	writeJSON(w, rows, http.StatusOK)
}

func (h *AdminHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var a models.Announcement
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if a.Title == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}

	id, err := h.announcementRepo.CreateAnnouncement(r.Context(), &a)
	if err != nil {
		http.Error(w, fmt.Sprintf("store announcement: %v", err), http.StatusInternalServerError)
		return
	}
	a.ID = id

	writeJSON(w, a, http.StatusCreated)
}

func (h *AdminHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	existing, err := h.announcementRepo.GetAnnouncement(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("get announcement: %v", err), http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var a models.Announcement
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	a.ID = id

	if err := h.announcementRepo.UpdateAnnouncement(r.Context(), &a); err != nil {
		http.Error(w, fmt.Sprintf("update announcement: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, a, http.StatusOK)
}

func (h *AdminHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.announcementRepo.DeleteAnnouncement(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete announcement: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListConsultants returns the directory, optionally for one ?category=
func (h *AdminHandler) ListConsultants(w http.ResponseWriter, r *http.Request) {
	rows, err := h.consultantRepo.ListConsultants(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		http.Error(w, fmt.Sprintf("list consultants: %v", err), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.Consultant{}
	}

	writeJSON(w, rows, http.StatusOK)
}

func (h *AdminHandler) CreateConsultant(w http.ResponseWriter, r *http.Request) {
	var c models.Consultant
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if c.Name == "" || c.Category == "" {
		http.Error(w, "name and category required", http.StatusBadRequest)
		return
	}

	id, err := h.consultantRepo.CreateConsultant(r.Context(), &c)
	if err != nil {
		http.Error(w, fmt.Sprintf("store consultant: %v", err), http.StatusInternalServerError)
		return
	}
	c.ID = id

	writeJSON(w, c, http.StatusCreated)
}

func (h *AdminHandler) UpdateConsultant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	existing, err := h.consultantRepo.GetConsultant(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("get consultant: %v", err), http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var c models.Consultant
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	c.ID = id

	if err := h.consultantRepo.UpdateConsultant(r.Context(), &c); err != nil {
		http.Error(w, fmt.Sprintf("update consultant: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, c, http.StatusOK)
}

func (h *AdminHandler) DeleteConsultant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.consultantRepo.DeleteConsultant(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete consultant: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates returns assessment templates, optionally for one ?category=
func (h *AdminHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.templateRepo.ListTemplates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		http.Error(w, fmt.Sprintf("list templates: %v", err), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.AssessmentTemplate{}
	}

	writeJSON(w, rows, http.StatusOK)
}

// CreateTemplate stores a template, enforcing a size limit; same
// title+version replaces the stored content.
func (h *AdminHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	const maxSize = 256 * 1024
	var t models.AssessmentTemplate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSize)).Decode(&t); err != nil {
		http.Error(w, "invalid json or template too large", http.StatusBadRequest)
		return
	}
	if t.Title == "" || t.Category == "" {
		http.Error(w, "title and category required", http.StatusBadRequest)
		return
	}

	id, err := h.templateRepo.CreateTemplate(r.Context(), &t)
	if err != nil {
		http.Error(w, fmt.Sprintf("store template: %v", err), http.StatusInternalServerError)
		return
	}
	t.ID = id

	writeJSON(w, t, http.StatusCreated)
}

func (h *AdminHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.templateRepo.GetTemplate(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("get template: %v", err), http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, t, http.StatusOK)
}

func (h *AdminHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.templateRepo.DeleteTemplate(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete template: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
