package api_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/api"
	dbfs "github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/db"
	dbpkg "github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/db"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/repository/sqlite"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/models"
)

// newAdminRouter wires the admin handler against a migrated in-memory
// database. The connection is closed on cleanup, which discards the shared
// in-memory database between tests.
func newAdminRouter(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	database, err := dbpkg.New(ctx, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := dbpkg.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := sqlite.New(database, nil)
	handler := api.NewAdminHandler(repo, repo, repo)

	r := mux.NewRouter()
	r.HandleFunc("/v1/admin/announcements", handler.ListAnnouncements).Methods("GET")
	r.HandleFunc("/v1/admin/announcements", handler.CreateAnnouncement).Methods("POST")
	r.HandleFunc("/v1/admin/announcements/{id}", handler.UpdateAnnouncement).Methods("PUT")
	r.HandleFunc("/v1/admin/announcements/{id}", handler.DeleteAnnouncement).Methods("DELETE")
	r.HandleFunc("/v1/admin/consultants", handler.ListConsultants).Methods("GET")
	r.HandleFunc("/v1/admin/consultants", handler.CreateConsultant).Methods("POST")
	r.HandleFunc("/v1/admin/consultants/{id}", handler.UpdateConsultant).Methods("PUT")
	r.HandleFunc("/v1/admin/consultants/{id}", handler.DeleteConsultant).Methods("DELETE")
	r.HandleFunc("/v1/admin/assessment-templates", handler.ListTemplates).Methods("GET")
	r.HandleFunc("/v1/admin/assessment-templates", handler.CreateTemplate).Methods("POST")
	r.HandleFunc("/v1/admin/assessment-templates/{id}", handler.GetTemplate).Methods("GET")
	r.HandleFunc("/v1/admin/assessment-templates/{id}", handler.DeleteTemplate).Methods("DELETE")

	return &testEnv{router: r}
}

func TestAdminAnnouncements_CRUD(t *testing.T) {
	env := newAdminRouter(t)

	w := env.do(t, http.MethodPost, "/v1/admin/announcements", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/v1/admin/announcements", map[string]any{
		"title":     "Scheduled maintenance",
		"body":      "Portal offline Saturday night",
		"is_active": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created models.Announcement
	decodeBody(t, w, &created)
	if created.ID == 0 {
		t.Fatalf("expected assigned id: %#v", created)
	}

	// deactivate, then verify the active filter hides it
	created.IsActive = false
	idPath := "/v1/admin/announcements/" + strconv.FormatInt(created.ID, 10)
	w = env.do(t, http.MethodPut, idPath, created)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/v1/admin/announcements?active=true", nil)
	var active []models.Announcement
	decodeBody(t, w, &active)
	if len(active) != 0 {
		t.Fatalf("expected no active announcements got %#v", active)
	}

	w = env.do(t, http.MethodDelete, idPath, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
}

func TestAdminConsultants_SeededDirectory(t *testing.T) {
	env := newAdminRouter(t)

	// the migration seed ships a starter directory
	w := env.do(t, http.MethodGet, "/v1/admin/consultants", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var all []models.Consultant
	decodeBody(t, w, &all)
	if len(all) == 0 {
		t.Fatalf("expected seeded consultants")
	}

	w = env.do(t, http.MethodPost, "/v1/admin/consultants", map[string]string{
		"name":     "New Acoustics Pty",
		"category": "Acoustic",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/v1/admin/consultants?category=Acoustic", nil)
	var acoustic []models.Consultant
	decodeBody(t, w, &acoustic)
	for _, c := range acoustic {
		if c.Category != "Acoustic" {
			t.Fatalf("filter leaked category %q", c.Category)
		}
	}
}

func TestAdminConsultants_CreateRequiresNameAndCategory(t *testing.T) {
	env := newAdminRouter(t)

	w := env.do(t, http.MethodPost, "/v1/admin/consultants", map[string]string{"name": "No Category"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestAdminTemplates_CreateAndGet(t *testing.T) {
	env := newAdminRouter(t)

	w := env.do(t, http.MethodPost, "/v1/admin/assessment-templates", map[string]string{
		"title":    "Standard BAL checklist",
		"category": "Bushfire",
		"content":  "1. Slope\n2. Vegetation",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created models.AssessmentTemplate
	decodeBody(t, w, &created)
	if created.Version != "v1" {
		t.Fatalf("expected default version v1 got %q", created.Version)
	}

	w = env.do(t, http.MethodGet, "/v1/admin/assessment-templates?category=Bushfire", nil)
	var list []models.AssessmentTemplate
	decodeBody(t, w, &list)
	if len(list) != 1 || list[0].Title != "Standard BAL checklist" {
		t.Fatalf("unexpected listing: %#v", list)
	}
}
