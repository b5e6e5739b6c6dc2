package api_test

import (
	"net/http"
	"testing"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
)

func uploadDocument(t *testing.T, env *testEnv, fields map[string]string, filename, content string) models.Document {
	t.Helper()
	w := env.doMultipart(t, "/v1/documents", fields, map[string][2]string{
		"file": {filename, content},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var doc models.Document
	decodeBody(t, w, &doc)
	return doc
}

func TestDocumentUploadAndVersioning(t *testing.T) {
	env := newTestEnv(t)

	doc := uploadDocument(t, env, map[string]string{"title": "Flood study"}, "flood-v1.pdf", "first draft")
	if doc.CurrentVersion != 1 || len(doc.Versions) != 1 {
		t.Fatalf("unexpected new document: %#v", doc)
	}

	updated := uploadDocument(t, env, map[string]string{"documentId": doc.ID}, "flood-v2.pdf", "final")
	if updated.CurrentVersion != 2 || len(updated.Versions) != 2 {
		t.Fatalf("expected version 2: %#v", updated)
	}
	if updated.Versions[0].OriginalName != "flood-v1.pdf" {
		t.Fatalf("history must keep earlier versions: %#v", updated.Versions)
	}
}

func TestDocumentDownload_SpecificVersion(t *testing.T) {
	env := newTestEnv(t)

	doc := uploadDocument(t, env, map[string]string{"title": "Flood study"}, "flood-v1.pdf", "first draft")
	doc = uploadDocument(t, env, map[string]string{"documentId": doc.ID}, "flood-v2.pdf", "final")

	// default is the current version
	w := env.do(t, http.MethodGet, "/v1/documents/"+doc.ID+"/download", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download current: %d %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "final" {
		t.Fatalf("unexpected current content: %q", w.Body.String())
	}

	// an earlier version stays reachable
	w = env.do(t, http.MethodGet, "/v1/documents/"+doc.ID+"/download?version=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download v1: %d %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "first draft" {
		t.Fatalf("unexpected v1 content: %q", w.Body.String())
	}

	// unknown versions are 404
	w = env.do(t, http.MethodGet, "/v1/documents/"+doc.ID+"/download?version=9", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestDocumentDelete_IsSoft(t *testing.T) {
	env := newTestEnv(t)

	doc := uploadDocument(t, env, map[string]string{"title": "Old survey"}, "survey.pdf", "data")

	w := env.do(t, http.MethodDelete, "/v1/documents/"+doc.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	// hidden by default
	w = env.do(t, http.MethodGet, "/v1/documents", nil)
	var resp struct {
		Total int `json:"total"`
	}
	decodeBody(t, w, &resp)
	if resp.Total != 0 {
		t.Fatalf("expected inactive document hidden got %d", resp.Total)
	}

	// still listable when asked for
	w = env.do(t, http.MethodGet, "/v1/documents?includeInactive=true", nil)
	decodeBody(t, w, &resp)
	if resp.Total != 1 {
		t.Fatalf("expected inactive document listed got %d", resp.Total)
	}

	// the file itself is untouched
	w = env.do(t, http.MethodGet, "/v1/documents/"+doc.ID+"/download", nil)
	if w.Code != http.StatusOK || w.Body.String() != "data" {
		t.Fatalf("blob should survive soft delete: %d %q", w.Code, w.Body.String())
	}
}

func TestDocumentListFiltersByCategory(t *testing.T) {
	env := newTestEnv(t)

	uploadDocument(t, env, map[string]string{"title": "BAL report", "category": "Bushfire"}, "bal.pdf", "x")
	uploadDocument(t, env, map[string]string{"title": "Heritage study", "category": "Heritage"}, "heritage.pdf", "y")

	w := env.do(t, http.MethodGet, "/v1/documents?category=Bushfire", nil)
	var resp struct {
		Total int               `json:"total"`
		Items []models.Document `json:"items"`
	}
	decodeBody(t, w, &resp)
	if resp.Total != 1 || resp.Items[0].Category != "Bushfire" {
		t.Fatalf("unexpected filter result: %#v", resp)
	}
}
