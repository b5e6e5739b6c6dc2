package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/blob"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/models"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/store"
)

type DocumentsHandler struct {
	docs  *store.DocumentStore
	blobs *blob.Store
}

func NewDocumentsHandler(docs *store.DocumentStore, blobs *blob.Store) *DocumentsHandler {
	return &DocumentsHandler{docs: docs, blobs: blobs}
}

// blobDir returns the directory a document's files live under. Documents
// tied to a consultant category share that category's directory; the rest
// go to the shared library.
func blobDir(d *models.Document) string {
	if d.Category != "" {
		return d.Category
	}
	return "library"
}

// Upload stores a new version of a document. Without a documentId a new
// document is created; with one the upload appends the next version.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	ctx := r.Context()
	now := time.Now().UTC()

	var doc *models.Document
	if id := r.FormValue("documentId"); id != "" {
		doc, err = h.docs.Get(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, &engagement.NotFoundError{Kind: "document", ID: id})
				return
			}
			writeError(w, &engagement.StorageError{Op: "load document", Err: err})
			return
		}
	} else {
		title := r.FormValue("title")
		if title == "" {
			title = header.Filename
		}
		doc = &models.Document{
			ID:        uuid.NewString(),
			Title:     title,
			Category:  r.FormValue("category"),
			IsActive:  true,
			CreatedAt: now,
		}
	}

	version := doc.CurrentVersion + 1
	fileName := fmt.Sprintf("%s_v%d_%s", doc.ID, version, header.Filename)
	blobPath := path.Join(blobDir(doc), fileName)
	size, err := h.blobs.Put(ctx, blobPath, file)
	if err != nil {
		writeError(w, &engagement.StorageError{Op: "store document blob", Path: blobPath, Err: err})
		return
	}

	doc.AddVersion(models.DocumentVersion{
		Version:      version,
		FileName:     fileName,
		OriginalName: header.Filename,
		Type:         header.Header.Get("Content-Type"),
		Size:         size,
		UploadedAt:   now,
	})
	doc.UpdatedAt = now

	if err := h.docs.Upsert(ctx, doc); err != nil {
		writeError(w, &engagement.StorageError{Op: "save document", Path: blobPath, Err: err})
		return
	}

	writeJSON(w, doc, http.StatusCreated)
}

// List returns document metadata. Inactive documents are hidden unless
// ?includeInactive=true; ?category= filters.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.docs.ListAll(r.Context())
	if err != nil {
		writeError(w, &engagement.StorageError{Op: "list documents", Err: err})
		return
	}

	category := r.URL.Query().Get("category")
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	items := make([]models.Document, 0, len(all))
	for _, d := range all {
		if !includeInactive && !d.IsActive {
			continue
		}
		if category != "" && d.Category != category {
			continue
		}
		items = append(items, d)
	}

	writeJSON(w, map[string]any{"total": len(items), "items": items}, http.StatusOK)
}

// Download streams one version of a document, defaulting to the current one.
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.docs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, &engagement.NotFoundError{Kind: "document", ID: id})
			return
		}
		writeError(w, &engagement.StorageError{Op: "load document", Err: err})
		return
	}

	version := doc.CurrentVersion
	if v := r.URL.Query().Get("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid version", http.StatusBadRequest)
			return
		}
		version = n
	}
	ver := doc.Version(version)
	if ver == nil {
		writeError(w, &engagement.NotFoundError{Kind: "document version", ID: fmt.Sprintf("%s v%d", id, version)})
		return
	}

	blobPath := path.Join(blobDir(doc), ver.FileName)
	rc, err := h.blobs.Get(r.Context(), blobPath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			writeError(w, &engagement.NotFoundError{Kind: "document file", ID: blobPath})
			return
		}
		writeError(w, &engagement.StorageError{Op: "open document blob", Path: blobPath, Err: err})
		return
	}
	defer rc.Close()

	if ver.Type != "" {
		w.Header().Set("Content-Type", ver.Type)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ver.OriginalName))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Error("stream document", "path", blobPath, "err", err)
	}
}

// Delete deactivates a document. Versions and blobs stay on disk.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.docs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, &engagement.NotFoundError{Kind: "document", ID: id})
			return
		}
		writeError(w, &engagement.StorageError{Op: "load document", Err: err})
		return
	}

	doc.IsActive = false
	doc.UpdatedAt = time.Now().UTC()
	if err := h.docs.Upsert(r.Context(), doc); err != nil {
		writeError(w, &engagement.StorageError{Op: "save document", Err: err})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
