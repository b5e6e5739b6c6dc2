package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/arcgis"
)

// GISHandler proxies address and parcel lookups to the NSW spatial portal
// so the browser never talks to ArcGIS directly.
type GISHandler struct {
	client *arcgis.Client
}

func NewGISHandler(client *arcgis.Client) *GISHandler {
	return &GISHandler{client: client}
}

// Suggest answers ?q= with address candidates.
func (h *GISHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 50 {
			limit = v
		}
	}

	suggestions, err := h.client.Suggest(r.Context(), q, limit)
	if err != nil {
		if err == arcgis.ErrCircuitOpen {
			http.Error(w, "address lookup temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, fmt.Sprintf("address lookup: %v", err), http.StatusBadGateway)
		return
	}
	if suggestions == nil {
		suggestions = []arcgis.Suggestion{}
	}

	writeJSON(w, suggestions, http.StatusOK)
}

// Parcel answers ?lotId= with the matching land parcel record.
func (h *GISHandler) Parcel(w http.ResponseWriter, r *http.Request) {
	lotID := r.URL.Query().Get("lotId")
	if lotID == "" {
		http.Error(w, "lotId is required", http.StatusBadRequest)
		return
	}

	parcel, err := h.client.Parcel(r.Context(), lotID)
	if err != nil {
		if err == arcgis.ErrCircuitOpen {
			http.Error(w, "parcel lookup temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, fmt.Sprintf("parcel lookup: %v", err), http.StatusBadGateway)
		return
	}
	if parcel == nil {
		http.Error(w, "parcel not found", http.StatusNotFound)
		return
	}

	writeJSON(w, parcel, http.StatusOK)
}
