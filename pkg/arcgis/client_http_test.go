package arcgis_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/config"
	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/pkg/arcgis"
)

func testConfig(srvURL string) config.ArcGISConfig {
	return config.ArcGISConfig{
		GeocodeURL:              srvURL + "/geocode/1",
		ParcelURL:               srvURL + "/parcel/8",
		Timeout:                 2 * time.Second,
		Retries:                 0,
		Backoff:                 time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitReset:            time.Second,
	}
}

func TestClient_Suggest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/geocode/1/query" {
			if !strings.Contains(r.URL.Query().Get("where"), "42 WALLABY") {
				t.Errorf("unexpected where clause: %q", r.URL.Query().Get("where"))
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"features":[{"attributes":{"address":"42 WALLABY WAY SYDNEY","objectid":7}}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client, err := arcgis.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	got, err := client.Suggest(context.Background(), "42 WALLABY", 5)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(got) != 1 || got[0].Address != "42 WALLABY WAY SYDNEY" || got[0].ObjectID != 7 {
		t.Fatalf("unexpected suggestions: %#v", got)
	}
}

func TestClient_Suggest_EscapesQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		where := r.URL.Query().Get("where")
		if !strings.Contains(where, "O''CONNELL") {
			t.Errorf("expected escaped quote in where clause got %q", where)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	client, err := arcgis.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if _, err := client.Suggest(context.Background(), "1 O'CONNELL ST", 5); err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
}

func TestClient_Parcel_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/parcel/8/query" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"features":[{"attributes":{"lotidstring":"12//DP1234567","planlabel":"DP1234567","shape_area":512.5}}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client, err := arcgis.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	p, err := client.Parcel(context.Background(), "12//DP1234567")
	if err != nil {
		t.Fatalf("Parcel failed: %v", err)
	}
	if p == nil || p.LotID != "12//DP1234567" || p.PlanLabel != "DP1234567" {
		t.Fatalf("unexpected parcel: %#v", p)
	}
	if _, ok := p.Attributes["shape_area"]; !ok {
		t.Fatalf("expected raw attributes preserved got: %#v", p.Attributes)
	}
}

func TestClient_Parcel_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	client, err := arcgis.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	p, err := client.Parcel(context.Background(), "99//DP0000000")
	if err != nil {
		t.Fatalf("Parcel failed: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil parcel got: %#v", p)
	}
}

func TestClient_Query_PortalError_Fails(t *testing.T) {
	// the portal reports errors inside a 200 response
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid query"}}`))
	}))
	defer srv.Close()

	client, err := arcgis.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if _, err := client.Suggest(context.Background(), "anything", 5); err == nil {
		t.Fatalf("expected error when portal reports a query error")
	}
}

func TestClient_Query_RetriesTransientFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"attributes":{"address":"OK","objectid":1}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 2
	client, err := arcgis.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	got, err := client.Suggest(context.Background(), "OK", 1)
	if err != nil {
		t.Fatalf("Suggest failed after retry: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected suggestions: %#v", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls got %d", calls)
	}
}

func TestClient_CircuitOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retries = 0
	cfg.CircuitFailureThreshold = 2
	cfg.CircuitReset = time.Minute
	client, err := arcgis.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.Suggest(ctx, "x", 1); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}

	if _, err := client.Suggest(ctx, "x", 1); err != arcgis.ErrCircuitOpen {
		t.Fatalf("expected circuit open got: %v", err)
	}
	if err := client.Health(ctx); err != arcgis.ErrCircuitOpen {
		t.Fatalf("expected circuit open from Health got: %v", err)
	}
}

func TestClient_Health_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("returnCountOnly") != "true" {
			t.Errorf("expected count-only health query")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	client, err := arcgis.NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}
