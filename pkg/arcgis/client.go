package arcgis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/config"
)

var ErrCircuitOpen = errors.New("arcgis circuit open")

// Client queries the NSW spatial portal feature services and adds retries,
// timeout, and a circuit breaker on top of the raw HTTP calls.
type Client struct {
	cfg    config.ArcGISConfig
	client *http.Client

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
	closed    int32 // atomic flag for Close()
}

// Suggestion is one address candidate from the geocoded addressing layer.
type Suggestion struct {
	Address  string `json:"address"`
	ObjectID int64  `json:"objectId"`
}

// Parcel is a land parcel record with its raw layer attributes preserved.
type Parcel struct {
	LotID      string         `json:"lotId"`
	PlanLabel  string         `json:"planLabel"`
	Attributes map[string]any `json:"attributes"`
}

// NewClient creates a new ArcGIS client.
func NewClient(cfg config.ArcGISConfig, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if _, err := url.ParseRequestURI(cfg.GeocodeURL); err != nil {
		return nil, fmt.Errorf("invalid geocode url: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.ParcelURL); err != nil {
		return nil, fmt.Errorf("invalid parcel url: %w", err)
	}

	c := &Client{cfg: cfg, client: httpClient}
	logger.Info("arcgis: NewClient created", slog.String("geocode_url", cfg.GeocodeURL), slog.Duration("timeout", cfg.Timeout))
	return c, nil
}

func NewDefaultClient(cfg config.ArcGISConfig) (*Client, error) {
	defaultClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return NewClient(cfg, defaultClient)
}

// package-level logger for pkg/arcgis; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/arcgis. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}

	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}

	// attempt half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

// Close releases idle connections on the underlying HTTP transport when
// supported. Close is idempotent and safe to call multiple times.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.client != nil && c.client.Transport != nil {
		if tr, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
		}
	}
	return nil
}

// feature is one row returned by a layer query.
type feature struct {
	Attributes map[string]any `json:"attributes"`
}

type queryResponse struct {
	Features []feature `json:"features"`
	Error    *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// query runs a layer query with retries and backoff. The portal reports
// errors inside a 200 response, so both transport and payload errors count
// against the circuit.
func (c *Client) query(ctx context.Context, layerURL string, params url.Values) ([]feature, error) {
	if c.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	params.Set("f", "json")
	u := layerURL + "/query?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		ctxReq, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		feats, err := c.doQuery(ctxReq, u)
		cancel()
		if err == nil {
			atomic.StoreInt32(&c.failures, 0)
			return feats, nil
		}

		lastErr = err
		c.recordFailure()

		time.Sleep(c.cfg.Backoff * time.Duration(attempt+1))
		if c.isCircuitOpen() {
			return nil, ErrCircuitOpen
		}
	}

	return nil, fmt.Errorf("layer query failed after retries: %w", lastErr)
}

func (c *Client) doQuery(ctx context.Context, u string) ([]feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("layer returned status %d", resp.StatusCode)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("layer error %d: %s", out.Error.Code, out.Error.Message)
	}
	return out.Features, nil
}

// Suggest returns address candidates matching the partial text.
func (c *Client) Suggest(ctx context.Context, text string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("where", fmt.Sprintf("address LIKE '%s%%'", escapeSQL(text)))
	params.Set("outFields", "address,objectid")
	params.Set("resultRecordCount", fmt.Sprintf("%d", limit))

	feats, err := c.query(ctx, c.cfg.GeocodeURL, params)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(feats))
	for _, f := range feats {
		var s Suggestion
		if v, ok := f.Attributes["address"].(string); ok {
			s.Address = v
		}
		if v, ok := f.Attributes["objectid"].(float64); ok {
			s.ObjectID = int64(v)
		}
		out = append(out, s)
	}
	return out, nil
}

// Parcel looks up a land parcel by its lot identifier, e.g. "12//DP1234567".
// Returns nil when no parcel matches.
func (c *Client) Parcel(ctx context.Context, lotID string) (*Parcel, error) {
	params := url.Values{}
	params.Set("where", fmt.Sprintf("lotidstring = '%s'", escapeSQL(lotID)))
	params.Set("outFields", "*")

	feats, err := c.query(ctx, c.cfg.ParcelURL, params)
	if err != nil {
		return nil, err
	}
	if len(feats) == 0 {
		return nil, nil
	}

	p := &Parcel{Attributes: feats[0].Attributes}
	if v, ok := feats[0].Attributes["lotidstring"].(string); ok {
		p.LotID = v
	}
	if v, ok := feats[0].Attributes["planlabel"].(string); ok {
		p.PlanLabel = v
	}
	return p, nil
}

// Health checks that the geocode layer answers a trivial query.
func (c *Client) Health(ctx context.Context) error {
	if c.isCircuitOpen() {
		return ErrCircuitOpen
	}

	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("returnCountOnly", "true")

	if _, err := c.query(ctx, c.cfg.GeocodeURL, params); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// escapeSQL doubles single quotes for layer where clauses
func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
