package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/poigraph/internal/geo"
	"github.com/onnwee/poigraph/internal/poi"
)

// DefaultEndpoint is the public Overpass interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// DefaultTimeout bounds one fetch, both server-side and client-side.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps the response body read into memory.
const maxResponseBytes = 64 << 20

// Fetch errors.
var (
	ErrUpstreamStatus     = errors.New("overpass returned non-success status")
	ErrIncompleteResponse = errors.New("overpass response incomplete")
	ErrDecode             = errors.New("failed to decode overpass response")
)

// Config configures a Client.
type Config struct {
	Endpoint string
	BBox     BBox
	Timeout  time.Duration
}

// Element is one element of an Overpass JSON response.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *geo.Point        `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Response is the Overpass JSON envelope.
type Response struct {
	Elements []Element `json:"elements"`
	Remark   string    `json:"remark,omitempty"`
}

// Client fetches raw records for a bounding box.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. Requests are traced through otelhttp.
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: config,
		http: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Endpoint returns the configured interpreter URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// StatusURL returns the server status URL that sits next to the
// interpreter, or "" when the endpoint does not end in /interpreter.
func (c *Client) StatusURL() string {
	base, ok := strings.CutSuffix(strings.TrimRight(c.config.Endpoint, "/"), "/interpreter")
	if !ok {
		return ""
	}
	return base + "/status"
}

// Fetch runs the query for the configured bounding box and converts the
// elements into raw records. Any transport, status or decode failure yields
// an error and no records; a partial batch is never returned.
func (c *Client) Fetch(ctx context.Context) ([]poi.RawRecord, error) {
	if err := c.config.BBox.Validate(); err != nil {
		return nil, err
	}

	query := BuildQuery(c.config.BBox, c.config.Timeout)
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d %s", ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Overpass reports server-side timeouts and memory exhaustion in the
	// remark field while still returning whatever it collected.
	if strings.Contains(strings.ToLower(body.Remark), "error") {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteResponse, body.Remark)
	}

	records := Records(body.Elements)
	c.logger.Info("overpass fetch completed",
		slog.String("bbox", c.config.BBox.String()),
		slog.Int("elements", len(body.Elements)),
		slog.Int("records", len(records)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return records, nil
}

// Records converts Overpass elements to raw records. Elements other than
// nodes, ways and relations are skipped.
func Records(elements []Element) []poi.RawRecord {
	records := make([]poi.RawRecord, 0, len(elements))
	for _, el := range elements {
		switch el.Type {
		case poi.KindNode, poi.KindWay, poi.KindRelation:
		default:
			continue
		}

		rec := poi.RawRecord{Kind: el.Type, ID: el.ID, Tags: el.Tags}
		if el.Lat != nil && el.Lon != nil {
			rec.Point = &geo.Point{Lat: *el.Lat, Lon: *el.Lon}
		}
		if el.Center != nil && el.Center.Valid() {
			rec.Centroid = el.Center
		}
		records = append(records, rec)
	}
	return records
}
