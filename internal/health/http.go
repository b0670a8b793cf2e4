package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker checks that an upstream HTTP service, such as the Overpass
// endpoint, answers with a 2xx status.
type HTTPChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPChecker creates a checker that issues GET url. name is used in
// error messages.
func NewHTTPChecker(name, url string) *HTTPChecker {
	return &HTTPChecker{
		name: name,
		url:  url,
		client: &http.Client{
			Timeout: 3 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// HealthCheck performs the request.
func (h *HTTPChecker) HealthCheck(ctx context.Context) error {
	if h.url == "" {
		return fmt.Errorf("%s url not configured", h.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", h.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s unhealthy: unexpected status code %d", h.name, resp.StatusCode)
	}
	return nil
}
