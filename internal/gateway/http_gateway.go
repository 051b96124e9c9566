package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	apperrors "github.com/allisson/domainbus/internal/errors"
)

// HTTPGateway implements Gateway over plain HTTP. Domain base URLs come from
// configuration; operation names are mapped to paths by lowercasing and
// replacing underscores with hyphens (DEBIT_ACCOUNT -> /operations/debit-account).
type HTTPGateway struct {
	baseURLs map[string]string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPGateway creates a new HTTPGateway.
func NewHTTPGateway(baseURLs map[string]string, timeout time.Duration, logger *slog.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURLs: baseURLs,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// OperationPath converts an operation name to its URL path segment.
func OperationPath(operation string) string {
	return strings.ReplaceAll(strings.ToLower(operation), "_", "-")
}

// Invoke calls the named operation on a domain service.
func (g *HTTPGateway) Invoke(ctx context.Context, domain, operation string, payload any) (json.RawMessage, error) {
	baseURL, ok := g.baseURLs[domain]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("unknown domain %q", domain))
	}

	url := fmt.Sprintf("%s/operations/%s", baseURL, OperationPath(operation))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal operation payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build operation request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("domain operation call failed",
			slog.String("domain", domain),
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read operation response")
	}

	g.logger.Debug("domain operation call",
		slog.String("domain", domain),
		slog.String("operation", operation),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable,
			fmt.Sprintf("domain %q returned status %d for operation %q", domain, resp.StatusCode, operation))
	}

	return respBody, nil
}

// healthResponse is the expected body of a domain health endpoint.
type healthResponse struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Metrics map[string]any `json:"metrics"`
}

// CheckHealth probes a domain service's GET /health endpoint.
func (g *HTTPGateway) CheckHealth(ctx context.Context, domain string) (*HealthReport, error) {
	baseURL, ok := g.baseURLs[domain]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("unknown domain %q", domain))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build health request")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable,
			fmt.Sprintf("domain %q health endpoint returned status %d", domain, resp.StatusCode))
	}

	var parsed healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode health response")
	}

	if parsed.Status == "" {
		parsed.Status = "healthy"
	}

	return &HealthReport{
		Status:       parsed.Status,
		Version:      parsed.Version,
		Metrics:      parsed.Metrics,
		ResponseTime: elapsed,
	}, nil
}

// Post delivers a JSON body to an arbitrary URL.
func (g *HTTPGateway) Post(ctx context.Context, url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal post body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(err, "failed to build post request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	defer resp.Body.Close() //nolint:errcheck

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("post to %s returned status %d", url, resp.StatusCode))
	}

	return nil
}

// Domains returns the configured domain names, sorted.
func (g *HTTPGateway) Domains() []string {
	domains := make([]string, 0, len(g.baseURLs))
	for domain := range g.baseURLs {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}
