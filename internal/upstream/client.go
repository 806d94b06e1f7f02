// Package upstream implements the client for the external scraping API
// that produces the contract pendency dataset.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brkops/painel-holmes/pkg/logger"
)

// Client is responsible for fetching the pendency dataset from the
// scraping API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string
	contratos  []string
	logger     *logger.Logger
}

// NewClient creates a new scraping API client. The timeout bounds the
// whole request; scrapes routinely take minutes, so callers pass a large
// value (10 minutes by default).
func NewClient(baseURL, email, password string, contratos []string, timeout time.Duration, logger *logger.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		email:     email,
		password:  password,
		contratos: contratos,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("upstream-cli"),
	}
}

// scrapeURL builds the scrape endpoint URL. Credentials travel as query
// parameters: that is the upstream's contract, not ours to change.
func (c *Client) scrapeURL() string {
	params := url.Values{}
	params.Set("email", c.email)
	params.Set("password", c.password)
	params.Set("contrato", strings.Join(c.contratos, ","))
	return fmt.Sprintf("%s/api/scrape?%s", strings.TrimRight(c.baseURL, "/"), params.Encode())
}

// Fetch performs one GET against the scrape endpoint and returns the
// decoded, shape-validated payload.
func (c *Client) Fetch(ctx context.Context) (*ScrapeResponse, error) {
	fetchURL := c.scrapeURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PainelHolmes/1.0")

	c.logger.Debug("Fetching pendency dataset",
		logger.String("base_url", c.baseURL),
		logger.Int("contratos", len(c.contratos)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload ScrapeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payload shape: %w", err)
	}

	c.logger.Debug("Successfully fetched pendency dataset",
		logger.Int("contratos", len(payload.Data)),
		logger.Int("bytes", len(body)),
	)

	return &payload, nil
}
