// Package client implements the AmoCRM v4 REST fetcher with bounded retry
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docbridge/internal/platform/logger"
	"docbridge/internal/services/amocrm/domain"

	perr "docbridge/internal/platform/errors"
)

// sleepFn is a seam so tests do not wait out real retry delays
var sleepFn = time.Sleep

// Config tunes the client
type Config struct {
	// Token is the long-lived integration access token sent as a bearer header
	Token string

	// Attempts is the total try budget per call, default 2
	Attempts int

	// RetryDelay is the fixed pause between tries, default 5s
	RetryDelay time.Duration

	// Timeout bounds each HTTP round trip, default 15s
	Timeout time.Duration

	// BaseURL overrides the https://{subdomain} base, used by tests
	BaseURL string
}

// Client talks to the AmoCRM v4 REST API for one integration token.
// The account subdomain travels per call because one process may serve
// webhooks from several accounts
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// New builds a Client and applies config defaults
func New(cfg Config, log logger.Logger) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// FetchLead returns the lead or an error after the retry budget is spent
func (c *Client) FetchLead(ctx context.Context, subdomain string, id int64) (*domain.Lead, error) {
	if id == 0 {
		return nil, perr.InvalidArgf("lead id required")
	}
	var w domain.WireLead
	if err := c.getJSON(ctx, subdomain, fmt.Sprintf("/api/v4/leads/%d", id), &w); err != nil {
		return nil, err
	}
	return w.Lead(), nil
}

// FetchCompany returns the company or an error after the retry budget is spent
func (c *Client) FetchCompany(ctx context.Context, subdomain string, id int64) (*domain.Company, error) {
	if id == 0 {
		return nil, perr.InvalidArgf("company id required")
	}
	var w domain.WireCompany
	if err := c.getJSON(ctx, subdomain, fmt.Sprintf("/api/v4/companies/%d", id), &w); err != nil {
		return nil, err
	}
	return w.Company(), nil
}

// getJSON runs the bounded retry loop around one GET.
// Not-found answers do not consume retries; the entity will not appear
// by asking again. On exhaustion the first error is surfaced
func (c *Client) getJSON(ctx context.Context, subdomain, path string, dst any) error {
	var firstErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		if attempt > 1 {
			sleepFn(c.cfg.RetryDelay)
		}
		if ctx.Err() != nil {
			break
		}

		err := c.doGet(ctx, subdomain, path, dst)
		if err == nil {
			return nil
		}
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
		c.log.Warn().
			Str("path", path).
			Int("attempt", attempt).
			Err(err).
			Msg("crm fetch attempt failed")
	}
	if firstErr == nil {
		firstErr = perr.Upstreamf("crm fetch canceled: %v", ctx.Err())
	}
	return firstErr
}

func (c *Client) doGet(ctx context.Context, subdomain, path string, dst any) error {
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://" + subdomain
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return perr.Upstreamf("build crm request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Upstreamf("crm request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		// v4 answers 204 for missing entities on some endpoints
		return perr.NotFoundf("crm entity not found at %s", path)
	case resp.StatusCode == http.StatusTooManyRequests:
		return perr.TooManyRequestsf("crm rate limited at %s", path)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return perr.Upstreamf("crm answered %d at %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return perr.Upstreamf("decode crm response for %s: %v", path, err)
	}
	return nil
}
