package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"

	"github.com/kataras/golog"
)

const (
	defaultFetchRetries = 3
	defaultRetryDelay   = time.Second
	maxErrorBodyBytes   = 4096
)

// FetchResponse is a fully read upstream answer.
type FetchResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *FetchResponse) DecodeJSON(v any) error {
	if r == nil {
		return errors.New("nil response")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode workable response: %w", err)
	}
	return nil
}

// FetchClient performs GET requests with bounded retries. Attempt n (1-based)
// that fails waits n*RetryDelay; a 429 waits (n+1)*RetryDelay.
type FetchClient struct {
	client     *http.Client
	RetryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewFetchClient constructs a FetchClient. A nil client gets a 30s timeout.
func NewFetchClient(client *http.Client) *FetchClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FetchClient{
		client:     client,
		RetryDelay: defaultRetryDelay,
		sleep:      sleepContext,
	}
}

// FetchWithRetry issues GET url with headers, retrying up to maxRetries
// attempts in total. maxRetries <= 0 means the default of 3.
func (c *FetchClient) FetchWithRetry(ctx context.Context, rawURL string, headers map[string]string, maxRetries int) (*FetchResponse, error) {
	if maxRetries <= 0 {
		maxRetries = defaultFetchRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := c.do(ctx, rawURL, headers)
		final := attempt == maxRetries

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &TransportError{URL: rawURL, Err: err}
			if final {
				return nil, lastErr
			}
			golog.Warnf("workable request failed (attempt %d/%d): %v", attempt, maxRetries, err)
			if err := c.sleep(ctx, time.Duration(attempt)*c.RetryDelay); err != nil {
				return nil, err
			}

		case resp.Status == http.StatusTooManyRequests:
			throttle := &ThrottleError{RetryAfter: resp.Header.Get("Retry-After")}
			lastErr = &TransportError{URL: rawURL, Status: resp.Status, Body: string(resp.Body), Err: throttle}
			if final {
				return nil, lastErr
			}
			wait := time.Duration(attempt) * c.RetryDelay
			golog.Warnf("workable rate limited, waiting %s before attempt %d/%d", wait, attempt+1, maxRetries)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}

		case resp.Status < 200 || resp.Status >= 300:
			lastErr = &TransportError{URL: rawURL, Status: resp.Status, Body: string(resp.Body)}
			if final {
				return nil, lastErr
			}
			golog.Warnf("workable returned status %d (attempt %d/%d)", resp.Status, attempt, maxRetries)
			if err := c.sleep(ctx, time.Duration(attempt)*c.RetryDelay); err != nil {
				return nil, err
			}

		default:
			return resp, nil
		}
	}
	return nil, lastErr
}

func (c *FetchClient) do(ctx context.Context, rawURL string, headers map[string]string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body []byte
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
	} else {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	}

	return &FetchResponse{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CandidatePage is one page of the candidates collection.
type CandidatePage struct {
	Candidates []map[string]any
	Next       string
}

// WorkableClient reads the SPI v3 API for one account.
type WorkableClient struct {
	fetch      *FetchClient
	baseURL    string
	token      string
	MaxRetries int
}

// NewWorkableClient constructs a client from cfg. A nil fetch client gets defaults.
func NewWorkableClient(cfg config.WorkableConfig, fetch *FetchClient) *WorkableClient {
	if fetch == nil {
		fetch = NewFetchClient(nil)
	}
	return &WorkableClient{
		fetch:      fetch,
		baseURL:    cfg.APIBaseURL(),
		token:      cfg.APIToken,
		MaxRetries: defaultFetchRetries,
	}
}

// CandidatesURL builds the candidates listing URL for a page.
func (c *WorkableClient) CandidatesURL(limit, offset int) string {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("state", "all")
	return c.baseURL + "/candidates?" + query.Encode()
}

// ListCandidates fetches one page of candidates.
func (c *WorkableClient) ListCandidates(ctx context.Context, limit, offset int) (*CandidatePage, error) {
	resp, err := c.fetch.FetchWithRetry(ctx, c.CandidatesURL(limit, offset), c.headers(), c.MaxRetries)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Candidates []map[string]any `json:"candidates"`
		Paging     struct {
			Next string `json:"next"`
		} `json:"paging"`
	}
	if err := resp.DecodeJSON(&decoded); err != nil {
		return nil, err
	}
	return &CandidatePage{Candidates: decoded.Candidates, Next: decoded.Paging.Next}, nil
}

func (c *WorkableClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}
