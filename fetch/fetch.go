// Package fetch retrieves raw teletext pages over HTTP.
//
// The client is stateless between calls: it holds no cache and no
// session, just the connection pool. Caching belongs to the layer above.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"tekstitv/page"
)

// DefaultBaseURL is the upstream page endpoint; pages live at
// <base>NNN_SSSS.htm.
const DefaultBaseURL = "https://yle.fi/tekstitv/txt/"

// DefaultRetries is the transient retry count used when Options.Retries
// is left zero; NoRetries disables retrying entirely.
const (
	DefaultRetries = 2
	NoRetries      = -1
)

const (
	defaultTimeout   = 5 * time.Second
	defaultUserAgent = "tekstitv/1.0 (teletext viewer)"
	retryDelay       = 100 * time.Millisecond
)

// Transport failures. NotFound and server status errors are permanent
// for an attempt and never retried; Network and Timeout are transient.
var (
	ErrNotFound = errors.New("page not found")
	ErrTimeout  = errors.New("request timed out")
	ErrNetwork  = errors.New("network error")
)

// StatusError is any non-success, non-404 response status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: status %d", e.Code)
}

// Options configures a Client. Zero fields take defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the transient retry count after the first attempt.
	// Zero means DefaultRetries; pass NoRetries to disable.
	Retries   int
	UserAgent string
	Logger    *slog.Logger
}

// Client fetches raw page bytes from the upstream endpoint.
type Client struct {
	http      *http.Client
	baseURL   string
	retries   int
	userAgent string
	log       *slog.Logger
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	} else if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		baseURL:   opts.BaseURL,
		retries:   opts.Retries,
		userAgent: opts.UserAgent,
		log:       opts.Logger,
	}
}

// PageURL returns the upstream URL for a page id.
func (c *Client) PageURL(id page.PageId) string {
	return fmt.Sprintf("%s%d_%04d.htm", c.baseURL, id.Number, id.Subpage)
}

// Fetch performs a blocking GET for the page, retrying transient
// failures up to the configured count. Invalid ids fail before any
// network activity.
func (c *Client) Fetch(ctx context.Context, id page.PageId) ([]byte, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	url := c.PageURL(id)

	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.get(ctx, url)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.retries)+1),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("retrying page fetch", "page", id.String(), "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	c.log.Debug("fetched page", "page", id.String(), "bytes", len(body))
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
