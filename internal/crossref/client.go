// Package crossref fetches bibliographic records from the Crossref REST API.
package crossref

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the request rate allowed for the public pool.
	RateLimit = 10.0

	// SearchRows is the number of candidates considered by SearchDOI.
	SearchRows = 5

	userAgent = "myref"
)

// Client is a rate-limited Crossref client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMailto identifies the caller to Crossref, which routes such requests to
// its polite pool.
func WithMailto(email string) ClientOption {
	return func(c *Client) {
		c.mailto = email
	}
}

// WithRateLimit sets the maximum number of requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new Crossref client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transport waits for the limiter before every round trip.
func (c *Client) transport(ctx context.Context) http.RoundTripper {
	rt := c.httpClient.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return requests.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		return rt.RoundTrip(req)
	})
}

func (c *Client) userAgent() string {
	if c.mailto == "" {
		return userAgent
	}
	return userAgent + " (mailto:" + c.mailto + ")"
}

func (c *Client) request(ctx context.Context, url string) *requests.Builder {
	return requests.URL(url).
		Client(c.httpClient).
		Transport(c.transport(ctx)).
		UserAgent(c.userAgent())
}

// checkStatus turns non-2xx responses into typed errors.
func checkStatus(doi string) requests.ResponseHandler {
	return func(res *http.Response) error {
		if res.StatusCode >= 200 && res.StatusCode < 300 {
			return nil
		}
		if res.StatusCode == http.StatusNotFound {
			if doi != "" {
				return fmt.Errorf("%w: %s", ErrNotFound, doi)
			}
			return ErrNotFound
		}
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg, DOI: doi}
	}
}

// classify separates HTTP errors from transport failures.
func classify(ctx context.Context, err error) error {
	var apiErr *APIError
	if errors.Is(err, ErrNotFound) || errors.As(err, &apiErr) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// FetchBibTeX returns the BibTeX record Crossref holds for doi.
func (c *Client) FetchBibTeX(ctx context.Context, doi string) (string, error) {
	var body string
	err := c.request(ctx, c.baseURL+"/works/"+doi+"/transform/application/x-bibtex").
		Accept("application/x-bibtex").
		AddValidator(checkStatus(doi)).
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return "", classify(ctx, err)
	}
	return body, nil
}

// SearchDOI runs a bibliographic query and returns the DOI of the best
// scoring match.
func (c *Client) SearchDOI(ctx context.Context, query string) (string, error) {
	var body string
	err := c.request(ctx, c.baseURL+"/works").
		ParamInt("rows", SearchRows).
		Param("query.bibliographic", query).
		Param("sort", "score").
		Param("order", "desc").
		Accept("application/json").
		AddValidator(checkStatus("")).
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return "", classify(ctx, err)
	}

	bestScore := 0.0
	best := ""
	gjson.Get(body, "message.items").ForEach(func(_, item gjson.Result) bool {
		score := item.Get("score").Float()
		if d := item.Get("DOI").String(); d != "" && (best == "" || score > bestScore) {
			bestScore = score
			best = d
		}
		return true
	})

	if best == "" {
		return "", fmt.Errorf("%w: no match for %q", ErrNotFound, query)
	}
	return strings.ToLower(best), nil
}
