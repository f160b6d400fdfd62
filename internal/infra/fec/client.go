package fec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fec_disbursements/internal/domain/disbursement"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL     = "https://api.open.fec.gov/v1/schedules/schedule_b/"
	DefaultCommitteeID = "C00797670" // AIPAC PAC
	DefaultTimeout     = 30 * time.Second
	PageSize           = 100

	maxErrorBodyBytes = 512
)

// ErrUpstreamRequest marks every failure caused by the FEC API: transport errors,
// non-success statuses and malformed bodies all match it through errors.Is.
var ErrUpstreamRequest = errors.New("upstream request failed")

// ErrMalformedResponse is returned when a response body lacks the expected structure.
var ErrMalformedResponse = fmt.Errorf("%w: malformed response body", ErrUpstreamRequest)

// StatusError reports a non-success HTTP status for a single page request.
type StatusError struct {
	StatusCode int
	Page       int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("upstream request failed: page %d: HTTP %d", e.Page, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error { return ErrUpstreamRequest }

var (
	_ disbursement.Source   = (*Client)(nil)
	_ disbursement.Sequence = (*Pages)(nil)
)

// Client queries the Schedule B disbursement endpoint for one committee.
type Client struct {
	apiKey      string
	baseURL     string
	committeeID string
	httpClient  *http.Client
	logger      *logrus.Entry
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithCommitteeID(id string) Option {
	return func(c *Client) { c.committeeID = id }
}

func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client authenticated with apiKey. The key is not validated here;
// an invalid key surfaces as a StatusError on the first request.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		committeeID: DefaultCommitteeID,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		c.logger = logrus.NewEntry(discard)
	}
	return c
}

// FetchDisbursements returns a lazy iterator over the committee's disbursements for cycle.
// No request is made until Next is called. Each call starts a fresh series from page 1.
func (c *Client) FetchDisbursements(cycle int) *Pages {
	return &Pages{client: c, cycle: cycle, page: 1}
}

// All drains every page for cycle into memory. Nothing is returned if any page fails.
func (c *Client) All(ctx context.Context, cycle int) ([]disbursement.Record, error) {
	pages := c.FetchDisbursements(cycle)
	records := make([]disbursement.Record, 0, PageSize)
	for pages.Next(ctx) {
		records = append(records, pages.Batch()...)
	}
	if err := pages.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, cycle, page int) (*pageResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid FEC API URL %q: %w", c.baseURL, err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("committee_id", c.committeeID)
	q.Set("two_year_transaction_period", strconv.Itoa(cycle))
	q.Set("per_page", strconv.Itoa(PageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for page %d: %w", page, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full request URL, api_key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: page %d: %w", ErrUpstreamRequest, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Page:       page,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var body *pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrMalformedResponse, page, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: page %d: empty JSON document", ErrMalformedResponse, page)
	}
	return body, nil
}

// Pages iterates the paginated endpoint, one page per Next call.
// It is not safe for concurrent use and cannot be restarted.
type Pages struct {
	client *Client
	cycle  int
	page   int
	batch  disbursement.Batch
	done   bool
	err    error
}

// Next fetches the next page. It returns false once the server reports no further
// pages or a request fails; Err distinguishes the two.
func (p *Pages) Next(ctx context.Context) bool {
	p.batch = nil
	if p.done {
		return false
	}

	body, err := p.client.fetchPage(ctx, p.cycle, p.page)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}

	p.batch = body.records()
	total := body.totalPages()
	p.client.logger.WithFields(logrus.Fields{
		"cycle": p.cycle,
		"page":  p.page,
		"pages": total,
		"count": len(p.batch),
	}).Debug("Fetched disbursement page")

	if p.page >= total {
		p.done = true
	} else {
		p.page++
	}
	return true
}

// Batch returns the records of the page fetched by the last successful Next.
func (p *Pages) Batch() disbursement.Batch { return p.batch }

// Err returns the error that stopped iteration, or nil if every page was read.
func (p *Pages) Err() error { return p.err }
