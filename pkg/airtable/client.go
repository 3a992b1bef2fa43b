package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// DefaultBaseURL is the public Airtable REST endpoint.
const DefaultBaseURL = "https://api.airtable.com/v0"

// maxPageSize is the largest page Airtable serves for a list request.
const maxPageSize = 100

// ErrNotFound is matched (via errors.Is) by any *Error carrying a 404.
var ErrNotFound = errors.New("airtable: record not found")

// Config holds the Airtable connection details.
type Config struct {
	APIKey  string
	BaseID  string
	BaseURL string
	Timeout time.Duration
}

// Client talks to a single Airtable base.
// It is safe for concurrent use. Connections are pooled per client.
type Client struct {
	cfg  Config
	host *fasthttp.HostClient
}

// Record is a row as returned by the Airtable API.
type Record struct {
	ID          string                 `json:"id"`
	CreatedTime time.Time              `json:"createdTime"`
	Fields      map[string]interface{} `json:"fields"`
	Deleted     bool                   `json:"deleted,omitempty"`
}

// Sort orders a list request by one field.
type Sort struct {
	Field     string
	Direction string
}

// ListOptions configures a list request.
type ListOptions struct {
	Sort     []Sort
	PageSize int
}

// Error is a non-2xx answer from the Airtable API.
type Error struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: %d %s", e.StatusCode, e.Type)
}

// Is reports whether the error is a not-found answer.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == fiber.StatusNotFound
}

// NewClient creates a new Airtable client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("airtable: api key is required")
	}
	if cfg.BaseID == "" {
		return nil, fmt.Errorf("airtable: base id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("airtable: invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("airtable: base url %q must use http or https", cfg.BaseURL)
	}
	isTLS := base.Scheme == "https"

	return &Client{
		cfg: cfg,
		host: &fasthttp.HostClient{
			Addr:  fasthttp.AddMissingPort(base.Host, isTLS),
			IsTLS: isTLS,
		},
	}, nil
}

// Close drops the pooled idle connections.
func (c *Client) Close() {
	c.host.CloseIdleConnections()
}

// Table returns a handle on the named table of the base.
func (c *Client) Table(name string) *Table {
	return &Table{client: c, name: name}
}

// Table performs record operations on one table.
type Table struct {
	client *Client
	name   string
}

type fieldsBody struct {
	Fields map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Create stores a new record and returns it as stored.
func (t *Table) Create(ctx context.Context, fields map[string]interface{}) (*Record, error) {
	var rec Record
	if err := t.do(ctx, fiber.MethodPost, "", nil, fieldsBody{Fields: fields}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every record of the table, following the offset
// cursor until the last page has been read.
func (t *Table) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	records := make([]Record, 0)
	offset := ""
	for {
		query := url.Values{}
		for i, s := range opts.Sort {
			query.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
			if s.Direction != "" {
				query.Set(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
			}
		}
		query.Set("pageSize", fmt.Sprint(pageSize))
		if offset != "" {
			query.Set("offset", offset)
		}

		var page listResponse
		if err := t.do(ctx, fiber.MethodGet, "", query, nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// Find fetches a single record. A missing record yields an error matching ErrNotFound.
func (t *Table) Find(ctx context.Context, id string) (*Record, error) {
	var rec Record
	if err := t.do(ctx, fiber.MethodGet, "/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update applies the given fields to a record, leaving the others untouched.
func (t *Table) Update(ctx context.Context, id string, fields map[string]interface{}) (*Record, error) {
	var rec Record
	if err := t.do(ctx, fiber.MethodPatch, "/"+url.PathEscape(id), nil, fieldsBody{Fields: fields}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Destroy deletes a record. Airtable only echoes the id back.
func (t *Table) Destroy(ctx context.Context, id string) (*Record, error) {
	var rec Record
	if err := t.do(ctx, fiber.MethodDelete, "/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *Table) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout, err := t.client.timeout(ctx)
	if err != nil {
		return err
	}

	uri := t.client.cfg.BaseURL + "/" + url.PathEscape(t.client.cfg.BaseID) + "/" + url.PathEscape(t.name) + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	a.Set(fiber.HeaderAuthorization, "Bearer "+t.client.cfg.APIKey)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fiber.ReleaseAgent(a)
			return fmt.Errorf("airtable: failed to encode request body: %w", err)
		}
		a.ContentType(fiber.MIMEApplicationJSON)
		a.Body(payload)
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("airtable: invalid request to %s: %w", uri, err)
	}
	// Parse builds a one-off HostClient; swap in the pooled one.
	a.HostClient = t.client.host

	code, respBody, err := send(ctx, a)
	if err != nil {
		return fmt.Errorf("airtable: %s %s failed: %w", method, t.name+path, err)
	}
	if code < 200 || code > 299 {
		return decodeError(code, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("airtable: failed to decode response: %w", err)
	}
	return nil
}

type response struct {
	code int
	body []byte
	errs []error
}

// send performs the request and returns early when ctx is cancelled.
// The agent is released once the request completes either way.
func send(ctx context.Context, a *fiber.Agent) (int, []byte, error) {
	done := make(chan response, 1)
	go func() {
		code, body, errs := a.Bytes()
		done <- response{code: code, body: body, errs: errs}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case resp := <-done:
		if len(resp.errs) > 0 {
			return 0, nil, errors.Join(resp.errs...)
		}
		return resp.code, resp.body, nil
	}
}

// timeout returns the request timeout, shortened to the context deadline if one is set.
func (c *Client) timeout(ctx context.Context) (time.Duration, error) {
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}

// decodeError understands both error shapes Airtable uses:
// {"error":"NOT_FOUND"} and {"error":{"type":"...","message":"..."}}.
func decodeError(code int, body []byte) error {
	apiErr := &Error{StatusCode: code}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		apiErr.Type = "UNKNOWN_ERROR"
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	var kind string
	if err := json.Unmarshal(envelope.Error, &kind); err == nil {
		apiErr.Type = kind
		return apiErr
	}
	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		apiErr.Type = detail.Type
		apiErr.Message = detail.Message
	}
	return apiErr
}
