// Package gateway is the HTTP client for the patient REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ehr/patients/internal/domain/patient"
)

const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server responded %d: %s", e.Code, e.Message)
}

// Is lets a 404 match patient.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == patient.ErrNotFound && e.Code == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the request timeout on a copy of the current client, so
// a client passed to WithHTTPClient is left as it was.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		hc := *cl.httpClient
		hc.Timeout = d
		cl.httpClient = &hc
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns every patient, oldest first.
func (c *Client) List(ctx context.Context) ([]patient.Patient, error) {
	var out []patient.Patient
	if _, err := c.do(ctx, http.MethodGet, "/patients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrdered returns every patient sorted by the server.
func (c *Client) ListOrdered(ctx context.Context, order patient.ListOrder) ([]patient.Patient, error) {
	var out []patient.Patient
	if _, err := c.do(ctx, http.MethodPost, "/patients", order, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*patient.Patient, error) {
	var p patient.Patient
	if _, err := c.do(ctx, http.MethodGet, "/patient/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create submits p, which must carry its id, and returns the stored row.
func (c *Client) Create(ctx context.Context, p *patient.Patient) (*patient.Patient, error) {
	var out patient.Patient
	if _, err := c.do(ctx, http.MethodPut, "/patient", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id string, u *patient.Update) (*patient.Patient, error) {
	var out patient.Patient
	if _, err := c.do(ctx, http.MethodPut, "/patient/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete returns the removed row, or nil when the server had nothing to
// delete.
func (c *Client) Delete(ctx context.Context, id string) (*patient.Patient, error) {
	var out patient.Patient
	decoded, err := c.do(ctx, http.MethodDelete, "/patient/"+url.PathEscape(id), nil, &out)
	if err != nil {
		return nil, err
	}
	if !decoded {
		return nil, nil
	}
	return &out, nil
}

// do sends the request and decodes a JSON body into out. It reports whether
// a body was present.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (bool, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, statusError(resp.StatusCode, data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func statusError(code int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &StatusError{Code: code, Message: msg}
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return errors.Is(err, patient.ErrNotFound)
}
