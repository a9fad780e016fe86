package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/common"
	"github.com/dmitrijs2005/qryptovault/internal/netx"
	"github.com/google/uuid"
)

const (
	DefaultTimeout = 10 * time.Second

	fallbackErrorMessage = "Request failed"
	maxErrorBody         = 64 << 10
)

// HTTPClient talks to the backend over plain HTTP with JSON bodies.
type HTTPClient struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	requestID func() string
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.timeout = d }
}

// NewHTTPClient returns a client for the backend at baseURL
// (e.g. "http://localhost:8000").
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	base, err := netx.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &HTTPClient{
		base:      base,
		http:      &http.Client{},
		timeout:   DefaultTimeout,
		requestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the backend address the client was built for.
func (c *HTTPClient) BaseURL() *url.URL {
	u := *c.base
	return &u
}

type loginResponse struct {
	Username string          `json:"username"`
	Status   string          `json:"status"`
	Token    string          `json:"token"`
	User     json.RawMessage `json:"user"`
}

func (c *HTTPClient) Login(ctx context.Context, req models.LoginRequest) (*models.SessionIdentity, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", nil, req, &resp); err != nil {
		return nil, err
	}

	username, err := resolveUsername(resp)
	if err != nil {
		return nil, err
	}
	return &models.SessionIdentity{Username: username, Status: resp.Status}, nil
}

type signupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *HTTPClient) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	var resp signupResponse
	if err := c.doJSON(ctx, http.MethodPost, "/signup", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Status != "" {
		return resp.Status, nil
	}
	return resp.Message, nil
}

func (c *HTTPClient) CheckEmail(ctx context.Context, email string) error {
	return c.checkUnique(ctx, "/check-email", "email", email)
}

func (c *HTTPClient) CheckUsername(ctx context.Context, username string) error {
	return c.checkUnique(ctx, "/check-userName", "username", username)
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// checkUnique treats any non-2xx reply, or a 2xx {"exists": true}, as "taken".
// The backend reads the value from the query string.
func (c *HTTPClient) checkUnique(ctx context.Context, path, key, value string) error {
	var resp existsResponse
	err := c.doJSON(ctx, http.MethodPost, path, url.Values{key: {value}}, nil, &resp)

	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("%s %q: %w: %s", key, value, ErrConflict, apiErr.Message)
	case errors.Is(err, ErrMalformedResponse):
		// an empty or non-JSON 2xx body still means "available"
		return nil
	case err != nil:
		return err
	case resp.Exists:
		return fmt.Errorf("%s %q: %w", key, value, ErrConflict)
	}
	return nil
}

func (c *HTTPClient) Blocks(ctx context.Context) ([]models.Block, error) {
	var blocks []models.Block
	if err := c.doJSON(ctx, http.MethodGet, "/blockchain", nil, nil, &blocks); err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []models.Block{}
	}
	return blocks, nil
}

// Upload streams a multipart form with "file", "shared_with" and "owner".
// shared_with and owner are also sent as query parameters since the backend
// declares them as plain (query) arguments of the upload route.
func (c *HTTPClient) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	sharedWith := strings.Join(req.SharedWith, ",")

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, req, sharedWith)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	query := url.Values{"shared_with": {sharedWith}}
	if req.Owner != "" {
		query.Set("owner", req.Owner)
	}

	var resp UploadResult
	err := c.do(ctx, http.MethodPost, "/upload", query, pr, mw.FormDataContentType(), func(r *http.Response) error {
		return decodeBody(r.Body, &resp)
	})
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	if resp.FileID == "" {
		return nil, fmt.Errorf("%w: upload acknowledged without file_id", ErrMalformedResponse)
	}
	return &resp, nil
}

func writeUploadForm(mw *multipart.Writer, req UploadRequest, sharedWith string) error {
	part, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Content); err != nil {
		return err
	}
	if err := mw.WriteField("shared_with", sharedWith); err != nil {
		return err
	}
	if req.Owner != "" {
		if err := mw.WriteField("owner", req.Owner); err != nil {
			return err
		}
	}
	return nil
}

// Download streams the decrypted file into w and returns the server-side
// file name taken from Content-Disposition (empty if absent).
func (c *HTTPClient) Download(ctx context.Context, fileID, userID string, w io.Writer) (string, error) {
	var name string
	path := "/download/" + url.PathEscape(fileID)
	err := c.do(ctx, http.MethodGet, path, url.Values{"user_id": {userID}}, nil, "", func(r *http.Response) error {
		if cd := r.Header.Get("Content-Disposition"); cd != "" {
			if _, params, err := mime.ParseMediaType(cd); err == nil {
				name = params["filename"]
			}
		}
		if _, err := io.Copy(w, r.Body); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	})
	return name, err
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	return c.do(ctx, method, path, query, body, contentType, func(r *http.Response) error {
		if out == nil {
			return nil
		}
		return decodeBody(r.Body, out)
	})
}

// do sends one request under the client timeout. handle runs for 2xx
// replies only and must consume the body before returning.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string,
	handle func(*http.Response) error) error {

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, netx.Endpoint(c.base, path, query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeader, c.requestID())

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	return handle(resp)
}

func (c *HTTPClient) mapTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func decodeBody(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// readAPIError extracts the server explanation from {detail|error|message}.
// FastAPI validation failures carry detail as a list of {msg} objects.
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: fallbackErrorMessage}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return apiErr
	}

	if msg := detailMessage(eb.Detail); msg != "" {
		apiErr.Message = msg
	} else if eb.Error != "" {
		apiErr.Message = eb.Error
	} else if eb.Message != "" {
		apiErr.Message = eb.Message
	}
	return apiErr
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}
