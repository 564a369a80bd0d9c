package client

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

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/netx"
	"github.com/google/uuid"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// UploadField is the multipart field the service expects the file in.
const UploadField = "file"

type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   TokenProvider
	log     logging.Logger
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// NewHTTPClient creates a gateway for the service rooted at baseURL
// (for example http://localhost:8080/api). token may be nil.
func NewHTTPClient(baseURL string, timeout time.Duration, token TokenProvider, log logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
		log:     log.With("component", "gateway"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
		}
	}
	return req, nil
}

// do sends req and converts transport failures and non-2xx responses into
// errors. On success the caller owns resp.Body.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	op := req.Method + " " + req.URL.Path
	reqID := req.Header.Get(common.RequestIDHeaderName)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(req.Context(), "request failed", "op", op, "request_id", reqID, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}

	c.log.Debug(req.Context(), "request done",
		"op", op, "request_id", reqID, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	return nil, &APIError{
		Status:  resp.StatusCode,
		Message: errorMessage(resp.Body),
		Kind:    kindOf(resp.StatusCode),
	}
}

// errorMessage extracts the "message" field of an error body, if any.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var m models.MessageResponse
	if err := json.Unmarshal(b, &m); err != nil {
		return ""
	}
	return m.Message
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp.Body, out)
}

func decode(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	if err := json.NewDecoder(r).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (string, error) {
	var resp models.MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", reg, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	var files []models.FileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/files", nil, &files); err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.FileRecord{}
	}
	return files, nil
}

// Upload sends content as the multipart field "file". progress, if set,
// observes the bytes of the request body as they are written.
func (c *HTTPClient) Upload(ctx context.Context, fileName string, content io.Reader, progress netx.ProgressFunc) (string, error) {
	buf, contentType, err := netx.MultipartFile(UploadField, fileName, content)
	if err != nil {
		return "", err
	}
	total := int64(buf.Len())

	req, err := c.newRequest(ctx, http.MethodPost, "/files/upload", netx.NewProgressReader(buf, total, progress))
	if err != nil {
		return "", err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var msg models.MessageResponse
	if err := decode(resp.Body, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

func (c *HTTPClient) Download(ctx context.Context, storedFileName string) (*models.Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/files/download/"+url.PathEscape(storedFileName), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read download body", Err: err}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = common.DefaultContentType
	}
	return &models.Download{Data: data, ContentType: ct}, nil
}

func (c *HTTPClient) Delete(ctx context.Context, storedFileName string) (string, error) {
	var resp models.MessageResponse
	if err := c.doJSON(ctx, http.MethodDelete, "/files/"+url.PathEscape(storedFileName), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Ping reports whether the service answers at all. Any HTTP response,
// including an authentication error, counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/hello", nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	var apiErr *APIError
	switch {
	case err == nil:
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case errors.As(err, &apiErr) && !errors.Is(apiErr.Kind, ErrUnavailable):
		return nil
	default:
		return err
	}
}
