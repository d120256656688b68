// Package backend talks to the remote question-answering and indexing service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/model/document"
)

const (
	// DefaultBaseURL is the local development address of the backend.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTopK is the number of retrieved passages requested per question.
	DefaultTopK = 4
	// UploadFieldName is the multipart field the backend reads documents from.
	UploadFieldName = "files"

	chatPath   = "/chat"
	uploadPath = "/api/upload"
	ingestPath = "/api/ingest"
	healthPath = "/health"

	maxErrorBody = 64 << 10
)

// Client issues requests against one backend base URL. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero or negative leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Transport: c.http.Transport, Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for baseURL, falling back to DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat asks the backend a question. The query is sent verbatim.
func (c *Client) Chat(ctx context.Context, query string) (ChatResult, error) {
	payload, err := json.Marshal(ChatRequest{Query: query, K: DefaultTopK})
	if err != nil {
		return ChatResult{}, fmt.Errorf("marshaling chat request: %w", err)
	}

	var out ChatResult
	err = c.do(ctx, "chat", http.MethodPost, chatPath, "application/json", bytes.NewReader(payload), &out)
	return out, err
}

// Upload sends one document to be indexed.
func (c *Client) Upload(ctx context.Context, file *document.File) (UploadResult, error) {
	if file == nil {
		return UploadResult{}, errors.New("backend: upload: no file")
	}
	src, err := file.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("opening %s: %w", file.Name, err)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		defer src.Close()
		part, err := form.CreateFormFile(UploadFieldName, file.Name)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()
	defer pr.Close()

	var out UploadResult
	err = c.do(ctx, "upload", http.MethodPost, uploadPath, form.FormDataContentType(), pr, &out)
	return out, err
}

// Ingest asks the backend to re-index its whole document folder.
func (c *Client) Ingest(ctx context.Context) (UploadResult, error) {
	var out UploadResult
	err := c.do(ctx, "ingest", http.MethodPost, ingestPath, "", nil, &out)
	return out, err
}

// Health reports whether the backend answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, healthPath, "", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	requestID := uuid.NewString()
	log := c.logger.With(zap.String("op", op), zap.String("request_id", requestID))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Kind: KindNetwork, RequestID: requestID, Err: fmt.Errorf("creating request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Kind: KindNetwork, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	log.Debug("backend responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Op:        op,
			Kind:      KindProtocol,
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(text)),
			RequestID: requestID,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Op:        op,
			Kind:      KindMalformed,
			Status:    resp.StatusCode,
			RequestID: requestID,
			Err:       fmt.Errorf("decoding response: %w", err),
		}
	}
	return nil
}
