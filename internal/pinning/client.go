// Package pinning uploads document files to an IPFS pinning service (Pinata's
// pinFileToIPFS API) and returns the resulting content identifier.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/circuit"
	"docregistry/pkg/platform/tracer"
	"docregistry/pkg/requestcontext"
)

const (
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes bounds how much of the upstream reply is read.
	maxResponseBytes = 1 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	URL          string
	APIKey       string
	SecretAPIKey string
	Timeout      time.Duration
	HTTPClient   HTTPDoer
	Tracer       tracer.Tracer
	Metrics      *Metrics
	Logger       *slog.Logger
	// Breaker tracks consecutive failures; it never blocks uploads.
	Breaker *circuit.Breaker
}

// Client posts files to the pinning endpoint. It never retries.
type Client struct {
	url          string
	apiKey       string
	secretAPIKey string
	timeout      time.Duration
	client       HTTPDoer
	tracer       tracer.Tracer
	metrics      *Metrics
	logger       *slog.Logger
	breaker      *circuit.Breaker
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		url:          cfg.URL,
		apiKey:       cfg.APIKey,
		secretAPIKey: cfg.SecretAPIKey,
		timeout:      cfg.Timeout,
		client:       cfg.HTTPClient,
		tracer:       cfg.Tracer,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		breaker:      cfg.Breaker,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: cfg.Timeout}
	}
	if c.tracer == nil {
		c.tracer = tracer.NewNoop()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.breaker == nil {
		c.breaker = circuit.New("pinning")
	}
	return c
}

// Upload sends content as the single "file" part of a multipart body and returns the
// content identifier from the response. Every failure is reported as upload_failed.
func (c *Client) Upload(ctx context.Context, content []byte, filename string) (contentID string, err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, tracer.SpanPinningUpload, tracer.Int64(tracer.AttrUploadBytes, int64(len(content))))
	defer func() {
		span.End(err)
		c.metrics.observe(err == nil, time.Since(start))
		c.recordOutcome(ctx, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, contentType, err := encodeFile(content, filename)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to encode upload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to create pinning request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretAPIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logFailure(ctx, "pinning request timed out", err)
			return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "pinning service timed out")
		}
		c.logFailure(ctx, "pinning request failed", err)
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "pinning service unreachable")
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int64(tracer.AttrUploadStatus, int64(resp.StatusCode)))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to read pinning response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("pinning service returned status %d", resp.StatusCode)
		c.logFailure(ctx, "pinning service rejected upload", err, "status", resp.StatusCode)
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "pinning service rejected upload")
	}

	var parsed pinResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.logFailure(ctx, "malformed pinning response", err)
		return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "malformed pinning response")
	}
	if strings.TrimSpace(parsed.IpfsHash) == "" {
		return "", dErrors.New(dErrors.CodeUploadFailed, "pinning response has no content identifier")
	}
	return parsed.IpfsHash, nil
}

// Degraded reports whether recent uploads have been failing in a row.
func (c *Client) Degraded() bool {
	return c.breaker.IsOpen()
}

func (c *Client) recordOutcome(ctx context.Context, err error) {
	change := c.breaker.Record(err)
	switch {
	case change.Opened:
		c.metrics.setCircuitOpen(true)
		c.logger.WarnContext(ctx, "pinning service failing repeatedly", "circuit", c.breaker.Name())
	case change.Closed:
		c.metrics.setCircuitOpen(false)
		c.logger.InfoContext(ctx, "pinning service recovered", "circuit", c.breaker.Name())
	}
}

func encodeFile(content []byte, filename string) (io.Reader, string, error) {
	if filename == "" {
		filename = "document"
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	args := append([]any{
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	}, attrs...)
	c.logger.WarnContext(ctx, msg, args...)
}
