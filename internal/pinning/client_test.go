package pinning

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/circuit"
	"docregistry/pkg/platform/tracer"
)

type recordedSpan struct {
	name  string
	attrs []tracer.Attribute
	err   error
	ended bool
}

type recordingTracer struct {
	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := &recordedSpan{name: name, attrs: attrs}
	t.spans = append(t.spans, span)
	return ctx, span
}

func (s *recordedSpan) End(err error) { s.err, s.ended = err, true }
func (s *recordedSpan) SetAttributes(attrs ...tracer.Attribute) {
	s.attrs = append(s.attrs, attrs...)
}
func (s *recordedSpan) AddEvent(string, ...tracer.Attribute) {}

type ClientSuite struct {
	suite.Suite
	tracer  *recordingTracer
	metrics *Metrics
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.tracer = &recordingTracer{}
	s.metrics = NewMetrics(prometheus.NewRegistry())
}

func (s *ClientSuite) newClient(url string, timeout time.Duration) *Client {
	return New(Config{
		URL:          url,
		APIKey:       "key",
		SecretAPIKey: "secret",
		Timeout:      timeout,
		Tracer:       s.tracer,
		Metrics:      s.metrics,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (s *ClientSuite) TestUploadSuccess() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := s.T()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "ktp.pdf", header.Filename)
		assert.Equal(t, []byte("scan bytes"), content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IpfsHash":"Qm123","PinSize":10,"Timestamp":"2026-01-01T00:00:00Z"}`))
	}))
	defer server.Close()

	cid, err := s.newClient(server.URL, time.Second).Upload(context.Background(), []byte("scan bytes"), "ktp.pdf")
	s.Require().NoError(err)
	s.Equal("Qm123", cid)

	s.Require().Len(s.tracer.spans, 1)
	span := s.tracer.spans[0]
	s.Equal(tracer.SpanPinningUpload, span.name)
	s.True(span.ended)
	s.NoError(span.err)
	s.Contains(span.attrs, tracer.Int64(tracer.AttrUploadBytes, 10))
	s.Contains(span.attrs, tracer.Int64(tracer.AttrUploadStatus, 200))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Uploads.WithLabelValues("success")))
}

func (s *ClientSuite) TestUploadFailures() {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"non-2xx status", http.StatusUnauthorized, `{"error":"invalid keys"}`, "pinning service rejected upload"},
		{"malformed json", http.StatusOK, `<html>`, "malformed pinning response"},
		{"missing content id", http.StatusOK, `{"PinSize":10}`, "pinning response has no content identifier"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			cid, err := s.newClient(server.URL, time.Second).Upload(context.Background(), []byte("x"), "a.txt")
			s.Empty(cid)
			s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))
			s.Equal(tc.message, err.Error())
		})
	}
	s.Equal(3.0, testutil.ToFloat64(s.metrics.Uploads.WithLabelValues("failure")))
}

func (s *ClientSuite) TestUploadUnreachable() {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := s.newClient(url, time.Second).Upload(context.Background(), []byte("x"), "a.txt")
	s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))

	s.Require().Len(s.tracer.spans, 1)
	s.Error(s.tracer.spans[0].err)
}

func (s *ClientSuite) TestUploadTimeout() {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := s.newClient(server.URL, 50*time.Millisecond).Upload(context.Background(), []byte("x"), "a.txt")
	s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))
}

func (s *ClientSuite) TestRepeatedFailuresMarkDegraded() {
	var failing atomic.Bool
	failing.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"IpfsHash":"Qm123"}`))
	}))
	defer server.Close()

	client := New(Config{
		URL:     server.URL,
		Metrics: s.metrics,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Breaker: circuit.New("pinning", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1)),
	})

	for range 2 {
		_, err := client.Upload(context.Background(), []byte("x"), "a.txt")
		s.Require().Error(err)
	}
	s.True(client.Degraded())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitOpen))

	failing.Store(false)
	_, err := client.Upload(context.Background(), []byte("x"), "a.txt")
	s.Require().NoError(err, "uploads still go through while degraded")
	s.False(client.Degraded())
	s.Equal(0.0, testutil.ToFloat64(s.metrics.CircuitOpen))
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{URL: "http://localhost"})
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.NotNil(t, c.client)
	assert.NotNil(t, c.tracer)
}
