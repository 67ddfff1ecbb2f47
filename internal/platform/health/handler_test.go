package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type HealthHandlerSuite struct {
	suite.Suite
	handler *Handler
	router  chi.Router
}

func TestHealthHandlerSuite(t *testing.T) {
	suite.Run(t, new(HealthHandlerSuite))
}

func (s *HealthHandlerSuite) SetupTest() {
	s.handler = New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func (s *HealthHandlerSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (s *HealthHandlerSuite) TestLiveness() {
	w := s.get("/health/live")
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"alive"}`, w.Body.String())
}

func (s *HealthHandlerSuite) TestReadiness() {
	s.handler.RegisterCheck("database", func(context.Context) error { return nil })

	s.Run("all dependencies up", func() {
		w := s.get("/health/ready")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("one dependency down", func() {
		s.handler.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		w := s.get("/health/ready")
		s.Equal(http.StatusServiceUnavailable, w.Code)

		var body ReadinessResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("not_ready", body.Status)
		s.Equal("up", body.Checks["database"])
		s.Equal("down", body.Checks["redis"])
		s.NotContains(w.Body.String(), "connection refused")
	})
}

func (s *HealthHandlerSuite) TestStatusPageReportsDatabase() {
	s.handler.RegisterCheck("database", func(context.Context) error {
		return errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	})

	w := s.get("/")

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/html")
	s.Contains(w.Body.String(), "<h1>Document registry is running</h1>")
	s.Contains(w.Body.String(), "<td>database</td>")
	s.Contains(w.Body.String(), "<td>down</td>")
	s.NotContains(w.Body.String(), "10.0.0.5")
}

func (s *HealthHandlerSuite) TestAdvisoryShownOnStatusPageOnly() {
	var degraded bool
	s.handler.RegisterAdvisory("pinning", func() bool { return degraded })

	s.Contains(s.get("/").Body.String(), "<td>ok</td>")

	degraded = true
	s.Contains(s.get("/").Body.String(), "<td>degraded</td>")

	w := s.get("/health/ready")
	s.Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "pinning")
}
