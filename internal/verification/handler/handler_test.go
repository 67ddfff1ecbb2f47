package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"docregistry/internal/verification/handler/mocks"
	"docregistry/internal/verification/models"
	dErrors "docregistry/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/verification-mocks.go -package=mocks Service
func newRouter(t *testing.T) (*mocks.MockService, *chi.Mux) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(mockService, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return mockService, r
}

func TestHandleVerify(t *testing.T) {
	t.Run("200 - match", func(t *testing.T) {
		mockService, router := newRouter(t)
		mockService.EXPECT().Verify(gomock.Any(), "Qm123").
			Return(&models.Result{Valid: true, Type: "identity", Owner: "Alice", Date: "2026-05-17"}, nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/verify/Qm123", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"valid":true,"type":"identity","owner":"Alice","date":"2026-05-17"}`, rr.Body.String())
	})

	t.Run("200 - no match", func(t *testing.T) {
		mockService, router := newRouter(t)
		mockService.EXPECT().Verify(gomock.Any(), "nope").Return(models.NotFound(), nil)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/verify/nope", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"valid":false}`, rr.Body.String())
	})

	t.Run("500 - store failure", func(t *testing.T) {
		mockService, router := newRouter(t)
		mockService.EXPECT().Verify(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to look up document"))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/verify/Qm123", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
