package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	id "docregistry/pkg/domain"
	"docregistry/pkg/requestcontext"
)

const testAccountID = "550e8400-e29b-41d4-a716-446655440001"

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockTokenValidator
	called    bool
	ctx       context.Context
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.called = false
	s.ctx = nil
}

func (s *AuthMiddlewareSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareSuite) serve(authHeader string) (*httptest.ResponseRecorder, map[string]string) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RequireAuth(s.validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.ctx = r.Context()
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body map[string]string
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (s *AuthMiddlewareSuite) TestValidToken() {
	s.validator.On("ValidateToken", "good").Return(&Claims{
		AccountID: testAccountID,
		Role:      "citizen",
		Name:      "Alice",
	}, nil)

	w, _ := s.serve("Bearer good")

	s.Equal(http.StatusOK, w.Code)
	s.Require().True(s.called)
	principal, ok := requestcontext.Principal(s.ctx)
	s.Require().True(ok)
	s.Equal(testAccountID, principal.AccountID.String())
	s.Equal(id.RoleCitizen, principal.Role)
	s.Equal("Alice", principal.Name)
}

func (s *AuthMiddlewareSuite) TestMissingToken() {
	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer ", "Bearer    "} {
		s.Run(header, func() {
			s.called = false
			w, body := s.serve(header)

			s.Equal(http.StatusUnauthorized, w.Code)
			s.Equal("unauthorized", body["error"])
			s.False(s.called)
		})
	}
}

func (s *AuthMiddlewareSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "expired").Return(nil, errors.New("token is expired"))

	w, body := s.serve("Bearer expired")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("invalid_credential", body["error"])
	s.False(s.called)
}

func (s *AuthMiddlewareSuite) TestMalformedClaims() {
	s.Run("bad account id", func() {
		s.validator.On("ValidateToken", "bad-id").Return(&Claims{AccountID: "nope", Role: "citizen"}, nil)
		w, body := s.serve("Bearer bad-id")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal("invalid_credential", body["error"])
	})

	s.Run("unknown role", func() {
		s.validator.On("ValidateToken", "bad-role").Return(&Claims{AccountID: testAccountID, Role: "admin"}, nil)
		w, body := s.serve("Bearer bad-role")
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Equal("invalid_credential", body["error"])
	})

	s.False(s.called)
}
