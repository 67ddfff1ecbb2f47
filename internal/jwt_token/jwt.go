package jwttoken

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "docregistry/pkg/domain"
	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/requestcontext"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	issuer          = "docregistry"
)

// AccessTokenClaims is the signed payload carried by bearer tokens.
type AccessTokenClaims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	tokenTTL   time.Duration
}

// NewJWTService falls back to DefaultTokenTTL when tokenTTL is not positive.
func NewJWTService(signingKey string, tokenTTL time.Duration) *JWTService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &JWTService{
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
	}
}

func (s *JWTService) TTL() time.Duration { return s.tokenTTL }

// IssueToken signs a token for the principal. Issuance time comes from the request clock.
func (s *JWTService) IssueToken(ctx context.Context, principal id.Principal) (string, error) {
	if principal.AccountID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	if !principal.Role.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}

	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		AccountID: principal.AccountID.String(),
		Role:      principal.Role.String(),
		Name:      principal.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.AccountID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm and expiry.
func (s *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "empty token")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid token claims")
	}
	return claims, nil
}
