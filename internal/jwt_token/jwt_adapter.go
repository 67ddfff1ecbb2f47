package jwttoken

import (
	"docregistry/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *AccessTokenClaims) *auth.Claims {
	return &auth.Claims{
		AccountID: claims.AccountID,
		Role:      claims.Role,
		Name:      claims.Name,
	}
}

// JWTServiceAdapter lets the auth middleware validate tokens without depending on jwt types.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
