package jwttoken

import (
	id "mugs/pkg/domain"
	"mugs/pkg/requestcontext"
)

// ToPrincipal converts validated claims into the request principal.
func ToPrincipal(claims *Claims) *requestcontext.AuthPrincipal {
	userID, _ := id.ParseID(claims.UserID)
	return &requestcontext.AuthPrincipal{
		UserID:     userID,
		NationalID: claims.NationalID,
		Roles:      claims.Roles,
		TokenID:    claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*requestcontext.AuthPrincipal, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToPrincipal(claims), nil
}
