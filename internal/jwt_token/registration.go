package jwttoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
)

const (
	registrationScope = "registration"
	// registrationAudience is appended to the API audience so registration
	// tokens never pass access token validation and the other way round.
	registrationAudience = "/registration"
)

// RegistrationSubject is the profile a registration is carried out for.
type RegistrationSubject struct {
	Kind       id.ProfileKind
	ProfileID  id.ID
	NationalID string
}

// RegistrationClaims carry one step of the registration flow. Verified is set
// once the profile's RVC has been answered.
type RegistrationClaims struct {
	Scope      string `json:"scope"`
	Profile    string `json:"profile"`
	ProfileID  string `json:"profile_id"`
	NationalID string `json:"national_id"`
	Verified   bool   `json:"is_verified"`
	jwt.RegisteredClaims
}

// Subject decodes the profile the claims were issued for.
func (c *RegistrationClaims) Subject() (RegistrationSubject, error) {
	kind, err := id.ParseProfileKind(c.Profile)
	if err != nil {
		return RegistrationSubject{}, err
	}
	profileID, err := id.ParseID(c.ProfileID)
	if err != nil {
		return RegistrationSubject{}, err
	}
	return RegistrationSubject{Kind: kind, ProfileID: profileID, NationalID: c.NationalID}, nil
}

func (s *JWTService) GenerateRegistrationToken(sub RegistrationSubject, verified bool, expiresIn time.Duration) (*IssuedToken, error) {
	if !sub.Kind.IsValid() || sub.ProfileID.IsZero() || sub.NationalID == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "incomplete registration subject")
	}
	now := s.now()
	jti := uuid.NewString()
	expiresAt := now.Add(expiresIn)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RegistrationClaims{
		Scope:      registrationScope,
		Profile:    string(sub.Kind),
		ProfileID:  sub.ProfileID.Hex(),
		NationalID: sub.NationalID,
		Verified:   verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience + registrationAudience},
			ID:        jti,
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ValidateRegistrationToken checks signature, expiry, audience and scope.
// Every failure is Unauthorized.
func (s *JWTService) ValidateRegistrationToken(tokenString string) (*RegistrationClaims, error) {
	denied := dErrors.New(dErrors.CodeUnauthorized,
		"You are not authorized to register your account. You must provide your nationalId to get authorization")

	parsed, err := jwt.ParseWithClaims(tokenString, &RegistrationClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience+registrationAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, denied
	}
	claims, ok := parsed.Claims.(*RegistrationClaims)
	if !ok || claims.Scope != registrationScope || claims.ID == "" || claims.NationalID == "" {
		return nil, denied
	}
	if _, err := claims.Subject(); err != nil {
		return nil, denied
	}
	return claims, nil
}
