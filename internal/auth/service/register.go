package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"mugs/internal/auth/models"
	jwttoken "mugs/internal/jwt_token"
	peoplemodels "mugs/internal/people/models"
	"mugs/internal/store"
	id "mugs/pkg/domain"
	dErrors "mugs/pkg/domain-errors"
	"mugs/pkg/platform/sentinel"
	"mugs/pkg/requestcontext"
)

// Registration runs in three steps. StartRegistration issues a token for the
// first profile under a national id, VerifyRegistration trades it for a
// verified token once the profile's RVC is answered, and Register spends the
// verified token to set the password. Every token is single use.

type StartRegistrationRequest struct {
	NationalID string `json:"nationalId"`
}

func (r *StartRegistrationRequest) Normalize() {
	r.NationalID = strings.ToUpper(strings.TrimSpace(r.NationalID))
}

func (r *StartRegistrationRequest) Validate() error {
	if r.NationalID == "" {
		return dErrors.Required(models.ModelUser, "nationalId")
	}
	return nil
}

// StartRegistrationResult carries no token when the national id already has
// an account.
type StartRegistrationResult struct {
	IsRegistered bool       `json:"isRegistered"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	Question     string     `json:"question,omitempty"`
	Token        string     `json:"token,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

type VerifyRegistrationRequest struct {
	Token string `json:"token"`
	RVC   string `json:"RVC"`
}

func (r *VerifyRegistrationRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
	r.RVC = strings.ToUpper(strings.TrimSpace(r.RVC))
}

func (r *VerifyRegistrationRequest) Validate() error {
	if r.RVC == "" {
		return dErrors.Required(models.ModelUser, "RVC")
	}
	return nil
}

type VerifyRegistrationResult struct {
	IsVerified bool      `json:"isVerified"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// RegisterRequest completes a verified registration.
type RegisterRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (r *RegisterRequest) Normalize() {
	r.Token = strings.TrimSpace(r.Token)
}

func (r *RegisterRequest) Validate() error {
	if r.Password == "" {
		return dErrors.Required(models.ModelUser, "password")
	}
	if r.Password != r.Password2 {
		return dErrors.Field(dErrors.CodeBadRequest, models.ModelUser, "password2", nil, "",
			"Passwords do not match")
	}
	return nil
}

var (
	errAlreadyVerified = dErrors.New(dErrors.CodeForbidden,
		"You are already verified go on and enter your credentials")
	errNotVerified = dErrors.New(dErrors.CodeForbidden, "You are not verified!")
	errTokenSpent  = dErrors.New(dErrors.CodeUnauthorized,
		"This registration token has already been used. Restart the registration process")
	errProfileGone = dErrors.New(dErrors.CodeNotFound,
		"Profile not found. It might have been deleted. Restarting the registration process might help.")
	errInvalidRVC = dErrors.Field(dErrors.CodeBadRequest, models.ModelUser, "RVC", nil, "", "Invalid RVC!")
)

// StartRegistration looks up the profiles under the national id and issues an
// unverified registration token for the first of them.
func (s *Service) StartRegistration(ctx context.Context, req StartRegistrationRequest) (*StartRegistrationResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	registered, err := s.hasLiveUser(ctx, req.NationalID)
	if err != nil {
		return nil, err
	}
	if registered {
		return &StartRegistrationResult{IsRegistered: true}, nil
	}

	profiles, err := s.profiles.FindByNationalID(ctx, req.NationalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up profiles")
	}
	if len(profiles) == 0 {
		return nil, dErrors.Field(dErrors.CodeNotFound, models.ModelUser, "nationalId", req.NationalID, "",
			"The provided national id is not associated with any account.")
	}

	p := profiles[0]
	issued, err := s.registrations.GenerateRegistrationToken(jwttoken.RegistrationSubject{
		Kind:       p.Kind,
		ProfileID:  p.ID,
		NationalID: req.NationalID,
	}, false, s.cfg.RegistrationTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue registration token")
	}

	s.logAudit(ctx, "registration_started",
		"profile", string(p.Kind),
		"profile_id", p.ID.Hex(),
	)
	return &StartRegistrationResult{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Question:  fmt.Sprintf("Enter RVC for your %s account.", p.Kind),
		Token:     issued.Token,
		ExpiresAt: &issued.ExpiresAt,
	}, nil
}

// VerifyRegistration checks the RVC of the profile named by an unverified
// token. The token is spent whatever the answer; a wrong RVC means starting
// over.
func (s *Service) VerifyRegistration(ctx context.Context, req VerifyRegistrationRequest) (*VerifyRegistrationResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	claims, err := s.registrationClaims(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if claims.Verified {
		return nil, errAlreadyVerified
	}
	sub, err := claims.Subject()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid registration token")
	}

	registered, err := s.hasLiveUser(ctx, sub.NationalID)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, alreadyRegistered(sub.NationalID)
	}

	p, err := s.profiles.GetProfile(ctx, sub.Kind, sub.ProfileID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) || (err == nil && p.NationalID != sub.NationalID) {
		return nil, errProfileGone
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	if err := s.spend(ctx, claims); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(strings.ToUpper(p.RVC)), []byte(req.RVC)) != 1 {
		s.authFailure(ctx, "invalid_rvc", "profile_id", sub.ProfileID.Hex())
		return nil, errInvalidRVC
	}

	issued, err := s.registrations.GenerateRegistrationToken(sub, true, s.cfg.RegistrationTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue registration token")
	}
	s.logAudit(ctx, "registration_verified",
		"profile", string(sub.Kind),
		"profile_id", sub.ProfileID.Hex(),
	)
	return &VerifyRegistrationResult{IsVerified: true, Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

// Register spends a verified registration token and creates the user for
// every profile under its national id, linking them. A soft-deleted user with
// that national id is restored instead; an active one is refused.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	claims, err := s.registrationClaims(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if !claims.Verified {
		return nil, errNotVerified
	}
	if err := s.spend(ctx, claims); err != nil {
		return nil, err
	}
	return s.enroll(ctx, claims.NationalID, req.Password)
}

// registrationClaims validates a registration token and refuses spent ones.
func (s *Service) registrationClaims(ctx context.Context, token string) (*jwttoken.RegistrationClaims, error) {
	if token == "" {
		s.authFailure(ctx, "missing_registration_token")
		return nil, dErrors.New(dErrors.CodeUnauthorized,
			"You are not authorized to register your account. You must provide your nationalId to get authorization")
	}
	claims, err := s.registrations.ValidateRegistrationToken(token)
	if err != nil {
		s.authFailure(ctx, "invalid_registration_token")
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check registration token")
	}
	if revoked {
		s.authFailure(ctx, "spent_registration_token", "jti", claims.ID)
		return nil, errTokenSpent
	}
	return claims, nil
}

// spend puts the token on the revocation list so it cannot be replayed. The
// step fails when that cannot be recorded.
func (s *Service) spend(ctx context.Context, claims *jwttoken.RegistrationClaims) error {
	if err := s.revocations.RevokeToken(ctx, claims.ID, s.cfg.RegistrationTTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to spend registration token")
	}
	return nil
}

func (s *Service) hasLiveUser(ctx context.Context, nationalID string) (bool, error) {
	u, err := s.users.Collection().FindOne(ctx, store.Eq{Field: "nationalId", Value: nationalID})
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.users.Translate(err)
	}
	return u.IsLive(), nil
}

func alreadyRegistered(nationalID string) error {
	return dErrors.Field(dErrors.CodeBadRequest, models.ModelUser, "nationalId", nationalID,
		dErrors.KindIntegrity, "a user is already registered under nationalId "+nationalID)
}

// enroll creates or restores the user of nationalID with password and links
// every profile carrying that national id.
func (s *Service) enroll(ctx context.Context, nationalID, password string) (*models.User, error) {
	profiles, err := s.profiles.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up profiles")
	}
	if len(profiles) == 0 {
		return nil, errProfileGone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	existing, err := s.users.Collection().FindOne(ctx, store.Eq{Field: "nationalId", Value: nationalID})
	var user *models.User
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		user, err = s.createUser(ctx, profiles, string(hash))
	case err != nil:
		return nil, s.users.Translate(err)
	default:
		user, err = s.restoreUser(ctx, existing.ID, profiles, string(hash))
	}
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range profiles {
		g.Go(func() error {
			return s.profiles.SetUser(gctx, p.Kind, p.ID, user.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link profiles")
	}

	if s.metrics != nil {
		s.metrics.IncrementUsersRegistered()
	}
	s.logAudit(ctx, "user_registered",
		"user_id", user.ID.Hex(),
		"scope", user.Scope,
	)
	return user, nil
}

func (s *Service) createUser(ctx context.Context, profiles []*peoplemodels.Person, hash string) (*models.User, error) {
	user := s.users.Collection().Schema().New()
	applyProfiles(user, profiles, hash)
	return s.users.CreateDocument(ctx, user)
}

func (s *Service) restoreUser(ctx context.Context, userID id.ID, profiles []*peoplemodels.Person, hash string) (*models.User, error) {
	actor, now := requestcontext.UserID(ctx), requestcontext.Now(ctx)
	user, err := s.users.Collection().Execute(ctx, userID,
		func(u *models.User) error {
			if u.IsLive() {
				return alreadyRegistered(u.NationalID)
			}
			return nil
		},
		func(u *models.User) {
			u.Restore()
			u.Profiles = nil
			for _, kind := range id.ProfileKinds {
				u.UnlinkProfile(kind)
			}
			applyProfiles(u, profiles, hash)
			u.StampModified(actor, now)
		},
	)
	if err != nil {
		return nil, s.users.Translate(err)
	}
	return user, nil
}

// applyProfiles copies identity from the first profile and links them all.
func applyProfiles(u *models.User, profiles []*peoplemodels.Person, hash string) {
	u.Identity = profiles[0].Identity
	u.PasswordHash = hash
	u.IsActive = true
	for _, p := range profiles {
		u.LinkProfile(p.Kind, p.ID)
	}
	u.NormalizeIdentity()
}
