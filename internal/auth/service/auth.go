package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/crypto/bcrypt"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/auth/jwt"
	"github.com/leadhub/leadhub-backend/internal/auth/repository"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
	"github.com/leadhub/leadhub-backend/pkg/token"
)

// Where the client should go after signing in.
const (
	NextStepOnboarding = "onboarding"
	NextStepDashboard  = "dashboard"
)

// Options configures credential handling.
type Options struct {
	BcryptCost        int
	MinPasswordLength int
	ResetExpiry       time.Duration
	FrontendURL       string
}

// Stores groups the repositories the auth service works on.
type Stores struct {
	Identities IdentityStore
	Sessions   SessionStore
	Resets     ResetStore
	Tenants    TenantStore
	Profiles   ProfileStore
}

// AuthService handles authentication logic
type AuthService struct {
	tx         Transactor
	stores     Stores
	jwtManager *jwt.Manager
	publisher  messaging.EventPublisher
	metrics    *metrics.Metrics
	clock      clock.Clock
	opts       Options
	logger     *logger.Logger
}

// NewAuthService creates a new auth service. m and clk may be nil.
func NewAuthService(tx Transactor, stores Stores, jwtManager *jwt.Manager, publisher messaging.EventPublisher,
	m *metrics.Metrics, clk clock.Clock, opts Options, log *logger.Logger) *AuthService {
	if clk == nil {
		clk = clock.New()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MinPasswordLength == 0 {
		opts.MinPasswordLength = 8
	}
	return &AuthService{
		tx:         tx,
		stores:     stores,
		jwtManager: jwtManager,
		publisher:  publisher,
		metrics:    m,
		clock:      clk,
		opts:       opts,
		logger:     log,
	}
}

// SignUpRequest represents a sign-up request
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a password reset token
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdatePasswordRequest changes the caller's password
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ClientInfo describes the device a session is opened from
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// UserInfo represents the signed-in identity
type UserInfo struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	TenantID     string     `json:"tenant_id,omitempty"`
	Role         string     `json:"role,omitempty"`
	Permissions  []string   `json:"permissions"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// AuthResponse is returned by sign-up, sign-in and current user
type AuthResponse struct {
	*jwt.TokenPair
	User     *UserInfo              `json:"user"`
	Profile  *accountdomain.Profile `json:"profile,omitempty"`
	NextStep string                 `json:"next_step"`
}

// SignUp creates an identity, a tenant named after the email and an admin
// profile that owns it, then opens a session.
func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest, client ClientInfo) (resp *AuthResponse, err error) {
	defer func() { s.metrics.ObserveAuth("signup", err) }()

	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var (
		identity *repository.Identity
		tenant   *accountdomain.Tenant
		profile  *accountdomain.Profile
	)
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		identity, err = s.createIdentity(ctx, email, req.Password)
		if err != nil {
			return err
		}
		tenant, err = s.stores.Tenants.Create(ctx, &accountdomain.CreateTenantRequest{
			Name: accountdomain.DefaultTenantName(email),
		})
		if err != nil {
			return err
		}
		profile, err = s.stores.Profiles.Create(ctx, &accountdomain.Profile{
			ID:       identity.ID,
			TenantID: tenant.ID,
			Email:    email,
			Role:     permissions.RoleAdmin,
		})
		if err != nil {
			return err
		}
		return s.stores.Tenants.SetOwner(ctx, tenant.ID, profile.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("identity_id", identity.ID).Str("tenant_id", tenant.ID).Msg("user signed up")
	s.publish(ctx, messaging.EventUserSignedUp, messaging.UserSignedUpEvent{
		IdentityID: identity.ID,
		Email:      email,
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
	})

	return s.openSession(ctx, identity, profile, client)
}

// SignIn checks credentials and opens a session. next_step tells the client
// whether onboarding is still due.
func (s *AuthService) SignIn(ctx context.Context, req *SignInRequest, client ClientInfo) (resp *AuthResponse, err error) {
	defer func() { s.metrics.ObserveAuth("signin", err) }()

	if err := httputil.Validate(ctx, req); err != nil {
		return nil, err
	}

	identity, err := s.stores.Identities.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	profile, err := s.optionalProfile(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.stores.Identities.TouchSignIn(ctx, identity.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("identity_id", identity.ID).Msg("failed to record sign-in")
	}
	identity.LastSignInAt = &now
	if profile != nil {
		if err := s.stores.Profiles.TouchLastLogin(ctx, profile.ID, now); err != nil {
			s.logger.Warn().Err(err).Str("profile_id", profile.ID).Msg("failed to record last login")
		}
		profile.LastLogin = &now
	}

	return s.openSession(ctx, identity, profile, client)
}

// SignOut revokes the session behind refreshToken. Unknown tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.stores.Sessions.RevokeByRefreshHash(ctx, token.Hash(refreshToken), s.clock.Now()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
		return err
	}
	return nil
}

// CurrentUser returns the identity of the bearer token.
func (s *AuthService) CurrentUser(ctx context.Context) (*AuthResponse, error) {
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return nil, errors.Unauthorized("")
	}
	identity, err := s.stores.Identities.GetByID(ctx, a.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("")
		}
		return nil, err
	}
	profile, err := s.optionalProfile(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:     userInfo(identity, profile),
		Profile:  profile,
		NextStep: nextStep(profile),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// stops working (rotation).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (resp *jwt.TokenPair, err error) {
	defer func() { s.metrics.ObserveAuth("refresh", err) }()

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.stores.Sessions.GetByRefreshHash(ctx, token.Hash(refreshToken))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("").WithMessageKey("errors.session_invalid", nil)
		}
		return nil, err
	}
	now := s.clock.Now()
	if !session.Active(now) || session.ID != claims.SessionID || session.IdentityID != claims.Subject {
		return nil, errors.Unauthorized("").WithMessageKey("errors.session_invalid", nil)
	}

	identity, err := s.stores.Identities.GetByID(ctx, session.IdentityID)
	if err != nil {
		return nil, err
	}
	profile, err := s.optionalProfile(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.jwtManager.GenerateTokenPair(subject(identity, profile), session.ID)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to generate tokens")
	}
	if err := s.stores.Sessions.Rotate(ctx, session.ID, token.Hash(pair.RefreshToken), pair.RefreshExpiresAt, now); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("").WithMessageKey("errors.session_invalid", nil)
		}
		return nil, err
	}
	return pair, nil
}

// RequestPasswordReset issues a reset link for a known email. The outcome is
// the same whether or not the email exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req *ForgotPasswordRequest) (err error) {
	defer func() { s.metrics.ObserveAuth("password_reset_request", err) }()

	if err := httputil.Validate(ctx, req); err != nil {
		return err
	}

	identity, err := s.stores.Identities.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	raw, err := token.Generate()
	if err != nil {
		return errors.InternalWrap(err, "failed to generate reset token")
	}
	expiresAt := s.clock.Now().Add(s.opts.ResetExpiry)
	if err := s.stores.Resets.Create(ctx, identity.ID, token.Hash(raw), expiresAt); err != nil {
		return err
	}

	s.publish(ctx, messaging.EventPasswordResetRequested, messaging.PasswordResetRequestedEvent{
		IdentityID: identity.ID,
		Email:      identity.Email,
		ResetURL:   strings.TrimRight(s.opts.FrontendURL, "/") + "/reset-password?token=" + raw,
		ExpiresAt:  expiresAt,
		Locale:     i18n.GetLocaleFromContext(ctx),
	})
	return nil
}

// ResetPassword redeems a reset token, sets the new password and signs the
// identity out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (err error) {
	defer func() { s.metrics.ObserveAuth("password_reset", err) }()

	if err := httputil.Validate(ctx, req); err != nil {
		return err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		grant, err := s.stores.Resets.GetByTokenHash(ctx, token.Hash(req.Token))
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.BadRequest("").WithMessageKey("errors.reset_token_invalid", nil)
			}
			return err
		}
		if !grant.Usable(now) {
			return errors.BadRequest("").WithMessageKey("errors.reset_token_invalid", nil)
		}
		if err := s.stores.Identities.UpdatePassword(ctx, grant.IdentityID, hash); err != nil {
			return err
		}
		if err := s.stores.Resets.MarkUsed(ctx, grant.ID, grant.IdentityID, now); err != nil {
			return err
		}
		_, err = s.stores.Sessions.RevokeAllForIdentity(ctx, grant.IdentityID, "", now)
		return err
	})
}

// UpdatePassword changes the caller's password after checking the current
// one. Other sessions are signed out; the calling session stays valid.
func (s *AuthService) UpdatePassword(ctx context.Context, req *UpdatePasswordRequest) error {
	if err := httputil.Validate(ctx, req); err != nil {
		return err
	}
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return errors.Unauthorized("")
	}

	identity, err := s.stores.Identities.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return errors.BadRequest("").WithMessageKey("errors.wrong_password", nil)
	}
	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Identities.UpdatePassword(ctx, identity.ID, hash); err != nil {
			return err
		}
		_, err := s.stores.Sessions.RevokeAllForIdentity(ctx, identity.ID, a.SessionID, s.clock.Now())
		return err
	})
}

// JoinIdentity returns the identity an accepted invitation attaches to. An
// unknown email gets a new identity; a known one must present its password.
// Joins the caller's transaction.
func (s *AuthService) JoinIdentity(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	identity, err := s.stores.Identities.GetByEmail(ctx, email)
	if err != nil {
		if !errors.IsNotFound(err) {
			return "", err
		}
		identity, err = s.createIdentity(ctx, email, password)
		if err != nil {
			return "", err
		}
		return identity.ID, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return "", errors.InvalidCredentials()
	}
	return identity.ID, nil
}

// RevokeSessions ends every session of an identity, e.g. when its profile is
// removed. Joins the caller's transaction.
func (s *AuthService) RevokeSessions(ctx context.Context, identityID string) (int64, error) {
	n, err := s.stores.Sessions.RevokeAllForIdentity(ctx, identityID, "", s.clock.Now())
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("identity_id", identityID).Int64("count", n).Msg("sessions revoked")
	return n, nil
}

// CleanSessions deletes sessions that ended before now minus retention, and
// spent or expired reset grants.
func (s *AuthService) CleanSessions(ctx context.Context, retention time.Duration) (int64, error) {
	now := s.clock.Now()
	n, err := s.stores.Sessions.CleanExpired(ctx, now.Add(-retention))
	if err != nil {
		return 0, err
	}
	if _, err := s.stores.Resets.DeleteExpired(ctx, now); err != nil {
		return n, err
	}
	return n, nil
}

func (s *AuthService) createIdentity(ctx context.Context, email, password string) (*repository.Identity, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	identity, err := s.stores.Identities.Create(ctx, email, hash)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeConflict {
			return nil, errors.Conflict("").WithMessageKey("errors.email_taken", nil)
		}
		return nil, err
	}
	return identity, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	if len(password) < s.opts.MinPasswordLength {
		return "", errors.Validation(map[string]string{
			"password": i18n.T("validation.min", map[string]string{"param": strconv.Itoa(s.opts.MinPasswordLength)}),
		})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", errors.InternalWrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// optionalProfile returns nil without error when the identity has no profile yet.
func (s *AuthService) optionalProfile(ctx context.Context, identityID string) (*accountdomain.Profile, error) {
	p, err := s.stores.Profiles.GetByID(ctx, identityID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (s *AuthService) openSession(ctx context.Context, identity *repository.Identity, profile *accountdomain.Profile, client ClientInfo) (*AuthResponse, error) {
	sessionID := repository.NewSessionID()
	pair, err := s.jwtManager.GenerateTokenPair(subject(identity, profile), sessionID)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to generate tokens")
	}

	now := s.clock.Now()
	session := &repository.Session{
		ID:               sessionID,
		IdentityID:       identity.ID,
		RefreshTokenHash: token.Hash(pair.RefreshToken),
		ExpiresAt:        pair.RefreshExpiresAt,
		LastUsedAt:       &now,
	}
	if client.UserAgent != "" {
		session.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		session.IPAddress = &client.IPAddress
	}
	if err := s.stores.Sessions.Create(ctx, session); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, err
	}

	return &AuthResponse{
		TokenPair: pair,
		User:      userInfo(identity, profile),
		Profile:   profile,
		NextStep:  nextStep(profile),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, data interface{}) {
	err := s.publisher.Publish(ctx, eventType, data)
	s.metrics.ObservePublish(eventType, err)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func subject(identity *repository.Identity, profile *accountdomain.Profile) *jwt.Subject {
	sub := &jwt.Subject{ID: identity.ID, Email: identity.Email}
	if profile != nil {
		sub.Name = profile.FullName()
		sub.TenantID = profile.TenantID
		sub.Role = profile.Role
		sub.Permissions = permissions.ForRole(profile.Role)
	}
	return sub
}

func userInfo(identity *repository.Identity, profile *accountdomain.Profile) *UserInfo {
	u := &UserInfo{
		ID:           identity.ID,
		Email:        identity.Email,
		Permissions:  []string{},
		LastSignInAt: identity.LastSignInAt,
	}
	if profile != nil {
		u.TenantID = profile.TenantID
		u.Role = profile.Role
		u.Permissions = permissions.ForRole(profile.Role)
	}
	return u
}

func nextStep(profile *accountdomain.Profile) string {
	if profile == nil || !profile.OnboardingComplete {
		return NextStepOnboarding
	}
	return NextStepDashboard
}
