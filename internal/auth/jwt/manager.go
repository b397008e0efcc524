package jwt

import (
	stderrors "errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leadhub/leadhub-backend/pkg/config"
	"github.com/leadhub/leadhub-backend/pkg/errors"
)

// Claims represents the access token claims
type Claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	TenantID    string   `json:"tenant_id,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	SessionID   string   `json:"sid"`
}

// RefreshClaims represents refresh token claims
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
	clock  clock.Clock
}

// NewManager creates a new JWT manager. clk may be nil.
func NewManager(cfg *config.JWTConfig, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{config: cfg, clock: clk}
}

// Subject is the identity a token pair is issued for. TenantID and Role are
// empty for an identity that has no profile yet.
type Subject struct {
	ID          string
	Email       string
	Name        string
	TenantID    string
	Role        string
	Permissions []string
}

// TokenPair contains access and refresh tokens
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	TokenType        string    `json:"token_type"`
}

// GenerateTokenPair generates both access and refresh tokens for a session
func (m *Manager) GenerateTokenPair(sub *Subject, sessionID string) (*TokenPair, error) {
	now := m.clock.Now()
	accessExpiry := now.Add(m.config.AccessExpiry)
	refreshExpiry := now.Add(m.config.RefreshExpiry)

	accessClaims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   sub.ID,
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Email:       sub.Email,
		Name:        sub.Name,
		TenantID:    sub.TenantID,
		Role:        sub.Role,
		Permissions: sub.Permissions,
		SessionID:   sessionID,
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	refreshClaims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   sub.ID,
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		SessionID: sessionID,
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresAt:        accessExpiry,
		RefreshExpiresAt: refreshExpiry,
		TokenType:        "Bearer",
	}, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns the claims
func (m *Manager) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(m.config.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return errors.TokenExpired()
		}
		return errors.TokenInvalid()
	}
	if !token.Valid {
		return errors.TokenInvalid()
	}
	return nil
}

// AccessExpiry returns the access token lifetime
func (m *Manager) AccessExpiry() time.Duration {
	return m.config.AccessExpiry
}

// RefreshExpiry returns the refresh token lifetime
func (m *Manager) RefreshExpiry() time.Duration {
	return m.config.RefreshExpiry
}
