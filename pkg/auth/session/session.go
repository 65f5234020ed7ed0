// Package session mints and validates the signed session tokens issued by
// the sessions endpoint. Tokens are HS256 JWTs carrying the user as subject
// and the session ID in the "sid" claim; the two together scope the device
// and session preference keyspaces for every authenticated request.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/vorrat-dev/vorrat/pkg/auth"
)

// Config holds the session token settings.
type Config struct {
	// Secret signs and verifies tokens. Required.
	Secret []byte

	// Issuer is stamped into and required of every token. Default: "vorrat".
	Issuer string

	// TTL bounds the session lifetime. Default: 24 hours.
	TTL time.Duration
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "vorrat"
	}
	if c.TTL == 0 {
		c.TTL = 24 * time.Hour
	}
}

// Claims is the decoded content of a valid session token.
type Claims struct {
	UserID    string
	SessionID string
	Tier      string
	ExpiresAt time.Time
}

// sessionClaims is the wire shape of the token payload.
type sessionClaims struct {
	jwtlib.RegisteredClaims
	SessionID string `json:"sid"`
	Tier      string `json:"tier,omitempty"`
}

// Manager mints and verifies session tokens.
type Manager struct {
	config Config
}

// NewManager creates a token manager with the given configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	cfg.applyDefaults()
	return &Manager{config: cfg}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.config.TTL }

// Mint signs a new session token for the given user and session.
func (m *Manager) Mint(userID, sessionID, tier string) (string, time.Time, error) {
	if userID == "" || sessionID == "" {
		return "", time.Time{}, fmt.Errorf("user and session IDs are required")
	}

	now := time.Now()
	expiresAt := now.Add(m.config.TTL)
	claims := &sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
		Tier:      tier,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a session token.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	var claims sessionClaims
	token, err := jwtlib.ParseWithClaims(tokenStr, &claims,
		func(t *jwtlib.Token) (any, error) {
			if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.config.Secret, nil
		},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(m.config.Issuer),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("session token missing subject or sid claim")
	}

	return &Claims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
		Tier:      claims.Tier,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticator validates session tokens from the Authorization header.
type Authenticator struct {
	manager *Manager
}

// NewAuthenticator creates an authenticator over the given manager.
func NewAuthenticator(m *Manager) *Authenticator {
	return &Authenticator{manager: m}
}

// Authenticate extracts a bearer token and validates it as a session token.
//
// Decision outcomes:
//   - Abstain: no Authorization header, not a Bearer scheme, or the token is
//     not shaped like a JWT (other bearer authenticators may handle it)
//   - No: JWT-shaped token present but invalid (expired, tampered, wrong issuer)
//   - Yes: valid token with the user and session bound into the identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}
	// Not a JWT: let the API key authenticator vote on it.
	if strings.Count(tokenStr, ".") != 2 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	claims, err := a.manager.Verify(tokenStr)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err}
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     claims.UserID,
			ServiceTier: claims.Tier,
			Metadata: map[string]string{
				"user_id":    claims.UserID,
				"session_id": claims.SessionID,
			},
		},
	}
}
