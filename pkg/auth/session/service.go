package session

import (
	"context"
	"fmt"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/auth/telegram"
	"github.com/vorrat-dev/vorrat/pkg/transport"
)

// Service exchanges verified Telegram init data for minted session tokens.
// It backs the POST /v1/session endpoint.
type Service struct {
	verifier *telegram.Verifier
	manager  *Manager
}

// Ensure the service satisfies the transport contract at compile time.
var _ transport.SessionService = (*Service)(nil)

// NewService creates a session service over the given verifier and token
// manager.
func NewService(verifier *telegram.Verifier, manager *Manager) (*Service, error) {
	if verifier == nil {
		return nil, fmt.Errorf("telegram verifier is required")
	}
	if manager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &Service{verifier: verifier, manager: manager}, nil
}

// CreateSession verifies the init data signature and mints a fresh session.
// The session ID scopes the ephemeral keyspace, so every successful exchange
// starts with clean session preferences.
func (s *Service) CreateSession(_ context.Context, initData string) (api.Session, error) {
	data, err := s.verifier.Verify(initData)
	if err != nil {
		return api.Session{}, api.NewUnauthenticatedError("invalid init data: " + err.Error())
	}
	if data.User == nil {
		return api.Session{}, api.NewUnauthenticatedError("init data missing user")
	}

	tier := "free"
	if data.User.IsPremium {
		tier = "premium"
	}

	sid := api.NewSessionID()
	token, expiresAt, err := s.manager.Mint(data.User.Ref(), sid, tier)
	if err != nil {
		return api.Session{}, fmt.Errorf("minting session token: %w", err)
	}

	return api.Session{
		Object:    api.ObjectSession,
		ID:        sid,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User: api.User{
			ID:         data.User.Ref(),
			TelegramID: data.User.ID,
			Username:   data.User.Username,
			FirstName:  data.User.FirstName,
		},
	}, nil
}
