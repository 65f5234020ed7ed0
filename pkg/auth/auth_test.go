package auth

import (
	"context"
	"net/http"
	"testing"
)

// mockAuthn votes the same way on every request.
type mockAuthn struct {
	result AuthResult
}

func (m *mockAuthn) Authenticate(_ context.Context, _ *http.Request) AuthResult {
	return m.result
}

func vote(d AuthDecision, subject string) Authenticator {
	r := AuthResult{Decision: d}
	switch d {
	case Yes:
		r.Identity = &Identity{Subject: subject}
	case No:
		r.Err = ErrUnauthenticated
	}
	return &mockAuthn{result: r}
}

func TestAuthChainVoting(t *testing.T) {
	tests := []struct {
		name         string
		chain        []Authenticator
		fallback     AuthDecision
		wantDecision AuthDecision
		wantSubject  string
	}{
		{
			name:         "first yes stops the chain",
			chain:        []Authenticator{vote(Yes, "alice"), vote(No, "")},
			fallback:     No,
			wantDecision: Yes,
			wantSubject:  "alice",
		},
		{
			name:         "first no stops the chain",
			chain:        []Authenticator{vote(No, ""), vote(Yes, "bob")},
			fallback:     No,
			wantDecision: No,
		},
		{
			name:         "abstain falls through to yes",
			chain:        []Authenticator{vote(Abstain, ""), vote(Yes, "jwt-user")},
			fallback:     No,
			wantDecision: Yes,
			wantSubject:  "jwt-user",
		},
		{
			name:         "all abstain defaults to reject",
			chain:        []Authenticator{vote(Abstain, ""), vote(Abstain, "")},
			fallback:     No,
			wantDecision: No,
		},
		{
			name:         "all abstain can default to anonymous",
			chain:        []Authenticator{vote(Abstain, "")},
			fallback:     Yes,
			wantDecision: Yes,
			wantSubject:  "anonymous",
		},
		{
			name:         "empty chain rejects",
			fallback:     No,
			wantDecision: No,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &AuthChain{Authenticators: tt.chain, DefaultDecision: tt.fallback}
			r, _ := http.NewRequest("GET", "/v1/prefs/device", nil)

			result := chain.Authenticate(context.Background(), r)

			if result.Decision != tt.wantDecision {
				t.Fatalf("Decision = %v, want %v", result.Decision, tt.wantDecision)
			}
			if tt.wantSubject != "" && (result.Identity == nil || result.Identity.Subject != tt.wantSubject) {
				t.Errorf("Identity = %+v, want subject %q", result.Identity, tt.wantSubject)
			}
			if result.Decision == No && result.Err == nil {
				t.Error("rejections should carry an error")
			}
		})
	}
}

func TestDecisionString(t *testing.T) {
	if Yes.String() != "yes" || No.String() != "no" || Abstain.String() != "abstain" {
		t.Errorf("decision strings = %s/%s/%s", Yes, No, Abstain)
	}
	if AuthDecision(42).String() != "unknown" {
		t.Errorf("out-of-range decision = %s", AuthDecision(42))
	}
}

func TestIdentityActorMetadata(t *testing.T) {
	id := &Identity{Subject: "tg:7", Metadata: map[string]string{
		"user_id":    "tg:7",
		"session_id": "ses_abc",
	}}
	if id.UserID() != "tg:7" {
		t.Errorf("UserID = %q, want %q", id.UserID(), "tg:7")
	}
	if id.SessionID() != "ses_abc" {
		t.Errorf("SessionID = %q, want %q", id.SessionID(), "ses_abc")
	}

	bare := &Identity{Subject: "svc:reports"}
	if bare.UserID() != "" || bare.SessionID() != "" {
		t.Errorf("expected empty actor metadata, got %q/%q", bare.UserID(), bare.SessionID())
	}

	var nilID *Identity
	if nilID.UserID() != "" || nilID.SessionID() != "" {
		t.Error("expected empty actor metadata on nil identity")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	if IdentityFromContext(ctx) != nil {
		t.Error("expected nil identity from empty context")
	}

	ctx = SetIdentity(ctx, &Identity{Subject: "alice"})
	got := IdentityFromContext(ctx)
	if got == nil || got.Subject != "alice" {
		t.Errorf("got %v, want alice", got)
	}
}
