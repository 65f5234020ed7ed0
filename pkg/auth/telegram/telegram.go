// Package telegram validates Telegram Mini App init data. The mini app
// sends the raw init data with the "tma" authorization scheme; its hash is
// an HMAC keyed by the bot token, so a valid hash proves the payload came
// from Telegram for this bot.
package telegram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vorrat-dev/vorrat/pkg/auth"
)

// Sentinel errors.
var (
	ErrMissingHash  = errors.New("init data missing hash")
	ErrHashMismatch = errors.New("init data hash mismatch")
	ErrExpired      = errors.New("init data expired")
)

// Config holds the verifier settings.
type Config struct {
	// BotToken is the Telegram bot token the mini app belongs to. Required.
	BotToken string

	// MaxAuthAge bounds how old the init data's auth_date may be.
	// Zero means 24 hours; a negative value disables the check.
	MaxAuthAge time.Duration
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.MaxAuthAge == 0 {
		c.MaxAuthAge = 24 * time.Hour
	}
}

// User is the Telegram user embedded in init data.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Language  string `json:"language_code,omitempty"`
	IsPremium bool   `json:"is_premium,omitempty"`
}

// Ref returns the user's stable preference-owner identifier.
func (u *User) Ref() string {
	return fmt.Sprintf("tg:%d", u.ID)
}

// InitData is the decoded and verified init data payload.
type InitData struct {
	User     *User
	AuthDate time.Time
	QueryID  string
	Raw      url.Values
}

// Verifier checks init data signatures against the bot token.
type Verifier struct {
	config Config
	secret [sha256.Size]byte
}

// NewVerifier creates a verifier for the given bot. The HMAC secret is
// derived once: HMAC-SHA256 of the bot token keyed with "WebAppData".
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	cfg.applyDefaults()

	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(cfg.BotToken))

	v := &Verifier{config: cfg}
	copy(v.secret[:], mac.Sum(nil))
	return v, nil
}

// Verify checks the init data hash and freshness, returning the decoded
// payload on success.
func (v *Verifier) Verify(raw string) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing init data: %w", err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, ErrMissingHash
	}

	// The data-check-string is every field except hash, sorted by key,
	// as "key=value" lines.
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	mac := hmac.New(sha256.New, v.secret[:])
	mac.Write([]byte(strings.Join(pairs, "\n")))
	want := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, ErrHashMismatch
	}

	data := &InitData{Raw: values, QueryID: values.Get("query_id")}

	if s := values.Get("auth_date"); s != "" {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing auth_date: %w", err)
		}
		data.AuthDate = time.Unix(sec, 0)
	}
	if v.config.MaxAuthAge > 0 {
		if data.AuthDate.IsZero() {
			return nil, fmt.Errorf("%w: missing auth_date", ErrExpired)
		}
		if time.Since(data.AuthDate) > v.config.MaxAuthAge {
			return nil, ErrExpired
		}
	}

	if s := values.Get("user"); s != "" {
		var u User
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			return nil, fmt.Errorf("parsing user: %w", err)
		}
		data.User = &u
	}

	return data, nil
}

// Authenticator validates the "tma" authorization scheme.
type Authenticator struct {
	verifier *Verifier
}

// NewAuthenticator creates an authenticator over the given verifier.
func NewAuthenticator(v *Verifier) *Authenticator {
	return &Authenticator{verifier: v}
}

// Authenticate checks an "Authorization: tma <init-data>" header.
//
// Decision outcomes:
//   - Abstain: no Authorization header or a different scheme
//   - No: tma scheme present but the init data is invalid
//   - Yes: valid init data with the Telegram user bound into the identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	scheme, param, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "tma") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	data, err := a.verifier.Verify(param)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("telegram auth: %w", err)}
	}
	if data.User == nil {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("telegram auth: init data missing user")}
	}

	userID := data.User.Ref()
	metadata := map[string]string{
		"user_id": userID,
		// Init data changes on every mini-app launch, so hashing it scopes
		// the session keyspace to this launch.
		"session_id": deriveSessionID(param),
	}
	if data.User.Username != "" {
		metadata["username"] = data.User.Username
	}
	if data.User.FirstName != "" {
		metadata["first_name"] = data.User.FirstName
	}

	// Same tier mapping as the session exchange, so a user gets the same
	// rate limits whichever credential they present.
	tier := "free"
	if data.User.IsPremium {
		tier = "premium"
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     userID,
			ServiceTier: tier,
			Metadata:    metadata,
		},
	}
}

// deriveSessionID maps raw init data to a stable per-launch session ID.
func deriveSessionID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "tma_" + hex.EncodeToString(sum[:])[:24]
}
