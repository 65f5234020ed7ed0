package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/debug"
	"github.com/vorrat-dev/vorrat/pkg/observability"
	"github.com/vorrat-dev/vorrat/pkg/storage"
)

// Store routes preference operations to the backend bound to each scope.
// All methods are safe for concurrent use if the backends are.
type Store struct {
	namespace string
	device    Backend
	session   Backend
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace overrides the default key namespace.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Store over the given scope backends. Either backend may be
// nil; operations against a nil backend behave as "storage unavailable".
func New(device, session Backend, opts ...Option) *Store {
	s := &Store{
		namespace: DefaultNamespace,
		device:    device,
		session:   session,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the configured key namespace.
func (s *Store) Namespace() string { return s.namespace }

// Get returns the value stored under key in scope, decoded into T. Absent
// keys, malformed stored values, storage failures, and invalid input all
// yield fallback; the caller never sees an error. Failures are logged and
// counted. Absence is not treated as a failure.
func Get[T any](ctx context.Context, s *Store, scope Scope, key string, fallback T) T {
	if s == nil {
		return fallback
	}
	raw, err := s.fetch(ctx, scope, key)
	if err != nil {
		s.fellBack(scope, key, err)
		return fallback
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.fellBack(scope, key, fmt.Errorf("%w: %v", ErrMalformed, err))
		return fallback
	}
	observability.RecordPrefOp("get", string(scope), "hit")
	return v
}

// Set encodes value as JSON and writes it under key in scope. Failures are
// swallowed: the error is logged and counted, and the stored state is left
// unchanged. Later writes win; rewriting the same value is harmless.
func (s *Store) Set(ctx context.Context, scope Scope, key string, value any) {
	if s == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.droppedWrite(scope, key, fmt.Errorf("%w: %v", ErrInvalidValue, err))
		return
	}
	if err := s.write(ctx, scope, key, raw); err != nil {
		s.droppedWrite(scope, key, err)
		return
	}
	observability.RecordPrefOp("set", string(scope), "ok")
	debug.Log("prefs", "set", "scope", scope, "key", key, "bytes", len(raw))
}

// Lookup reads one entry without the fallback veil. Absent keys surface as
// storage.ErrNotFound and corrupt stored values as ErrMalformed, so callers
// can tell the two apart; backend failures pass through wrapped.
func (s *Store) Lookup(ctx context.Context, scope Scope, key string) (api.Preference, error) {
	raw, err := s.fetch(ctx, scope, key)
	if err != nil {
		record("lookup", scope, err)
		return api.Preference{}, err
	}
	if !json.Valid(raw) {
		err := fmt.Errorf("%w: key %q", ErrMalformed, key)
		record("lookup", scope, err)
		return api.Preference{}, err
	}
	record("lookup", scope, nil)
	return api.Preference{
		Object: api.ObjectPreference,
		Scope:  string(scope),
		Key:    key,
		Value:  json.RawMessage(raw),
	}, nil
}

// Put validates value as JSON and writes it, surfacing failures.
func (s *Store) Put(ctx context.Context, scope Scope, key string, value json.RawMessage) (api.Preference, error) {
	if len(value) == 0 || !json.Valid(value) {
		err := fmt.Errorf("%w", ErrInvalidValue)
		record("put", scope, err)
		return api.Preference{}, err
	}
	if err := s.write(ctx, scope, key, value); err != nil {
		record("put", scope, err)
		return api.Preference{}, err
	}
	record("put", scope, nil)
	debug.Log("prefs", "put", "scope", scope, "key", key, "bytes", len(value))
	return api.Preference{
		Object: api.ObjectPreference,
		Scope:  string(scope),
		Key:    key,
		Value:  value,
	}, nil
}

// Drop removes one entry. Dropping an absent key succeeds.
func (s *Store) Drop(ctx context.Context, scope Scope, key string) error {
	if err := ValidateKey(key); err != nil {
		record("drop", scope, err)
		return err
	}
	b, err := s.backend(scope)
	if err != nil {
		record("drop", scope, err)
		return err
	}
	if err := b.Delete(ctx, s.storageKey(ctx, scope, key)); err != nil {
		record("drop", scope, err)
		return fmt.Errorf("delete %s %q: %w", scope, key, err)
	}
	record("drop", scope, nil)
	return nil
}

// List enumerates entries in a scope whose logical keys start with prefix,
// sorted by key. Corrupt entries poison only themselves: they are skipped
// with a warning, not returned and not fatal. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, scope Scope, prefix string, limit int) (*api.PreferenceList, error) {
	b, err := s.backend(scope)
	if err != nil {
		record("list", scope, err)
		return nil, err
	}
	base := s.storageKey(ctx, scope, "")
	keys, err := b.Keys(ctx, base+prefix)
	if err != nil {
		record("list", scope, err)
		return nil, fmt.Errorf("list %s: %w", scope, err)
	}
	sort.Strings(keys)

	list := &api.PreferenceList{Object: api.ObjectList}
	for _, k := range keys {
		if limit > 0 && len(list.Data) >= limit {
			list.HasMore = true
			break
		}
		raw, err := b.Get(ctx, k)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue // removed between Keys and Get
			}
			record("list", scope, err)
			return nil, fmt.Errorf("list %s: %w", scope, err)
		}
		if !json.Valid(raw) {
			s.logger.Warn("skipping malformed stored value",
				"scope", scope, "key", strings.TrimPrefix(k, base))
			continue
		}
		list.Data = append(list.Data, api.Preference{
			Object: api.ObjectPreference,
			Scope:  string(scope),
			Key:    strings.TrimPrefix(k, base),
			Value:  json.RawMessage(raw),
		})
	}
	record("list", scope, nil)
	return list, nil
}

// HealthCheck pings the configured backends.
func (s *Store) HealthCheck(ctx context.Context) error {
	var errs []error
	if s.device != nil {
		if err := s.device.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device backend: %w", err))
		}
	}
	if s.session != nil {
		if err := s.session.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session backend: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes the configured backends. Safe when both scopes share one
// backend.
func (s *Store) Close() error {
	var errs []error
	if s.device != nil {
		if err := s.device.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.session != nil && s.session != s.device {
		if err := s.session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fetch validates the key and routes the read to the scope's backend.
func (s *Store) fetch(ctx context.Context, scope Scope, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	b, err := s.backend(scope)
	if err != nil {
		return nil, err
	}
	raw, err := b.Get(ctx, s.storageKey(ctx, scope, key))
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", scope, key, err)
	}
	return raw, nil
}

// write validates the key and routes the write to the scope's backend.
func (s *Store) write(ctx context.Context, scope Scope, key string, raw []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	b, err := s.backend(scope)
	if err != nil {
		return err
	}
	if err := b.Set(ctx, s.storageKey(ctx, scope, key), raw); err != nil {
		return fmt.Errorf("set %s %q: %w", scope, key, err)
	}
	debug.Trace("prefs", "stored value", "scope", scope, "key", key, "value", string(raw))
	return nil
}

// backend returns the backend bound to scope.
func (s *Store) backend(scope Scope) (Backend, error) {
	switch scope {
	case ScopeDevice:
		if s.device != nil {
			return s.device, nil
		}
	case ScopeSession:
		if s.session != nil {
			return s.session, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return nil, fmt.Errorf("%w: no %s backend configured", storage.ErrUnavailable, scope)
}

// storageKey builds the physical key. When the context carries an actor the
// key is prefixed with the scope's owner, keeping keyspaces disjoint per
// user (device) and per session (session). Without an actor the key is used
// as-is (single-client mode).
func (s *Store) storageKey(ctx context.Context, scope Scope, key string) string {
	full := FullKey(s.namespace, scope, key)
	var owner string
	switch actor := storage.GetActor(ctx); scope {
	case ScopeDevice:
		owner = actor.UserID
	case ScopeSession:
		owner = actor.SessionID
	}
	if owner == "" {
		return full
	}
	return owner + "/" + full
}

// fellBack records one facade fallback: a debug line for plain misses, a
// warning for real failures.
func (s *Store) fellBack(scope Scope, key string, err error) {
	reason := fallbackReason(err)
	observability.RecordPrefOp("get", string(scope), "fallback")
	observability.RecordPrefFallback(string(scope), reason)
	if reason == "absent" {
		debug.Log("prefs", "fallback", "scope", scope, "key", key, "reason", reason)
		return
	}
	s.logger.Warn("preference read fell back",
		"scope", scope, "key", key, "reason", reason, "error", err)
}

// droppedWrite records one swallowed facade write.
func (s *Store) droppedWrite(scope Scope, key string, err error) {
	observability.RecordPrefOp("set", string(scope), "dropped")
	s.logger.Warn("preference write dropped",
		"scope", scope, "key", key, "reason", fallbackReason(err), "error", err)
}

// record counts one raw-API operation.
func record(op string, scope Scope, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.RecordPrefOp(op, string(scope), outcome)
}

// fallbackReason buckets an error for the fallback counter.
func fallbackReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "absent"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, storage.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, storage.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidScope):
		return "invalid"
	case errors.Is(err, ErrInvalidValue):
		return "encode"
	}
	return "error"
}
