package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/ports"
)

const (
	// DefaultAccessTTL is the lifetime of access grants issued for
	// successful attempts.
	DefaultAccessTTL = 5 * time.Minute

	// DefaultRetention is how long terminal session records are kept
	// beyond any configured deadline.
	DefaultRetention = time.Hour
)

// AuthService orchestrates authentication attempts across the ports: it
// owns no session state itself, rehydrating the core session from the
// store on every operation, checking the cooperative timeout, and
// publishing outcome events on terminal transitions.
type AuthService struct {
	store     ports.SessionStore
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	logger    *slog.Logger

	accessTTL time.Duration
	retention time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store ports.SessionStore,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:     store,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		logger:    logger,
		accessTTL: DefaultAccessTTL,
		retention: DefaultRetention,
	}
}

// SessionConfig is the caller-facing configuration for one attempt.
type SessionConfig struct {
	// TargetDigest is the hex-encoded SHA-256 digest of the true password.
	// Required; validated eagerly before collection begins.
	TargetDigest string

	// MaxLength caps the candidate length. Zero selects the default.
	MaxLength int

	// Timeout bounds collection time. Zero means no timeout.
	Timeout time.Duration

	// Verbose exposes the candidate string in statuses, results, and
	// outcome events.
	Verbose bool

	// FinalizeAtMax finalizes as soon as the candidate reaches MaxLength
	// instead of waiting for an explicit submit or the timeout.
	FinalizeAtMax bool
}

// SessionStatus is the externally visible state of an attempt.
type SessionStatus struct {
	ID        string
	Status    core.Status
	Length    int
	Candidate string       // verbose sessions only
	Result    *core.Result // set once the session is terminal
	// AccessToken is set on the operation that transitions a session to
	// success. It is not persisted and not returned by later reads.
	AccessToken string
}

// CreateSession starts a new authentication attempt and persists it.
func (s *AuthService) CreateSession(ctx context.Context, cfg SessionConfig) (SessionStatus, error) {
	target, err := core.ParseTargetDigest(cfg.TargetDigest)
	if err != nil {
		return SessionStatus{}, fmt.Errorf("invalid session config: %w", err)
	}

	sess, err := core.NewSession(core.Config{
		Target:        target,
		MaxLength:     cfg.MaxLength,
		Verbose:       cfg.Verbose,
		FinalizeAtMax: cfg.FinalizeAtMax,
	})
	if err != nil {
		return SessionStatus{}, fmt.Errorf("invalid session config: %w", err)
	}

	now := time.Now()
	rec := ports.SessionRecord{
		ID:        uuid.New().String(),
		StartedAt: now,
		Session:   sess.Snapshot(),
	}
	if cfg.Timeout > 0 {
		rec.Deadline = now.Add(cfg.Timeout)
	}

	if err := s.save(ctx, rec); err != nil {
		return SessionStatus{}, err
	}

	s.logger.Info("session created",
		"session_id", rec.ID,
		"max_length", rec.Session.MaxLength,
		"has_timeout", !rec.Deadline.IsZero())

	return s.statusOf(rec, sess), nil
}

// ApplyGesture folds one gesture event into a session. Events targeting a
// terminal session are ignored and reported with core.ErrSessionTerminal.
func (s *AuthService) ApplyGesture(ctx context.Context, id string, ev core.GestureEvent) (SessionStatus, error) {
	rec, sess, err := s.load(ctx, id)
	if err != nil {
		return SessionStatus{}, err
	}

	if sess.Status().Terminal() {
		return s.statusOf(rec, sess), core.ErrSessionTerminal
	}

	sess.Apply(ev)

	var token string
	if sess.Status().Terminal() {
		token, err = s.completeAttempt(ctx, rec.ID, sess)
		if err != nil {
			return SessionStatus{}, err
		}
	}

	rec.Session = sess.Snapshot()
	if err := s.save(ctx, rec); err != nil {
		return SessionStatus{}, err
	}

	st := s.statusOf(rec, sess)
	st.AccessToken = token
	return st, nil
}

// Submit finalizes a collecting session on the explicit external signal
// and verifies the candidate.
func (s *AuthService) Submit(ctx context.Context, id string) (SessionStatus, error) {
	return s.finalize(ctx, id, func(sess *core.Session) { sess.Submit() })
}

// Abort cancels a collecting session without invoking the verifier.
func (s *AuthService) Abort(ctx context.Context, id string) (SessionStatus, error) {
	return s.finalize(ctx, id, func(sess *core.Session) { sess.Abort() })
}

// Status reports the current state of a session, applying the cooperative
// timeout check as a side effect.
func (s *AuthService) Status(ctx context.Context, id string) (SessionStatus, error) {
	rec, sess, err := s.load(ctx, id)
	if err != nil {
		return SessionStatus{}, err
	}
	return s.statusOf(rec, sess), nil
}

// ValidateAccessToken checks a bearer token and returns the grant it
// encodes.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*core.Grant, error) {
	grant, err := s.tokenizer.TokenToGrant(token)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(grant.ExpiresAt) {
		return nil, core.ErrGrantExpired
	}

	return grant, nil
}

// Run consumes the gesture stream and applies events to their sessions in
// strict arrival order. It returns when the stream closes or the context
// is cancelled. Events for unknown or terminal sessions are logged and
// skipped; they must not wedge the pump.
func (s *AuthService) Run(ctx context.Context, stream ports.GestureStream) error {
	msgs, err := stream.Gestures(ctx)
	if err != nil {
		return fmt.Errorf("failed to open gesture stream: %w", err)
	}

	for msg := range msgs {
		_, err := s.ApplyGesture(ctx, msg.SessionID, msg.Event)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrSessionNotFound):
			s.logger.Warn("gesture for unknown session", "session_id", msg.SessionID)
		case errors.Is(err, core.ErrSessionTerminal):
			s.logger.Debug("gesture for terminal session ignored", "session_id", msg.SessionID)
		default:
			s.logger.Error("failed to apply gesture",
				"session_id", msg.SessionID,
				"error", err)
		}
	}

	return ctx.Err()
}

// finalize runs a terminal transition (submit or abort) on a collecting
// session.
func (s *AuthService) finalize(ctx context.Context, id string, transition func(*core.Session)) (SessionStatus, error) {
	rec, sess, err := s.load(ctx, id)
	if err != nil {
		return SessionStatus{}, err
	}

	if sess.Status().Terminal() {
		return s.statusOf(rec, sess), core.ErrSessionTerminal
	}

	transition(sess)

	token, err := s.completeAttempt(ctx, rec.ID, sess)
	if err != nil {
		return SessionStatus{}, err
	}

	rec.Session = sess.Snapshot()
	if err := s.save(ctx, rec); err != nil {
		return SessionStatus{}, err
	}

	st := s.statusOf(rec, sess)
	st.AccessToken = token
	return st, nil
}

// load rehydrates a session and applies the cooperative timeout check: if
// the record's deadline has passed while collecting, the session is
// finalized through its OnTimeout hook and the terminal state persisted.
func (s *AuthService) load(ctx context.Context, id string) (ports.SessionRecord, *core.Session, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return ports.SessionRecord{}, nil, err
		}
		return ports.SessionRecord{}, nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess, err := core.RestoreSession(rec.Session)
	if err != nil {
		return ports.SessionRecord{}, nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}

	if sess.Status() == core.StatusCollecting && !rec.Deadline.IsZero() && time.Now().After(rec.Deadline) {
		sess.OnTimeout()
		if _, err := s.completeAttempt(ctx, rec.ID, sess); err != nil {
			return ports.SessionRecord{}, nil, err
		}
		rec.Session = sess.Snapshot()
		if err := s.save(ctx, rec); err != nil {
			return ports.SessionRecord{}, nil, err
		}
	}

	return rec, sess, nil
}

// completeAttempt publishes the outcome event for a session that just
// became terminal and, on success, issues an access token. Publish
// failures are logged, not fatal: the terminal state in the store is the
// source of truth.
func (s *AuthService) completeAttempt(ctx context.Context, id string, sess *core.Session) (string, error) {
	result, ok := sess.Result()
	if !ok {
		return "", nil
	}

	event := ports.AttemptCompleted{
		SessionID:     id,
		Authenticated: result.Authenticated,
		Reason:        result.Reason,
		Verified:      result.Verified,
		Candidate:     result.Candidate,
		CompletedAt:   time.Now(),
	}
	if err := s.eventPub.PublishAttemptCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish attempt outcome",
			"session_id", id,
			"error", err)
	}

	s.logger.Info("attempt completed",
		"session_id", id,
		"authenticated", result.Authenticated,
		"reason", result.Reason)

	if !result.Authenticated {
		return "", nil
	}

	now := time.Now()
	grant := &core.Grant{
		ID:        uuid.New().String(),
		SessionID: id,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}

	token, err := s.tokenizer.GrantToToken(grant)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return token, nil
}

func (s *AuthService) save(ctx context.Context, rec ports.SessionRecord) error {
	if err := s.store.Save(ctx, rec, s.retentionFor(rec)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// retentionFor sizes the store retention so a record outlives its deadline
// by the configured retention window.
func (s *AuthService) retentionFor(rec ports.SessionRecord) time.Duration {
	if rec.Deadline.IsZero() {
		return s.retention
	}
	remaining := time.Until(rec.Deadline)
	if remaining < 0 {
		remaining = 0
	}
	return remaining + s.retention
}

func (s *AuthService) statusOf(rec ports.SessionRecord, sess *core.Session) SessionStatus {
	st := SessionStatus{
		ID:     rec.ID,
		Status: sess.Status(),
		Length: sess.Len(),
	}
	if sess.Verbose() {
		st.Candidate = sess.Candidate()
	}
	if result, ok := sess.Result(); ok {
		st.Result = &result
	}
	return st
}
