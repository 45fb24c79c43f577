package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euthlabs/euth/adapters/events"
	"github.com/euthlabs/euth/adapters/store"
	"github.com/euthlabs/euth/adapters/tokenizer"
	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/ports"
)

// recordingPublisher captures outcome events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.AttemptCompleted
}

func (p *recordingPublisher) PublishAttemptCompleted(_ context.Context, event ports.AttemptCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) all() []ports.AttemptCompleted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.AttemptCompleted(nil), p.events...)
}

func hexDigestOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newTestService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := NewAuthService(
		store.NewMemoryStore(),
		tokenizer.NewJWTTokenizer(key),
		pub,
		slog.Default(),
	)
	return svc, pub
}

func applyAll(t *testing.T, svc *AuthService, id string, gestures ...core.Gesture) SessionStatus {
	t.Helper()
	ctx := context.Background()

	var st SessionStatus
	for _, g := range gestures {
		var err error
		st, err = svc.ApplyGesture(ctx, id, core.GestureEvent{Gesture: g, ObservedAt: time.Now()})
		require.NoError(t, err)
	}
	return st
}

func TestSubmitMatchingAttemptIssuesToken(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("NNBB"),
		MaxLength:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCollecting, created.Status)

	applyAll(t, svc, created.ID,
		core.GestureNonBlink, core.GestureNonBlink, core.GestureBlink, core.GestureBlink)

	st, err := svc.Submit(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, core.StatusSucceeded, st.Status)
	require.NotNil(t, st.Result)
	assert.True(t, st.Result.Authenticated)
	assert.Equal(t, core.ReasonSubmit, st.Result.Reason)
	require.NotEmpty(t, st.AccessToken)

	grant, err := svc.ValidateAccessToken(ctx, st.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, grant.SessionID)

	published := pub.all()
	require.Len(t, published, 1)
	assert.True(t, published[0].Authenticated)
	assert.Equal(t, created.ID, published[0].SessionID)
}

func TestSubmitMismatchedAttempt(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("NNBN"),
		MaxLength:    10,
	})
	require.NoError(t, err)

	applyAll(t, svc, created.ID,
		core.GestureNonBlink, core.GestureNonBlink, core.GestureBlink, core.GestureBlink)

	st, err := svc.Submit(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, st.Status)
	require.NotNil(t, st.Result)
	assert.False(t, st.Result.Authenticated)
	assert.Empty(t, st.AccessToken)

	published := pub.all()
	require.Len(t, published, 1)
	assert.False(t, published[0].Authenticated)
}

func TestResetDiscardsProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("BB"),
		MaxLength:    10,
	})
	require.NoError(t, err)

	applyAll(t, svc, created.ID,
		core.GestureBlink, core.GestureNonBlink, core.GestureReset, core.GestureBlink, core.GestureBlink)

	st, err := svc.Submit(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, st.Result.Authenticated)
}

func TestCandidateCapsWithoutFinalize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("BBB"),
		MaxLength:    3,
	})
	require.NoError(t, err)

	st := applyAll(t, svc, created.ID,
		core.GestureBlink, core.GestureBlink, core.GestureBlink, core.GestureBlink, core.GestureBlink)

	assert.Equal(t, core.StatusCollecting, st.Status)
	assert.Equal(t, 3, st.Length)
}

func TestFinalizeAtMaxIssuesTokenOnMatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest:  hexDigestOf("BBB"),
		MaxLength:     3,
		FinalizeAtMax: true,
	})
	require.NoError(t, err)

	st := applyAll(t, svc, created.ID,
		core.GestureBlink, core.GestureBlink, core.GestureBlink)

	assert.Equal(t, core.StatusSucceeded, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, core.ReasonMaxLength, st.Result.Reason)
	assert.NotEmpty(t, st.AccessToken)
}

func TestAbortSkipsVerifierAndIsTerminal(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("B"),
		MaxLength:    10,
	})
	require.NoError(t, err)

	applyAll(t, svc, created.ID, core.GestureBlink)

	st, err := svc.Abort(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusAborted, st.Status)
	require.NotNil(t, st.Result)
	assert.False(t, st.Result.Verified)
	assert.Empty(t, st.AccessToken)

	published := pub.all()
	require.Len(t, published, 1)
	assert.Equal(t, core.ReasonAborted, published[0].Reason)
	assert.False(t, published[0].Verified)

	// Further events and transitions are rejected.
	_, err = svc.ApplyGesture(ctx, created.ID, core.GestureEvent{Gesture: core.GestureBlink})
	assert.ErrorIs(t, err, core.ErrSessionTerminal)

	_, err = svc.Submit(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrSessionTerminal)
}

func TestTimeoutFinalizesAsFailure(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("NNBB"),
		MaxLength:    10,
		Timeout:      time.Nanosecond,
	})
	require.NoError(t, err)

	// The deadline has passed by the time of the next access; the
	// cooperative check finalizes through the timeout hook.
	st, err := svc.Status(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, core.StatusFailed, st.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, core.ReasonTimeout, st.Result.Reason)

	published := pub.all()
	require.Len(t, published, 1)
	assert.Equal(t, core.ReasonTimeout, published[0].Reason)
}

func TestVerboseExposesCandidate(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("BN"),
		MaxLength:    10,
		Verbose:      true,
	})
	require.NoError(t, err)

	st := applyAll(t, svc, created.ID, core.GestureBlink, core.GestureNonBlink)
	assert.Equal(t, "BN", st.Candidate)

	st, err = svc.Submit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "BN", st.Result.Candidate)

	published := pub.all()
	require.Len(t, published, 1)
	assert.Equal(t, "BN", published[0].Candidate)
}

func TestNonVerboseHidesCandidate(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest: hexDigestOf("BN"),
		MaxLength:    10,
	})
	require.NoError(t, err)

	st := applyAll(t, svc, created.ID, core.GestureBlink, core.GestureNonBlink)
	assert.Empty(t, st.Candidate)
	assert.Equal(t, 2, st.Length)

	_, err = svc.Submit(ctx, created.ID)
	require.NoError(t, err)

	published := pub.all()
	require.Len(t, published, 1)
	assert.Empty(t, published[0].Candidate)
}

func TestCreateSessionValidatesTarget(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, SessionConfig{})
	assert.ErrorIs(t, err, core.ErrMissingTargetDigest)

	_, err = svc.CreateSession(ctx, SessionConfig{TargetDigest: "junk"})
	assert.ErrorIs(t, err, core.ErrInvalidTargetDigest)
}

func TestUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Status(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	_, err = svc.Submit(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ValidateAccessToken(context.Background(), "garbage")
	assert.Error(t, err)
}

func TestRunAppliesGestureStream(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created, err := svc.CreateSession(ctx, SessionConfig{
		TargetDigest:  hexDigestOf("NNBB"),
		MaxLength:     4,
		FinalizeAtMax: true,
	})
	require.NoError(t, err)

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{Persistent: true},
		watermill.NopLogger{},
	)
	defer pubSub.Close()

	go func() {
		_ = svc.Run(ctx, events.NewWatermillSource(pubSub, slog.Default()))
	}()

	for _, g := range []string{"non_blink", "non_blink", "blink", "blink"} {
		msg := message.NewMessage(watermill.NewUUID(), []byte(`{"gesture":"`+g+`"}`))
		msg.Metadata.Set(events.SessionIDMetadataKey, created.ID)
		require.NoError(t, pubSub.Publish(events.GestureTopic, msg))
	}

	require.Eventually(t, func() bool {
		st, err := svc.Status(ctx, created.ID)
		return err == nil && st.Status == core.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}
