package core

// Status is the externally observable state of an authentication session.
type Status string

const (
	// StatusCollecting means the session is still consuming gesture events.
	StatusCollecting Status = "collecting"

	// StatusSucceeded means the finalized candidate matched the target digest.
	StatusSucceeded Status = "succeeded"

	// StatusFailed means the finalized candidate did not match the target
	// digest. A mismatch is a normal terminal outcome, not an error.
	StatusFailed Status = "failed"

	// StatusAborted means the session was cancelled while collecting; the
	// verifier was never invoked.
	StatusAborted Status = "aborted"
)

// Terminal reports whether the status is terminal.
func (s Status) Terminal() bool {
	return s != StatusCollecting
}

// FinalizeReason records which condition ended collection.
type FinalizeReason string

const (
	ReasonSubmit    FinalizeReason = "submit"
	ReasonTimeout   FinalizeReason = "timeout"
	ReasonMaxLength FinalizeReason = "max_length"
	ReasonAborted   FinalizeReason = "aborted"
)

// DefaultMaxLength caps the candidate when no maximum is configured.
const DefaultMaxLength = 70

// Config holds the per-session configuration, fixed at construction.
type Config struct {
	// Target is the digest the finalized candidate is verified against.
	// Required.
	Target TargetDigest

	// MaxLength caps the candidate length. Zero or negative selects
	// DefaultMaxLength.
	MaxLength int

	// Verbose exposes the candidate string in results for diagnostics.
	Verbose bool

	// FinalizeAtMax finalizes the session as soon as the candidate reaches
	// MaxLength. When false the candidate stops growing and the session
	// keeps collecting until an explicit submit or timeout.
	FinalizeAtMax bool
}

// Result is the outcome of a terminal session.
type Result struct {
	// Authenticated is true iff the verifier ran and the candidate matched.
	Authenticated bool `json:"authenticated"`

	// Reason is the condition that ended the session.
	Reason FinalizeReason `json:"reason"`

	// Verified is false for aborted sessions, where the verifier never ran.
	Verified bool `json:"verified"`

	// Candidate is the compared string. Populated only for verbose sessions.
	Candidate string `json:"candidate,omitempty"`
}

// Session is the state machine for one authentication attempt: it collects
// gesture events into a candidate, finalizes on submit, timeout, or
// (optionally) reaching the maximum length, and records a Result. Sessions
// are not safe for concurrent use; callers must serialize access.
type Session struct {
	cfg    Config
	acc    *Accumulator
	status Status
	result Result
}

// NewSession creates a session in the collecting state. The target digest
// is the only eagerly validated input.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Target.IsZero() {
		return nil, ErrMissingTargetDigest
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}

	return &Session{
		cfg:    cfg,
		acc:    NewAccumulator(cfg.MaxLength),
		status: StatusCollecting,
	}, nil
}

// Apply folds one gesture event into the session and returns the resulting
// status. Events arriving after a terminal transition are ignored.
func (s *Session) Apply(ev GestureEvent) Status {
	if s.status.Terminal() {
		return s.status
	}

	s.acc.Apply(ev)

	if s.cfg.FinalizeAtMax && s.acc.Full() {
		s.finalize(ReasonMaxLength)
	}

	return s.status
}

// Submit finalizes the session on an explicit external signal. Submitting
// a terminal session returns the recorded result unchanged.
func (s *Session) Submit() Result {
	if !s.status.Terminal() {
		s.finalize(ReasonSubmit)
	}
	return s.result
}

// OnTimeout is the cooperative timeout hook: the session owns no clock, an
// external scheduler invokes this when the collection deadline elapses. A
// partial or empty candidate simply fails verification.
func (s *Session) OnTimeout() Result {
	if !s.status.Terminal() {
		s.finalize(ReasonTimeout)
	}
	return s.result
}

// Abort cancels a collecting session without invoking the verifier. The
// resulting state is terminal and distinguishable from a verified mismatch
// by Result.Verified.
func (s *Session) Abort() Result {
	if s.status.Terminal() {
		return s.result
	}

	s.status = StatusAborted
	s.result = Result{
		Authenticated: false,
		Reason:        ReasonAborted,
		Verified:      false,
	}
	if s.cfg.Verbose {
		s.result.Candidate = s.acc.Current()
	}
	return s.result
}

func (s *Session) finalize(reason FinalizeReason) {
	candidate := s.acc.Current()
	authenticated := Verify(candidate, s.cfg.Target)

	s.result = Result{
		Authenticated: authenticated,
		Reason:        reason,
		Verified:      true,
	}
	if s.cfg.Verbose {
		s.result.Candidate = candidate
	}

	if authenticated {
		s.status = StatusSucceeded
	} else {
		s.status = StatusFailed
	}
}

// Status returns the session's current state.
func (s *Session) Status() Status {
	return s.status
}

// Candidate returns the current accumulated string. Side-effect free.
func (s *Session) Candidate() string {
	return s.acc.Current()
}

// Len returns the current candidate length.
func (s *Session) Len() int {
	return s.acc.Len()
}

// Verbose reports whether the session exposes diagnostic output.
func (s *Session) Verbose() bool {
	return s.cfg.Verbose
}

// Result returns the recorded outcome. ok is false while collecting.
func (s *Session) Result() (result Result, ok bool) {
	if !s.status.Terminal() {
		return Result{}, false
	}
	return s.result, true
}
