package core

// Snapshot is the serializable form of a session, used by store adapters
// to persist attempts between operations. A snapshot captures the full
// machine state; RestoreSession rebuilds an equivalent session from it.
type Snapshot struct {
	Candidate     string         `json:"candidate"`
	Status        Status         `json:"status"`
	Authenticated bool           `json:"authenticated"`
	Reason        FinalizeReason `json:"reason,omitempty"`
	Verified      bool           `json:"verified"`
	TargetDigest  string         `json:"target_digest"`
	MaxLength     int            `json:"max_length"`
	Verbose       bool           `json:"verbose"`
	FinalizeAtMax bool           `json:"finalize_at_max"`
}

// Snapshot captures the session's current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Candidate:     s.acc.Current(),
		Status:        s.status,
		Authenticated: s.result.Authenticated,
		Reason:        s.result.Reason,
		Verified:      s.result.Verified,
		TargetDigest:  s.cfg.Target.String(),
		MaxLength:     s.cfg.MaxLength,
		Verbose:       s.cfg.Verbose,
		FinalizeAtMax: s.cfg.FinalizeAtMax,
	}
}

// RestoreSession rebuilds a session from a snapshot.
func RestoreSession(snap Snapshot) (*Session, error) {
	target, err := ParseTargetDigest(snap.TargetDigest)
	if err != nil {
		return nil, err
	}

	sess, err := NewSession(Config{
		Target:        target,
		MaxLength:     snap.MaxLength,
		Verbose:       snap.Verbose,
		FinalizeAtMax: snap.FinalizeAtMax,
	})
	if err != nil {
		return nil, err
	}

	sess.acc.symbols = append(sess.acc.symbols[:0], snap.Candidate...)
	sess.status = snap.Status
	if snap.Status.Terminal() {
		sess.result = Result{
			Authenticated: snap.Authenticated,
			Reason:        snap.Reason,
			Verified:      snap.Verified,
		}
		if snap.Verbose {
			sess.result.Candidate = snap.Candidate
		}
	}

	return sess, nil
}
