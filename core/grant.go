package core

import "time"

// Grant represents the access granted by a successful authentication
// attempt. It is the domain object the tokenizer adapters convert to and
// from bearer tokens.
type Grant struct {
	ID        string    // unique grant identifier (token JTI)
	SessionID string    // the attempt that earned the grant
	IssuedAt  time.Time // when the grant was issued
	ExpiresAt time.Time // when the grant expires
}
