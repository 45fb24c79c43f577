package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the standard claims for access tokens; the subject is
// the authenticated session ID and the JWT ID is the grant ID.
type AccessClaims struct {
	jwt.RegisteredClaims
}
