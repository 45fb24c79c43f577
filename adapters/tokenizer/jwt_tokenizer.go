package tokenizer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/ports"
)

// AudienceAccess marks tokens granting access after a successful attempt.
const AudienceAccess = "euth:access"

// JWTTokenizer implements the Tokenizer interface using ES256 JWTs.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// GrantToToken converts an access grant to a signed JWT.
func (j *JWTTokenizer) GrantToToken(grant *core.Grant) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   grant.SessionID,
			ID:        grant.ID,
			IssuedAt:  jwt.NewNumericDate(grant.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(grant.ExpiresAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// TokenToGrant parses a JWT and returns the access grant it encodes.
func (j *JWTTokenizer) TokenToGrant(tokenStr string) (*core.Grant, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceAccess))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", core.ErrInvalidGrant)
	}

	if !token.Valid {
		return nil, core.ErrInvalidGrant
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type: %w", core.ErrInvalidGrant)
	}

	grant := &core.Grant{
		ID:        claims.ID,
		SessionID: claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	return grant, nil
}
