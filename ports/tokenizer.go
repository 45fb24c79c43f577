package ports

import "github.com/euthlabs/euth/core"

// Tokenizer converts between access grants and bearer tokens.
type Tokenizer interface {
	GrantToToken(grant *core.Grant) (string, error)
	TokenToGrant(token string) (*core.Grant, error)
}
