//go:build !cgo

package pyparse

import (
	"context"
	stderrors "errors"
)

// ErrNoCGO is returned when source parsing is unavailable due to missing CGO.
var ErrNoCGO = stderrors.New("python parsing requires CGO (tree-sitter)")

// Parser wraps tree-sitter parsing functionality.
// This is a stub implementation for non-CGO builds.
type Parser struct{}

// NewParser creates a new Python parser.
// Returns nil when CGO is disabled.
func NewParser() *Parser {
	return nil
}

// IsAvailable returns whether source parsing is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}

// Parse always fails without CGO.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*Module, error) {
	return nil, ErrNoCGO
}
