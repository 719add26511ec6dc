//go:build !cgo

package csharp

import (
	"context"
	"errors"

	"skelgen/internal/syntax"
)

// ErrNoCGO is returned when C# parsing is unavailable due to missing CGO.
var ErrNoCGO = errors.New("C# parsing requires CGO (tree-sitter)")

// Parser is a stub implementation for non-CGO builds.
type Parser struct{}

// NewParser creates a new parser stub.
func NewParser() *Parser {
	return &Parser{}
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return false
}

// Parse always returns ErrNoCGO.
func (p *Parser) Parse(ctx context.Context, source string) (*syntax.Node, error) {
	return nil, ErrNoCGO
}
