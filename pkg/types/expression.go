// Package types defines the core data model for goexpr.
//
// This package contains type definitions for:
//   - Node: the sealed expression tree and its node kinds
//   - Value: runtime values with Undefined as a distinguished sentinel
//   - Type: static result types used by type inference
//   - Expression: a named tree as loaded from a document or cache
//   - Error types: structured errors with codes
package types

// Expression pairs a tree with the source it was loaded from.
//
// An Expression is immutable and safe for concurrent use by multiple
// goroutines.
type Expression struct {
	root   Node
	source string
	name   string
}

// NewExpression creates a new Expression from a tree.
func NewExpression(root Node, source string) *Expression {
	return &Expression{
		root:   root,
		source: source,
	}
}

// WithName returns a copy of e carrying a display name.
func (e *Expression) WithName(name string) *Expression {
	c := *e
	c.name = name
	return &c
}

// Root returns the tree.
func (e *Expression) Root() Node {
	return e.root
}

// Source returns where the expression came from (a path or canonical text).
func (e *Expression) Source() string {
	return e.source
}

// Name returns the display name, if any.
func (e *Expression) Name() string {
	return e.name
}

// String returns the source of the expression.
func (e *Expression) String() string {
	return e.source
}
