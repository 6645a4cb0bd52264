// Package calculus implements the symbolic passes over a restricted subset
// of expression trees: differentiation with respect to a variable and
// inversion of y = f(x) for a variable that appears exactly once.
//
// Both passes return trees that are correct but not tidy; run the result
// through rewrite.Simplify before showing it to a user.
package calculus

import (
	"fmt"

	"github.com/sandrolain/goexpr/pkg/types"
)

// UnsupportedError reports a node shape a pass has no rule for. Authors hit
// it routinely while writing rules, so it is a value, not a panic.
//
// Use errors.As to recover the node, or types.IsNotSupported to test for it.
type UnsupportedError struct {
	// Op is the pass that gave up: "differentiate" or "invert".
	Op   string
	Node types.Node
	err  *types.Error
}

func unsupported(op string, code types.ErrorCode, n types.Node) *UnsupportedError {
	return &UnsupportedError{
		Op:   op,
		Node: n,
		err:  types.Errorf(code, "cannot %s %s node", op, n.Kind()).WithNode(n),
	}
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("calculus: %v", e.err)
}

// Unwrap returns the underlying *types.Error.
func (e *UnsupportedError) Unwrap() error {
	return e.err
}

// occurrences counts the variables named x in n.
func occurrences(n types.Node, x string) int {
	count := 0
	types.Walk(n, func(c types.Node) bool {
		if name, ok := types.VariableName(c); ok && name == x {
			count++
		}
		return true
	})
	return count
}

func contains(n types.Node, x string) bool {
	return occurrences(n, x) > 0
}
