package analysis

import (
	"slices"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// ModelIDPrefix marks identifiers that name models.
const ModelIDPrefix = "dtmi:"

// FreeVariables returns the sorted names of variables not bound by an
// enclosing Each. Parameters are placeholders filled by the host, not
// variables, and are reported by [Parameters] instead.
func FreeVariables(n types.Node) []string {
	seen := map[string]struct{}{}
	collectFree(n, map[string]int{}, seen)
	return sortedKeys(seen)
}

func collectFree(n types.Node, bound map[string]int, seen map[string]struct{}) {
	switch n := n.(type) {
	case nil:
		return
	case *types.Variable:
		if bound[n.Name()] == 0 {
			seen[n.Name()] = struct{}{}
		}
		return
	case *types.Each:
		collectFree(n.Argument(), bound, seen)
		bound[n.Variable()]++
		collectFree(n.Body(), bound, seen)
		bound[n.Variable()]--
		return
	case *types.Temporal:
		// The unit of measure names a unit, not a variable.
		for _, c := range []types.Node{n.Child(), n.TimePeriod(), n.TimeFrom()} {
			collectFree(c, bound, seen)
		}
		return
	}
	for _, c := range types.Children(n) {
		collectFree(c, bound, seen)
	}
}

// Parameters returns the sorted names of the parameters in n.
func Parameters(n types.Node) []string {
	seen := map[string]struct{}{}
	types.Walk(n, func(c types.Node) bool {
		if p, ok := c.(*types.Parameter); ok {
			seen[p.Name()] = struct{}{}
		}
		return true
	})
	return sortedKeys(seen)
}

// FunctionNames returns the sorted names of every called function.
func FunctionNames(n types.Node) []string {
	seen := map[string]struct{}{}
	types.Walk(n, func(c types.Node) bool {
		if call, ok := c.(*types.Call); ok {
			seen[call.Name()] = struct{}{}
		}
		return true
	})
	return sortedKeys(seen)
}

// ModelIDs returns the sorted model identifiers referenced as variables or
// function names, including those inside temporal aggregates.
func ModelIDs(n types.Node) []string {
	seen := map[string]struct{}{}
	types.Walk(n, func(c types.Node) bool {
		var name string
		switch c := c.(type) {
		case *types.Variable:
			name = c.Name()
		case *types.Call:
			name = c.Name()
		}
		if strings.HasPrefix(name, ModelIDPrefix) {
			seen[name] = struct{}{}
		}
		return true
	})
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
