package rewrite

import (
	"context"
	"strings"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/types"
)

// FoldConstants replaces every maximal subtree whose leaves are literals or
// variables defined in source with the constant it evaluates to. Arrays are
// never folded themselves so the aggregate above them decides, and a subtree
// containing a failed node is left alone. Folded constants keep the unit of
// the subtree they replace.
func FoldConstants(ctx context.Context, n types.Node, source any, opts ...evaluator.EvalOption) (types.Node, error) {
	f := &folder{
		ctx:      ctx,
		ev:       evaluator.New(opts...),
		source:   source,
		foldable: make(map[types.Node]bool),
	}
	return f.fold(n)
}

type folder struct {
	ctx      context.Context
	ev       *evaluator.Evaluator
	source   any
	foldable map[types.Node]bool
}

func (f *folder) fold(n types.Node) (types.Node, error) {
	if err := f.ctx.Err(); err != nil {
		return nil, types.NewError(types.ErrCanceled, "constant folding canceled").WithCause(err)
	}
	if f.canFold(n) {
		if _, ok := n.(*types.Constant); ok {
			return n, nil
		}
		v, err := f.ev.Eval(f.ctx, n, f.source)
		if err != nil {
			if types.HasCode(err, types.ErrCanceled) {
				return nil, err
			}
			return n, nil
		}
		if c, ok := constantFor(n, v); ok {
			return c, nil
		}
		return n, nil
	}
	if each, ok := n.(*types.Each); ok {
		// The body sees the bound element, not the environment.
		arg, err := f.fold(each.Argument())
		if err != nil {
			return nil, err
		}
		return rebuildEach(each, arg, each.Body()), nil
	}
	return types.MapChildren(n, f.fold)
}

func (f *folder) canFold(n types.Node) bool {
	if ok, seen := f.foldable[n]; seen {
		return ok
	}
	ok := f.computeFoldable(n)
	f.foldable[n] = ok
	return ok
}

func (f *folder) computeFoldable(n types.Node) bool {
	switch n := n.(type) {
	case *types.Constant:
		switch n.Kind() {
		case types.KindNull:
			return false
		case types.KindNumber:
			return !n.Value().IsNaN()
		}
		return true
	case *types.Variable:
		v, err := f.ev.Eval(f.ctx, n, f.source)
		if err != nil {
			return false
		}
		switch {
		case v.IsNumber():
			return !v.IsNaN()
		case v.IsString(), v.IsBool():
			return true
		}
		return false
	case *types.Binary, *types.Nary, *types.Ternary:
		return f.allFoldable(types.Children(n))
	case *types.Unary:
		return f.canFold(n.Child())
	case *types.Aggregate:
		// The array below is skipped on its own but decided here.
		if arr, ok := n.Child().(*types.List); ok && arr.Kind() == types.KindArray {
			return f.allFoldable(arr.Children())
		}
		return f.canFold(n.Child())
	case *types.Call:
		if _, ok := evaluator.GetFunction(n.Name()); !ok || strings.EqualFold(n.Name(), "RND") {
			return false
		}
		return f.allFoldable(n.Children())
	}
	return false
}

func (f *folder) allFoldable(children []types.Node) bool {
	for _, c := range children {
		if !f.canFold(c) {
			return false
		}
	}
	return true
}
