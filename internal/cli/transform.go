package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/rewrite"
	"github.com/sandrolain/goexpr/pkg/types"
)

// TreeOutput is the result of a tree-to-tree command.
type TreeOutput struct {
	Expression string `json:"expression"`
	Unit       string `json:"unit,omitempty"`
	Written    string `json:"written,omitempty"`
}

// transform is the body of a tree-to-tree command.
type transform func(ctx context.Context, opts *RootOptions, tree types.Node) (types.Node, error)

// newTransformCommand builds a command that loads a document, rewrites its
// tree and prints or saves the result.
func newTransformCommand(rootOpts *RootOptions, cmd *cobra.Command, run transform) *cobra.Command {
	var out string
	cmd.Args = cobra.ExactArgs(1)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := rootOpts.setup(cmd.ErrOrStderr()); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		f := rootOpts.formatter(cmd)

		doc, tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		result, err := run(ctx, rootOpts, tree)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		if err != nil {
			return f.Failure(ExitFailure, string(types.CodeOf(err)), err.Error(), nil)
		}

		o := TreeOutput{
			Expression: goexpr.Serialize(result),
			Unit:       goexpr.InferUnit(result),
		}
		if out != "" {
			if err := saveTree(out, doc.Name, result); err != nil {
				return err
			}
			o.Written = out
		}
		return f.Success(o, o.Expression)
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the resulting tree as a document")
	return cmd
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	return newTransformCommand(rootOpts, &cobra.Command{
		Use:   "simplify <document>",
		Short: "Simplify a tree",
		Long: `Rewrite the tree of a document into its canonical simplified form.

Example:
  goexpr simplify rule.yaml
  goexpr simplify rule.yaml -o rule.simple.yaml`,
	}, func(_ context.Context, opts *RootOptions, tree types.Node) (types.Node, error) {
		return newSimplifier(opts).Simplify(tree)
	})
}

func newSimplifier(opts *RootOptions) *rewrite.Simplifier {
	simplifierOpts := []rewrite.Option{rewrite.WithLogger(opts.Logger)}
	if opts.Config.CacheSize > 0 {
		simplifierOpts = append(simplifierOpts, rewrite.WithCache(cache.New(opts.Config.CacheSize)))
	}
	return rewrite.NewSimplifier(simplifierOpts...)
}

// NewFoldCommand creates the fold command.
func NewFoldCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		envPath string
		sets    []string
	)
	cmd := newTransformCommand(rootOpts, &cobra.Command{
		Use:   "fold <document>",
		Short: "Replace the subtrees known from the environment by their values",
		Long: `Evaluate every maximal subtree whose variables are all defined in the
environment and replace it with the resulting constant.

Example:
  goexpr fold rule.yaml --set setpoint=21`,
	}, func(ctx context.Context, opts *RootOptions, tree types.Node) (types.Node, error) {
		env, err := loadEnv(envPath, sets)
		if err != nil {
			return nil, err
		}
		evalOpts := append(opts.Config.EvalOptions(), evaluator.WithLogger(opts.Logger))
		return goexpr.FoldConstants(ctx, tree, env, evalOpts...)
	})
	cmd.Flags().StringVar(&envPath, "env", "", "YAML file mapping variable names to values")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "assign a variable (name=value), repeatable")
	return cmd
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		variable string
		simplify bool
	)
	cmd := newTransformCommand(rootOpts, &cobra.Command{
		Use:   "diff <document>",
		Short: "Differentiate a tree",
		Long: `Differentiate the tree of a document with respect to a variable.

Example:
  goexpr diff curve.yaml --var x`,
	}, func(_ context.Context, opts *RootOptions, tree types.Node) (types.Node, error) {
		d, err := goexpr.Differentiate(tree, variable)
		if err != nil || !simplify {
			return d, err
		}
		return newSimplifier(opts).Simplify(d)
	})
	cmd.Flags().StringVar(&variable, "var", "x", "variable to differentiate by")
	cmd.Flags().BoolVar(&simplify, "simplify", true, "simplify the derivative")
	return cmd
}

// NewInvertCommand creates the invert command.
func NewInvertCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		variable string
		target   string
		simplify bool
	)
	cmd := newTransformCommand(rootOpts, &cobra.Command{
		Use:   "invert <document>",
		Short: "Solve a tree for one of its variables",
		Long: `Solve f = y for a variable occurring exactly once in the tree f.
The result is expressed in terms of the target variable y.

Example:
  goexpr invert calibration.yaml --var x --target reading`,
	}, func(_ context.Context, opts *RootOptions, tree types.Node) (types.Node, error) {
		inv, err := goexpr.Invert(tree, types.Var(target), variable)
		if err != nil || !simplify {
			return inv, err
		}
		return newSimplifier(opts).Simplify(inv)
	})
	cmd.Flags().StringVar(&variable, "var", "x", "variable to solve for")
	cmd.Flags().StringVar(&target, "target", "y", "name of the variable holding the result of the tree")
	cmd.Flags().BoolVar(&simplify, "simplify", true, "simplify the solution")
	return cmd
}
