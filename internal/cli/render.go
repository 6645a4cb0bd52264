package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/render"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		english bool
		metric  bool
	)
	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Print a tree as an expression or as English",
		Long: `Print the tree of a document in expression syntax, or as an English
sentence with quantities converted to metric or imperial units.

Example:
  goexpr render rule.yaml
  goexpr render rule.yaml --english --metric=false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			_, tree, err := loadTree(args[0])
			if err != nil {
				return err
			}
			var text string
			if english {
				useMetric := rootOpts.Config.Metric
				if cmd.Flags().Changed("metric") {
					useMetric = metric
				}
				text = goexpr.Describe(tree, useMetric)
			} else {
				text = goexpr.Serialize(tree)
			}
			return rootOpts.formatter(cmd).Success(map[string]string{"text": text}, text)
		},
	}
	cmd.Flags().BoolVar(&english, "english", false, "describe the tree in English")
	cmd.Flags().BoolVar(&metric, "metric", true, "use metric units in English output (defaults to the configuration)")
	return cmd
}

// SQLOutput is a rendered WHERE clause.
type SQLOutput struct {
	Where string         `json:"where"`
	Args  map[string]any `json:"args,omitempty"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	var simplify bool
	cmd := &cobra.Command{
		Use:   "sql <document>",
		Short: "Render a tree as a SQL WHERE clause",
		Long: `Render the tree of a document as a parameterized SQL WHERE clause.
Constants become named parameters @p1, @p2, ...

Example:
  goexpr sql filter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			f := rootOpts.formatter(cmd)
			_, tree, err := loadTree(args[0])
			if err != nil {
				return err
			}
			if simplify {
				if tree, err = newSimplifier(rootOpts).Simplify(tree); err != nil {
					return f.Failure(ExitFailure, "", err.Error(), nil)
				}
			}
			q, err := render.SQL(tree)
			if errors.Is(err, render.ErrUnsupportedSQL) {
				return f.Failure(ExitFailure, "", err.Error(), nil)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "render sql", err)
			}

			out := SQLOutput{Where: q.Where}
			var b strings.Builder
			b.WriteString(q.Where)
			if len(q.Args) > 0 {
				out.Args = make(map[string]any, len(q.Args))
			}
			for _, a := range q.Args {
				out.Args[a.Name] = a.Value
				fmt.Fprintf(&b, "\n  @%s = %v", a.Name, a.Value)
			}
			return f.Success(out, b.String())
		},
	}
	cmd.Flags().BoolVar(&simplify, "simplify", true, "simplify the tree before rendering")
	return cmd
}

// ScanOutput lists the names a tree refers to.
type ScanOutput struct {
	Variables  []string `json:"variables"`
	Functions  []string `json:"functions"`
	Models     []string `json:"models"`
	Parameters []string `json:"parameters"`
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <document>",
		Short: "List the variables, functions, models and parameters a tree uses",
		Long: `List the free variables, called functions, referenced model ids and
parameters of the tree in a document.

Example:
  goexpr scan rule.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			_, tree, err := loadTree(args[0])
			if err != nil {
				return err
			}
			out := ScanOutput{
				Variables:  nonNil(goexpr.CollectFreeVariables(tree)),
				Functions:  nonNil(goexpr.CollectFunctionNames(tree)),
				Models:     nonNil(goexpr.CollectModelIds(tree)),
				Parameters: nonNil(goexpr.CollectParameters(tree)),
			}
			var b strings.Builder
			fmt.Fprintf(&b, "variables: %s\n", strings.Join(out.Variables, ", "))
			fmt.Fprintf(&b, "functions: %s\n", strings.Join(out.Functions, ", "))
			fmt.Fprintf(&b, "models:    %s", strings.Join(out.Models, ", "))
			if len(out.Parameters) > 0 {
				fmt.Fprintf(&b, "\nparameters: %s", strings.Join(out.Parameters, ", "))
			}
			return rootOpts.formatter(cmd).Success(out, b.String())
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
