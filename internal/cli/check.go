package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

// CheckOutput reports the static checks of a document.
type CheckOutput struct {
	Valid    bool     `json:"valid"`
	Type     string   `json:"type"`
	Unit     string   `json:"unit,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <document>",
		Short: "Validate a document and infer its type and unit",
		Long: `Validate a tree document against the document schema, then infer the
type and unit of its result. Fails when the types or units do not agree.

Example:
  goexpr check rule.yaml
  goexpr check rule.json --format json`,
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
			out := checkTree(tree)
			f := rootOpts.formatter(cmd)
			if !out.Valid {
				return f.Failure(ExitFailure, "", strings.Join(out.Problems, "; "), out)
			}
			text := "✓ valid: " + out.Type
			if out.Unit != "" {
				text += " [" + out.Unit + "]"
			}
			return f.Success(out, text)
		},
	}
}

func checkTree(tree types.Node) CheckOutput {
	out := CheckOutput{
		Type: goexpr.InferType(tree).String(),
		Unit: goexpr.InferUnit(tree),
	}
	if out.Type == types.TypeUndefined.String() {
		out.Problems = append(out.Problems, "operand types do not agree")
	}
	if out.Unit == units.Error {
		out.Problems = append(out.Problems, "operand units do not agree")
		out.Unit = ""
	}
	for _, msg := range failedNodes(tree) {
		out.Problems = append(out.Problems, fmt.Sprintf("failed node %q", msg))
	}
	out.Valid = len(out.Problems) == 0
	return out
}

func failedNodes(tree types.Node) []string {
	var failed []string
	types.Walk(tree, func(n types.Node) bool {
		if f, ok := n.(*types.Failed); ok {
			failed = append(failed, f.Message())
		}
		return true
	})
	return failed
}
