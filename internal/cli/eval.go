package cli

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/render"
	"github.com/sandrolain/goexpr/pkg/timeseries/sqlstore"
	"github.com/sandrolain/goexpr/pkg/types"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Env    string
	Set    []string
	Series string
	Models string
	Record bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <document>",
		Short: "Evaluate a tree document",
		Long: `Evaluate the tree stored in a document against a set of variables.

Variables come from a YAML mapping (--env) and name=value assignments
(--set). Temporal aggregates read samples from a SQLite series database
(--series) and model calls are served by a model registry file (--models).

Example:
  goexpr eval rule.yaml --set temperature=23.5
  goexpr eval rule.yaml --series samples.db --record`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Env, "env", "", "YAML file mapping variable names to values")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "assign a variable (name=value), repeatable")
	cmd.Flags().StringVar(&opts.Series, "series", "", "SQLite series database (defaults to the configured one)")
	cmd.Flags().StringVar(&opts.Models, "models", "", "model registry file (defaults to the configured one)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "store the run in the series database")

	return cmd
}

// ValueOutput is the JSON form of an evaluation.
type ValueOutput struct {
	RunID   string `json:"run_id"`
	Kind    string `json:"kind"`
	Value   any    `json:"value"`
	Text    string `json:"text"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func runEval(cmd *cobra.Command, opts *EvalOptions, path string) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	_, tree, err := loadTree(path)
	if err != nil {
		return err
	}
	env, err := loadEnv(opts.Env, opts.Set)
	if err != nil {
		return err
	}

	seriesDB := firstNonEmpty(opts.Series, opts.Config.SeriesDB)
	if opts.Record && seriesDB == "" {
		return NewExitError(ExitCommandError, "--record needs a series database")
	}
	res, err := openResources(ctx, seriesDB, firstNonEmpty(opts.Models, opts.Config.Models))
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(ctx); err != nil {
			opts.Logger.Error("release resources", "error", err)
		}
	}()

	evalOpts := append(opts.Config.EvalOptions(), evaluator.WithLogger(opts.Logger))
	evalOpts = append(evalOpts, res.evalOptions()...)

	start := time.Now()
	result, err := goexpr.Evaluate(ctx, tree, env, evalOpts...)
	if err != nil {
		opts.Logger.Debug("evaluation failed", "document", path, "error", err)
		return f.Failure(ExitFailure, string(types.CodeOf(err)), err.Error(), nil)
	}
	opts.Logger.Debug("evaluated",
		"document", path,
		"run_id", result.RunID,
		"success", result.Success,
		"duration", time.Since(start),
	)

	if opts.Record {
		_, err := res.store.RecordRun(ctx, sqlstore.Run{
			ID:         result.RunID,
			Expression: render.Serialize(tree),
			Value:      result.Value.String(),
			Success:    result.Success,
			Error:      result.Error,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "record run", err)
		}
	}

	out := valueOutput(result)
	text := out.Text
	if !result.Success {
		text += "\nwarning: " + result.Error
	}
	return f.Success(out, text)
}

func valueOutput(r goexpr.Result) ValueOutput {
	return ValueOutput{
		RunID:   r.RunID.String(),
		Kind:    r.Value.Kind().String(),
		Value:   jsonValue(r.Value),
		Text:    r.Value.String(),
		Success: r.Success,
		Error:   r.Error,
	}
}

// jsonValue returns the JSON representable payload of v. Non-finite
// numbers and host objects have none.
func jsonValue(v types.Value) any {
	switch {
	case v.IsNumber():
		if math.IsNaN(v.Float()) || math.IsInf(v.Float(), 0) {
			return nil
		}
		return v.Float()
	case v.IsBool():
		return v.Bool()
	case v.IsString():
		return v.Str()
	case v.IsDateTime():
		return v.Time().Format(time.RFC3339Nano)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func describeCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
