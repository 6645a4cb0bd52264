// Package evaluator implements the value evaluator for goexpr trees.
//
// The evaluator walks a tree built by the host and reduces it to a
// [types.Value] against a source of variables. It supports:
//   - Arithmetic, comparisons and n-ary logic with Undefined propagation
//   - Aggregates over arrays and Each comprehensions
//   - Temporal aggregates over time series capabilities
//   - Builtin numeric, string and date functions, model runners and host functions
//   - Cancellation via context.Context and a recursion depth bound
//
// # Example
//
//	ev := evaluator.New(evaluator.WithTemporal(series.Lookup))
//	v, err := ev.Eval(ctx, tree, map[string]any{"power": 12.5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !ev.Success() {
//	    log.Println(ev.Err())
//	}
//
// # Concurrency
//
// An Evaluator records the soft diagnostics of its last run, so use one
// Evaluator per goroutine. Trees are never mutated and can be shared.
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Evaluator evaluates expression trees.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger

	success bool
	errMsg  string
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Getter resolves variables. Defaults to DefaultGetter.
	Getter Getter
	// Temporal resolves time series by variable name.
	Temporal TemporalResolver
	// Models resolves model runners by function name.
	Models ModelResolver
	// Functions is consulted for host functions when the source is not a
	// FunctionSource or does not know the name.
	Functions FunctionSource
	// MaxDepth limits recursion depth.
	MaxDepth int
	// Debug enables debug logging of node visits.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Location is the zone used by to-local-time nodes.
	Location *time.Location
}

// EvalOption configures an Evaluator.
type EvalOption func(*EvalOptions)

// WithGetter sets the variable getter.
func WithGetter(g Getter) EvalOption {
	return func(o *EvalOptions) {
		o.Getter = g
	}
}

// WithTemporal sets the time series resolver.
func WithTemporal(r TemporalResolver) EvalOption {
	return func(o *EvalOptions) {
		o.Temporal = r
	}
}

// WithModels sets the model runner resolver.
func WithModels(r ModelResolver) EvalOption {
	return func(o *EvalOptions) {
		o.Models = r
	}
}

// WithFunctions sets the fallback host function source.
func WithFunctions(fs FunctionSource) EvalOption {
	return func(o *EvalOptions) {
		o.Functions = fs
	}
}

// WithMaxDepth limits recursion depth.
func WithMaxDepth(depth int) EvalOption {
	return func(o *EvalOptions) {
		o.MaxDepth = depth
	}
}

// WithDebug enables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(o *EvalOptions) {
		o.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(o *EvalOptions) {
		o.Logger = logger
	}
}

// WithLocation sets the zone for to-local-time conversion.
func WithLocation(loc *time.Location) EvalOption {
	return func(o *EvalOptions) {
		o.Location = loc
	}
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: 10000,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Getter == nil {
		options.Getter = DefaultGetter
	}
	if options.Location == nil {
		options.Location = time.Local
	}

	return &Evaluator{
		opts:    options,
		logger:  options.Logger,
		success: true,
	}
}

// Options returns the options the evaluator was built with.
func (e *Evaluator) Options() EvalOptions {
	return e.opts
}

// Eval evaluates node against source.
//
// Missing data is not an error: it evaluates to [types.Undefined]. A window
// without enough history is reported through Success and Err while the
// value is still returned. Every other failure is a *types.Error.
func (e *Evaluator) Eval(ctx context.Context, node types.Node, source any) (types.Value, error) {
	e.success = true
	e.errMsg = ""

	if node == nil {
		return types.Undefined, types.NewError(types.ErrFailedNode, "nil expression")
	}

	v, err := e.evalNode(ctx, node, NewContext(source))
	if err != nil {
		if e.opts.Debug {
			e.logger.Debug("evaluation failed", "error", err)
		}
		return types.Undefined, err
	}
	return v, nil
}

// Success reports whether the last Eval had enough data for every window.
func (e *Evaluator) Success() bool {
	return e.success
}

// Err returns the soft diagnostic of the last Eval, "" when successful.
func (e *Evaluator) Err() string {
	return e.errMsg
}

func (e *Evaluator) fail(msg string) {
	e.success = false
	e.errMsg = msg
}
