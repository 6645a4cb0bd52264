package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sandrolain/goexpr/pkg/types"
)

// DefaultExport is the function a wasm model exports when none is named.
const DefaultExport = "predict"

// WasmRunner runs a model compiled to WebAssembly. The exported function
// takes one f64 per input and returns a single f64.
type WasmRunner struct {
	runtime wazero.Runtime

	mu sync.Mutex
	fn api.Function
}

// NewWasmRunner instantiates binary and binds its export.
func NewWasmRunner(ctx context.Context, binary []byte, export string) (*WasmRunner, error) {
	if export == "" {
		export = DefaultExport
	}
	rt := wazero.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, binary)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasm model: %w", err)
	}

	fn := mod.ExportedFunction(export)
	if fn == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("wasm model does not export %q", export)
	}
	def := fn.Definition()
	for _, t := range def.ParamTypes() {
		if t != api.ValueTypeF64 {
			rt.Close(ctx)
			return nil, fmt.Errorf("wasm model %q: parameters must be f64", export)
		}
	}
	if res := def.ResultTypes(); len(res) != 1 || res[0] != api.ValueTypeF64 {
		rt.Close(ctx)
		return nil, fmt.Errorf("wasm model %q: must return one f64", export)
	}

	return &WasmRunner{runtime: rt, fn: fn}, nil
}

// Inputs returns the number of inputs the model takes.
func (w *WasmRunner) Inputs() int {
	return len(w.fn.Definition().ParamTypes())
}

// Run calls the model. Non-numeric inputs give Undefined.
func (w *WasmRunner) Run(ctx context.Context, rows [][]types.Value) (types.Value, error) {
	if len(rows) != w.Inputs() {
		return types.Undefined, fmt.Errorf("%w: got %d, want %d", ErrArity, len(rows), w.Inputs())
	}
	xs, ok := inputs(rows)
	if !ok {
		return types.Undefined, nil
	}
	params := make([]uint64, len(xs))
	for i, x := range xs {
		params[i] = api.EncodeF64(x)
	}

	// api.Function is not safe for concurrent calls.
	w.mu.Lock()
	res, err := w.fn.Call(ctx, params...)
	w.mu.Unlock()
	if err != nil {
		return types.Undefined, fmt.Errorf("wasm model: %w", err)
	}
	return types.NumberValue(api.DecodeF64(res[0])), nil
}

// Close releases the runtime.
func (w *WasmRunner) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}
