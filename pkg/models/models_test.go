package models_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/models"
	"github.com/sandrolain/goexpr/pkg/types"
)

// addModule is a wasm module exporting predict(f64, f64) f64 = a + b.
var addModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7c, 0x7c, 0x01, 0x7c, // type: (f64, f64) -> f64
	0x03, 0x02, 0x01, 0x00, // function 0 has type 0
	0x07, 0x0b, 0x01, 0x07, 'p', 'r', 'e', 'd', 'i', 'c', 't', 0x00, 0x00, // export "predict"
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0xa0, 0x0b, // local.get 0, local.get 1, f64.add
}

func rows(vals ...Value) [][]types.Value {
	out := make([][]types.Value, len(vals))
	for i, v := range vals {
		out[i] = []types.Value{v}
	}
	return out
}

func TestLinear(t *testing.T) {
	m := models.Linear{Weights: []float64{0.5, 2}, Bias: 1}

	v, err := m.Run(context.Background(), rows(types.NumberValue(4), types.NumberValue(3)))
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(9), v)

	v, err = m.Run(context.Background(), rows(types.NumberValue(4), types.StringValue("x")))
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())

	_, err = m.Run(context.Background(), rows(types.NumberValue(4)))
	assert.ErrorIs(t, err, models.ErrArity)
}

func TestWasmRunner(t *testing.T) {
	ctx := context.Background()
	w, err := models.NewWasmRunner(ctx, addModule, "")
	require.NoError(t, err)
	defer w.Close(ctx)

	assert.Equal(t, 2, w.Inputs())

	v, err := w.Run(ctx, rows(types.NumberValue(1.5), types.NumberValue(2.25)))
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(3.75), v)

	v, err = w.Run(ctx, rows(types.BoolValue(true), types.NumberValue(1)))
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(2), v)

	_, err = w.Run(ctx, rows(types.NumberValue(1)))
	assert.ErrorIs(t, err, models.ErrArity)
}

func TestWasmRunnerConcurrent(t *testing.T) {
	ctx := context.Background()
	w, err := models.NewWasmRunner(ctx, addModule, "predict")
	require.NoError(t, err)
	defer w.Close(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := w.Run(ctx, rows(types.NumberValue(float64(i)), types.NumberValue(1)))
			assert.NoError(t, err)
			assert.Equal(t, types.NumberValue(float64(i+1)), v)
		}(i)
	}
	wg.Wait()
}

func TestWasmRunnerErrors(t *testing.T) {
	ctx := context.Background()

	_, err := models.NewWasmRunner(ctx, addModule, "missing")
	assert.ErrorContains(t, err, `does not export "missing"`)

	_, err = models.NewWasmRunner(ctx, []byte("not wasm"), "")
	assert.ErrorContains(t, err, "instantiate wasm model")
}

func TestRegistry(t *testing.T) {
	reg := models.NewRegistry()
	require.NoError(t, reg.Register("dtmi:com:example:Chiller;1", models.Linear{Weights: []float64{2}}))

	assert.ErrorIs(t, reg.Register("chiller", models.Linear{}), models.ErrInvalidID)
	assert.Equal(t, []string{"dtmi:com:example:Chiller;1"}, reg.IDs())
	assert.NotNil(t, reg.Lookup("DTMI:com:example:chiller;1"))
	assert.Nil(t, reg.Lookup("dtmi:com:example:other;1"))
}

func TestEvaluateModelCall(t *testing.T) {
	ctx := context.Background()
	w, err := models.NewWasmRunner(ctx, addModule, "")
	require.NoError(t, err)

	reg := models.NewRegistry()
	require.NoError(t, reg.Register("dtmi:com:example:sum;1", w))
	defer reg.Close(ctx)

	ev := evaluator.New(evaluator.WithModels(reg.Lookup))
	tree := types.Fn("dtmi:com:example:sum;1", types.Var("a"), types.Multiply(types.Num(2), types.Num(3)))
	v, err := ev.Eval(ctx, tree, map[string]any{"a": 4})
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(10), v)

	// A model failure is a failed node.
	_, err = ev.Eval(ctx, types.Fn("dtmi:com:example:sum;1", types.Num(1)), nil)
	assert.True(t, types.HasCode(err, types.ErrFailedNode))
	assert.ErrorIs(t, err, models.ErrArity)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "add.wasm"), addModule, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.yaml"), []byte(`
models:
  - id: dtmi:com:example:chiller;1
    kind: linear
    weights: [0.5, 2]
    bias: 1
  - id: dtmi:com:example:sum;1
    kind: wasm
    path: add.wasm
`), 0o600))

	ctx := context.Background()
	reg, err := models.Load(ctx, filepath.Join(dir, "models.yaml"))
	require.NoError(t, err)
	defer reg.Close(ctx)

	assert.Equal(t, []string{"dtmi:com:example:chiller;1", "dtmi:com:example:sum;1"}, reg.IDs())

	v, err := reg.Lookup("dtmi:com:example:sum;1").Run(ctx, rows(types.NumberValue(2), types.NumberValue(2)))
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(4), v)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")

	require.NoError(t, os.WriteFile(path, []byte("models:\n  - id: dtmi:x;1\n    kind: forest\n"), 0o600))
	_, err := models.Load(context.Background(), path)
	assert.ErrorContains(t, err, `unknown kind "forest"`)

	require.NoError(t, os.WriteFile(path, []byte("models:\n  - id: dtmi:x;1\n    kind: wasm\n    path: nope.wasm\n"), 0o600))
	_, err = models.Load(context.Background(), path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = models.Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
