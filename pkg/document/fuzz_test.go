package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/sandrolain/goexpr/pkg/document"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/render"
)

var fixtureEnv = map[string]any{
	"temperature": 23.5,
	"mode":        "auto",
	"xs":          []any{1.0, 2.0, 3.0},
}

func FuzzReadDocument(f *testing.F) {
	seeds := []string{
		"root: {kind: number, num: 1}\n",
		"root: {kind: add, args: [{kind: variable, name: temperature}, {kind: number, num: 2, unit: kWh}]}\n",
		"root: {kind: if, args: [{kind: gt, args: [{kind: variable, name: temperature}, {kind: number, num: 20}]}, {kind: string, str: hot}, {kind: string, str: cold}]}\n",
		"root: {kind: sum, args: [{kind: variable, name: xs}]}\n",
		`{"root": {"kind": "not", "args": [{"kind": "bool", "flag": true}]}}`,
		"root: {kind: color, str: '#ff0000'}\n",
		"root: {kind: sqrt}\n",
		"",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		doc, err := document.Unmarshal(data, document.YAML)
		if err != nil {
			return
		}
		if err := document.Validate(doc); err != nil {
			return
		}
		tree, err := doc.Tree()
		if err != nil {
			return
		}
		_ = render.Serialize(tree)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, _ = evaluator.New().Eval(ctx, tree, fixtureEnv)
	})
}
