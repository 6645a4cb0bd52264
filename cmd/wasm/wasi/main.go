//go:build wasip1

// Command goexpr-wasi evaluates one tree document per run under a WASI
// runtime such as wasmtime or wazero.
//
// A request is read from stdin and a reply is written to stdout, both JSON:
//
//	request: {"document": {...}, "env": {"x": 2}}
//	reply:   {"value": 3, "text": "3", "success": true, "run_id": "..."}
//	         {"success": false, "error": "..."} with exit status 1
//
// An evaluation that completes without enough history replies with success
// false and the reason in "warning".
//
//	GOOS=wasip1 GOARCH=wasm go build -o goexpr.wasm ./cmd/wasm/wasi/
//	echo '{"document":{"root":{"kind":"add","args":[{"kind":"variable","name":"x"},{"kind":"number","num":1}]}},"env":{"x":2}}' | wasmtime goexpr.wasm
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/document"
)

type request struct {
	Document *document.Document `json:"document"`
	Env      map[string]any     `json:"env"`
}

type response struct {
	Value   any    `json:"value,omitempty"`
	Text    string `json:"text,omitempty"`
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
	RunID   string `json:"run_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func reply(r response) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	if r.Error != "" {
		os.Exit(1)
	}
	os.Exit(0)
}

func fail(err error) { reply(response{Error: err.Error()}) }

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		fail(fmt.Errorf("decode request: %w", err))
	}
	if req.Document == nil {
		fail(errors.New("request has no document"))
	}
	if err := document.Validate(req.Document); err != nil {
		fail(err)
	}
	tree, err := req.Document.Tree()
	if err != nil {
		fail(err)
	}

	res, err := goexpr.Evaluate(context.Background(), tree, req.Env)
	if err != nil {
		fail(err)
	}

	out := response{
		Text:    res.Value.String(),
		Success: res.Success,
		Warning: res.Error,
		RunID:   res.RunID.String(),
	}
	if v := res.Value.Interface(); v != nil {
		if f, ok := v.(float64); !ok || !(math.IsNaN(f) || math.IsInf(f, 0)) {
			out.Value = v
		}
	}
	reply(out)
}
