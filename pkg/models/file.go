package models

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is a model registry document:
//
//	models:
//	  - id: dtmi:com:example:chiller;1
//	    kind: linear
//	    weights: [0.5, 2]
//	    bias: 1
//	  - id: dtmi:com:example:pump;1
//	    kind: wasm
//	    path: pump.wasm
type File struct {
	Models []Definition `yaml:"models"`
}

// Definition describes one model.
type Definition struct {
	ID      string    `yaml:"id"`
	Kind    string    `yaml:"kind"`
	Weights []float64 `yaml:"weights,omitempty"`
	Bias    float64   `yaml:"bias,omitempty"`
	// Path of a wasm binary, relative to the registry file.
	Path   string `yaml:"path,omitempty"`
	Export string `yaml:"export,omitempty"`
}

// Load reads a registry file and builds every model in it.
func Load(ctx context.Context, path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse models %s: %w", path, err)
	}
	return f.Build(ctx, filepath.Dir(path))
}

// Build creates the registry. Relative wasm paths are resolved against dir.
// On error every runner built so far is closed.
func (f File) Build(ctx context.Context, dir string) (*Registry, error) {
	reg := NewRegistry()
	for _, def := range f.Models {
		if err := reg.add(ctx, def, dir); err != nil {
			reg.Close(ctx)
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) add(ctx context.Context, def Definition, dir string) error {
	switch def.Kind {
	case "linear":
		return r.Register(def.ID, Linear{Weights: def.Weights, Bias: def.Bias})
	case "wasm":
		path := def.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		binary, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("model %s: %w", def.ID, err)
		}
		runner, err := NewWasmRunner(ctx, binary, def.Export)
		if err != nil {
			return fmt.Errorf("model %s: %w", def.ID, err)
		}
		if err := r.Register(def.ID, runner); err != nil {
			runner.Close(ctx)
			return err
		}
		return nil
	}
	return fmt.Errorf("model %s: unknown kind %q", def.ID, def.Kind)
}
