package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goexpr/pkg/document"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/models"
	"github.com/sandrolain/goexpr/pkg/timeseries"
	"github.com/sandrolain/goexpr/pkg/timeseries/sqlstore"
	"github.com/sandrolain/goexpr/pkg/types"
)

// loadTree reads, validates and decodes the document at path.
func loadTree(path string) (*document.Document, types.Node, error) {
	doc, err := document.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, WrapExitError(ExitCommandError, "document not found", err)
		}
		return nil, nil, WrapExitError(ExitCommandError, "invalid document "+path, err)
	}
	tree, err := doc.Tree()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid document "+path, err)
	}
	return doc, tree, nil
}

// saveTree writes tree as a document next to the source name.
func saveTree(path, name string, tree types.Node) error {
	doc, err := document.New(name, tree)
	if err != nil {
		return WrapExitError(ExitFailure, "encode result", err)
	}
	if err := document.Write(path, doc); err != nil {
		return WrapExitError(ExitCommandError, "write "+path, err)
	}
	return nil
}

// loadEnv builds the variable source from a YAML mapping file and
// name=value assignments. Values are parsed as YAML scalars, so 4 is a
// number and true a boolean; assignments override the file.
func loadEnv(path string, sets []string) (map[string]any, error) {
	env := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read environment", err)
		}
		if err := yaml.Unmarshal(data, &env); err != nil {
			return nil, WrapExitError(ExitCommandError, "parse environment "+path, err)
		}
		if env == nil {
			env = map[string]any{}
		}
	}
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid assignment %q: want name=value", s))
		}
		v, err := parseScalar(raw)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "parse "+name, err)
		}
		env[strings.TrimSpace(name)] = v
	}
	return env, nil
}

func parseScalar(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// resources are the capabilities an evaluation is wired with.
type resources struct {
	store  *sqlstore.Store
	series *timeseries.Set
	models *models.Registry
}

// openResources opens the series database and model registry when paths are
// given.
func openResources(ctx context.Context, seriesDB, modelsFile string) (*resources, error) {
	r := &resources{}
	if seriesDB != "" {
		st, err := sqlstore.Open(seriesDB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open series database", err)
		}
		set, err := st.LoadAll(ctx)
		if err != nil {
			_ = st.Close()
			return nil, WrapExitError(ExitCommandError, "load series", err)
		}
		r.store, r.series = st, set
	}
	if modelsFile != "" {
		reg, err := models.Load(ctx, modelsFile)
		if err != nil {
			_ = r.Close(ctx)
			return nil, WrapExitError(ExitCommandError, "load models", err)
		}
		r.models = reg
	}
	return r, nil
}

func (r *resources) evalOptions() []evaluator.EvalOption {
	var opts []evaluator.EvalOption
	if r.series != nil {
		opts = append(opts, evaluator.WithTemporal(r.series.Lookup))
	}
	if r.models != nil {
		opts = append(opts, evaluator.WithModels(r.models.Lookup))
	}
	return opts
}

func (r *resources) Close(ctx context.Context) error {
	var errs []error
	if r.models != nil {
		errs = append(errs, r.models.Close(ctx))
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}
