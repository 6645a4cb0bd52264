package document

import (
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/sandrolain/goexpr/pkg/types"
)

//go:embed schema.cue
var schemaCUE string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error

	// cue.Context is not safe for concurrent use.
	validateMu sync.Mutex
)

func schema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = err
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Document"))
		schemaErr = schemaDef.Err()
	})
	return schemaCtx, schemaDef, schemaErr
}

// Validate checks doc against the document schema. Every violation is
// listed in the returned error.
func Validate(doc *Document) error {
	ctx, def, err := schema()
	if err != nil {
		return types.NewError(types.ErrInvalidDocument, "load document schema").WithCause(err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return invalid("encode document").WithCause(err)
	}

	validateMu.Lock()
	defer validateMu.Unlock()

	v := ctx.CompileBytes(data, cue.Filename("document.json"))
	if err := v.Err(); err != nil {
		return invalid("document is not valid JSON").WithCause(err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return invalid("%s", strings.Join(msgs, "; ")).WithCause(err)
	}
	return nil
}
