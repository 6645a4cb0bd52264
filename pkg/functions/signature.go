package functions

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
)

// ErrInvalidSignature is returned for a signature string that does not parse.
var ErrInvalidSignature = errors.New("functions: invalid signature")

// ParamKind is the kind accepted by one parameter.
type ParamKind byte

// Parameter kinds, written as single letters in a signature.
const (
	ParamNumber   ParamKind = 'n'
	ParamString   ParamKind = 's'
	ParamBool     ParamKind = 'b'
	ParamDateTime ParamKind = 'd'
	ParamAny      ParamKind = 'x'
)

// Param is one parameter of a signature.
type Param struct {
	Kind     ParamKind
	Optional bool
	// Variadic marks the last parameter as accepting one or more values.
	Variadic bool
}

// Signature is a parsed function signature.
//
// The syntax is "<params:result>" where params are parameter letters
// separated by '-'. A letter followed by '?' is optional, one followed by
// '+' is variadic. "<n-n?:n>" takes a number and an optional number and
// returns a number.
type Signature struct {
	Params []Param
	Result ParamKind
}

// ParseSignature parses a signature string.
func ParseSignature(s string) (*Signature, error) {
	if len(s) < 3 || s[0] != '<' || s[len(s)-1] != '>' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, s)
	}
	params, result, ok := strings.Cut(s[1:len(s)-1], ":")
	if !ok || len(result) != 1 || !validKind(result[0]) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, s)
	}

	sig := &Signature{Result: ParamKind(result[0])}
	if params == "" {
		return sig, nil
	}
	seenOptional := false
	tokens := strings.Split(params, "-")
	for i, tok := range tokens {
		if tok == "" || !validKind(tok[0]) || len(tok) > 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, s)
		}
		p := Param{Kind: ParamKind(tok[0])}
		if len(tok) == 2 {
			switch tok[1] {
			case '?':
				p.Optional = true
			case '+':
				if i != len(tokens)-1 {
					return nil, fmt.Errorf("%w: variadic parameter must be last in %q", ErrInvalidSignature, s)
				}
				p.Variadic = true
			default:
				return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, s)
			}
		}
		if seenOptional && !p.Optional {
			return nil, fmt.Errorf("%w: required parameter after optional in %q", ErrInvalidSignature, s)
		}
		seenOptional = seenOptional || p.Optional
		sig.Params = append(sig.Params, p)
	}
	return sig, nil
}

func validKind(c byte) bool {
	switch ParamKind(c) {
	case ParamNumber, ParamString, ParamBool, ParamDateTime, ParamAny:
		return true
	}
	return false
}

// Arity returns the minimum and maximum number of arguments. hi is -1 for
// a variadic signature.
func (s *Signature) Arity() (lo, hi int) {
	for _, p := range s.Params {
		if p.Variadic {
			return lo + 1, -1
		}
		if !p.Optional {
			lo++
		}
	}
	return lo, len(s.Params)
}

// Coerce checks args against the signature and converts them to the
// declared kinds. Booleans are accepted as numbers and numbers as Unix
// seconds for datetimes.
func (s *Signature) Coerce(args []types.Value) ([]types.Value, bool) {
	lo, hi := s.Arity()
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return nil, false
	}
	out := make([]types.Value, len(args))
	for i, a := range args {
		p := s.Params[min(i, len(s.Params)-1)]
		v, ok := coerce(p.Kind, a)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func coerce(kind ParamKind, v types.Value) (types.Value, bool) {
	switch kind {
	case ParamNumber:
		if v.IsNumberOrBool() {
			f, _ := v.ToFloat()
			return types.NumberValue(f), true
		}
	case ParamString:
		if v.IsString() {
			return v, true
		}
	case ParamBool:
		if v.IsBool() {
			return v, true
		}
	case ParamDateTime:
		switch {
		case v.IsDateTime():
			return v, true
		case v.IsNumber():
			return types.DateTimeValue(time.Unix(int64(v.Float()), 0).UTC()), true
		}
	case ParamAny:
		return v, !v.IsUndefined()
	}
	return types.Undefined, false
}
