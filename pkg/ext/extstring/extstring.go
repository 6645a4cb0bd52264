// Package extstring provides string functions beyond the builtin string
// table. Register them into a functions.Registry, or use ext.With.
package extstring

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// All returns all extended string function definitions.
func All() []functions.Def {
	return []functions.Def{
		Length(),
		IndexOf(),
		LastIndexOf(),
		Substring(),
		Replace(),
		Capitalize(),
		TitleCase(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		PadLeft(),
		WordCount(),
	}
}

// Length returns the definition for LENGTH(str), counted in runes.
func Length() functions.Def {
	return functions.Def{
		Name:      "LENGTH",
		Signature: "<s:n>",
		Doc:       "number of characters in a string",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(float64(utf8.RuneCountInString(args[0].Str()))), nil
		},
	}
}

// IndexOf returns the definition for INDEXOF(str, search [, start]).
// Positions are rune offsets; -1 when not found.
func IndexOf() functions.Def {
	return functions.Def{
		Name:      "INDEXOF",
		Signature: "<s-s-n?:n>",
		Doc:       "position of the first occurrence of a substring, or -1",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			runes := []rune(args[0].Str())
			start := 0
			if len(args) > 2 {
				start = max(int(args[2].Float()), 0)
			}
			if start >= len(runes) {
				return types.NumberValue(-1), nil
			}
			idx := strings.Index(string(runes[start:]), args[1].Str())
			if idx < 0 {
				return types.NumberValue(-1), nil
			}
			return types.NumberValue(float64(start + utf8.RuneCountInString(string(runes[start:])[:idx]))), nil
		},
	}
}

// LastIndexOf returns the definition for LASTINDEXOF(str, search).
func LastIndexOf() functions.Def {
	return functions.Def{
		Name:      "LASTINDEXOF",
		Signature: "<s-s:n>",
		Doc:       "position of the last occurrence of a substring, or -1",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			s := args[0].Str()
			idx := strings.LastIndex(s, args[1].Str())
			if idx < 0 {
				return types.NumberValue(-1), nil
			}
			return types.NumberValue(float64(utf8.RuneCountInString(s[:idx]))), nil
		},
	}
}

// Substring returns the definition for SUBSTRING(str, start [, length]).
// Out of range positions are clamped.
func Substring() functions.Def {
	return functions.Def{
		Name:      "SUBSTRING",
		Signature: "<s-n-n?:s>",
		Doc:       "part of a string by rune position",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			runes := []rune(args[0].Str())
			start := min(max(int(args[1].Float()), 0), len(runes))
			end := len(runes)
			if len(args) > 2 {
				end = min(start+max(int(args[2].Float()), 0), len(runes))
			}
			return types.StringValue(string(runes[start:end])), nil
		},
	}
}

// Replace returns the definition for REPLACE(str, old, new).
func Replace() functions.Def {
	return functions.Def{
		Name:      "REPLACE",
		Signature: "<s-s-s:s>",
		Doc:       "replace every occurrence of a substring",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			if args[1].Str() == "" {
				return args[0], nil
			}
			return types.StringValue(strings.ReplaceAll(args[0].Str(), args[1].Str(), args[2].Str())), nil
		},
	}
}

// Capitalize returns the definition for CAPITALIZE(str): the first
// character upper-cased, the rest lower-cased.
func Capitalize() functions.Def {
	return functions.Def{
		Name:      "CAPITALIZE",
		Signature: "<s:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			runes := []rune(args[0].Str())
			for i := range runes {
				if i == 0 {
					runes[i] = unicode.ToUpper(runes[i])
				} else {
					runes[i] = unicode.ToLower(runes[i])
				}
			}
			return types.StringValue(string(runes)), nil
		},
	}
}

// TitleCase returns the definition for TITLECASE(str).
func TitleCase() functions.Def {
	return functions.Def{
		Name:      "TITLECASE",
		Signature: "<s:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			// A Caser is stateful; build one per call.
			return types.StringValue(cases.Title(language.Und).String(args[0].Str())), nil
		},
	}
}

var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

// splitIntoWords splits camelCase, snake_case, kebab-case and spaced text.
func splitIntoWords(s string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) == 2 && m[0] >= 'a' && m[0] <= 'z' {
			return string(m[0]) + " " + string(m[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns the definition for CAMELCASE(str).
func CamelCase() functions.Def {
	return functions.Def{
		Name:      "CAMELCASE",
		Signature: "<s:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			words := splitIntoWords(args[0].Str())
			lower := cases.Lower(language.Und)
			title := cases.Title(language.Und)
			var b strings.Builder
			for i, w := range words {
				if i == 0 {
					b.WriteString(lower.String(w))
					continue
				}
				b.WriteString(title.String(w))
			}
			return types.StringValue(b.String()), nil
		},
	}
}

// SnakeCase returns the definition for SNAKECASE(str).
func SnakeCase() functions.Def {
	return joinedCase("SNAKECASE", "_")
}

// KebabCase returns the definition for KEBABCASE(str).
func KebabCase() functions.Def {
	return joinedCase("KEBABCASE", "-")
}

func joinedCase(name, sep string) functions.Def {
	return functions.Def{
		Name:      name,
		Signature: "<s:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			words := splitIntoWords(args[0].Str())
			lower := cases.Lower(language.Und)
			for i, w := range words {
				words[i] = lower.String(w)
			}
			return types.StringValue(strings.Join(words, sep)), nil
		},
	}
}

// Repeat returns the definition for REPEAT(str, n). A negative count is
// Undefined.
func Repeat() functions.Def {
	return functions.Def{
		Name:      "REPEAT",
		Signature: "<s-n:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			n := int(args[1].Float())
			if n < 0 {
				return types.Undefined, nil
			}
			return types.StringValue(strings.Repeat(args[0].Str(), n)), nil
		},
	}
}

// PadLeft returns the definition for PADLEFT(str, width [, pad]). The pad
// defaults to a space.
func PadLeft() functions.Def {
	return functions.Def{
		Name:      "PADLEFT",
		Signature: "<s-n-s?:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			s := args[0].Str()
			pad := " "
			if len(args) > 2 && args[2].Str() != "" {
				pad = args[2].Str()
			}
			missing := int(args[1].Float()) - utf8.RuneCountInString(s)
			if missing <= 0 {
				return args[0], nil
			}
			fill := []rune(strings.Repeat(pad, missing))[:missing]
			return types.StringValue(string(fill) + s), nil
		},
	}
}

// WordCount returns the definition for WORDCOUNT(str).
func WordCount() functions.Def {
	return functions.Def{
		Name:      "WORDCOUNT",
		Signature: "<s:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(float64(len(strings.Fields(args[0].Str())))), nil
		},
	}
}
