// Package extcrypto provides identifier and hashing functions.
//
// Security note: MD5 and SHA-1 are provided for fingerprinting only and
// should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// All returns all cryptographic function definitions.
func All() []functions.Def {
	return []functions.Def{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// UUID returns the definition for UUID(), a time-ordered v7 UUID string.
// It is never folded to a constant since it is not a builtin.
func UUID() functions.Def {
	return functions.Def{
		Name:      "UUID",
		Signature: "<:s>",
		Fn: func(context.Context, []types.Value) (types.Value, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return types.Undefined, fmt.Errorf("generate uuid: %w", err)
			}
			return types.StringValue(id.String()), nil
		},
	}
}

// Hash returns the definition for HASH(str, algorithm) with a lowercase hex
// digest. Supported algorithms: md5, sha1, sha256, sha384, sha512. Other
// names are Undefined.
func Hash() functions.Def {
	return functions.Def{
		Name:      "HASH",
		Signature: "<s-s:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			newHash, ok := hashes[strings.ToLower(args[1].Str())]
			if !ok {
				return types.Undefined, nil
			}
			h := newHash()
			h.Write([]byte(args[0].Str()))
			return types.StringValue(hex.EncodeToString(h.Sum(nil))), nil
		},
	}
}

// HMAC returns the definition for HMAC(str, key, algorithm).
func HMAC() functions.Def {
	return functions.Def{
		Name:      "HMAC",
		Signature: "<s-s-s:s>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			newHash, ok := hashes[strings.ToLower(args[2].Str())]
			if !ok {
				return types.Undefined, nil
			}
			mac := hmac.New(newHash, []byte(args[1].Str()))
			mac.Write([]byte(args[0].Str()))
			return types.StringValue(hex.EncodeToString(mac.Sum(nil))), nil
		},
	}
}

var hashes = map[string]func() hash.Hash{
	"md5":    md5.New, //nolint:gosec
	"sha1":   sha1.New, //nolint:gosec
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}
