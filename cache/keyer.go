package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Args is the full argument set of a memoized call.
// Positional order matters; Named order never does.
type Args struct {
	Positional []any
	Named      map[string]any
}

// P builds an argument set from positional arguments.
func P(positional ...any) Args {
	return Args{Positional: positional}
}

// With returns a copy of a with the named argument set.
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	for k, v := range a.Named {
		named[k] = v
	}
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// Keyer derives deterministic cache keys from call arguments.
//
// Contract:
// - Determinism: equal argument sets produce equal keys regardless of the
// order named arguments were supplied in or map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for a call of the named function.
	Key(name string, args Args) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: memo:<name>:<hash>
// where hash is the hex SHA-256 digest (64 characters) of the canonical JSON
// of {"args":[...],"kwargs":{...}}.
func (k *DefaultKeyer) Key(name string, args Args) (string, error) {
	canonical, err := canonicalArgs(args)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize arguments: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:])

	return fmt.Sprintf("memo:%s:%s", name, hashStr), nil
}

func canonicalArgs(args Args) ([]byte, error) {
	positional := args.Positional
	if positional == nil {
		positional = []any{}
	}
	named := args.Named
	if named == nil {
		named = map[string]any{}
	}

	pos, err := canonicalizeSlice(positional)
	if err != nil {
		return nil, err
	}
	kw, err := canonicalizeMap(named)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(pos)+len(kw)+20)
	out = append(out, `{"args":`...)
	out = append(out, pos...)
	out = append(out, `,"kwargs":`...)
	out = append(out, kw...)
	out = append(out, '}')
	return out, nil
}

// canonicalize produces a deterministic JSON representation of v.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// encoding/json already sorts keys of typed maps
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
