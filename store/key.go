package store

import (
	"bytes"

	"github.com/pkg/errors"
)

const (
	separator byte = 0x00
	// namespaceEnd follows separator, so [prefix+separator, prefix+namespaceEnd) is exactly one namespace.
	namespaceEnd byte = 0x01
)

var ErrInvalidPrefix = errors.New("invalid prefix")

// Range is the half-open key interval [Lower, Upper). A nil bound is open.
type Range struct {
	Lower []byte
	Upper []byte
}

func (r Range) Contains(key []byte) bool {
	if r.Lower != nil && bytes.Compare(key, r.Lower) < 0 {
		return false
	}
	return r.Upper == nil || bytes.Compare(key, r.Upper) < 0
}

// ValidatePrefix rejects prefixes that would break namespace isolation.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return errors.WithMessage(ErrInvalidPrefix, "prefix must not be empty")
	}
	if bytes.IndexByte([]byte(prefix), separator) >= 0 {
		return errors.WithMessagef(ErrInvalidPrefix, "prefix %q must not contain a 0x00 byte", prefix)
	}
	return nil
}

// CompositeKey places sub inside the prefix namespace. prefix must pass ValidatePrefix.
func CompositeKey(prefix, sub string) []byte {
	key := make([]byte, 0, len(prefix)+1+len(sub))
	key = append(key, prefix...)
	key = append(key, separator)
	return append(key, sub...)
}

func RawKey(sub string) []byte {
	return []byte(sub)
}

// PrefixRange covers every composite key of prefix and nothing else.
func PrefixRange(prefix string) Range {
	lower := make([]byte, 0, len(prefix)+1)
	lower = append(append(lower, prefix...), separator)
	upper := make([]byte, 0, len(prefix)+1)
	upper = append(append(upper, prefix...), namespaceEnd)
	return Range{Lower: lower, Upper: upper}
}

// SplitKey is the inverse of CompositeKey. ok is false for keys without a separator.
func SplitKey(key []byte) (prefix, sub string, ok bool) {
	i := bytes.IndexByte(key, separator)
	if i < 0 {
		return "", "", false
	}
	return string(key[:i]), string(key[i+1:]), true
}

// Backend key spaces, callers of Store never see them.
var (
	dataSpace    = []byte("d/")
	dataSpaceEnd = []byte("d0")
	seqKey       = []byte("m/seq")
)

func dataKey(key []byte) []byte {
	out := make([]byte, 0, len(dataSpace)+len(key))
	return append(append(out, dataSpace...), key...)
}

func userKey(backendKey []byte) []byte {
	return bytes.Clone(backendKey[len(dataSpace):])
}

// dataRange maps a user range onto the data key space.
func dataRange(r Range) (lower, upper []byte) {
	lower = dataKey(r.Lower)
	if r.Upper != nil {
		upper = dataKey(r.Upper)
	} else {
		upper = bytes.Clone(dataSpaceEnd)
	}
	return lower, upper
}
