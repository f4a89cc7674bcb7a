package record

import (
	"bytes"
	"strings"
)

// Compare orders two values the way SQLite orders index keys under the
// BINARY collation: NULL sorts before everything, numeric values (ints
// and floats compared numerically) before text, text before blob.
// Returns -1, 0, or 1.
func Compare(a, b Value) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankNull:
		return 0

	case rankNumeric:
		return compareNumeric(a, b)

	case rankText:
		return strings.Compare(a.Text, b.Text)

	default: // rankBlob
		return bytes.Compare(a.Blob, b.Blob)
	}
}

// Equal reports whether two values compare equal under predicate
// semantics: byte-for-byte for text, numeric equality across integer
// and float, and never equal when either side is NULL.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	return Compare(a, b) == 0
}

// Type ranks for cross-type ordering
const (
	rankNull = iota
	rankNumeric
	rankText
	rankBlob
)

func typeRank(v Value) int {
	switch v.Type {
	case TypeNull:
		return rankNull
	case TypeInteger, TypeFloat:
		return rankNumeric
	case TypeText:
		return rankText
	default:
		return rankBlob
	}
}

func compareNumeric(a, b Value) int {
	if a.Type == TypeInteger && b.Type == TypeInteger {
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		}
		return 0
	}

	af, bf := a.asFloat(), b.asFloat()
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func (v Value) asFloat() float64 {
	if v.Type == TypeInteger {
		return float64(v.Int)
	}
	return v.Float
}
