package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// paramSeparator joins serialized parameters. It cannot appear in any
// canonical parameter form, so ("a","bc") and ("ab","c") never collide.
const paramSeparator = "\x1f"

// Key identifies a memoized computation by operation name and its
// canonicalized parameters.
type Key struct {
	Operation string
	Params    string
}

// keyer is implemented by parameter types with their own canonical form.
type keyer interface {
	Key() string
}

// NewKey builds a key from an operation name and parameters.
// Times serialize as epoch milliseconds so equal instants in different
// locations share a key.
func NewKey(operation string, params ...any) Key {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = canonical(p)
	}
	return Key{Operation: operation, Params: strings.Join(parts, paramSeparator)}
}

func canonical(p any) string {
	switch v := p.(type) {
	case nil:
		return "<nil>"
	case time.Time:
		return strconv.FormatInt(v.UnixMilli(), 10)
	case *time.Time:
		if v == nil {
			return "<nil>"
		}
		return strconv.FormatInt(v.UnixMilli(), 10)
	case time.Duration:
		return strconv.FormatInt(int64(v), 10)
	case keyer:
		return v.Key()
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// String renders the key for logs and external stores.
func (k Key) String() string {
	return k.Operation + "(" + strings.ReplaceAll(k.Params, paramSeparator, ",") + ")"
}
