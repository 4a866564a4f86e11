// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ctb

import (
	"fmt"
	"strconv"
	"strings"
)

// rowValues wraps one scanned row. The first conversion failure is kept in
// err and later conversions become no-ops returning zero values.
type rowValues struct {
	vals []any
	err  error
}

func (r *rowValues) integer(i int) int64 {
	if r.err != nil {
		return 0
	}
	switch v := r.vals[i].(type) {
	case nil:
		return 0
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case []byte:
		return r.parseInt(i, string(v))
	case string:
		return r.parseInt(i, v)
	default:
		r.err = fmt.Errorf("column %d: %w %T", i, errColumnType, v)
		return 0
	}
}

func (r *rowValues) parseInt(i int, s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		r.err = fmt.Errorf("column %d: %w: %q is not an integer", i, errColumnType, s)
		return 0
	}
	return n
}

func (r *rowValues) text(i int) string {
	if r.err != nil {
		return ""
	}
	switch v := r.vals[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64, float64, bool:
		return fmt.Sprint(v)
	default:
		r.err = fmt.Errorf("column %d: %w %T", i, errColumnType, v)
		return ""
	}
}

func (r *rowValues) blob(i int) []byte {
	if r.err != nil {
		return nil
	}
	switch v := r.vals[i].(type) {
	case nil:
		return nil
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out
	case string:
		return []byte(v)
	default:
		r.err = fmt.Errorf("column %d: %w %T", i, errColumnType, v)
		return nil
	}
}
