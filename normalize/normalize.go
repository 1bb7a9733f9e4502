package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cnosuke/mcp-upstream/probe"
	"github.com/tidwall/gjson"
)

// Field fills one output field from the first usable source path.
type Field[T any] struct {
	Sources []string
	accept  func(gjson.Result) bool
	assign  func(*T, gjson.Result)
}

// FieldMap describes how a raw item becomes a T.
type FieldMap[T any] struct {
	// Root optionally selects a wrapped object inside the item (e.g. "aweme_info").
	// The item itself is used when no root path holds an object.
	Root   []string
	Fields []Field[T]
	// Position receives the 1-based position of the item in its list.
	Position func(*T, int)
}

// String maps sources to a string field. Numbers are rendered as text.
func String[T any](dst func(*T) *string, sources ...string) Field[T] {
	return Field[T]{
		Sources: sources,
		accept:  scalar,
		assign: func(t *T, v gjson.Result) {
			*dst(t) = v.String()
		},
	}
}

// Int maps sources to an integer field, coercing numeric strings.
// Values that do not parse become 0.
func Int[T any](dst func(*T) *int64, sources ...string) Field[T] {
	return Field[T]{
		Sources: sources,
		accept:  scalar,
		assign: func(t *T, v gjson.Result) {
			*dst(t) = ToInt(v)
		},
	}
}

// Date maps a unix-seconds source to a YYYY-MM-DD string in UTC.
func Date[T any](dst func(*T) *string, sources ...string) Field[T] {
	return Field[T]{
		Sources: sources,
		accept:  scalar,
		assign: func(t *T, v gjson.Result) {
			if secs := ToInt(v); secs > 0 {
				*dst(t) = time.Unix(secs, 0).UTC().Format("2006-01-02")
			}
		},
	}
}

func scalar(v gjson.Result) bool {
	switch v.Type {
	case gjson.String, gjson.Number:
		return probe.Present(v)
	}
	return false
}

// ToInt coerces a number or numeric string. Integers are parsed from their
// raw text so large values keep full precision. Anything else, including
// values outside the int64 range, is 0.
func ToInt(v gjson.Result) int64 {
	switch v.Type {
	case gjson.Number:
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return n
		}
		return floatToInt(v.Num)
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0
}

func floatToInt(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// Normalize maps item onto a zero T. It never fails: absent or malformed
// sources leave the field at its zero value.
func Normalize[T any](item gjson.Result, fm FieldMap[T], position int) T {
	var out T
	src := item
	if len(fm.Root) > 0 {
		if root, ok := probe.First(item, fm.Root, func(r gjson.Result) bool {
			return r.IsObject() && probe.Present(r)
		}); ok {
			src = root
		}
	}
	for _, f := range fm.Fields {
		if v, ok := probe.First(src, f.Sources, f.accept); ok {
			f.assign(&out, v)
		}
	}
	if fm.Position != nil {
		fm.Position(&out, position)
	}
	return out
}

// All normalizes items in order, dropping records rejected by keep (when set).
// Positions are assigned after filtering so they stay contiguous.
func All[T any](items []gjson.Result, fm FieldMap[T], keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		rec := Normalize(it, FieldMap[T]{Root: fm.Root, Fields: fm.Fields}, 0)
		if keep != nil && !keep(rec) {
			continue
		}
		if fm.Position != nil {
			fm.Position(&rec, len(out)+1)
		}
		out = append(out, rec)
	}
	return out
}
