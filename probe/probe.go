// Package probe locates data inside upstream JSON documents whose shape is
// not known in advance. Callers supply candidate locations in priority order;
// the first one holding usable data wins.
package probe

import (
	"github.com/tidwall/gjson"
)

// Path is a candidate location of an item list, expressed in gjson syntax.
type Path struct {
	Expr string
	// Single treats a non-empty object found at Expr as a one-item list.
	Single bool
}

// Paths builds array paths from gjson expressions.
func Paths(exprs ...string) []Path {
	out := make([]Path, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, Path{Expr: e})
	}
	return out
}

// List returns the items at the first path resolving to a non-empty list,
// or nil if none does. When an array path resolves to an object, the object's
// values are scanned in document order for the first non-empty array.
func List(doc gjson.Result, paths []Path) []gjson.Result {
	for _, p := range paths {
		v := doc.Get(p.Expr)
		if !v.Exists() {
			continue
		}
		if p.Single {
			if v.IsObject() && Present(v) {
				return []gjson.Result{v}
			}
			continue
		}
		if items := items(v); len(items) > 0 {
			return items
		}
		if v.IsObject() {
			var found []gjson.Result
			v.ForEach(func(_, value gjson.Result) bool {
				found = items(value)
				return len(found) == 0
			})
			if len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

func items(v gjson.Result) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	var out []gjson.Result
	for _, it := range v.Array() {
		if it.Type == gjson.Null || !it.Exists() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Scalar returns the first value among names that is Present.
func Scalar(item gjson.Result, names ...string) (gjson.Result, bool) {
	return First(item, names, Present)
}

// First returns the first value among names accepted by ok.
func First(item gjson.Result, names []string, ok func(gjson.Result) bool) (gjson.Result, bool) {
	for _, n := range names {
		v := item.Get(n)
		if ok(v) {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// Present reports whether v carries a value: it exists and is not null,
// false, an empty string, numeric zero, or an empty object or array.
func Present(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		n := 0
		v.ForEach(func(_, _ gjson.Result) bool {
			n++
			return false
		})
		return n > 0
	}
	return false
}
