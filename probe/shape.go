package probe

import "github.com/tidwall/gjson"

// Shape lists the keys of an object in document order together with the
// length of every array-valued key. Non-objects have no shape.
func Shape(obj gjson.Result) ([]string, map[string]int) {
	if !obj.IsObject() {
		return nil, nil
	}
	keys := []string{}
	lists := map[string]int{}
	obj.ForEach(func(k, v gjson.Result) bool {
		keys = append(keys, k.String())
		if v.IsArray() {
			lists[k.String()] = len(v.Array())
		}
		return true
	})
	return keys, lists
}

// Sample returns the raw JSON of v cut to the message length limit.
func Sample(v gjson.Result) string {
	if !v.Exists() {
		return ""
	}
	return truncate(v.Raw)
}
