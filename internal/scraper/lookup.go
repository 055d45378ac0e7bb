package scraper

import "strings"

// dig resolves a slash-delimited key path inside decoded JSON, e.g.
// "readableProduct/pageStructure/pages". A missing key anywhere along the
// path means the account cannot see the chapter content, which the site
// expresses by omitting the structure entirely. A path that resolves to an
// empty value yields def instead.
func dig(root any, path string, def any) (any, error) {
	cur := root
	for _, key := range strings.Split(path, "/") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, unavailableErr()
		}
		v, ok := m[key]
		if !ok {
			return nil, unavailableErr()
		}
		cur = v
	}

	if isEmpty(cur) {
		return def, nil
	}
	return cur, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
