package xltpl

import (
	"regexp"
	"strconv"
)

// indexedSegRe matches an indexed path segment like "rows[3]".
var indexedSegRe = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)

// Resolve navigates a dotted/indexed path through JSON-decoded data and
// returns the value found, or nil. Total: any malformed path, missing key,
// out-of-range index, or shape mismatch yields nil, never a panic.
//
// Grammar: a path is dot-separated segments; a segment is an identifier
// ("owner") or an indexed identifier ("units[0]"). A path that is itself a
// literal top-level key of the data resolves directly, so keys that
// legitimately contain dots (e.g. "unitMix.units") keep working.
func Resolve(data any, path string) any {
	if data == nil || path == "" {
		return nil
	}

	if m, ok := data.(map[string]any); ok {
		if v, exists := m[path]; exists {
			return v
		}
	}

	current := data
	for _, seg := range splitPath(path) {
		if current == nil {
			return nil
		}

		if m := indexedSegRe.FindStringSubmatch(seg); m != nil {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			v, ok := obj[m[1]]
			if !ok {
				return nil
			}
			seq, ok := v.([]any)
			if !ok {
				return nil
			}
			idx, _ := strconv.Atoi(m[2])
			if idx >= len(seq) {
				return nil
			}
			current = seq[idx]
			continue
		}

		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[seg]
	}

	return current
}

// splitPath splits on dots that are not inside brackets.
func splitPath(path string) []string {
	var segs []string
	depth, start := 0, 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 {
				segs = append(segs, path[start:i])
				start = i + 1
			}
		}
	}
	return append(segs, path[start:])
}
