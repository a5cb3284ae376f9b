package listing

import (
	"strconv"
	"strings"
)

// Resolve walks a dot-separated path through a decoded JSON structure
// of nested maps and slices. It is a total function: any missing key,
// bad index or type mismatch yields (nil, false), never an error.
func Resolve(record any, path string) (any, bool) {
	current := record
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}
