package devicecfg

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSectionCollision means two sections tried to set the same raw config key.
var ErrSectionCollision = errors.New("raw config key set by two sections")

// Source is one section's contribution to the raw config.
type Source struct {
	Name string
	JSON map[string]any
}

// Merge folds sources left to right into a single flat map. Sections own
// disjoint keys; a key set twice is an error, not an overwrite.
func Merge(sources ...Source) (map[string]any, error) {
	out := make(map[string]any)
	owner := make(map[string]string)
	for _, s := range sources {
		if len(s.JSON) == 0 {
			continue
		}
		// sorted for a stable error message
		keys := make([]string, 0, len(s.JSON))
		for k := range s.JSON {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if prev, ok := owner[k]; ok {
				return nil, fmt.Errorf("%w: %q from %s already set by %s", ErrSectionCollision, k, s.Name, prev)
			}
			owner[k] = s.Name
			out[k] = s.JSON[k]
		}
	}
	return out, nil
}
