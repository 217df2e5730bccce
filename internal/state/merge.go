// ABOUTME: Recursive structural merge for partial state-tree updates
// ABOUTME: Non-array objects merge key-by-key, everything else replaces wholesale

package state

// deepMerge merges src into dst and returns dst. For each key in src: map
// values recurse into the corresponding dst subtree (created when absent or
// not a map), all other values, including arrays and nil, replace the dst
// value wholesale. The last write at a given leaf path wins.
func deepMerge(dst, src map[string]any) map[string]any {
	for key, val := range src {
		sub, ok := val.(map[string]any)
		if !ok {
			dst[key] = val
			continue
		}
		target, ok := dst[key].(map[string]any)
		if !ok || target == nil {
			target = make(map[string]any, len(sub))
		}
		dst[key] = deepMerge(target, sub)
	}
	return dst
}
