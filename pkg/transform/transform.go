// Package transform implements the declarative rewrites an overlay
// can ask for: namespace, name prefix/suffix, common labels and
// annotations, image and replica overrides, and the reference fixing
// that renames make necessary.
package transform

// walk visits every map and slice in a decoded manifest object,
// depth-first, calling visit on each map. The visit function may
// mutate the map in place.
func walk(node interface{}, visit func(map[string]interface{})) {
	switch val := node.(type) {
	case map[string]interface{}:
		visit(val)
		for _, v := range val {
			walk(v, visit)
		}
	case []interface{}:
		for _, v := range val {
			walk(v, visit)
		}
	}
}

// nested returns the map at the given path, or nil if any step is
// absent or not a map.
func nested(obj map[string]interface{}, path ...string) map[string]interface{} {
	current := obj
	for _, key := range path {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// nestedCreate is like nested but creates maps along the path.
func nestedCreate(obj map[string]interface{}, path ...string) map[string]interface{} {
	current := obj
	for _, key := range path {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[key] = next
		}
		current = next
	}
	return current
}
