package build

import (
	"github.com/ryanuber/go-glob"

	"github.com/kombineproject/kombine/pkg/resource"
)

// Filter returns the subset of manifests whose IDs match the glob
// pattern, e.g. "dev:*/*" or "*:deployment/*".
func Filter(set resource.Set, pattern string) resource.Set {
	if pattern == "" {
		return set
	}
	out := resource.Set{}
	for id, m := range set {
		if glob.Glob(pattern, id) {
			out[id] = m
		}
	}
	return out
}
