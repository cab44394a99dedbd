package transform

import (
	"github.com/kombineproject/kombine/pkg/resource"
)

// Renames records the names resources have been given, so that
// references to them can be fixed afterwards. Renames are kept per
// kind and namespace, since name references only resolve within the
// referencing resource's own namespace.
type Renames map[renameKey]string

type renameKey struct {
	kind      string
	namespace string
	oldName   string
}

// Record notes that the resource of the given kind and namespace
// changed name.
func (r Renames) Record(kind, namespace, oldName, newName string) {
	r[renameKey{kind, namespace, oldName}] = newName
}

// Lookup returns the new name for a reference made from the given
// namespace, or the old name when no rename applies.
func (r Renames) Lookup(kind, namespace, oldName string) string {
	if newName, ok := r[renameKey{kind, namespace, oldName}]; ok {
		return newName
	}
	return oldName
}

// Kinds whose instance names are conventionally fixed, so prefixes
// and suffixes would break them rather than scope them.
var nameTransformSkippedKinds = map[string]struct{}{
	"CustomResourceDefinition": {},
	"APIService":               {},
	"Namespace":                {},
}

// AddNamePrefixSuffix renames every manifest by attaching the prefix
// and suffix, returning the renames performed.
func AddNamePrefixSuffix(manifests []*resource.Manifest, prefix, suffix string) Renames {
	renames := Renames{}
	if prefix == "" && suffix == "" {
		return renames
	}
	for _, m := range manifests {
		if _, skip := nameTransformSkippedKinds[m.GetKind()]; skip {
			continue
		}
		oldName := m.GetName()
		newName := prefix + oldName + suffix
		m.SetName(newName)
		renames.Record(m.GetKind(), m.GetNamespace(), oldName, newName)
	}
	return renames
}
