package patch

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	jsonyaml "github.com/ghodss/yaml"
	"github.com/imdario/mergo"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/strategicpatch"

	"github.com/kombineproject/kombine/pkg/resource"
)

// CreatePatch produces a multidoc YAML of per-resource patches
// turning the original rendered set into the modified one. Only
// resources present in both sets are considered; empty patches are
// omitted. Each patch carries apiVersion/kind/name(/namespace) so it
// can be matched in a multidoc context.
func (s *Set) CreatePatch(original, modified resource.Set) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for _, id := range original.IDs() {
		originalResource := original[id]
		modifiedResource, ok := modified[id]
		if !ok {
			continue
		}
		patch, err := s.patchBetween(originalResource, modifiedResource)
		if err != nil {
			return nil, fmt.Errorf("cannot obtain patch for resource %s: %s", id, err)
		}
		if patch == nil {
			continue
		}
		if err := resource.AppendManifestToBuffer(patch, buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// patchBetween returns the YAML patch from original to modified, or
// nil when nothing differs.
func (s *Set) patchBetween(original, modified *resource.Manifest) ([]byte, error) {
	groupVersion, err := schema.ParseGroupVersion(original.GroupVersion())
	if err != nil {
		return nil, fmt.Errorf("cannot parse groupVersion %q: %s", original.GroupVersion(), err)
	}
	originalJSON, err := original.JSON()
	if err != nil {
		return nil, fmt.Errorf("cannot transform original resource (%s) to JSON: %s", original.ResourceID(), err)
	}
	modifiedJSON, err := modified.JSON()
	if err != nil {
		return nil, fmt.Errorf("cannot transform modified resource (%s) to JSON: %s", modified.ResourceID(), err)
	}
	obj, err := s.scheme.New(groupVersion.WithKind(original.GetKind()))
	var patchJSON []byte
	switch {
	case runtime.IsNotRegisteredError(err):
		patchJSON, err = jsonpatch.CreateMergePatch(originalJSON, modifiedJSON)
	case err != nil:
		return nil, fmt.Errorf("cannot obtain scheme for %q: %s", groupVersion.WithKind(original.GetKind()), err)
	default:
		patchJSON, err = strategicpatch.CreateTwoWayMergePatch(originalJSON, modifiedJSON, obj)
	}
	if err != nil {
		return nil, err
	}
	var patchObj map[string]interface{}
	if err := json.Unmarshal(patchJSON, &patchObj); err != nil {
		return nil, fmt.Errorf("cannot parse patch (resource %s): %s", original.ResourceID(), err)
	}
	if len(patchObj) == 0 {
		return nil, nil
	}
	if err := addIdentifyingData(original, patchObj); err != nil {
		return nil, fmt.Errorf("cannot add metadata to patch (resource %s): %s", original.ResourceID(), err)
	}
	patch, err := jsonyaml.Marshal(patchObj)
	if err != nil {
		return nil, fmt.Errorf("cannot transform patch (resource %s) to YAML: %s", original.ResourceID(), err)
	}
	return patch, nil
}

func addIdentifyingData(original *resource.Manifest, patchObj map[string]interface{}) error {
	metadata := map[string]interface{}{
		"name": original.GetName(),
	}
	if ns := original.GetNamespace(); ns != "" {
		metadata["namespace"] = ns
	}
	toMerge := map[string]interface{}{
		"apiVersion": original.GroupVersion(),
		"kind":       original.GetKind(),
		"metadata":   metadata,
	}
	return mergo.Merge(&patchObj, toMerge)
}
