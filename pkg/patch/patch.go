// Package patch resolves overlay patches against base manifests:
// strategic-merge patches for kinds the Kubernetes scheme knows
// about, JSON merge patches for everything else, and RFC 6902
// operation lists.
package patch

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	jsonyaml "github.com/ghodss/yaml"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/strategicpatch"
	k8sscheme "k8s.io/client-go/kubernetes/scheme"

	"github.com/kombineproject/kombine/pkg/resource"
)

func fullScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	utilruntime.Must(k8sscheme.AddToScheme(scheme))
	// Custom resources are intentionally not in the scheme; the
	// strategic merge patcher has no field metadata for them, so they
	// get a plain JSON merge patch instead.
	return scheme
}

// Set applies patches to manifests in a shared scheme.
type Set struct {
	scheme *runtime.Scheme
}

func NewSet() *Set {
	return &Set{scheme: fullScheme()}
}

// ApplyStrategicMerge applies a partial manifest to the original, in
// place. For kinds registered in the scheme this is a strategic merge
// patch (lists with patchMergeKeys, e.g. containers, merge by key);
// otherwise it falls back to an RFC 7386 JSON merge patch.
func (s *Set) ApplyStrategicMerge(original, patch *resource.Manifest) error {
	groupVersion, err := schema.ParseGroupVersion(original.GroupVersion())
	if err != nil {
		return fmt.Errorf("cannot parse groupVersion %q: %s", original.GroupVersion(), err)
	}
	originalJSON, err := original.JSON()
	if err != nil {
		return fmt.Errorf("cannot transform original resource (%s) to JSON: %s", original.ResourceID(), err)
	}
	patchJSON, err := patch.JSON()
	if err != nil {
		return fmt.Errorf("cannot transform patch resource (%s) to JSON: %s", patch.ResourceID(), err)
	}
	obj, err := s.scheme.New(groupVersion.WithKind(original.GetKind()))
	var patchedJSON []byte
	switch {
	case runtime.IsNotRegisteredError(err):
		// try a normal JSON merging
		patchedJSON, err = jsonpatch.MergePatch(originalJSON, patchJSON)
	case err != nil:
		return fmt.Errorf("cannot obtain scheme for %q: %s", groupVersion.WithKind(original.GetKind()), err)
	default:
		patchedJSON, err = strategicpatch.StrategicMergePatch(originalJSON, patchJSON, obj)
	}
	if err != nil {
		return fmt.Errorf("cannot patch resource %s: %s", original.ResourceID(), err)
	}
	return replaceFromJSON(original, patchedJSON)
}

// ApplyJSON6902 applies an RFC 6902 operation list, given as YAML or
// JSON, to the original in place.
func (s *Set) ApplyJSON6902(original *resource.Manifest, operations []byte) error {
	opsJSON, err := jsonyaml.YAMLToJSON(operations)
	if err != nil {
		return fmt.Errorf("cannot transform patch operations for %s to JSON: %s", original.ResourceID(), err)
	}
	decoded, err := jsonpatch.DecodePatch(opsJSON)
	if err != nil {
		return fmt.Errorf("cannot decode patch operations for %s: %s", original.ResourceID(), err)
	}
	originalJSON, err := original.JSON()
	if err != nil {
		return fmt.Errorf("cannot transform original resource (%s) to JSON: %s", original.ResourceID(), err)
	}
	patchedJSON, err := decoded.Apply(originalJSON)
	if err != nil {
		return fmt.Errorf("cannot patch resource %s: %s", original.ResourceID(), err)
	}
	return replaceFromJSON(original, patchedJSON)
}

func replaceFromJSON(original *resource.Manifest, patchedJSON []byte) error {
	var patched map[string]interface{}
	if err := json.Unmarshal(patchedJSON, &patched); err != nil {
		return fmt.Errorf("cannot parse patched resource %s: %s", original.ResourceID(), err)
	}
	return original.ReplaceObject(patched)
}
