package resource

import (
	"encoding/json"
	"strings"

	jsonyaml "github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// Kinds that never take a namespace. Anything not listed is assumed
// to be namespaced, which errs on the side of applying namespace
// transformations.
var clusterScopedKinds = map[string]struct{}{
	"APIService":                     {},
	"CertificateSigningRequest":      {},
	"ClusterRole":                    {},
	"ClusterRoleBinding":             {},
	"CustomResourceDefinition":       {},
	"MutatingWebhookConfiguration":   {},
	"Namespace":                      {},
	"Node":                           {},
	"PersistentVolume":               {},
	"PodSecurityPolicy":              {},
	"PriorityClass":                  {},
	"StorageClass":                   {},
	"ValidatingWebhookConfiguration": {},
}

// ClusterScoped reports whether the kind is a cluster-level kind,
// i.e., one that should not be given a namespace.
func ClusterScoped(kind string) bool {
	_, ok := clusterScopedKinds[kind]
	return ok
}

// Manifest is a single Kubernetes resource definition, held as the
// decoded object so that transformations can rewrite arbitrary
// fields, along with a record of where it came from.
type Manifest struct {
	source string
	object map[string]interface{}
}

// NewManifest wraps a decoded object. The map is expected to have
// been decoded via a JSON-compatible route, i.e., all nested maps
// keyed by strings.
func NewManifest(object map[string]interface{}, source string) *Manifest {
	return &Manifest{source: source, object: object}
}

// UnmarshalManifest parses a single YAML document.
func UnmarshalManifest(doc []byte, source string) (*Manifest, error) {
	var object map[string]interface{}
	if err := jsonyaml.Unmarshal(doc, &object); err != nil {
		return nil, errors.Wrapf(err, "parsing YAML doc from %q", source)
	}
	if object == nil {
		return nil, nil
	}
	return &Manifest{source: source, object: object}, nil
}

// Source returns the file (relative to the loading root) the
// manifest was found in, or a descriptive placeholder for generated
// manifests.
func (m *Manifest) Source() string {
	return m.source
}

// Object returns the underlying object for mutation in place.
func (m *Manifest) Object() map[string]interface{} {
	return m.object
}

func (m *Manifest) GroupVersion() string {
	s, _ := m.object["apiVersion"].(string)
	return s
}

func (m *Manifest) GetKind() string {
	s, _ := m.object["kind"].(string)
	return s
}

func (m *Manifest) metadata(create bool) map[string]interface{} {
	meta, ok := m.object["metadata"].(map[string]interface{})
	if !ok {
		if !create {
			return nil
		}
		meta = map[string]interface{}{}
		m.object["metadata"] = meta
	}
	return meta
}

func (m *Manifest) GetName() string {
	if meta := m.metadata(false); meta != nil {
		s, _ := meta["name"].(string)
		return s
	}
	return ""
}

func (m *Manifest) SetName(name string) {
	m.metadata(true)["name"] = name
}

func (m *Manifest) GetNamespace() string {
	if meta := m.metadata(false); meta != nil {
		s, _ := meta["namespace"].(string)
		return s
	}
	return ""
}

func (m *Manifest) SetNamespace(ns string) {
	m.metadata(true)["namespace"] = ns
}

// GetLabels returns the metadata labels, or nil if there are none.
func (m *Manifest) GetLabels() map[string]interface{} {
	if meta := m.metadata(false); meta != nil {
		l, _ := meta["labels"].(map[string]interface{})
		return l
	}
	return nil
}

// SetLabel sets one metadata label, creating the map if needed.
func (m *Manifest) SetLabel(key, value string) {
	meta := m.metadata(true)
	labels, ok := meta["labels"].(map[string]interface{})
	if !ok {
		labels = map[string]interface{}{}
		meta["labels"] = labels
	}
	labels[key] = value
}

// SetAnnotation sets one metadata annotation, creating the map if
// needed.
func (m *Manifest) SetAnnotation(key, value string) {
	meta := m.metadata(true)
	annotations, ok := meta["annotations"].(map[string]interface{})
	if !ok {
		annotations = map[string]interface{}{}
		meta["annotations"] = annotations
	}
	annotations[key] = value
}

// ResourceID returns the identifier for the manifest, using the
// cluster scope marker when no namespace applies.
func (m *Manifest) ResourceID() ID {
	ns := m.GetNamespace()
	if ns == "" {
		ns = ClusterScope
	}
	return MakeID(ns, m.GetKind(), m.GetName())
}

// Bytes serialises the manifest back to YAML. Keys come out sorted,
// since the object has been through a JSON representation; this is
// what makes output deterministic.
func (m *Manifest) Bytes() ([]byte, error) {
	return jsonyaml.Marshal(m.object)
}

// JSON serialises the manifest to JSON, for handing to the patch
// machinery.
func (m *Manifest) JSON() ([]byte, error) {
	return json.Marshal(m.object)
}

// DeepCopy returns a manifest that shares no structure with the
// original.
func (m *Manifest) DeepCopy() (*Manifest, error) {
	data, err := json.Marshal(m.object)
	if err != nil {
		return nil, err
	}
	var object map[string]interface{}
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, err
	}
	return &Manifest{source: m.source, object: object}, nil
}

// ReplaceObject swaps the decoded object for another, e.g., after
// patching. The replacement must name the same resource.
func (m *Manifest) ReplaceObject(object map[string]interface{}) error {
	replacement := Manifest{source: m.source, object: object}
	if replacement.ResourceID() != m.ResourceID() {
		return errors.Errorf("patched object changed identity from %s to %s", m.ResourceID(), replacement.ResourceID())
	}
	m.object = object
	return nil
}

// isList reports whether the manifest is a List kind whose items
// should be treated as individual resources. This is not bullet
// proof, since CustomResourceDefinitions can define a custom
// ListKind, but we cannot do better without API discovery.
func (m *Manifest) isList() bool {
	return strings.HasSuffix(m.GetKind(), "List")
}
