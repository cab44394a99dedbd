package transform

import (
	"github.com/kombineproject/kombine/pkg/resource"
)

// FixNameReferences rewrites references to resources that renames
// (prefixes, suffixes, generator hashes) have touched: ConfigMap and
// Secret uses in pod specs and ingresses, service account names, and
// service backends. References are resolved in the namespace of the
// manifest that makes them.
func FixNameReferences(manifests []*resource.Manifest, renames Renames) {
	if len(renames) == 0 {
		return
	}
	for _, m := range manifests {
		namespace := m.GetNamespace()
		walk(m.Object(), func(node map[string]interface{}) {
			fixReferencesIn(node, renames, namespace)
		})
	}
}

func fixReferencesIn(node map[string]interface{}, renames Renames, namespace string) {
	// env/envFrom references
	for _, key := range []string{"configMapRef", "configMapKeyRef"} {
		renameField(node, key, "name", renames, "ConfigMap", namespace)
	}
	for _, key := range []string{"secretRef", "secretKeyRef"} {
		renameField(node, key, "name", renames, "Secret", namespace)
	}
	// volume sources; the projected volume sources use the same keys
	if cm, ok := node["configMap"].(map[string]interface{}); ok {
		if _, isVolumeSource := cm["name"]; isVolumeSource {
			renameField(node, "configMap", "name", renames, "ConfigMap", namespace)
		}
	}
	// secret volume sources, ingress TLS entries and the like name
	// secrets with a secretName field; each map is visited exactly
	// once, so the rename is applied exactly once
	renameString(node, "secretName", renames, "Secret", namespace)
	// imagePullSecrets is a list of {name}
	if pullSecrets, ok := node["imagePullSecrets"].([]interface{}); ok {
		for _, raw := range pullSecrets {
			if ref, ok := raw.(map[string]interface{}); ok {
				renameString(ref, "name", renames, "Secret", namespace)
			}
		}
	}
	renameString(node, "serviceAccountName", renames, "ServiceAccount", namespace)
	// extensions/v1beta1 ingress backends
	renameString(node, "serviceName", renames, "Service", namespace)
	// networking.k8s.io/v1 ingress backends: {service: {name, port}}
	if service, ok := node["service"].(map[string]interface{}); ok {
		if _, hasPort := service["port"]; hasPort {
			renameString(service, "name", renames, "Service", namespace)
		}
	}
}

func renameField(node map[string]interface{}, key, nameKey string, renames Renames, kind, namespace string) {
	ref, ok := node[key].(map[string]interface{})
	if !ok {
		return
	}
	renameString(ref, nameKey, renames, kind, namespace)
}

func renameString(node map[string]interface{}, key string, renames Renames, kind, namespace string) {
	name, ok := node[key].(string)
	if !ok {
		return
	}
	node[key] = renames.Lookup(kind, namespace, name)
}
