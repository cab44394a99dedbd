package transform

import (
	"github.com/kombineproject/kombine/pkg/resource"
)

// SetNamespace assigns the namespace to every namespaced manifest in
// the set, overriding namespaces already present. Cluster-level kinds
// are left alone, as are the namespaces of RoleBinding subjects that
// refer to service accounts elsewhere.
func SetNamespace(manifests []*resource.Manifest, namespace string) {
	for _, m := range manifests {
		if resource.ClusterScoped(m.GetKind()) {
			// RoleBinding subjects name service accounts together
			// with their namespace; those move along with everything
			// else.
			if m.GetKind() == "ClusterRoleBinding" {
				setSubjectNamespaces(m, namespace)
			}
			continue
		}
		m.SetNamespace(namespace)
		if m.GetKind() == "RoleBinding" {
			setSubjectNamespaces(m, namespace)
		}
	}
}

func setSubjectNamespaces(m *resource.Manifest, namespace string) {
	subjects, _ := m.Object()["subjects"].([]interface{})
	for _, rawSubject := range subjects {
		subject, ok := rawSubject.(map[string]interface{})
		if !ok {
			continue
		}
		if kind, _ := subject["kind"].(string); kind != "ServiceAccount" {
			continue
		}
		if _, ok := subject["namespace"]; ok {
			subject["namespace"] = namespace
		}
	}
}
