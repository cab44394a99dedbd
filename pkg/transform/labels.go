package transform

import (
	"sort"

	"github.com/kombineproject/kombine/pkg/resource"
)

func sortedKeys(m map[string]string) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddCommonLabels applies labels to every manifest's metadata, and
// keeps the selectors that tie workloads to their pods, and services
// to their backends, in agreement.
func AddCommonLabels(manifests []*resource.Manifest, labels map[string]string) {
	if len(labels) == 0 {
		return
	}
	for _, m := range manifests {
		for _, k := range sortedKeys(labels) {
			m.SetLabel(k, labels[k])
		}
		obj := m.Object()
		switch m.GetKind() {
		case "Deployment", "StatefulSet", "DaemonSet", "ReplicaSet", "Job":
			setAll(nestedCreate(obj, "spec", "selector", "matchLabels"), labels)
			setAll(nestedCreate(obj, "spec", "template", "metadata", "labels"), labels)
		case "CronJob":
			setAll(nestedCreate(obj, "spec", "jobTemplate", "spec", "template", "metadata", "labels"), labels)
		case "Service":
			setAll(nestedCreate(obj, "spec", "selector"), labels)
		}
	}
}

// AddCommonAnnotations applies annotations to every manifest's
// metadata and to pod templates, so they reach the pods themselves.
func AddCommonAnnotations(manifests []*resource.Manifest, annotations map[string]string) {
	if len(annotations) == 0 {
		return
	}
	for _, m := range manifests {
		for _, k := range sortedKeys(annotations) {
			m.SetAnnotation(k, annotations[k])
		}
		obj := m.Object()
		switch m.GetKind() {
		case "Deployment", "StatefulSet", "DaemonSet", "ReplicaSet", "Job":
			setAll(nestedCreate(obj, "spec", "template", "metadata", "annotations"), annotations)
		case "CronJob":
			setAll(nestedCreate(obj, "spec", "jobTemplate", "spec", "template", "metadata", "annotations"), annotations)
		}
	}
}

func setAll(target map[string]interface{}, kv map[string]string) {
	for k, v := range kv {
		target[k] = v
	}
}
