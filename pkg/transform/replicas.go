package transform

import (
	"github.com/kombineproject/kombine/pkg/kustomize"
	"github.com/kombineproject/kombine/pkg/resource"
)

// Workload kinds whose spec.replicas can be overridden.
var replicaKinds = map[string]struct{}{
	"Deployment":            {},
	"ReplicaSet":            {},
	"StatefulSet":           {},
	"ReplicationController": {},
}

// OverrideReplicas sets spec.replicas on workloads matched by name.
// An override that matches nothing is reported, since it is most
// likely a misspelled name.
func OverrideReplicas(manifests []*resource.Manifest, overrides []kustomize.Replica) []kustomize.Replica {
	var unmatched []kustomize.Replica
	for _, o := range overrides {
		matched := false
		for _, m := range manifests {
			if _, ok := replicaKinds[m.GetKind()]; !ok {
				continue
			}
			if m.GetName() != o.Name {
				continue
			}
			spec := nestedCreate(m.Object(), "spec")
			spec["replicas"] = o.Count
			matched = true
		}
		if !matched {
			unmatched = append(unmatched, o)
		}
	}
	return unmatched
}
