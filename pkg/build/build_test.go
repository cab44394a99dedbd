package build

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	konferr "github.com/kombineproject/kombine/pkg/errors"
	"github.com/kombineproject/kombine/pkg/resource"
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir(os.TempDir(), "kombine-test")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

func writeFile(t *testing.T, dir, name, content string) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, []byte(content), 0666); err != nil {
		t.Fatal(err)
	}
}

const baseDeployment = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: helloworld
spec:
  replicas: 1
  selector:
    matchLabels:
      name: helloworld
  template:
    metadata:
      labels:
        name: helloworld
    spec:
      containers:
      - name: helloworld
        image: quay.io/weaveworks/helloworld:master-a000001
        envFrom:
        - configMapRef:
            name: app-config
`

const baseService = `apiVersion: v1
kind: Service
metadata:
  name: helloworld
spec:
  selector:
    name: helloworld
  ports:
  - port: 80
`

// writeBase lays out a target with a deployment, a service and a
// generated ConfigMap the deployment refers to.
func writeBase(t *testing.T, dir string) {
	writeFile(t, dir, "deployment.yaml", baseDeployment)
	writeFile(t, dir, "service.yaml", baseService)
	writeFile(t, dir, "kustomization.yaml", `resources:
- deployment.yaml
- service.yaml
configMapGenerator:
- name: app-config
  literals:
  - LOG_LEVEL=info
`)
}

func findByKindName(t *testing.T, set resource.Set, kind, name string) *resource.Manifest {
	for _, id := range set.IDs() {
		m := set[id]
		if m.GetKind() == kind && m.GetName() == name {
			return m
		}
	}
	t.Fatalf("no %s named %q in %v", kind, name, set.IDs())
	return nil
}

func findByKindNamePrefix(t *testing.T, set resource.Set, kind, prefix string) *resource.Manifest {
	for _, id := range set.IDs() {
		m := set[id]
		if m.GetKind() == kind && strings.HasPrefix(m.GetName(), prefix) {
			return m
		}
	}
	t.Fatalf("no %s with name prefix %q in %v", kind, prefix, set.IDs())
	return nil
}

func TestBuildBase(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeBase(t, dir)

	set, err := NewBuilder(log.NewNopLogger()).Build(dir)
	require.NoError(t, err)
	assert.Len(t, set, 3)

	// the generated ConfigMap carries a content hash suffix
	cm := findByKindNamePrefix(t, set, "ConfigMap", "app-config-")
	assert.Len(t, cm.GetName(), len("app-config-")+10)

	// and the deployment's reference follows the rename
	dep := findByKindName(t, set, "Deployment", "helloworld")
	out, err := dep.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), "name: "+cm.GetName())
}

func TestBuildOverlay(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeBase(t, filepath.Join(dir, "base"))

	writeFile(t, filepath.Join(dir, "dev"), "replicas.yaml", `apiVersion: apps/v1
kind: Deployment
metadata:
  name: helloworld
spec:
  template:
    spec:
      containers:
      - name: helloworld
        env:
        - name: DEBUG
          value: "true"
`)
	writeFile(t, filepath.Join(dir, "dev"), "kustomization.yaml", `resources:
- ../base
namespace: dev
namePrefix: dev-
commonLabels:
  env: dev
commonAnnotations:
  team: platform
patchesStrategicMerge:
- replicas.yaml
patchesJson6902:
- target:
    kind: Service
    name: helloworld
  patch: |
    - op: add
      path: /spec/type
      value: NodePort
images:
- name: quay.io/weaveworks/helloworld
  newTag: v1.0.0
replicas:
- name: helloworld
  count: 3
`)

	set, err := NewBuilder(log.NewNopLogger()).Build(filepath.Join(dir, "dev"))
	require.NoError(t, err)
	assert.Len(t, set, 3)

	dep := findByKindName(t, set, "Deployment", "dev-helloworld")
	assert.Equal(t, "dev", dep.GetNamespace())
	assert.Equal(t, "dev", dep.GetLabels()["env"])

	out, err := dep.Bytes()
	require.NoError(t, err)
	rendered := string(out)
	assert.Contains(t, rendered, "image: quay.io/weaveworks/helloworld:v1.0.0")
	assert.Contains(t, rendered, "replicas: 3")
	assert.Contains(t, rendered, `value: "true"`)
	assert.Contains(t, rendered, "team: platform")

	svc := findByKindName(t, set, "Service", "dev-helloworld")
	assert.Equal(t, "NodePort", nestedString(svc.Object(), "spec", "type"))

	// the ConfigMap is prefixed and hashed, and the reference follows
	cm := findByKindNamePrefix(t, set, "ConfigMap", "dev-app-config-")
	assert.Contains(t, rendered, "name: "+cm.GetName())
}

func nestedString(obj map[string]interface{}, path ...string) string {
	var current interface{} = obj
	for _, key := range path {
		node, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = node[key]
	}
	s, _ := current.(string)
	return s
}

func TestBuildGeneratorMerge(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeBase(t, filepath.Join(dir, "base"))
	writeFile(t, filepath.Join(dir, "dev"), "kustomization.yaml", `resources:
- ../base
configMapGenerator:
- name: app-config
  behavior: merge
  literals:
  - LOG_LEVEL=debug
  - EXTRA=1
`)

	set, err := NewBuilder(log.NewNopLogger()).Build(filepath.Join(dir, "dev"))
	require.NoError(t, err)

	// merge folds into the base's generated ConfigMap; the merged
	// resource keeps (and hashes) the base's name
	cm := findByKindNamePrefix(t, set, "ConfigMap", "app-config-")
	data := cm.Object()["data"].(map[string]interface{})
	assert.Equal(t, "debug", data["LOG_LEVEL"])
	assert.Equal(t, "1", data["EXTRA"])
}

func TestBuildGeneratorsSameNameAcrossNamespaces(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	deployment := `apiVersion: apps/v1
kind: Deployment
metadata:
  name: %[1]s
  namespace: %[2]s
spec:
  template:
    spec:
      containers:
      - name: %[1]s
        image: %[1]s
        envFrom:
        - configMapRef:
            name: app-config
`
	writeFile(t, dir, "frontend.yaml", fmt.Sprintf(deployment, "frontend", "team-a"))
	writeFile(t, dir, "backend.yaml", fmt.Sprintf(deployment, "backend", "team-b"))
	writeFile(t, dir, "kustomization.yaml", `resources:
- frontend.yaml
- backend.yaml
configMapGenerator:
- name: app-config
  namespace: team-a
  literals:
  - ROLE=frontend
- name: app-config
  namespace: team-b
  literals:
  - ROLE=backend
`)

	set, err := NewBuilder(log.NewNopLogger()).Build(dir)
	require.NoError(t, err)
	assert.Len(t, set, 4)

	// each namespace gets its own hashed ConfigMap, and each
	// deployment's reference follows the rename in its own namespace
	configMaps := map[string]string{}
	for _, id := range set.IDs() {
		m := set[id]
		if m.GetKind() == "ConfigMap" {
			configMaps[m.GetNamespace()] = m.GetName()
		}
	}
	require.Len(t, configMaps, 2)
	assert.NotEqual(t, configMaps["team-a"], configMaps["team-b"])

	for _, test := range []struct {
		deployment, namespace string
	}{
		{"frontend", "team-a"},
		{"backend", "team-b"},
	} {
		dep := findByKindName(t, set, "Deployment", test.deployment)
		out, err := dep.Bytes()
		require.NoError(t, err)
		assert.Contains(t, string(out), "name: "+configMaps[test.namespace])
	}
}

func TestBuildGeneratorCreateCollision(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeBase(t, filepath.Join(dir, "base"))
	writeFile(t, filepath.Join(dir, "dev"), "kustomization.yaml", `resources:
- ../base
configMapGenerator:
- name: app-config
  literals:
  - LOG_LEVEL=debug
`)

	_, err := NewBuilder(log.NewNopLogger()).Build(filepath.Join(dir, "dev"))
	require.Error(t, err)
	assert.True(t, konferr.IsUser(err))
	assert.Contains(t, err.Error(), "duplicate definition")
}

func TestBuildCycle(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeFile(t, filepath.Join(dir, "a"), "kustomization.yaml", "resources:\n- ../b\n")
	writeFile(t, filepath.Join(dir, "b"), "kustomization.yaml", "resources:\n- ../a\n")

	_, err := NewBuilder(log.NewNopLogger()).Build(filepath.Join(dir, "a"))
	require.Error(t, err)
	assert.True(t, konferr.IsUser(err))
	assert.Contains(t, err.Error(), "cycle")
}

func TestBuildMissingResource(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeFile(t, dir, "kustomization.yaml", "resources:\n- nonexistent.yaml\n")

	_, err := NewBuilder(log.NewNopLogger()).Build(dir)
	require.Error(t, err)
	assert.True(t, konferr.IsMissing(err))
}

func TestBuildJson6902GroupVersionMismatch(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeFile(t, dir, "service.yaml", baseService)
	writeFile(t, dir, "kustomization.yaml", `resources:
- service.yaml
patchesJson6902:
- target:
    group: apps
    version: v1
    kind: Service
    name: helloworld
  patch: |
    - op: add
      path: /spec/type
      value: NodePort
`)

	_, err := NewBuilder(log.NewNopLogger()).Build(dir)
	require.Error(t, err)
	assert.True(t, konferr.IsUser(err))
	assert.Contains(t, err.Error(), `group "apps"`)
}

func TestBuildMissingPatchTarget(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeFile(t, dir, "service.yaml", baseService)
	writeFile(t, dir, "patch.yaml", `apiVersion: apps/v1
kind: Deployment
metadata:
  name: not-there
spec:
  replicas: 2
`)
	writeFile(t, dir, "kustomization.yaml", `resources:
- service.yaml
patchesStrategicMerge:
- patch.yaml
`)

	_, err := NewBuilder(log.NewNopLogger()).Build(dir)
	require.Error(t, err)
	assert.True(t, konferr.IsUser(err))
	assert.Contains(t, err.Error(), "not-there")
}

func TestFilter(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	writeBase(t, dir)

	set, err := NewBuilder(log.NewNopLogger()).Build(dir)
	require.NoError(t, err)

	filtered := Filter(set, "*deployment/*")
	assert.Len(t, filtered, 1)

	all := Filter(set, "")
	assert.Len(t, all, 3)

	none := Filter(set, "*statefulset/*")
	assert.Len(t, none, 0)
}
