package generate

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kombineproject/kombine/pkg/kustomize"
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir(os.TempDir(), "kombine-test")
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

func configMapArgs(name string) kustomize.ConfigMapArgs {
	return kustomize.ConfigMapArgs{GeneratorArgs: kustomize.GeneratorArgs{Name: name}}
}

func TestMakeConfigMapFromLiterals(t *testing.T) {
	args := configMapArgs("app-config")
	args.Literals = []string{"LOG_LEVEL=debug", "DB_HOST=db:5432"}

	m, err := MakeConfigMap(".", args, nil)
	assert.NoError(t, err)
	assert.Equal(t, "ConfigMap", m.GetKind())
	assert.Equal(t, "app-config", m.GetName())

	data := m.Object()["data"].(map[string]interface{})
	assert.Equal(t, "debug", data["LOG_LEVEL"])
	// only the first = separates key from value
	assert.Equal(t, "db:5432", data["DB_HOST"])
}

func TestMakeConfigMapFromFiles(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, "nginx.conf"), []byte("worker_processes 2;\n"), 0666))

	args := configMapArgs("nginx-config")
	args.Files = []string{"nginx.conf", "renamed.conf=nginx.conf"}

	m, err := MakeConfigMap(dir, args, nil)
	assert.NoError(t, err)

	data := m.Object()["data"].(map[string]interface{})
	assert.Equal(t, "worker_processes 2;\n", data["nginx.conf"])
	assert.Equal(t, "worker_processes 2;\n", data["renamed.conf"])
}

func TestMakeConfigMapFromEnvs(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, "app.env"), []byte(`# environment for the app
LOG_LEVEL=info

FEATURE_FLAGS=a=b
`), 0666))

	args := configMapArgs("app-env")
	args.Envs = []string{"app.env"}

	m, err := MakeConfigMap(dir, args, nil)
	assert.NoError(t, err)

	data := m.Object()["data"].(map[string]interface{})
	assert.Equal(t, "info", data["LOG_LEVEL"])
	assert.Equal(t, "a=b", data["FEATURE_FLAGS"])
}

func TestMakeConfigMapErrors(t *testing.T) {
	args := configMapArgs("bad")
	args.Literals = []string{"NOEQUALS"}
	_, err := MakeConfigMap(".", args, nil)
	assert.Error(t, err)

	args = configMapArgs("bad")
	args.Files = []string{"does-not-exist.conf"}
	_, err = MakeConfigMap(".", args, nil)
	assert.Error(t, err)

	args = configMapArgs("bad")
	args.Literals = []string{"KEY=a", "KEY=b"}
	_, err = MakeConfigMap(".", args, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate data key")
}

func TestMakeConfigMapOptions(t *testing.T) {
	args := configMapArgs("app-config")
	args.Namespace = "dev"
	args.Literals = []string{"A=1"}
	opts := &kustomize.GeneratorOptions{
		Labels:      map[string]string{"generated": "true"},
		Annotations: map[string]string{"origin": "generator"},
	}

	m, err := MakeConfigMap(".", args, opts)
	assert.NoError(t, err)
	assert.Equal(t, "dev", m.GetNamespace())
	assert.Equal(t, "true", m.GetLabels()["generated"])
}

func TestMakeSecret(t *testing.T) {
	args := kustomize.SecretArgs{GeneratorArgs: kustomize.GeneratorArgs{
		Name:     "app-secrets",
		Literals: []string{"password=hunter2"},
	}}

	m, err := MakeSecret(".", args, nil)
	assert.NoError(t, err)
	assert.Equal(t, "Secret", m.GetKind())
	assert.Equal(t, "Opaque", m.Object()["type"])

	data := m.Object()["data"].(map[string]interface{})
	// base64("hunter2")
	assert.Equal(t, "aHVudGVyMg==", data["password"])
}

func TestHashStableUnderDeclarationOrder(t *testing.T) {
	a := configMapArgs("app-config")
	a.Literals = []string{"A=1", "B=2"}
	b := configMapArgs("app-config")
	b.Literals = []string{"B=2", "A=1"}

	ma, err := MakeConfigMap(".", a, nil)
	assert.NoError(t, err)
	mb, err := MakeConfigMap(".", b, nil)
	assert.NoError(t, err)

	ha, err := Hash(ma)
	assert.NoError(t, err)
	hb, err := Hash(mb)
	assert.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 10)
}

func TestHashChangesWithContent(t *testing.T) {
	a := configMapArgs("app-config")
	a.Literals = []string{"A=1"}
	b := configMapArgs("app-config")
	b.Literals = []string{"A=2"}

	ma, _ := MakeConfigMap(".", a, nil)
	mb, _ := MakeConfigMap(".", b, nil)

	ha, _ := Hash(ma)
	hb, _ := Hash(mb)
	assert.NotEqual(t, ha, hb)
}
