package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTarget(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir(os.TempDir(), "kombine-test")
	if err != nil {
		t.Fatal(err)
	}
	service := `apiVersion: v1
kind: Service
metadata:
  name: helloworld
spec:
  ports:
  - port: 80
`
	if err := ioutil.WriteFile(filepath.Join(dir, "service.yaml"), []byte(service), 0666); err != nil {
		t.Fatal(err)
	}
	config := "resources:\n- service.yaml\nnamePrefix: test-\n"
	if err := ioutil.WriteFile(filepath.Join(dir, "kustomization.yaml"), []byte(config), 0666); err != nil {
		t.Fatal(err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// runKombine executes the full command tree, so persistent setup
// (the logger) runs as it would for a user.
func runKombine(t *testing.T, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd := newRoot().Command()
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestBuildCommand_NoTarget(t *testing.T) {
	_, err := runKombine(t, "build")
	if err == nil {
		t.Fatal("Expecting error: command requires a target directory")
	}
}

func TestBuildCommand_RendersTarget(t *testing.T) {
	dir, cleanup := writeTarget(t)
	defer cleanup()

	out, err := runKombine(t, "build", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "name: test-helloworld") {
		t.Fatalf("Expected renamed service in output, got:\n%s", out)
	}
}

func TestBuildCommand_FilterExcludesAll(t *testing.T) {
	dir, cleanup := writeTarget(t)
	defer cleanup()

	out, err := runKombine(t, "build", dir, "--filter", "*:deployment/*")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "" {
		t.Fatalf("Expected empty output, got:\n%s", out)
	}
}

func TestBuildCommand_OutputFile(t *testing.T) {
	dir, cleanup := writeTarget(t)
	defer cleanup()
	outFile := filepath.Join(dir, "rendered.yaml")

	if _, err := runKombine(t, "build", dir, "-o", outFile); err != nil {
		t.Fatal(err)
	}
	body, err := ioutil.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "name: test-helloworld") {
		t.Fatalf("Expected renamed service in file, got:\n%s", body)
	}
}

func TestValidateCommand(t *testing.T) {
	dir, cleanup := writeTarget(t)
	defer cleanup()

	out, err := runKombine(t, "validate", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "is valid") {
		t.Fatalf("Expected validation summary, got:\n%s", out)
	}
}
