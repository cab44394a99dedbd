package kustomize

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	konferr "github.com/kombineproject/kombine/pkg/errors"
)

// Recognised configuration file names. kustomization.yaml is accepted
// so that existing kustomize layouts build unchanged.
var ConfigFilenames = []string{"kombine.yaml", "kustomization.yaml", "kustomization.yml"}

// FindConfig returns the path of the configuration file in dir.
// Exactly one of the recognised file names must be present.
func FindConfig(dir string) (string, error) {
	var found []string
	for _, name := range ConfigFilenames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	switch len(found) {
	case 0:
		return "", konferr.MissingError(
			fmt.Sprintf("%q does not contain a configuration file (one of %v); is it a target directory?", dir, ConfigFilenames),
			fmt.Errorf("no configuration file in %q", dir))
	case 1:
		return found[0], nil
	default:
		return "", konferr.UserError(
			fmt.Sprintf("%q contains more than one configuration file (%v); remove all but one", dir, found),
			fmt.Errorf("ambiguous configuration in %q", dir))
	}
}

// IsTarget reports whether dir contains a configuration file, i.e.,
// whether it should be built rather than scanned for plain manifests.
func IsTarget(dir string) bool {
	for _, name := range ConfigFilenames {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Load reads, validates and parses the configuration file at path.
func Load(path string) (*Kustomization, error) {
	fileBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %s", path, err)
	}
	if err := Validate(fileBytes, path); err != nil {
		return nil, err
	}
	var result Kustomization
	if err := yaml.UnmarshalStrict(fileBytes, &result); err != nil {
		return nil, konferr.UserError(
			fmt.Sprintf("could not parse %q; this likely means it is malformed YAML.", path),
			fmt.Errorf("cannot parse %q: %s", path, err))
	}
	if result.Kind != "" && result.Kind != "Kustomization" {
		return nil, konferr.UserError(
			fmt.Sprintf("%q has kind %q; only Kustomization configuration files are supported.", path, result.Kind),
			fmt.Errorf("unsupported kind %q in %q", result.Kind, path))
	}
	for _, args := range result.ConfigMapGenerator {
		if err := checkGeneratorArgs(path, args.GeneratorArgs); err != nil {
			return nil, err
		}
	}
	for _, args := range result.SecretGenerator {
		if err := checkGeneratorArgs(path, args.GeneratorArgs); err != nil {
			return nil, err
		}
	}
	for _, p := range result.PatchesJson6902 {
		if (p.Path == "") == (p.Patch == "") {
			return nil, konferr.UserError(
				fmt.Sprintf("a patchesJson6902 entry in %q must give exactly one of path or patch.", path),
				fmt.Errorf("invalid patchesJson6902 entry for %s in %q", p.Target, path))
		}
	}
	return &result, nil
}

func checkGeneratorArgs(path string, args GeneratorArgs) error {
	if args.Name == "" {
		return konferr.UserError(
			fmt.Sprintf("a generator in %q has no name.", path),
			fmt.Errorf("generator without name in %q", path))
	}
	switch args.Behavior {
	case BehaviorUnspecified, BehaviorCreate, BehaviorMerge, BehaviorReplace:
		return nil
	default:
		return konferr.UserError(
			fmt.Sprintf("generator %q in %q has behavior %q; it must be one of create, merge or replace.", args.Name, path, args.Behavior),
			fmt.Errorf("invalid generator behavior %q in %q", args.Behavior, path))
	}
}
