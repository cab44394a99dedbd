// Package kustomize implements reading and validation of the target
// configuration file, whose schema follows kustomize's
// kustomization.yaml.
package kustomize

import (
	"fmt"
	"strings"
)

// Kustomization is the configuration for one target directory: the
// resources composing it and the transformations to apply to them.
type Kustomization struct {
	APIVersion string `yaml:"apiVersion,omitempty" json:"apiVersion,omitempty"`
	Kind       string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Resources are relative paths to manifest files, directories of
	// manifest files, or further target directories (bases).
	Resources []string `yaml:"resources,omitempty" json:"resources,omitempty"`
	// Bases is the older spelling for target directory entries; they
	// are treated exactly as entries in Resources.
	Bases []string `yaml:"bases,omitempty" json:"bases,omitempty"`

	NamePrefix        string            `yaml:"namePrefix,omitempty" json:"namePrefix,omitempty"`
	NameSuffix        string            `yaml:"nameSuffix,omitempty" json:"nameSuffix,omitempty"`
	Namespace         string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	CommonLabels      map[string]string `yaml:"commonLabels,omitempty" json:"commonLabels,omitempty"`
	CommonAnnotations map[string]string `yaml:"commonAnnotations,omitempty" json:"commonAnnotations,omitempty"`

	PatchesStrategicMerge []string        `yaml:"patchesStrategicMerge,omitempty" json:"patchesStrategicMerge,omitempty"`
	PatchesJson6902       []Json6902Patch `yaml:"patchesJson6902,omitempty" json:"patchesJson6902,omitempty"`

	Images   []Image   `yaml:"images,omitempty" json:"images,omitempty"`
	Replicas []Replica `yaml:"replicas,omitempty" json:"replicas,omitempty"`

	ConfigMapGenerator []ConfigMapArgs   `yaml:"configMapGenerator,omitempty" json:"configMapGenerator,omitempty"`
	SecretGenerator    []SecretArgs      `yaml:"secretGenerator,omitempty" json:"secretGenerator,omitempty"`
	GeneratorOptions   *GeneratorOptions `yaml:"generatorOptions,omitempty" json:"generatorOptions,omitempty"`
}

// ResourceEntries returns Resources and Bases as one list, in the
// order given.
func (k *Kustomization) ResourceEntries() []string {
	entries := make([]string, 0, len(k.Resources)+len(k.Bases))
	entries = append(entries, k.Resources...)
	entries = append(entries, k.Bases...)
	return entries
}

// PatchTarget selects the single resource an RFC 6902 patch applies
// to.
type PatchTarget struct {
	Group     string `yaml:"group,omitempty" json:"group,omitempty"`
	Version   string `yaml:"version,omitempty" json:"version,omitempty"`
	Kind      string `yaml:"kind" json:"kind"`
	Name      string `yaml:"name" json:"name"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

func (t PatchTarget) String() string {
	gv := t.Version
	if t.Group != "" {
		gv = t.Group + "/" + t.Version
	}
	s := fmt.Sprintf("%s %s/%s", gv, t.Kind, t.Name)
	if t.Namespace != "" {
		s = s + " in " + t.Namespace
	}
	return strings.TrimSpace(s)
}

// Json6902Patch is an RFC 6902 patch, given either as a path to a
// file containing the operations, or inline as a YAML list.
type Json6902Patch struct {
	Target PatchTarget `yaml:"target" json:"target"`
	Path   string      `yaml:"path,omitempty" json:"path,omitempty"`
	Patch  string      `yaml:"patch,omitempty" json:"patch,omitempty"`
}

// Image overrides the image used by containers, matched on the image
// name (the part before the tag or digest).
type Image struct {
	Name    string `yaml:"name" json:"name"`
	NewName string `yaml:"newName,omitempty" json:"newName,omitempty"`
	NewTag  string `yaml:"newTag,omitempty" json:"newTag,omitempty"`
	Digest  string `yaml:"digest,omitempty" json:"digest,omitempty"`
}

// Replica overrides the replica count of the named workload.
type Replica struct {
	Name  string `yaml:"name" json:"name"`
	Count int64  `yaml:"count" json:"count"`
}

// Generator behaviors, for when a generated resource collides with
// one already in the set.
const (
	BehaviorUnspecified = ""
	BehaviorCreate      = "create"
	BehaviorMerge       = "merge"
	BehaviorReplace     = "replace"
)

// GeneratorArgs are the fields shared between ConfigMap and Secret
// generators.
type GeneratorArgs struct {
	Name      string   `yaml:"name" json:"name"`
	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Behavior  string   `yaml:"behavior,omitempty" json:"behavior,omitempty"`
	Literals  []string `yaml:"literals,omitempty" json:"literals,omitempty"`
	Files     []string `yaml:"files,omitempty" json:"files,omitempty"`
	Envs      []string `yaml:"envs,omitempty" json:"envs,omitempty"`
}

type ConfigMapArgs struct {
	GeneratorArgs `yaml:",inline" json:",inline"`
}

type SecretArgs struct {
	GeneratorArgs `yaml:",inline" json:",inline"`
	Type          string `yaml:"type,omitempty" json:"type,omitempty"`
}

// GeneratorOptions apply to all generators in the file.
type GeneratorOptions struct {
	Labels                map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations           map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	DisableNameSuffixHash bool              `yaml:"disableNameSuffixHash,omitempty" json:"disableNameSuffixHash,omitempty"`
}
