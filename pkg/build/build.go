// Package build renders a target directory: it loads the target's
// configuration, composes its resources (recursing into bases),
// runs generators, applies patches and transformations, and fixes
// the name references that renames break.
package build

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	konferr "github.com/kombineproject/kombine/pkg/errors"
	"github.com/kombineproject/kombine/pkg/generate"
	"github.com/kombineproject/kombine/pkg/kustomize"
	kombinemetrics "github.com/kombineproject/kombine/pkg/metrics"
	"github.com/kombineproject/kombine/pkg/patch"
	"github.com/kombineproject/kombine/pkg/resource"
	"github.com/kombineproject/kombine/pkg/transform"
)

type Builder struct {
	logger  log.Logger
	patcher *patch.Set
}

func NewBuilder(logger log.Logger) *Builder {
	return &Builder{
		logger:  logger,
		patcher: patch.NewSet(),
	}
}

// Build renders the target directory into a manifest set.
func (b *Builder) Build(targetDir string) (_ resource.Set, retErr error) {
	started := time.Now()
	defer func() {
		buildDuration.With(
			kombinemetrics.LabelTarget, targetDir,
			kombinemetrics.LabelSuccess, fmt.Sprint(retErr == nil),
		).Observe(time.Since(started).Seconds())
	}()
	abs, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving target %q", targetDir)
	}
	set, generated, err := b.build(abs, nil)
	if err != nil {
		return nil, err
	}
	// Content hashes are appended only once, after the outermost
	// target's transformations, so that patches and generators in
	// overlays can still address resources by their declared names.
	hashRenames, err := appendHashSuffixes(generated)
	if err != nil {
		return nil, err
	}
	if len(hashRenames) == 0 {
		return set, nil
	}
	manifests := make([]*resource.Manifest, 0, len(set))
	for _, id := range set.IDs() {
		manifests = append(manifests, set[id])
	}
	transform.FixNameReferences(manifests, hashRenames)
	out := resource.Set{}
	for _, m := range manifests {
		if err := out.Insert(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// build renders one target. Generated resources that are due a hash
// suffix are returned alongside the set; the hash is the caller's
// concern, since it must happen after every enclosing overlay has had
// its turn.
func (b *Builder) build(dir string, stack []string) (resource.Set, []*resource.Manifest, error) {
	for _, seen := range stack {
		if seen == dir {
			return nil, nil, konferr.UserError(
				fmt.Sprintf("target %q is included in its own bases: %s.", dir, strings.Join(append(stack, dir), " -> ")),
				fmt.Errorf("base cycle at %q", dir))
		}
	}
	configPath, err := kustomize.FindConfig(dir)
	if err != nil {
		return nil, nil, err
	}
	config, err := kustomize.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	set := resource.Set{}
	var pending []*resource.Manifest
	for _, entry := range config.ResourceEntries() {
		if err := b.loadEntry(set, &pending, dir, entry, stack); err != nil {
			return nil, nil, err
		}
	}

	generated, err := b.runGenerators(set, dir, config)
	if err != nil {
		return nil, nil, err
	}
	pending = append(pending, generated...)

	if err := b.applyStrategicMergePatches(set, dir, config); err != nil {
		return nil, nil, err
	}
	if err := b.applyJson6902Patches(set, dir, config); err != nil {
		return nil, nil, err
	}

	manifests := make([]*resource.Manifest, 0, len(set))
	for _, id := range set.IDs() {
		manifests = append(manifests, set[id])
	}

	if config.Namespace != "" {
		transform.SetNamespace(manifests, config.Namespace)
	}
	transform.OverrideImages(manifests, config.Images)
	if unmatched := transform.OverrideReplicas(manifests, config.Replicas); len(unmatched) > 0 {
		return nil, nil, konferr.UserError(
			fmt.Sprintf("replica override %q in %q matches no workload.", unmatched[0].Name, configPath),
			fmt.Errorf("unmatched replica override %q", unmatched[0].Name))
	}
	transform.AddCommonLabels(manifests, config.CommonLabels)
	transform.AddCommonAnnotations(manifests, config.CommonAnnotations)

	renames := transform.AddNamePrefixSuffix(manifests, config.NamePrefix, config.NameSuffix)
	transform.FixNameReferences(manifests, renames)

	// Renames change identities, so the set is rebuilt; a collision
	// here means two resources were transformed to the same ID.
	out := resource.Set{}
	for _, m := range manifests {
		if err := out.Insert(m); err != nil {
			return nil, nil, err
		}
	}
	b.logger.Log("target", dir, "resources", len(out))
	return out, pending, nil
}

// loadEntry resolves one resources entry: a target directory (base),
// a plain directory of manifests, or a manifest file.
func (b *Builder) loadEntry(set resource.Set, pending *[]*resource.Manifest, dir, entry string, stack []string) error {
	path := filepath.Join(dir, entry)
	info, err := os.Stat(path)
	if err != nil {
		return konferr.MissingError(
			fmt.Sprintf("resource entry %q in target %q does not exist.", entry, dir),
			errors.Wrapf(err, "resource entry %q", entry))
	}
	switch {
	case info.IsDir() && kustomize.IsTarget(path):
		base, baseGenerated, err := b.build(path, append(stack, dir))
		if err != nil {
			return err
		}
		*pending = append(*pending, baseGenerated...)
		for _, id := range base.IDs() {
			if err := set.Insert(base[id]); err != nil {
				return err
			}
		}
	case info.IsDir():
		loaded, err := resource.Load(dir, path)
		if err != nil {
			return err
		}
		for _, id := range loaded.IDs() {
			if err := set.Insert(loaded[id]); err != nil {
				return err
			}
		}
	default:
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "unable to read file at %q", path)
		}
		docs, err := resource.ParseMultidoc(data, entry)
		if err != nil {
			return err
		}
		for _, id := range docs.IDs() {
			if err := set.Insert(docs[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

// runGenerators produces ConfigMaps and Secrets and folds them into
// the set according to their behavior. It returns the manifests that
// are due a content hash suffix.
func (b *Builder) runGenerators(set resource.Set, dir string, config *kustomize.Kustomization) ([]*resource.Manifest, error) {
	var hashed []*resource.Manifest
	disableHash := config.GeneratorOptions != nil && config.GeneratorOptions.DisableNameSuffixHash
	for _, args := range config.ConfigMapGenerator {
		m, err := generate.MakeConfigMap(dir, args, config.GeneratorOptions)
		if err != nil {
			return nil, err
		}
		needsHash, err := b.addGenerated(set, m, args.Behavior)
		if err != nil {
			return nil, err
		}
		if needsHash && !disableHash {
			hashed = append(hashed, m)
		}
	}
	for _, args := range config.SecretGenerator {
		m, err := generate.MakeSecret(dir, args, config.GeneratorOptions)
		if err != nil {
			return nil, err
		}
		needsHash, err := b.addGenerated(set, m, args.Behavior)
		if err != nil {
			return nil, err
		}
		if needsHash && !disableHash {
			hashed = append(hashed, m)
		}
	}
	return hashed, nil
}

// addGenerated inserts or folds a generated manifest per behavior.
// Only newly created resources get a hash suffix; merge and replace
// keep the name of the resource they land on.
func (b *Builder) addGenerated(set resource.Set, m *resource.Manifest, behavior string) (needsHash bool, err error) {
	id := m.ResourceID().String()
	existing, exists := set[id]
	switch behavior {
	case kustomize.BehaviorUnspecified, kustomize.BehaviorCreate:
		if exists {
			return false, konferr.UserError(
				fmt.Sprintf("generated resource %s already exists (defined in %s); use behavior: merge or replace to modify it.", id, existing.Source()),
				fmt.Errorf("duplicate definition of '%s' (in %s and %s)", id, existing.Source(), m.Source()))
		}
		return true, set.Insert(m)
	case kustomize.BehaviorMerge:
		if !exists {
			return false, konferr.UserError(
				fmt.Sprintf("generator for %s has behavior: merge, but there is no existing resource to merge into.", id),
				fmt.Errorf("no resource %s to merge into", id))
		}
		return false, b.patcher.ApplyStrategicMerge(existing, m)
	case kustomize.BehaviorReplace:
		if !exists {
			return false, konferr.UserError(
				fmt.Sprintf("generator for %s has behavior: replace, but there is no existing resource to replace.", id),
				fmt.Errorf("no resource %s to replace", id))
		}
		return false, existing.ReplaceObject(m.Object())
	}
	// kustomize.Load rejects other behaviors already
	return false, fmt.Errorf("invalid generator behavior %q", behavior)
}

func (b *Builder) applyStrategicMergePatches(set resource.Set, dir string, config *kustomize.Kustomization) error {
	for _, patchFile := range config.PatchesStrategicMerge {
		data, err := ioutil.ReadFile(filepath.Join(dir, patchFile))
		if err != nil {
			return konferr.MissingError(
				fmt.Sprintf("patch file %q does not exist in target %q.", patchFile, dir),
				errors.Wrapf(err, "patch file %q", patchFile))
		}
		patches, err := resource.ParseMultidoc(data, patchFile)
		if err != nil {
			return err
		}
		for _, id := range patches.IDs() {
			target, err := findTarget(set, resource.MustParseID(id))
			if err != nil {
				return konferr.UserError(
					fmt.Sprintf("patch %q refers to resource %s, which is not in the target.", patchFile, id),
					err)
			}
			if err := b.patcher.ApplyStrategicMerge(target, patches[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) applyJson6902Patches(set resource.Set, dir string, config *kustomize.Kustomization) error {
	for _, p := range config.PatchesJson6902 {
		id := resource.MakeID(p.Target.Namespace, p.Target.Kind, p.Target.Name)
		target, err := findTarget(set, id)
		if err != nil {
			return konferr.UserError(
				fmt.Sprintf("patch for %s refers to resource %s, which is not in the target.", p.Target, id),
				err)
		}
		if err := matchGroupVersion(p.Target, target); err != nil {
			return konferr.UserError(
				fmt.Sprintf("patch for %s names a group/version that does not match resource %s (%s).", p.Target, id, target.GroupVersion()),
				err)
		}
		operations := []byte(p.Patch)
		if p.Path != "" {
			var err error
			operations, err = ioutil.ReadFile(filepath.Join(dir, p.Path))
			if err != nil {
				return konferr.MissingError(
					fmt.Sprintf("patch file %q does not exist in target %q.", p.Path, dir),
					errors.Wrapf(err, "patch file %q", p.Path))
			}
		}
		if err := b.patcher.ApplyJSON6902(target, operations); err != nil {
			return err
		}
	}
	return nil
}

// matchGroupVersion checks the group and version a patch target
// names, when it names them, against the matched resource's
// apiVersion. The core group is spelled as an empty group.
func matchGroupVersion(pt kustomize.PatchTarget, target *resource.Manifest) error {
	group, version := "", target.GroupVersion()
	if i := strings.Index(version, "/"); i >= 0 {
		group, version = version[:i], version[i+1:]
	}
	if pt.Group != "" && pt.Group != group {
		return fmt.Errorf("patch target group %q does not match resource group %q", pt.Group, group)
	}
	if pt.Version != "" && pt.Version != version {
		return fmt.Errorf("patch target version %q does not match resource version %q", pt.Version, version)
	}
	return nil
}

// findTarget locates the resource a patch applies to. A patch
// written without a namespace still matches a namespaced resource,
// provided the kind/name pair is unambiguous.
func findTarget(set resource.Set, id resource.ID) (*resource.Manifest, error) {
	if m, ok := set[id.String()]; ok {
		return m, nil
	}
	ns, kind, name := id.Components()
	if ns != resource.ClusterScope {
		return nil, fmt.Errorf("patch refers to missing resource (%s)", id)
	}
	var found *resource.Manifest
	for _, candidateID := range set.IDs() {
		_, candidateKind, candidateName := resource.MustParseID(candidateID).Components()
		if candidateKind == kind && candidateName == name {
			if found != nil {
				return nil, fmt.Errorf("patch target %s/%s is ambiguous; qualify it with a namespace", kind, name)
			}
			found = set[candidateID]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("patch refers to missing resource (%s)", id)
	}
	return found, nil
}

// appendHashSuffixes renames generated resources to carry their
// content hash, recording the renames for reference fixing. The hash
// is taken after all other transformations, so it reflects the data
// as rendered.
func appendHashSuffixes(generated []*resource.Manifest) (transform.Renames, error) {
	renames := transform.Renames{}
	for _, m := range generated {
		hash, err := generate.Hash(m)
		if err != nil {
			return nil, errors.Wrapf(err, "hashing generated resource %s", m.ResourceID())
		}
		oldName := m.GetName()
		newName := oldName + "-" + hash
		m.SetName(newName)
		renames.Record(m.GetKind(), m.GetNamespace(), oldName, newName)
	}
	return renames, nil
}
