// Package generate produces ConfigMap and Secret manifests from
// generator configuration: literals, files and dotenv files.
package generate

import (
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	konferr "github.com/kombineproject/kombine/pkg/errors"
	"github.com/kombineproject/kombine/pkg/kustomize"
	"github.com/kombineproject/kombine/pkg/resource"
)

// MakeConfigMap assembles a ConfigMap manifest from generator args.
// Relative file paths are resolved against dir.
func MakeConfigMap(dir string, args kustomize.ConfigMapArgs, opts *kustomize.GeneratorOptions) (*resource.Manifest, error) {
	data, err := collectData(dir, args.GeneratorArgs, "configMapGenerator")
	if err != nil {
		return nil, err
	}
	object := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   makeMetadata(args.GeneratorArgs, opts),
	}
	if len(data) > 0 {
		object["data"] = data
	}
	return resource.NewManifest(object, fmt.Sprintf("configMapGenerator:%s", args.Name)), nil
}

// MakeSecret assembles a Secret manifest from generator args. Values
// are base64-encoded into the data field, as the API expects.
func MakeSecret(dir string, args kustomize.SecretArgs, opts *kustomize.GeneratorOptions) (*resource.Manifest, error) {
	plain, err := collectData(dir, args.GeneratorArgs, "secretGenerator")
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	for k, v := range plain {
		data[k] = base64.StdEncoding.EncodeToString([]byte(v.(string)))
	}
	secretType := args.Type
	if secretType == "" {
		secretType = "Opaque"
	}
	object := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   makeMetadata(args.GeneratorArgs, opts),
		"type":       secretType,
	}
	if len(data) > 0 {
		object["data"] = data
	}
	return resource.NewManifest(object, fmt.Sprintf("secretGenerator:%s", args.Name)), nil
}

func makeMetadata(args kustomize.GeneratorArgs, opts *kustomize.GeneratorOptions) map[string]interface{} {
	metadata := map[string]interface{}{"name": args.Name}
	if args.Namespace != "" {
		metadata["namespace"] = args.Namespace
	}
	if opts != nil {
		if len(opts.Labels) > 0 {
			labels := map[string]interface{}{}
			for k, v := range opts.Labels {
				labels[k] = v
			}
			metadata["labels"] = labels
		}
		if len(opts.Annotations) > 0 {
			annotations := map[string]interface{}{}
			for k, v := range opts.Annotations {
				annotations[k] = v
			}
			metadata["annotations"] = annotations
		}
	}
	return metadata
}

func collectData(dir string, args kustomize.GeneratorArgs, generatorKind string) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	insert := func(key, value string) error {
		if _, ok := data[key]; ok {
			return generatorError(generatorKind, args.Name, errors.Errorf("duplicate data key %q", key))
		}
		data[key] = value
		return nil
	}
	for _, literal := range args.Literals {
		key, value, err := splitLiteral(literal)
		if err != nil {
			return nil, generatorError(generatorKind, args.Name, err)
		}
		if err := insert(key, value); err != nil {
			return nil, err
		}
	}
	for _, file := range args.Files {
		key, path := splitFileEntry(file)
		content, err := ioutil.ReadFile(filepath.Join(dir, path))
		if err != nil {
			return nil, generatorError(generatorKind, args.Name, errors.Wrapf(err, "reading file %q", path))
		}
		if err := insert(key, string(content)); err != nil {
			return nil, err
		}
	}
	for _, envFile := range args.Envs {
		content, err := ioutil.ReadFile(filepath.Join(dir, envFile))
		if err != nil {
			return nil, generatorError(generatorKind, args.Name, errors.Wrapf(err, "reading env file %q", envFile))
		}
		pairs, err := parseDotenv(string(content))
		if err != nil {
			return nil, generatorError(generatorKind, args.Name, errors.Wrapf(err, "parsing env file %q", envFile))
		}
		for _, pair := range pairs {
			if err := insert(pair[0], pair[1]); err != nil {
				return nil, err
			}
		}
	}
	return data, nil
}

func splitLiteral(literal string) (key, value string, err error) {
	i := strings.Index(literal, "=")
	if i <= 0 {
		return "", "", errors.Errorf("literal %q must be of the form key=value", literal)
	}
	return literal[:i], literal[i+1:], nil
}

// A file entry is either a path, keyed by its base name, or key=path.
func splitFileEntry(entry string) (key, path string) {
	if i := strings.Index(entry, "="); i > 0 {
		return entry[:i], entry[i+1:]
	}
	return filepath.Base(entry), entry
}

// parseDotenv reads key=value lines, preserving order; blank lines
// and #-comments are skipped.
func parseDotenv(content string) ([][2]string, error) {
	var pairs [][2]string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			return nil, errors.Errorf("line %q is not of the form key=value", line)
		}
		pairs = append(pairs, [2]string{line[:i], line[i+1:]})
	}
	return pairs, nil
}

func generatorError(generatorKind, name string, err error) error {
	return konferr.UserError(
		fmt.Sprintf("%s %q cannot be generated: %s.", generatorKind, name, err),
		errors.Wrapf(err, "%s %q", generatorKind, name))
}
