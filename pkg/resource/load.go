package resource

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Set is a collection of manifests keyed by the string form of their
// IDs.
type Set map[string]*Manifest

// Insert adds a manifest to the set, reporting an error naming both
// sources if its ID is already taken.
func (s Set) Insert(m *Manifest) error {
	id := m.ResourceID().String()
	if already, ok := s[id]; ok {
		return fmt.Errorf("duplicate definition of '%s' (in %s and %s)", id, already.Source(), m.Source())
	}
	s[id] = m
	return nil
}

// IDs returns the sorted identifiers of the set.
func (s Set) IDs() []string {
	var ids []string
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load takes paths to directories or files, and creates a manifest
// set based on the file(s) therein. Resources are named according to
// the file content, rather than the file name or directory structure.
func Load(base string, paths ...string) (Set, error) {
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, fmt.Errorf("path %q not found", base)
	}
	objs := Set{}
	for _, root := range paths {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return errors.Wrapf(err, "walking %q for yamels", path)
			}
			if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
				return nil
			}
			data, err := ioutil.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "unable to read file at %q", path)
			}
			source, err := filepath.Rel(base, path)
			if err != nil {
				return errors.Wrapf(err, "path to scan %q is not under base %q", path, base)
			}
			docsInFile, err := ParseMultidoc(data, source)
			if err != nil {
				return err
			}
			for _, id := range docsInFile.IDs() {
				if err := objs.Insert(docsInFile[id]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return objs, err
		}
	}
	return objs, nil
}

// ParseMultidoc takes a dump of config (a multidoc YAML) and
// constructs a manifest set from the resources represented therein.
func ParseMultidoc(multidoc []byte, source string) (Set, error) {
	objs := Set{}
	decoder := yaml.NewDecoder(bytes.NewReader(multidoc))
	var err error
	for {
		// In order to extract raw documents from the stream, we
		// decode generically and encode again. The result is the raw
		// document from the stream, without comments.
		var val interface{}
		if err = decoder.Decode(&val); err != nil {
			break
		}
		doc, err := yaml.Marshal(val)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing YAML doc from %q", source)
		}
		obj, err := UnmarshalManifest(doc, source)
		if err != nil {
			return nil, err
		}
		// An empty document (e.g., one that is only comments) is
		// skipped rather than treated as an error.
		if obj == nil || obj.GetKind() == "" {
			continue
		}
		// Lists must be treated specially, since it's the contained
		// resources we are after.
		if obj.isList() {
			items, _ := obj.Object()["items"].([]interface{})
			for _, rawItem := range items {
				item, ok := rawItem.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("malformed list item in %q", source)
				}
				if err := objs.Insert(NewManifest(item, source)); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := objs.Insert(obj); err != nil {
			return nil, err
		}
	}
	if err != io.EOF {
		return objs, errors.Wrapf(err, "scanning multidoc from %q", source)
	}
	return objs, nil
}
