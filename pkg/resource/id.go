package resource

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidID = errors.New("invalid resource ID")

	// The namespace and name components are (apparently
	// non-normatively) defined in
	// https://github.com/kubernetes/community/blob/master/contributors/design-proposals/architecture/identifiers.md
	// In practice, more punctuation is used than allowed there;
	// specifically, people use underscores as well as dashes and dots, and in names, colons.
	IDRegexp            = regexp.MustCompile("^(<cluster>|[a-zA-Z0-9_-]+):([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.:-]+)$")
	UnqualifiedIDRegexp = regexp.MustCompile("^([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.:-]+)$")
)

// ClusterScope is the namespace component used in IDs of resources
// that are not themselves namespaced.
const ClusterScope = "<cluster>"

// ID uniquely identifies a Kubernetes resource within a set of
// manifests, in the format <namespace>:<kind>/<name>.
type ID struct {
	namespace, kind, name string
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%s/%s", id.namespace, id.kind, id.name)
}

// ParseID constructs an ID from a string representation if possible,
// returning an error value otherwise.
func ParseID(s string) (ID, error) {
	if m := IDRegexp.FindStringSubmatch(s); m != nil {
		return ID{m[1], strings.ToLower(m[2]), m[3]}, nil
	}
	return ID{}, errors.Wrap(ErrInvalidID, "parsing "+s)
}

// MustParseID constructs an ID from a string representation, panicing
// if the format is invalid.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseIDOptionalNamespace constructs an ID from either a fully
// qualified string representation, or an unqualified kind/name
// representation and the supplied namespace.
func ParseIDOptionalNamespace(namespace, s string) (ID, error) {
	if m := IDRegexp.FindStringSubmatch(s); m != nil {
		return ID{m[1], strings.ToLower(m[2]), m[3]}, nil
	}
	if m := UnqualifiedIDRegexp.FindStringSubmatch(s); m != nil {
		return ID{namespace, strings.ToLower(m[1]), m[2]}, nil
	}
	return ID{}, errors.Wrap(ErrInvalidID, "parsing "+s)
}

// MakeID constructs an ID from constituent components.
func MakeID(namespace, kind, name string) ID {
	if namespace == "" {
		namespace = ClusterScope
	}
	return ID{namespace, strings.ToLower(kind), name}
}

// Components returns the constituent components of an ID.
func (id ID) Components() (namespace, kind, name string) {
	return id.namespace, id.kind, id.name
}

// MarshalJSON encodes an ID as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes an ID from a JSON string.
func (id *ID) UnmarshalJSON(data []byte) (err error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*id = ID{}
		return nil
	}
	*id, err = ParseID(str)
	return err
}

