package resource

import (
	"bytes"
	"fmt"
)

// AppendManifestToBuffer concatenates manifest bytes to a (possibly
// empty) buffer of manifest bytes, separated so that the result is
// parsable by ParseMultidoc.
func AppendManifestToBuffer(manifest []byte, buffer *bytes.Buffer) error {
	separator := "---\n"
	bytes := buffer.Bytes()
	if len(bytes) > 0 && bytes[len(bytes)-1] != '\n' {
		separator = "\n---\n"
	}
	if _, err := buffer.WriteString(separator); err != nil {
		return fmt.Errorf("cannot write to internal buffer: %s", err)
	}
	if _, err := buffer.Write(manifest); err != nil {
		return fmt.Errorf("cannot write to internal buffer: %s", err)
	}
	return nil
}

// MarshalSet serialises a manifest set as multidoc YAML, sorted by
// resource ID.
func (s Set) MarshalSet() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for _, id := range s.IDs() {
		data, err := s[id].Bytes()
		if err != nil {
			return nil, fmt.Errorf("cannot serialise resource %s: %s", id, err)
		}
		if err := AppendManifestToBuffer(data, buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
