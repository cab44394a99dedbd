package generate

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/kombineproject/kombine/pkg/resource"
)

// hashLength is the number of hex characters appended to generated
// resource names.
const hashLength = 10

// Hash computes the content hash suffix for a generated manifest:
// the leading hex of the SHA-256 over its canonical JSON encoding.
// JSON map keys are sorted, so the hash does not depend on the order
// data was declared in.
func Hash(m *resource.Manifest) (string, error) {
	data, err := m.JSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:hashLength], nil
}
