package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ProgramKeyOpts are the inputs that determine a generated program.
type ProgramKeyOpts struct {
	Text       string `json:"text"`
	FontDigest string `json:"font"`
	Config     []byte `json:"config"`
	Seed       uint64 `json:"seed"`
	Date       string `json:"date"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ProgramKey returns the key of a generated program.
	ProgramKey(opts ProgramKeyOpts) string
	// PreviewKey returns the key of a preview of the program stored under
	// programKey.
	PreviewKey(programKey, format string) string
	// IDKey returns the key that maps a public program ID to its program key.
	IDKey(id string) string
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ProgramKey hashes every field of opts.
func (DefaultKeyer) ProgramKey(opts ProgramKeyOpts) string {
	data, _ := json.Marshal(opts)
	return "program:" + Hash(data)
}

// PreviewKey derives a preview key from the program key.
func (DefaultKeyer) PreviewKey(programKey, format string) string {
	return fmt.Sprintf("preview:%s:%s", format, Hash([]byte(programKey)))
}

// IDKey returns "id:<id>".
func (DefaultKeyer) IDKey(id string) string {
	return "id:" + id
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
