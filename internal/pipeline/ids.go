package pipeline

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// NewID returns a random identifier suitable for jobs, documents and facts.
func NewID() string {
	return uuid.NewString()
}

// ContentHashHex hashes raw document bytes for dedup and provenance.
func ContentHashHex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
