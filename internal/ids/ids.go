// Package ids derives the stable identifiers used across ingestion runs.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	documentNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("regelrag.document"))
	chunkNamespace    = uuid.NewSHA1(uuid.NameSpaceOID, []byte("regelrag.chunk"))
)

// DocumentID returns the identity of a document from its corpus-relative path.
// Separators are normalised so the ID is the same on every platform.
func DocumentID(path string) string {
	key := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
	return uuid.NewSHA1(documentNamespace, []byte(key)).String()
}

// ChunkID returns the identity of the chunk starting at offset in a document.
func ChunkID(documentID string, offset int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+":"+strconv.Itoa(offset))).String()
}

// RunID returns a fresh identifier for an ingestion run.
func RunID() string {
	return uuid.New().String()
}

// ContentHash returns the hex sha256 of raw document bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
