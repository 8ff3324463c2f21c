package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// QueryKey derives a bounded cache key from a free-form query string.
// The query is lowercased and trimmed before hashing so that trivially
// different spellings of the same question share one entry, and the hash
// keeps key memory constant regardless of query length.
func QueryKey(namespace, query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return namespace + ":" + hex.EncodeToString(sum[:16])
}
