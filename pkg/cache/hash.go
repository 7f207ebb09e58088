package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey returns "prefix:<sha256>" over the JSON encoding of parts. Struct
// fields encode in declaration order and maps with sorted keys, so the key
// is stable across processes.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	// parts are strings and option structs, which always encode
	_ = json.NewEncoder(h).Encode(parts)
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
