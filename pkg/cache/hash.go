package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// digest hashes parts with a length prefix on each, so that moving bytes
// across a boundary ("default"+"ab" vs "defaulta"+"b") changes the result.
func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of data. FileCache uses it to turn artifact
// keys into file names.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
