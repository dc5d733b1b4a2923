package session

import "crypto/sha256"

// deriveKeys turns a configured secret of any length into a 32-byte hash key and a 32-byte AES-256 block key.
func deriveKeys(secret string) [][]byte {
	hash := sha256.Sum256([]byte("hash:" + secret))
	block := sha256.Sum256([]byte("block:" + secret))
	return [][]byte{hash[:], block[:]}
}
