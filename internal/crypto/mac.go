package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// TagSize is the HMAC-SHA256 output length.
const TagSize = sha256.Size

// Tag computes HMAC-SHA256 over the ciphertext only.
func Tag(authKey, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, authKey)
	h.Write(ciphertext)
	return h.Sum(nil)
}

// Verify recomputes the tag and compares it in constant time.
func Verify(tag, authKey, ciphertext []byte) bool {
	return hmac.Equal(tag, Tag(authKey, ciphertext))
}
