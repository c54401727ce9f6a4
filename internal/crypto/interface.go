package crypto

// Provider defines the cryptographic operations behind a vault record.
type Provider interface {
	// DeriveKeys turns a password into encryption and authentication keys.
	// A nil salt selects the fixed legacy salt.
	DeriveKeys(password string, salt []byte) (*DerivedKeys, error)

	// Encrypt encrypts plaintext with AES-256-CBC under a fresh random IV.
	Encrypt(encKey, plaintext []byte) (iv, ciphertext []byte, err error)

	// Decrypt reverses Encrypt. Only call it after Verify succeeded.
	Decrypt(encKey, iv, ciphertext []byte) ([]byte, error)

	// Tag computes the HMAC-SHA256 tag over ciphertext.
	Tag(authKey, ciphertext []byte) []byte

	// Verify checks a tag in constant time.
	Verify(tag, authKey, ciphertext []byte) bool
}
