package crypto

// CryptoProvider implements Provider with the package functions.
type CryptoProvider struct {
	iterations int
}

// Option configures a CryptoProvider.
type Option func(*CryptoProvider)

// WithIterations overrides the PBKDF2 iteration count. Records written with
// a non-default count cannot be opened by other installations.
func WithIterations(n int) Option {
	return func(p *CryptoProvider) {
		p.iterations = n
	}
}

// NewProvider creates a crypto provider.
func NewProvider(opts ...Option) *CryptoProvider {
	p := &CryptoProvider{
		iterations: DefaultIterations,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Iterations returns the configured PBKDF2 iteration count.
func (p *CryptoProvider) Iterations() int {
	return p.iterations
}

// DeriveKeys derives key material. A nil salt selects the legacy salt.
func (p *CryptoProvider) DeriveKeys(password string, salt []byte) (*DerivedKeys, error) {
	if salt == nil {
		salt = legacySalt
	}
	return deriveKeys(password, salt, p.iterations)
}

// Encrypt encrypts plaintext under a fresh IV.
func (p *CryptoProvider) Encrypt(encKey, plaintext []byte) ([]byte, []byte, error) {
	return Encrypt(encKey, plaintext)
}

// Decrypt decrypts ciphertext.
func (p *CryptoProvider) Decrypt(encKey, iv, ciphertext []byte) ([]byte, error) {
	return Decrypt(encKey, iv, ciphertext)
}

// Tag computes the authentication tag.
func (p *CryptoProvider) Tag(authKey, ciphertext []byte) []byte {
	return Tag(authKey, ciphertext)
}

// Verify checks the authentication tag.
func (p *CryptoProvider) Verify(tag, authKey, ciphertext []byte) bool {
	return Verify(tag, authKey, ciphertext)
}

var _ Provider = (*CryptoProvider)(nil)
