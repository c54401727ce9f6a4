package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the length of each derived key (AES-256, HMAC-SHA256).
	KeySize = 32

	// DerivedSize is the PBKDF2 output length: encryption key || authentication key.
	DerivedSize = 2 * KeySize

	// DefaultIterations is the PBKDF2 iteration count used by stored records.
	DefaultIterations = 100000

	// SaltSize is the length of a per-record random salt.
	SaltSize = 16
)

// legacySalt is shared by every password. Records written in the legacy
// layout can only be opened with keys derived from it.
var legacySalt = []byte{0x21, 0x24, 0x2F}

// Errors
var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidSalt       = errors.New("invalid salt")
	ErrInvalidIterations = errors.New("invalid iteration count")
	ErrInvalidCiphertext = errors.New("invalid ciphertext length")
	ErrInvalidPadding    = errors.New("invalid padding")
)

// DerivedKeys holds the key material for a single save or load. Call Zero
// when the operation ends.
type DerivedKeys struct {
	EncryptionKey     []byte
	AuthenticationKey []byte
}

// Zero overwrites both keys.
func (k *DerivedKeys) Zero() {
	if k == nil {
		return
	}
	Zero(k.EncryptionKey)
	Zero(k.AuthenticationKey)
}

// LegacySalt returns a copy of the fixed salt.
func LegacySalt() []byte {
	salt := make([]byte, len(legacySalt))
	copy(salt, legacySalt)
	return salt
}

// DeriveKeys derives key material from password with the fixed salt and the
// default iteration count.
func DeriveKeys(password string) (*DerivedKeys, error) {
	return deriveKeys(password, legacySalt, DefaultIterations)
}

// DeriveKeysWithSalt derives key material from password and a record salt.
func DeriveKeysWithSalt(password string, salt []byte) (*DerivedKeys, error) {
	return deriveKeys(password, salt, DefaultIterations)
}

func deriveKeys(password string, salt []byte, iterations int) (*DerivedKeys, error) {
	if len(salt) == 0 {
		return nil, ErrInvalidSalt
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIterations, iterations)
	}

	// PBKDF2WithHmacSHA256 feeds the password to HMAC as UTF-8.
	out := pbkdf2.Key([]byte(password), salt, iterations, DerivedSize, sha256.New)
	if len(out) != DerivedSize {
		return nil, fmt.Errorf("derived key has unexpected length %d", len(out))
	}

	return &DerivedKeys{
		EncryptionKey:     out[:KeySize:KeySize],
		AuthenticationKey: out[KeySize:],
	}, nil
}

// NewSalt returns a random per-record salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := readRandom(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// ValidateKeySize checks if the key is the correct size.
func ValidateKeySize(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidKey, KeySize, len(key))
	}
	return nil
}
