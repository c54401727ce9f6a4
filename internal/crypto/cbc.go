package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
)

// IVSize is the CBC initialization vector length.
const IVSize = aes.BlockSize

// readRandom is swapped in tests that need a failing entropy source.
var readRandom = func(b []byte) (int, error) {
	return io.ReadFull(rand.Reader, b)
}

// Encrypt encrypts plaintext with AES-256-CBC and PKCS#7 padding.
// Every call draws a new IV.
func Encrypt(encKey, plaintext []byte) (iv, ciphertext []byte, err error) {
	if err := ValidateKeySize(encKey); err != nil {
		return nil, nil, err
	}

	iv = make([]byte, IVSize)
	if _, err := readRandom(iv); err != nil {
		return nil, nil, fmt.Errorf("generate iv: %w", err)
	}

	ciphertext, err = encryptCBC(encKey, iv, plaintext)
	if err != nil {
		return nil, nil, err
	}
	return iv, ciphertext, nil
}

func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	padded := pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	Zero(padded)

	return ciphertext, nil
}

// Decrypt decrypts AES-256-CBC ciphertext and strips the padding.
func Decrypt(encKey, iv, ciphertext []byte) ([]byte, error) {
	if err := ValidateKeySize(encKey); err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv is %d bytes", ErrInvalidCiphertext, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCiphertext, len(ciphertext))
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	out, err := unpad(plaintext, aes.BlockSize)
	if err != nil {
		Zero(plaintext)
		return nil, err
	}
	return out, nil
}

// pad applies PKCS#7 padding; a full block is added when the input is aligned.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}

	good := 1
	for _, b := range data[len(data)-n:] {
		good &= subtle.ConstantTimeByteEq(b, byte(n))
	}
	if good != 1 {
		return nil, ErrInvalidPadding
	}

	return data[:len(data)-n], nil
}
