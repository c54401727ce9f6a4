package crypto_test

import (
	"fmt"

	"github.com/TheMichaelB/notevault/internal/crypto"
)

func ExampleDeriveKeys() {
	keys, err := crypto.DeriveKeys("abc123")
	if err != nil {
		panic(err)
	}
	defer keys.Zero()

	fmt.Printf("Encryption key: %d bytes\n", len(keys.EncryptionKey))
	fmt.Printf("Authentication key: %d bytes\n", len(keys.AuthenticationKey))
	// Output: Encryption key: 32 bytes
	// Authentication key: 32 bytes
}

func ExampleEncrypt() {
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i % 256)
	}

	iv, ciphertext, err := crypto.Encrypt(key, []byte("Secret message"))
	if err != nil {
		panic(err)
	}

	plaintext, err := crypto.Decrypt(key, iv, ciphertext)
	if err != nil {
		panic(err)
	}

	fmt.Printf("IV: %d bytes, ciphertext: %d bytes\n", len(iv), len(ciphertext))
	fmt.Printf("Decrypted: %s\n", plaintext)
	// Output: IV: 16 bytes, ciphertext: 16 bytes
	// Decrypted: Secret message
}

func ExampleVerify() {
	key := make([]byte, crypto.KeySize)
	ciphertext := []byte("ciphertext bytes")

	tag := crypto.Tag(key, ciphertext)
	fmt.Println(crypto.Verify(tag, key, ciphertext))

	ciphertext[0] ^= 1
	fmt.Println(crypto.Verify(tag, key, ciphertext))
	// Output: true
	// false
}
