package vault_test

import (
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/TheMichaelB/notevault/internal/crypto"
	"github.com/TheMichaelB/notevault/internal/storage"
)

// spyProvider delegates to a real provider and records Decrypt calls.
// A Decrypt without a matching expectation fails the test.
type spyProvider struct {
	mock.Mock
	*crypto.CryptoProvider
}

func newSpyProvider() *spyProvider {
	return &spyProvider{CryptoProvider: crypto.NewProvider(crypto.WithIterations(testIterations))}
}

func (p *spyProvider) Decrypt(encKey, iv, ciphertext []byte) ([]byte, error) {
	p.Called(iv, ciphertext)
	return p.CryptoProvider.Decrypt(encKey, iv, ciphertext)
}

// failingBlobs is an in-memory store whose writes and reads are scripted.
type failingBlobs struct {
	mock.Mock
	*storage.MockStore
}

func (b *failingBlobs) Write(path string, data []byte, mode os.FileMode) error {
	args := b.Called(path, data, mode)
	return args.Error(0)
}

func (b *failingBlobs) Read(path string) ([]byte, error) {
	args := b.Called(path)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}
