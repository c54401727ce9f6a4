package vault_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/notevault/internal/crypto"
	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/models"
	"github.com/TheMichaelB/notevault/internal/record"
	"github.com/TheMichaelB/notevault/internal/storage"
	"github.com/TheMichaelB/notevault/internal/vault"
)

// testIterations keeps exhaustive tamper tests fast.
const testIterations = 64

func newTestStore(t *testing.T, opts ...vault.Option) (*vault.Store, *storage.MockStore) {
	t.Helper()

	blobs := storage.NewMockStore()
	provider := crypto.NewProvider(crypto.WithIterations(testIterations))
	return vault.NewStore(blobs, provider, events.Discard(), opts...), blobs
}

func assertSameNote(t *testing.T, want, got models.Note) {
	t.Helper()

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Content, got.Content)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at")
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at")
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format vault.Format
		note   models.Note
	}{
		{"salted", vault.FormatSalted, models.NewNote("Groceries", "milk, eggs")},
		{"legacy", vault.FormatLegacy, models.NewNote("Groceries", "milk, eggs")},
		{"empty content", vault.FormatSalted, models.NewNote("", "")},
		{"unicode", vault.FormatSalted, models.NewNote("日記", "naïve café ☕\n\ttabs")},
		{"large content", vault.FormatLegacy, models.NewNote("t", string(bytes.Repeat([]byte("x"), 4096)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, blobs := newTestStore(t, vault.WithFormat(tt.format))

			require.NoError(t, store.Save("correct horse", tt.note, "notes/a.vault"))

			got, err := store.Load("correct horse", "notes/a.vault")
			require.NoError(t, err)
			assertSameNote(t, tt.note, got)

			data, err := blobs.Read("notes/a.vault")
			require.NoError(t, err)
			rec, err := record.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.format == vault.FormatSalted, rec.Salted())
		})
	}
}

func TestConcreteScenario(t *testing.T) {
	blobs := storage.NewMockStore()
	store := vault.NewStore(blobs, crypto.NewProvider(), events.Discard())
	note := models.NewNote("Secret content", "This should be encrypted")

	require.NoError(t, store.Save("abc123", note, "L"))

	data, err := blobs.Read("L")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(data), record.HeaderSize+crypto.IVSize)
	assert.NotContains(t, string(data), "Secret content")
	assert.NotContains(t, string(data), "This should be encrypted")

	got, err := store.Load("abc123", "L")
	require.NoError(t, err)
	assert.Equal(t, "Secret content", got.Title)
	assert.Equal(t, "This should be encrypted", got.Content)

	_, err = store.Load("wrong", "L")
	assert.ErrorIs(t, err, models.ErrTamperedRecord)
	assert.Equal(t, models.KindTampered, models.KindOf(err))
}

func TestTamperDetection(t *testing.T) {
	for _, format := range []vault.Format{vault.FormatSalted, vault.FormatLegacy} {
		t.Run(format.String(), func(t *testing.T) {
			blobs := storage.NewMockStore()
			provider := newSpyProvider()
			store := vault.NewStore(blobs, provider, events.Discard(), vault.WithFormat(format))

			require.NoError(t, store.Save("pw", models.NewNote("title", "some content"), "n.vault"))
			original, err := blobs.Read("n.vault")
			require.NoError(t, err)

			for i := 0; i < len(original)*8; i++ {
				tampered := append([]byte(nil), original...)
				tampered[i/8] ^= 1 << (i % 8)
				require.NoError(t, blobs.Write("n.vault", tampered, storage.RecordMode))

				got, err := store.Load("pw", "n.vault")
				require.ErrorIs(t, err, models.ErrTamperedRecord, "bit %d", i)
				require.Equal(t, models.Note{}, got)
			}

			provider.AssertNotCalled(t, "Decrypt", mock.Anything, mock.Anything)
		})
	}
}

func TestTruncationAndExtension(t *testing.T) {
	store, blobs := newTestStore(t)
	require.NoError(t, store.Save("pw", models.NewNote("title", "content"), "n.vault"))

	original, err := blobs.Read("n.vault")
	require.NoError(t, err)

	blobs.Corrupt("n.vault", func(b []byte) []byte { return b[:len(b)-crypto.IVSize] })
	_, err = store.Load("pw", "n.vault")
	assert.ErrorIs(t, err, models.ErrTamperedRecord)

	require.NoError(t, blobs.Write("n.vault", append(original, 0x00), storage.RecordMode))
	_, err = store.Load("pw", "n.vault")
	assert.ErrorIs(t, err, models.ErrTamperedRecord)
}

func TestWrongPasswordRejected(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save("password1", models.NewNote("t", "secret"), "n.vault"))

	note, err := store.Load("password2", "n.vault")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTamperedRecord)
	assert.Equal(t, models.Note{}, note)

	// The message does not reveal which check failed.
	assert.Equal(t, "load n.vault: access denied", err.Error())
}

func TestFreshIVAndSaltPerSave(t *testing.T) {
	store, blobs := newTestStore(t)
	note := models.NewNote("same", "same")

	require.NoError(t, store.Save("pw", note, "a.vault"))
	require.NoError(t, store.Save("pw", note, "b.vault"))

	a, err := blobs.Read("a.vault")
	require.NoError(t, err)
	b, err := blobs.Read("b.vault")
	require.NoError(t, err)

	recA, err := record.Decode(a)
	require.NoError(t, err)
	recB, err := record.Decode(b)
	require.NoError(t, err)

	assert.NotEqual(t, recA.IV, recB.IV)
	assert.NotEqual(t, recA.Salt, recB.Salt)
	assert.NotEqual(t, recA.Ciphertext, recB.Ciphertext)
}

func TestFormatErrors(t *testing.T) {
	store, blobs := newTestStore(t)

	for _, size := range []int{0, 1, 47} {
		require.NoError(t, blobs.Write("short.vault", make([]byte, size), storage.RecordMode))

		_, err := store.Load("pw", "short.vault")
		assert.ErrorIs(t, err, models.ErrFormat, "size %d", size)
		assert.ErrorIs(t, err, record.ErrFormat)
		assert.Equal(t, models.KindFormat, models.KindOf(err))
	}
}

func TestEmptyCiphertextIsNotFormatError(t *testing.T) {
	store, blobs := newTestStore(t, vault.WithFormat(vault.FormatLegacy))
	provider := crypto.NewProvider(crypto.WithIterations(testIterations))

	keys, err := provider.DeriveKeys("pw", nil)
	require.NoError(t, err)
	defer keys.Zero()

	data, err := record.Encode(record.Record{
		Tag: provider.Tag(keys.AuthenticationKey, nil),
		IV:  make([]byte, crypto.IVSize),
	})
	require.NoError(t, err)
	require.Len(t, data, record.HeaderSize)
	require.NoError(t, blobs.Write("empty.vault", data, storage.RecordMode))

	_, err = store.Load("pw", "empty.vault")
	assert.ErrorIs(t, err, models.ErrDecryption)
}

func TestAuthenticatedGarbageIsDecryptionError(t *testing.T) {
	store, blobs := newTestStore(t, vault.WithFormat(vault.FormatLegacy))
	provider := crypto.NewProvider(crypto.WithIterations(testIterations))

	keys, err := provider.DeriveKeys("pw", nil)
	require.NoError(t, err)
	defer keys.Zero()

	for name, payload := range map[string]string{
		"not json":       "plain text note",
		"unknown fields": `{"id":"x","secret":true}`,
		"trailing data":  `{"id":"x"} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			iv, ct, err := provider.Encrypt(keys.EncryptionKey, []byte(payload))
			require.NoError(t, err)

			data, err := record.Encode(record.Record{Tag: provider.Tag(keys.AuthenticationKey, ct), IV: iv, Ciphertext: ct})
			require.NoError(t, err)
			require.NoError(t, blobs.Write("garbage.vault", data, storage.RecordMode))

			note, err := store.Load("pw", "garbage.vault")
			assert.ErrorIs(t, err, models.ErrDecryption)
			assert.Equal(t, models.Note{}, note)
		})
	}
}

func TestLegacyInterop(t *testing.T) {
	// Records written with the fixed salt and default iterations load with
	// any store, whatever format it writes.
	blobs := storage.NewMockStore()
	legacy := vault.NewStore(blobs, crypto.NewProvider(), events.Discard(), vault.WithFormat(vault.FormatLegacy))
	salted := vault.NewStore(blobs, crypto.NewProvider(), events.Discard())

	note := models.NewNote("old", "written before salts")
	require.NoError(t, legacy.Save("pw", note, "old.vault"))

	data, err := blobs.Read("old.vault")
	require.NoError(t, err)

	keys, err := crypto.DeriveKeys("pw")
	require.NoError(t, err)
	defer keys.Zero()
	assert.True(t, crypto.Verify(data[:crypto.TagSize], keys.AuthenticationKey, data[record.HeaderSize:]))

	got, err := salted.Load("pw", "old.vault")
	require.NoError(t, err)
	assertSameNote(t, note, got)
}

func TestSaveWriteFailure(t *testing.T) {
	blobs := &failingBlobs{MockStore: storage.NewMockStore()}
	blobs.On("Write", "n.vault", mock.Anything, storage.RecordMode).Return(errors.New("disk full"))

	store := vault.NewStore(blobs, crypto.NewProvider(crypto.WithIterations(testIterations)), events.Discard())

	err := store.Save("pw", models.NewNote("t", "c"), "n.vault")
	assert.ErrorIs(t, err, models.ErrIO)
	assert.Contains(t, err.Error(), "disk full")
	blobs.AssertExpectations(t)
}

func TestLoadReadFailure(t *testing.T) {
	blobs := &failingBlobs{MockStore: storage.NewMockStore()}
	blobs.On("Read", "n.vault").Return(nil, os.ErrPermission)

	store := vault.NewStore(blobs, crypto.NewProvider(crypto.WithIterations(testIterations)), events.Discard())

	_, err := store.Load("pw", "n.vault")
	assert.ErrorIs(t, err, models.ErrIO)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load("pw", "missing.vault")
	assert.ErrorIs(t, err, models.ErrIO)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKeyDerivationFailure(t *testing.T) {
	store := vault.NewStore(storage.NewMockStore(), crypto.NewProvider(crypto.WithIterations(0)), events.Discard())

	err := store.Save("pw", models.NewNote("t", "c"), "n.vault")
	assert.ErrorIs(t, err, models.ErrKeyDerivation)
	assert.ErrorIs(t, err, crypto.ErrInvalidIterations)
}

func TestLastWriterWins(t *testing.T) {
	store, _ := newTestStore(t)
	first := models.NewNote("first", "1")
	second := first.WithContent("2")

	require.NoError(t, store.Save("pw", first, "n.vault"))
	require.NoError(t, store.Save("pw", second, "n.vault"))

	got, err := store.Load("pw", "n.vault")
	require.NoError(t, err)
	assert.Equal(t, "2", got.Content)
	assert.Equal(t, first.ID, got.ID)
}

func TestLocalStoreRecordFile(t *testing.T) {
	dir := t.TempDir()
	blobs, err := storage.NewLocalStore(dir, events.Discard())
	require.NoError(t, err)

	store := vault.NewStore(blobs, crypto.NewProvider(crypto.WithIterations(testIterations)), events.Discard())
	note := models.NewNote("disk", "on disk")

	require.NoError(t, store.Save("pw", note, "u/n.vault"))

	got, err := store.Load("pw", "u/n.vault")
	require.NoError(t, err)
	assertSameNote(t, note, got)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    vault.Format
		wantErr bool
	}{
		{"", vault.FormatSalted, false},
		{"salted", vault.FormatSalted, false},
		{"legacy", vault.FormatLegacy, false},
		{"gcm", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := vault.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
