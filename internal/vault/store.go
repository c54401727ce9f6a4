// Package vault saves and loads single encrypted note records.
//
// A save derives key material from the password, encrypts the serialized note,
// authenticates the ciphertext and writes the encoded record in one atomic
// write. A load reverses the steps and refuses to decrypt anything whose tag
// does not verify.
package vault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TheMichaelB/notevault/internal/crypto"
	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/models"
	"github.com/TheMichaelB/notevault/internal/record"
	"github.com/TheMichaelB/notevault/internal/storage"
)

// Format selects the record layout written by Save. Load accepts both.
type Format int

const (
	// FormatSalted writes a fresh random salt into every record.
	FormatSalted Format = iota
	// FormatLegacy writes records keyed with the fixed salt.
	FormatLegacy
)

func (f Format) String() string {
	switch f {
	case FormatSalted:
		return "salted"
	case FormatLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a configuration value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "salted":
		return FormatSalted, nil
	case "legacy":
		return FormatLegacy, nil
	default:
		return 0, fmt.Errorf("unknown record format: %q", s)
	}
}

// Store reads and writes vault records through a BlobStore.
// It holds no key material between calls and does no locking; concurrent
// saves to one location resolve as last writer wins.
type Store struct {
	blobs  storage.BlobStore
	crypto crypto.Provider
	logger *events.Logger

	format Format
	mode   os.FileMode
}

// Option configures a Store.
type Option func(*Store)

// WithFormat sets the layout used by Save.
func WithFormat(f Format) Option {
	return func(s *Store) {
		s.format = f
	}
}

// WithFileMode sets the permission of written records.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// NewStore creates a vault store.
func NewStore(blobs storage.BlobStore, provider crypto.Provider, logger *events.Logger, opts ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		crypto: provider,
		logger: logger.WithField("component", "vault_store"),
		format: FormatSalted,
		mode:   storage.RecordMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Format returns the layout used by Save.
func (s *Store) Format() Format {
	return s.format
}

// Save encrypts note under password and writes the record to location,
// replacing any previous record there.
func (s *Store) Save(password string, note models.Note, location string) error {
	const op = "save"
	logger := s.logger.WithFields(map[string]interface{}{
		"op":       op,
		"location": location,
		"format":   s.format.String(),
	})
	logger.Debug("Saving note")

	var salt []byte
	if s.format == FormatSalted {
		var err error
		if salt, err = crypto.NewSalt(); err != nil {
			return s.fail(logger, models.KindKeyDerivation, op, location, err)
		}
	}

	keys, err := s.crypto.DeriveKeys(password, salt)
	if err != nil {
		return s.fail(logger, models.KindKeyDerivation, op, location, err)
	}
	defer keys.Zero()

	plaintext, err := json.Marshal(note)
	if err != nil {
		return s.fail(logger, models.KindFormat, op, location, fmt.Errorf("serialize note: %w", err))
	}
	defer crypto.Zero(plaintext)

	iv, ciphertext, err := s.crypto.Encrypt(keys.EncryptionKey, plaintext)
	if err != nil {
		// Encryption only fails when the key or entropy source is unusable.
		return s.fail(logger, models.KindKeyDerivation, op, location, err)
	}

	data, err := record.Encode(record.Record{
		Salt:       salt,
		Tag:        s.crypto.Tag(keys.AuthenticationKey, ciphertext),
		IV:         iv,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return s.fail(logger, models.KindFormat, op, location, err)
	}

	if err := s.blobs.Write(location, data, s.mode); err != nil {
		return s.fail(logger, models.KindIO, op, location, err)
	}

	logger.WithField("size", len(data)).Debug("Note saved")
	return nil
}

// Load reads the record at location and returns the note it holds.
// A record that fails authentication yields models.ErrTamperedRecord and is
// never decrypted.
func (s *Store) Load(password, location string) (models.Note, error) {
	const op = "load"
	logger := s.logger.WithFields(map[string]interface{}{
		"op":       op,
		"location": location,
	})
	logger.Debug("Loading note")

	data, err := s.blobs.Read(location)
	if err != nil {
		return models.Note{}, s.fail(logger, models.KindIO, op, location, err)
	}

	rec, err := record.Decode(data)
	if err != nil {
		return models.Note{}, s.fail(logger, models.KindFormat, op, location, err)
	}

	// A nil salt selects the legacy salt.
	keys, err := s.crypto.DeriveKeys(password, rec.Salt)
	if err != nil {
		return models.Note{}, s.fail(logger, models.KindKeyDerivation, op, location, err)
	}
	defer keys.Zero()

	if !s.crypto.Verify(rec.Tag, keys.AuthenticationKey, rec.Ciphertext) {
		return models.Note{}, s.fail(logger, models.KindTampered, op, location, nil)
	}

	plaintext, err := s.crypto.Decrypt(keys.EncryptionKey, rec.IV, rec.Ciphertext)
	if err != nil {
		return models.Note{}, s.fail(logger, models.KindDecryption, op, location, err)
	}
	defer crypto.Zero(plaintext)

	note, err := decodeNote(plaintext)
	if err != nil {
		return models.Note{}, s.fail(logger, models.KindDecryption, op, location, err)
	}

	logger.WithField("salted", rec.Salted()).Debug("Note loaded")
	return note, nil
}

func decodeNote(payload []byte) (models.Note, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var note models.Note
	if err := dec.Decode(&note); err != nil {
		return models.Note{}, fmt.Errorf("deserialize note: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.Note{}, fmt.Errorf("deserialize note: trailing data")
	}

	return note, nil
}

func (s *Store) fail(logger *events.Logger, kind models.ErrorKind, op, location string, err error) error {
	entry := logger.WithField("kind", kind.Code())
	switch kind {
	case models.KindTampered:
		entry.Warn("Record failed authentication")
	case models.KindIO:
		entry.WithError(err).Warn("Record storage failed")
	case models.KindKeyDerivation, models.KindDecryption, models.KindFormat:
		entry.WithError(err).Error("Vault operation failed")
	}
	return models.NewVaultError(kind, op, location, err)
}
