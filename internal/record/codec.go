// Package record encodes and decodes the on-disk layout of an encrypted note.
//
// Legacy layout, shared with records written by earlier installations:
//
//	tag (32) || iv (16) || ciphertext
//
// Salted layout, which carries its own key-derivation salt:
//
//	"NVR" || 0x02 || salt (16) || tag (32) || iv (16) || ciphertext
//
// All fields are fixed-width byte strings; there are no multi-byte integers.
package record

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/TheMichaelB/notevault/internal/crypto"
)

const (
	// HeaderSize is the minimum length of a legacy record.
	HeaderSize = crypto.TagSize + crypto.IVSize

	// SaltedVersion is the version byte of the salted layout.
	SaltedVersion = 0x02

	prefixSize = 4

	// SaltedHeaderSize is the minimum length of a salted record.
	SaltedHeaderSize = prefixSize + crypto.SaltSize + HeaderSize
)

var saltedPrefix = []byte{'N', 'V', 'R', SaltedVersion}

// ErrFormat reports a record too short to hold its header.
var ErrFormat = errors.New("malformed record")

// Record is the parsed form of a vault record. Salt is nil for the legacy layout.
type Record struct {
	Salt       []byte
	Tag        []byte
	IV         []byte
	Ciphertext []byte
}

// Salted reports whether the record carries its own salt.
func (r Record) Salted() bool {
	return r.Salt != nil
}

// Encode lays out the record.
func Encode(r Record) ([]byte, error) {
	if len(r.Tag) != crypto.TagSize {
		return nil, fmt.Errorf("%w: tag is %d bytes", ErrFormat, len(r.Tag))
	}
	if len(r.IV) != crypto.IVSize {
		return nil, fmt.Errorf("%w: iv is %d bytes", ErrFormat, len(r.IV))
	}

	size := HeaderSize + len(r.Ciphertext)
	if r.Salted() {
		if len(r.Salt) != crypto.SaltSize {
			return nil, fmt.Errorf("%w: salt is %d bytes", ErrFormat, len(r.Salt))
		}
		size += prefixSize + crypto.SaltSize
	}

	out := make([]byte, 0, size)
	if r.Salted() {
		out = append(out, saltedPrefix...)
		out = append(out, r.Salt...)
	}
	out = append(out, r.Tag...)
	out = append(out, r.IV...)
	out = append(out, r.Ciphertext...)

	return out, nil
}

// Decode parses data. Empty ciphertext is accepted here and rejected by the
// cipher. The returned record shares no memory with data.
func Decode(data []byte) (Record, error) {
	if len(data) >= SaltedHeaderSize && bytes.Equal(data[:prefixSize], saltedPrefix) {
		rest := data[prefixSize:]
		r := split(rest[crypto.SaltSize:])
		r.Salt = clone(rest[:crypto.SaltSize])
		return r, nil
	}

	if len(data) < HeaderSize {
		return Record{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrFormat, len(data), HeaderSize)
	}

	return split(data), nil
}

func split(data []byte) Record {
	return Record{
		Tag:        clone(data[:crypto.TagSize]),
		IV:         clone(data[crypto.TagSize:HeaderSize]),
		Ciphertext: clone(data[HeaderSize:]),
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
