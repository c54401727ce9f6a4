package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies vault failures. The set is closed.
type ErrorKind int

const (
	KindKeyDerivation ErrorKind = iota + 1
	KindDecryption
	KindTampered
	KindFormat
	KindIO
)

// Error codes for structured error handling.
const (
	ErrCodeKeyDerivation = "KEY_DERIVATION_ERROR"
	ErrCodeDecryption    = "DECRYPTION_ERROR"
	ErrCodeTampered      = "TAMPERED_RECORD"
	ErrCodeFormat        = "FORMAT_ERROR"
	ErrCodeIO            = "IO_ERROR"
)

// Sentinel errors
var (
	ErrKeyDerivation  = errors.New("key derivation failed")
	ErrDecryption     = errors.New("decryption failed")
	ErrTamperedRecord = errors.New("access denied")
	ErrFormat         = errors.New("malformed vault record")
	ErrIO             = errors.New("vault storage error")
)

// Code returns the stable error code for the kind.
func (k ErrorKind) Code() string {
	switch k {
	case KindKeyDerivation:
		return ErrCodeKeyDerivation
	case KindDecryption:
		return ErrCodeDecryption
	case KindTampered:
		return ErrCodeTampered
	case KindFormat:
		return ErrCodeFormat
	case KindIO:
		return ErrCodeIO
	default:
		return "UNKNOWN"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindKeyDerivation:
		return ErrKeyDerivation
	case KindDecryption:
		return ErrDecryption
	case KindTampered:
		return ErrTamperedRecord
	case KindFormat:
		return ErrFormat
	case KindIO:
		return ErrIO
	default:
		return nil
	}
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// VaultError describes a failed save or load of a single vault record.
type VaultError struct {
	Kind     ErrorKind
	Op       string // "save" or "load"
	Location string
	Err      error
}

func (e *VaultError) Error() string {
	// A tampered record reports nothing beyond the denial.
	if e.Kind == KindTampered || e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Location, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Location, e.Kind, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// Is reports a match against the sentinel of the error's kind.
func (e *VaultError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewVaultError wraps err under the given kind.
func NewVaultError(kind ErrorKind, op, location string, err error) *VaultError {
	return &VaultError{Kind: kind, Op: op, Location: location, Err: err}
}

// KindOf extracts the kind from err. It returns 0 when err carries no kind.
func KindOf(err error) ErrorKind {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	for _, k := range []ErrorKind{KindKeyDerivation, KindDecryption, KindTampered, KindFormat, KindIO} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return 0
}
