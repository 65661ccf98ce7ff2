package keystore

import "errors"

var (
	ErrEmptyPassphrase  = errors.New("keystore: passphrase cannot be empty")
	ErrSlotNotFound     = errors.New("keystore: slot not found")
	ErrCorruptSlot      = errors.New("keystore: slot data corrupt or wrong passphrase")
	ErrUnsupportedForm  = errors.New("keystore: unsupported encryption format version")
	ErrInvalidNsec      = errors.New("keystore: invalid nsec encoding")
	ErrInvalidExportDoc = errors.New("keystore: invalid export document")
)
