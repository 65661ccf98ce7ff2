package nostr

import "errors"

var (
	ErrInvalidCiphertext  = errors.New("nostr: invalid ciphertext")
	ErrInvalidPublicKey   = errors.New("nostr: invalid public key")
	ErrInvalidSecretKey   = errors.New("nostr: invalid secret key")
	ErrInvalidSignature   = errors.New("nostr: invalid signature")
	ErrInvalidEvent       = errors.New("nostr: invalid event")
	ErrUnsupportedVersion = errors.New("nostr: unsupported payload version")
	ErrPlaintextTooLarge  = errors.New("nostr: plaintext exceeds maximum size")
	ErrMissingIVField     = errors.New("nostr: legacy DM content missing iv field")
)
