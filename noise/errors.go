package noise

import "errors"

// Protocol-violation errors: the peer sent something unusable. The
// session must be torn down; there is no retry.
var (
	ErrInvalidMessage       = errors.New("noise: invalid message")
	ErrInvalidCiphertext    = errors.New("noise: invalid ciphertext")
	ErrInvalidPublicKey     = errors.New("noise: invalid public key")
	ErrAuthenticationFailed = errors.New("noise: authentication failure")
)

// State-misuse errors: caller bug, surfaced rather than panicked.
var (
	ErrHandshakeComplete    = errors.New("noise: handshake already complete")
	ErrHandshakeNotComplete = errors.New("noise: handshake not complete")
	ErrUninitializedCipher  = errors.New("noise: cipher state not initialized")
	ErrMissingKeys          = errors.New("noise: missing required keys")
	ErrMissingLocalStatic   = errors.New("noise: missing local static key")
	ErrSessionClosed        = errors.New("noise: session closed")
	ErrSessionNotEstablished = errors.New("noise: session not established")
)

// Resource-exhaustion error: the only valid recovery is a new session.
var ErrNonceExceeded = errors.New("noise: nonce counter exceeded")

// Replay/ordering error: dropped silently at the transport layer by
// callers; the session itself is not torn down for this one.
var ErrReplayDetected = errors.New("noise: replay detected")
