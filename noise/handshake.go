package noise

import (
	"crypto/rand"

	flynnnoise "github.com/flynn/noise"
)

// basePoint is the X25519 base point (RFC 7748 §5): u = 9.
var basePoint = [32]byte{9}

// dh25519 is the DHFunc this implementation's handshake token loop calls
// directly, rather than going through flynn/noise's own HandshakeState:
// that higher-level type parses e/s tokens internally with no hook to
// validate a raw public key before it's DH'd, which the low-order-point
// rejection in lowpoint.go needs on every incoming key.
var dh25519 = flynnnoise.DH25519

// Role distinguishes the two handshake participants.
type Role int

const (
	Initiator Role = iota
	Responder
)

// dhKeyPair is an X25519 key pair; both halves are zeroized on Wipe.
type dhKeyPair struct {
	private [32]byte
	public  [32]byte
}

func generateKeyPair() (dhKeyPair, error) {
	key, err := dh25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return dhKeyPair{}, err
	}
	var kp dhKeyPair
	copy(kp.private[:], key.Private)
	copy(kp.public[:], key.Public)
	return kp, nil
}

// GenerateStaticKeyPair draws a fresh X25519 static key pair for use as
// Config.LocalStaticPrivate / the corresponding public key advertised to
// peers out of band.
func GenerateStaticKeyPair() (priv, pub [32]byte, err error) {
	kp, err := generateKeyPair()
	if err != nil {
		return priv, pub, err
	}
	return kp.private, kp.public, nil
}

// StaticPublicKey derives the X25519 public key for an existing static
// private key, e.g. one loaded back out of a keystore.
func StaticPublicKey(priv [32]byte) ([32]byte, error) {
	var pub [32]byte
	kp, err := staticKeyPairFromPrivate(priv)
	if err != nil {
		return pub, err
	}
	return kp.public, nil
}

func (kp *dhKeyPair) wipe() {
	kp.private = [32]byte{}
	kp.public = [32]byte{}
}

func dh(priv, pub [32]byte) ([]byte, error) {
	return dh25519.DH(priv[:], pub[:])
}

// HandshakeState drives one run of a Noise handshake pattern (XX, IK, or
// NK) to completion, producing two transport CipherStates via
// GetTransportKeys.
//
// Not safe for concurrent use.
type HandshakeState struct {
	role    Role
	pattern Pattern
	nonceMode NonceMode

	symmetric *SymmetricState
	patterns  []messagePattern
	msgIndex  int

	localStatic     *dhKeyPair
	localEphemeral  *dhKeyPair
	remoteStatic    *[32]byte
	remoteEphemeral *[32]byte

	complete bool
}

// Config configures a new handshake.
type Config struct {
	Role Role
	Pattern Pattern
	Prologue []byte
	// LocalStaticPrivate is required for XX (from message 2 onward) and
	// for IK/NK's responder/initiator role as dictated by the pattern.
	LocalStaticPrivate *[32]byte
	// RemoteStaticPublic is required for IK/NK initiators.
	RemoteStaticPublic *[32]byte
	// NonceMode configures the transport ciphers returned by
	// GetTransportKeys.
	NonceMode NonceMode
}

// NewHandshakeState constructs a HandshakeState per cfg, mixing the
// prologue and any pre-message static keys into the initial hash.
func NewHandshakeState(cfg Config) (*HandshakeState, error) {
	h := &HandshakeState{
		role:      cfg.Role,
		pattern:   cfg.Pattern,
		nonceMode: cfg.NonceMode,
		symmetric: NewSymmetricState(protocolName(cfg.Pattern), cfg.NonceMode),
		patterns:  messagePatterns(cfg.Pattern),
	}

	if cfg.LocalStaticPrivate != nil {
		kp, err := staticKeyPairFromPrivate(*cfg.LocalStaticPrivate)
		if err != nil {
			return nil, err
		}
		h.localStatic = &kp
	}
	if cfg.RemoteStaticPublic != nil {
		pk := *cfg.RemoteStaticPublic
		h.remoteStatic = &pk
	}

	requiresLocalStatic := cfg.Pattern == PatternXX ||
		(cfg.Pattern == PatternIK) ||
		(cfg.Pattern == PatternNK && cfg.Role == Responder)
	if requiresLocalStatic && h.localStatic == nil {
		return nil, ErrMissingLocalStatic
	}
	if cfg.Pattern != PatternXX {
		needsRemote := (cfg.Pattern == PatternIK || cfg.Pattern == PatternNK) && cfg.Role == Initiator
		if needsRemote && h.remoteStatic == nil {
			return nil, ErrMissingKeys
		}
	}

	h.symmetric.MixHash(cfg.Prologue)

	if hasPreMessageStatic(cfg.Pattern) {
		switch cfg.Role {
		case Initiator:
			h.symmetric.MixHash(h.remoteStatic[:])
		case Responder:
			h.symmetric.MixHash(h.localStatic.public[:])
		}
	}

	return h, nil
}

func staticKeyPairFromPrivate(priv [32]byte) (dhKeyPair, error) {
	pub, err := dh25519.DH(priv[:], basePoint[:])
	if err != nil {
		return dhKeyPair{}, err
	}
	var kp dhKeyPair
	kp.private = priv
	copy(kp.public[:], pub)
	return kp, nil
}

// isMyTurn reports whether the current message index belongs to us.
func (h *HandshakeState) isMyTurn() bool {
	senderIsInitiator := h.msgIndex%2 == 0
	return (h.role == Initiator) == senderIsInitiator
}

// IsComplete reports whether all patterns have been exchanged.
func (h *HandshakeState) IsComplete() bool { return h.complete }

// WriteMessage produces the next handshake message carrying payload.
func (h *HandshakeState) WriteMessage(payload []byte) ([]byte, error) {
	if h.complete {
		return nil, ErrHandshakeComplete
	}
	if h.msgIndex >= len(h.patterns) || !h.isMyTurn() {
		return nil, ErrHandshakeNotComplete
	}

	var out []byte
	for _, tok := range h.patterns[h.msgIndex] {
		switch tok {
		case tokenE:
			kp, err := generateKeyPair()
			if err != nil {
				return nil, err
			}
			h.localEphemeral = &kp
			out = append(out, kp.public[:]...)
			h.symmetric.MixHash(kp.public[:])

		case tokenS:
			if h.localStatic == nil {
				return nil, ErrMissingLocalStatic
			}
			enc, err := h.symmetric.EncryptAndHash(h.localStatic.public[:])
			if err != nil {
				return nil, err
			}
			out = append(out, enc...)

		case tokenEE, tokenES, tokenSE, tokenSS:
			ikm, err := h.dhForToken(tok)
			if err != nil {
				return nil, err
			}
			if err := h.symmetric.MixKey(ikm); err != nil {
				return nil, err
			}
		}
	}

	enc, err := h.symmetric.EncryptAndHash(payload)
	if err != nil {
		return nil, err
	}
	out = append(out, enc...)

	h.msgIndex++
	if h.msgIndex == len(h.patterns) {
		h.complete = true
	}
	return out, nil
}

// ReadMessage consumes a handshake message produced by the peer's
// WriteMessage and returns the authenticated payload.
func (h *HandshakeState) ReadMessage(message []byte) ([]byte, error) {
	if h.complete {
		return nil, ErrHandshakeComplete
	}
	if h.msgIndex >= len(h.patterns) || h.isMyTurn() {
		return nil, ErrHandshakeNotComplete
	}

	buf := message
	for _, tok := range h.patterns[h.msgIndex] {
		switch tok {
		case tokenE:
			if len(buf) < 32 {
				return nil, ErrInvalidMessage
			}
			pk, err := validatePublicKey(buf[:32])
			if err != nil {
				return nil, err
			}
			h.remoteEphemeral = &pk
			h.symmetric.MixHash(pk[:])
			buf = buf[32:]

		case tokenS:
			keyLen := 32
			if h.symmetric.cipher.HasKey() {
				keyLen = 48
			}
			if len(buf) < keyLen {
				return nil, ErrInvalidMessage
			}
			dec, err := h.symmetric.DecryptAndHash(buf[:keyLen])
			if err != nil {
				return nil, err
			}
			pk, err := validatePublicKey(dec)
			if err != nil {
				return nil, err
			}
			h.remoteStatic = &pk
			buf = buf[keyLen:]

		case tokenEE, tokenES, tokenSE, tokenSS:
			ikm, err := h.dhForToken(tok)
			if err != nil {
				return nil, err
			}
			if err := h.symmetric.MixKey(ikm); err != nil {
				return nil, err
			}
		}
	}

	payload, err := h.symmetric.DecryptAndHash(buf)
	if err != nil {
		return nil, err
	}

	h.msgIndex++
	if h.msgIndex == len(h.patterns) {
		h.complete = true
	}
	return payload, nil
}

// dhForToken performs the DH operation a given mixed token requires,
// selecting local/remote ephemeral/static per token semantics and role.
func (h *HandshakeState) dhForToken(tok token) ([]byte, error) {
	var localPriv *[32]byte
	var remotePub *[32]byte

	switch tok {
	case tokenEE:
		if h.localEphemeral == nil || h.remoteEphemeral == nil {
			return nil, ErrMissingKeys
		}
		localPriv, remotePub = &h.localEphemeral.private, h.remoteEphemeral

	case tokenSS:
		if h.localStatic == nil || h.remoteStatic == nil {
			return nil, ErrMissingKeys
		}
		localPriv, remotePub = &h.localStatic.private, h.remoteStatic

	case tokenES:
		// Initiator DHs its ephemeral with the responder's static;
		// responder DHs its static with the initiator's ephemeral.
		if h.role == Initiator {
			if h.localEphemeral == nil || h.remoteStatic == nil {
				return nil, ErrMissingKeys
			}
			localPriv, remotePub = &h.localEphemeral.private, h.remoteStatic
		} else {
			if h.localStatic == nil || h.remoteEphemeral == nil {
				return nil, ErrMissingKeys
			}
			localPriv, remotePub = &h.localStatic.private, h.remoteEphemeral
		}

	case tokenSE:
		// Initiator DHs its static with the responder's ephemeral;
		// responder DHs its ephemeral with the initiator's static.
		if h.role == Initiator {
			if h.localStatic == nil || h.remoteEphemeral == nil {
				return nil, ErrMissingKeys
			}
			localPriv, remotePub = &h.localStatic.private, h.remoteEphemeral
		} else {
			if h.localEphemeral == nil || h.remoteStatic == nil {
				return nil, ErrMissingKeys
			}
			localPriv, remotePub = &h.localEphemeral.private, h.remoteStatic
		}
	}

	return dh(*localPriv, *remotePub)
}

// HandshakeHash returns the current running handshake hash.
func (h *HandshakeState) HandshakeHash() [32]byte {
	return h.symmetric.HandshakeHash()
}

// GetTransportKeys finalizes the handshake, returning the send and
// receive CipherStates for this role. Valid only once IsComplete is true.
func (h *HandshakeState) GetTransportKeys() (send, recv *CipherState, handshakeHash [32]byte, err error) {
	if !h.complete {
		return nil, nil, [32]byte{}, ErrHandshakeNotComplete
	}
	handshakeHash = h.symmetric.HandshakeHash()
	c1, c2 := h.symmetric.Split()
	if h.role == Initiator {
		return c1, c2, handshakeHash, nil
	}
	return c2, c1, handshakeHash, nil
}
