// Package noise implements the Noise Protocol Framework subset this
// module needs: the XX, IK, and NK handshake patterns over Curve25519,
// ChaCha20-Poly1305, and SHA-256, plus a replay-guarded AEAD transport
// layer on top of the resulting session keys.
//
// # Handshake
//
// A HandshakeState drives WriteMessage/ReadMessage through a pattern's
// message sequence; once complete, GetTransportKeys yields two
// CipherStates. Most callers want the higher-level Session facade instead,
// which wraps the handshake and auto-installs the transport ciphers.
//
//	s, _ := noise.NewSession(noise.Config{Role: noise.Initiator, Pattern: noise.PatternXX, ...})
//	msg, _ := s.WriteHandshakeMessage(nil)
//	// ... send msg, receive reply ...
//	_, _ = s.ReadHandshakeMessage(reply)
//	ct, _ := s.Encrypt([]byte("hello"))
package noise

// SessionStatus is the lifecycle state of a Session.
type SessionStatus int

const (
	StatusHandshaking SessionStatus = iota
	StatusEstablished
	StatusClosed
)

// Session wraps a HandshakeState during setup and the two resulting
// transport CipherStates afterward, exposing a single object that moves
// handshaking -> established -> closed.
//
// Not safe for concurrent use.
type Session struct {
	status SessionStatus

	handshake *HandshakeState
	send      *CipherState
	recv      *CipherState

	handshakeHash [32]byte
}

// NewSession constructs a Session in the handshaking state.
func NewSession(cfg Config) (*Session, error) {
	hs, err := NewHandshakeState(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{status: StatusHandshaking, handshake: hs}, nil
}

// WriteHandshakeMessage forwards to the underlying HandshakeState and
// auto-finalizes the session (installing transport ciphers and capturing
// the handshake hash) the moment the pattern completes.
func (s *Session) WriteHandshakeMessage(payload []byte) ([]byte, error) {
	if s.status != StatusHandshaking {
		return nil, ErrHandshakeComplete
	}
	msg, err := s.handshake.WriteMessage(payload)
	if err != nil {
		return nil, err
	}
	s.finalizeIfComplete()
	return msg, nil
}

// ReadHandshakeMessage forwards to the underlying HandshakeState and
// auto-finalizes the session on completion, same as WriteHandshakeMessage.
func (s *Session) ReadHandshakeMessage(message []byte) ([]byte, error) {
	if s.status != StatusHandshaking {
		return nil, ErrHandshakeComplete
	}
	payload, err := s.handshake.ReadMessage(message)
	if err != nil {
		return nil, err
	}
	s.finalizeIfComplete()
	return payload, nil
}

func (s *Session) finalizeIfComplete() {
	if !s.handshake.IsComplete() {
		return
	}
	send, recv, hash, err := s.handshake.GetTransportKeys()
	if err != nil {
		return
	}
	s.send = send
	s.recv = recv
	s.handshakeHash = hash
	s.status = StatusEstablished
	s.handshake = nil
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() SessionStatus { return s.status }

// HandshakeHash returns the channel-binding handshake hash, valid only
// once the session is established.
func (s *Session) HandshakeHash() ([32]byte, error) {
	if s.status != StatusEstablished {
		return [32]byte{}, ErrSessionNotEstablished
	}
	return s.handshakeHash, nil
}

// Encrypt seals plaintext with the send-direction transport cipher.
// Only valid once the session is established.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	if s.status != StatusEstablished {
		return nil, ErrSessionNotEstablished
	}
	if s.send.mode == NonceExtracted {
		return s.send.EncryptWithPrefix(plaintext, nil)
	}
	return s.send.Encrypt(plaintext, nil)
}

// Decrypt opens ciphertext with the receive-direction transport cipher.
// Only valid once the session is established.
func (s *Session) Decrypt(ciphertext []byte) ([]byte, error) {
	if s.status != StatusEstablished {
		return nil, ErrSessionNotEstablished
	}
	return s.recv.Decrypt(ciphertext, nil)
}

// Close zeroizes all session material and transitions to closed. Safe to
// call more than once.
func (s *Session) Close() {
	if s.status == StatusClosed {
		return
	}
	if s.send != nil {
		s.send.Clear()
	}
	if s.recv != nil {
		s.recv.Clear()
	}
	s.handshakeHash = [32]byte{}
	s.handshake = nil
	s.status = StatusClosed
}
