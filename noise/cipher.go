package noise

import (
	"encoding/binary"

	flynnnoise "github.com/flynn/noise"
)

// maxNonce is the largest send counter this implementation will use
// (2^32 - 1); encrypt fails rather than wrap the counter.
const maxNonce = (1 << 32) - 1

// replayWindowSize is the width, in bits, of the sliding replay window.
const replayWindowSize = 1024
const replayWindowBytes = replayWindowSize / 8

// NonceMode selects how the 12-byte AEAD nonce is derived from the
// cipher's internal counter on decrypt.
type NonceMode int

const (
	// NonceCounterSynchronous uses the cipher's own running counter as
	// the nonce; the peers' counters must already be in lock-step
	// (this is how the handshake phase itself operates).
	NonceCounterSynchronous NonceMode = iota
	// NonceExtracted reads a big-endian uint32 nonce prefix from the
	// first 4 bytes of the ciphertext on the wire and tracks it with
	// the sliding replay window instead of a single counter.
	NonceExtracted
)

// CipherState is the AEAD half of the Noise symmetric state: a
// ChaCha20-Poly1305 key, a monotonic send counter, and (in extracted-nonce
// mode) a 1024-bit sliding replay window.
//
// A CipherState is not safe for concurrent use; each transport direction
// of a session owns exactly one.
type CipherState struct {
	aead   flynnnoise.Cipher
	hasKey bool

	sendCounter uint64

	mode            NonceMode
	highestReceived uint64
	haveReceived    bool
	replayWindow    [replayWindowBytes]byte
}

// NewCipherState constructs an uninitialized cipher state using the given
// nonce mode for decrypt.
func NewCipherState(mode NonceMode) *CipherState {
	return &CipherState{mode: mode}
}

// HasKey reports whether the cipher has been initialized with a key.
func (c *CipherState) HasKey() bool { return c.hasKey }

// InitializeKey sets the cipher's key and resets its send counter. The
// replay window is left untouched (construction already zeroed it).
func (c *CipherState) InitializeKey(key [32]byte) error {
	c.aead = flynnnoise.CipherChaChaPoly.Cipher(key)
	c.hasKey = true
	c.sendCounter = 0
	return nil
}

// Encrypt seals plaintext under the current send counter and increments
// it. It fails with ErrNonceExceeded once the counter would exceed
// 2^32-1, and with ErrUninitializedCipher if no key has been set.
func (c *CipherState) Encrypt(plaintext, ad []byte) ([]byte, error) {
	if !c.hasKey {
		return nil, ErrUninitializedCipher
	}
	if c.sendCounter > maxNonce {
		return nil, ErrNonceExceeded
	}
	ct := c.aead.Encrypt(nil, c.sendCounter, ad, plaintext)
	c.sendCounter++
	return ct, nil
}

// Decrypt opens ciphertext according to the cipher's configured
// NonceMode, applying the replay window when in extracted-nonce mode.
func (c *CipherState) Decrypt(ciphertext, ad []byte) ([]byte, error) {
	if !c.hasKey {
		return nil, ErrUninitializedCipher
	}

	switch c.mode {
	case NonceExtracted:
		if len(ciphertext) < 4 {
			return nil, ErrInvalidCiphertext
		}
		prefix := binary.BigEndian.Uint32(ciphertext[:4])
		received := uint64(prefix)

		if err := c.checkReplay(received); err != nil {
			return nil, err
		}

		pt, err := c.aead.Decrypt(nil, received, ad, ciphertext[4:])
		if err != nil {
			return nil, ErrInvalidCiphertext
		}
		c.markReceived(received)
		return pt, nil

	default: // NonceCounterSynchronous
		pt, err := c.aead.Decrypt(nil, c.sendCounter, ad, ciphertext)
		if err != nil {
			return nil, ErrInvalidCiphertext
		}
		c.sendCounter++
		return pt, nil
	}
}

// EncryptWithPrefix seals plaintext and prepends the big-endian 4-byte
// nonce prefix extracted-nonce mode wire framing requires, then increments
// the send counter. Used by the session facade once transport ciphers are
// configured for extracted-nonce mode.
func (c *CipherState) EncryptWithPrefix(plaintext, ad []byte) ([]byte, error) {
	if !c.hasKey {
		return nil, ErrUninitializedCipher
	}
	if c.sendCounter > maxNonce {
		return nil, ErrNonceExceeded
	}
	counter := c.sendCounter
	ct := c.aead.Encrypt(nil, counter, ad, plaintext)
	c.sendCounter++

	out := make([]byte, 4+len(ct))
	binary.BigEndian.PutUint32(out[:4], uint32(counter))
	copy(out[4:], ct)
	return out, nil
}

// checkReplay validates received against the sliding window without
// mutating state (Decrypt only marks it seen after authentication
// succeeds, per spec: the window offset must not be set until the AEAD
// tag has verified).
func (c *CipherState) checkReplay(received uint64) error {
	if !c.haveReceived {
		return nil
	}
	if received > c.highestReceived {
		return nil
	}
	if c.highestReceived-received >= replayWindowSize {
		return ErrReplayDetected
	}
	offset := c.highestReceived - received
	byteIdx := offset / 8
	bitIdx := offset % 8
	if c.replayWindow[byteIdx]&(1<<bitIdx) != 0 {
		return ErrReplayDetected
	}
	return nil
}

// markReceived records a nonce as seen, shifting the window forward when
// received advances the high-water mark.
func (c *CipherState) markReceived(received uint64) {
	if !c.haveReceived {
		c.highestReceived = received
		c.haveReceived = true
		c.setBit(0)
		return
	}

	if received > c.highestReceived {
		shift := received - c.highestReceived
		c.shiftWindow(shift)
		c.highestReceived = received
		c.setBit(0)
		return
	}

	offset := c.highestReceived - received
	c.setBit(offset)
}

func (c *CipherState) setBit(offset uint64) {
	if offset >= replayWindowSize {
		return
	}
	c.replayWindow[offset/8] |= 1 << (offset % 8)
}

func (c *CipherState) shiftWindow(shift uint64) {
	if shift >= replayWindowSize {
		c.replayWindow = [replayWindowBytes]byte{}
		return
	}

	var shifted [replayWindowBytes]byte
	for oldOffset := uint64(0); oldOffset < replayWindowSize-shift; oldOffset++ {
		bit := c.replayWindow[oldOffset/8] & (1 << (oldOffset % 8))
		if bit == 0 {
			continue
		}
		newOffset := oldOffset + shift
		if newOffset >= replayWindowSize {
			continue
		}
		shifted[newOffset/8] |= 1 << (newOffset % 8)
	}
	c.replayWindow = shifted
}

// Clear zeroizes the key, counters, and replay window.
func (c *CipherState) Clear() {
	c.aead = nil
	c.hasKey = false
	c.sendCounter = 0
	c.highestReceived = 0
	c.haveReceived = false
	c.replayWindow = [replayWindowBytes]byte{}
}
