package noise

import (
	"crypto/hmac"
	"io"

	flynnnoise "github.com/flynn/noise"
	"golang.org/x/crypto/hkdf"
)

// hashFunc is the HashFunc this implementation keys its HKDF chain and
// handshake hash with, per "Noise_*_SHA256".
var hashFunc = flynnnoise.HashSHA256

// SymmetricState mixes keys and hashes per the Noise specification: the
// running (chaining_key, hash) pair plus the single CipherState that gets
// keyed as the handshake progresses and eventually Split into the two
// transport ciphers.
type SymmetricState struct {
	chainingKey [32]byte
	hash        [32]byte
	cipher      *CipherState
	mode        NonceMode
}

// NewSymmetricState derives the initial (chaining_key, hash) from a Noise
// protocol name such as "Noise_XX_25519_ChaChaPoly_SHA256". The handshake
// cipher is always counter-synchronous; mode applies to the ciphers Split
// returns.
func NewSymmetricState(protocolName string, mode NonceMode) *SymmetricState {
	s := &SymmetricState{mode: mode, cipher: NewCipherState(NonceCounterSynchronous)}
	name := []byte(protocolName)
	if len(name) <= 32 {
		copy(s.hash[:], name)
	} else {
		h := hashFunc.Hash()
		h.Write(name)
		copy(s.hash[:], h.Sum(nil))
	}
	s.chainingKey = s.hash
	return s
}

// MixHash folds data into the running handshake hash.
func (s *SymmetricState) MixHash(data []byte) {
	h := hashFunc.Hash()
	h.Write(s.hash[:])
	h.Write(data)
	copy(s.hash[:], h.Sum(nil))
}

func (s *SymmetricState) hkdf2(ikm []byte) (out0, out1 [32]byte) {
	out := hkdfExpand(s.chainingKey[:], ikm, 2*32)
	copy(out0[:], out[:32])
	copy(out1[:], out[32:64])
	return
}

func (s *SymmetricState) hkdf3(ikm []byte) (ck, out1, out2 [32]byte) {
	out := hkdfExpand(s.chainingKey[:], ikm, 3*32)
	copy(ck[:], out[:32])
	copy(out1[:], out[32:64])
	copy(out2[:], out[64:96])
	return
}

// hkdfExpand implements the RFC 5869 two-step (extract + expand)
// construction the Noise spec calls out explicitly: HMAC(ck, ikm) seeds an
// HKDF-Expand producing n bytes.
func hkdfExpand(ck, ikm []byte, n int) []byte {
	mac := hmac.New(hashFunc.Hash, ck)
	mac.Write(ikm)
	tempKey := mac.Sum(nil)

	reader := hkdf.Expand(hashFunc.Hash, tempKey, nil)
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		panic(err) // hkdf.Expand only fails if n exceeds 255*hashLen
	}
	return out
}

// MixKey derives a new chaining key and cipher key from ikm (typically a
// DH output) and (re)initializes the cipher state with the new key.
func (s *SymmetricState) MixKey(ikm []byte) error {
	ck, tempK := s.hkdf2(ikm)
	s.chainingKey = ck
	return s.cipher.InitializeKey(tempK)
}

// MixKeyAndHash derives chaining key, hash material, and cipher key from
// ikm, mixing the hash material into the running hash before keying the
// cipher.
func (s *SymmetricState) MixKeyAndHash(ikm []byte) error {
	ck, tempH, tempK := s.hkdf3(ikm)
	s.chainingKey = ck
	s.MixHash(tempH[:])
	return s.cipher.InitializeKey(tempK)
}

// EncryptAndHash encrypts pt (when the cipher is keyed) under ad=hash and
// mixes the ciphertext into the hash; with no key yet it mixes pt itself
// and returns it unchanged.
func (s *SymmetricState) EncryptAndHash(pt []byte) ([]byte, error) {
	if !s.cipher.HasKey() {
		s.MixHash(pt)
		return pt, nil
	}
	ct, err := s.cipher.Encrypt(pt, s.hash[:])
	if err != nil {
		return nil, err
	}
	s.MixHash(ct)
	return ct, nil
}

// DecryptAndHash is the dual of EncryptAndHash: when keyed, it
// authenticates ct against ad=hash then mixes the *ciphertext* (not the
// plaintext) into the hash.
func (s *SymmetricState) DecryptAndHash(ct []byte) ([]byte, error) {
	if !s.cipher.HasKey() {
		s.MixHash(ct)
		return ct, nil
	}
	pt, err := s.cipher.Decrypt(ct, s.hash[:])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	s.MixHash(ct)
	return pt, nil
}

// HandshakeHash returns the current running hash. Valid at any point, but
// only meaningful as "the" handshake hash once the handshake is complete.
func (s *SymmetricState) HandshakeHash() [32]byte { return s.hash }

// Split derives two fresh transport cipher states from the chaining key
// and zeroizes this SymmetricState. Both returned ciphers use the nonce
// mode this state was constructed with.
func (s *SymmetricState) Split() (c1, c2 *CipherState) {
	k1, k2 := s.hkdf2(nil)
	c1 = NewCipherState(s.mode)
	c2 = NewCipherState(s.mode)
	_ = c1.InitializeKey(k1)
	_ = c2.InitializeKey(k2)
	s.zeroize()
	return
}

func (s *SymmetricState) zeroize() {
	s.chainingKey = [32]byte{}
	s.hash = [32]byte{}
	s.cipher.Clear()
}
