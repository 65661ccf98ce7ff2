// Package nostr implements the Nostr private-messaging stack this module
// needs: canonical event hashing and BIP-340 Schnorr signing (this file
// and event.go), NIP-44 v2 authenticated encryption, NIP-17 seals, NIP-59
// gift-wraps, and the legacy NIP-04 path.
//
// Identity keys are secp256k1 scalars; the Nostr public key is the
// x-only (BIP-340) encoding of the corresponding point, exactly as
// github.com/btcsuite/btcd/btcec/v2/schnorr represents it.
package nostr

import (
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyPair is a secp256k1 identity: a 32-byte secret scalar and its
// BIP-340 x-only public key.
type KeyPair struct {
	Secret [32]byte
	Public [32]byte
}

// GenerateKeyPair draws a fresh random secp256k1 key pair.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return KeyPair{}, err
	}
	return keyPairFromPrivate(priv), nil
}

// KeyPairFromSecret derives the public key for an existing 32-byte secret
// scalar.
func KeyPairFromSecret(secret [32]byte) (KeyPair, error) {
	priv, pub := btcec.PrivKeyFromBytes(secret[:])
	if isZero(secret) {
		return KeyPair{}, ErrInvalidSecretKey
	}
	_ = pub
	return keyPairFromPrivate(priv), nil
}

func keyPairFromPrivate(priv *btcec.PrivateKey) KeyPair {
	var kp KeyPair
	copy(kp.Secret[:], priv.Serialize())
	copy(kp.Public[:], schnorr.SerializePubKey(priv.PubKey()))
	return kp
}

func isZero(b [32]byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// parsePrivateKey parses a 32-byte secret scalar.
func parsePrivateKey(secret [32]byte) (*btcec.PrivateKey, error) {
	if isZero(secret) {
		return nil, ErrInvalidSecretKey
	}
	priv, _ := btcec.PrivKeyFromBytes(secret[:])
	return priv, nil
}

// parsePublicKeyEvenY parses a 32-byte x-only public key, lifting it to a
// curve point with the conventional even-Y choice.
func parsePublicKeyEvenY(pub [32]byte) (*btcec.PublicKey, error) {
	pk, err := schnorr.ParsePubKey(pub[:])
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pk, nil
}

// parsePublicKeyOddY parses a 32-byte x-only public key, lifting it to the
// curve point with odd Y instead. Used only by NIP-44 decrypt's
// try-both-parities fallback (see nip44.go).
func parsePublicKeyOddY(pub [32]byte) (*btcec.PublicKey, error) {
	// schnorr.ParsePubKey always returns the even-Y point for a given X;
	// negating Y (P -> -P mod p) yields the odd-Y point with the same X.
	pk, err := schnorr.ParsePubKey(pub[:])
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	var j secp256k1.JacobianPoint
	pk.AsJacobian(&j)
	j.Y.Negate(1)
	j.Y.Normalize()
	return btcec.NewPublicKey(&j.X, &j.Y), nil
}

// ecdhXCoordinate performs secp256k1 scalar multiplication priv*pub and
// returns the raw big-endian X coordinate of the resulting point — the
// shared secret NIP-44 and NIP-04 both build their KDF input from. This
// is deliberately not secp256k1.GenerateSharedSecret, which additionally
// hashes the compressed point; NIP-44/04 want the bare coordinate.
func ecdhXCoordinate(priv *btcec.PrivateKey, pub *btcec.PublicKey) [32]byte {
	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)

	var scalar secp256k1.ModNScalar
	scalar.Set(&priv.Key)

	secp256k1.ScalarMultNonConst(&scalar, &point, &result)
	result.ToAffine()

	var out [32]byte
	result.X.PutBytesUnchecked(out[:])
	return out
}

// randomBytes draws n cryptographically secure random bytes.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
