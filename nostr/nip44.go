package nostr

import (
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const nip44Info = "nip44-v2"

// EncryptNIP44 encrypts plaintext from sender to recipientPub using NIP-44
// v2: ECDH(recipientPub, senderSecret) -> HKDF-SHA256 -> XChaCha20-Poly1305
// with a fresh 24-byte nonce, framed as "v2:" + base64url(nonce||ct||tag).
func EncryptNIP44(plaintext string, recipientPub [32]byte, senderSecret [32]byte) (string, error) {
	priv, err := parsePrivateKey(senderSecret)
	if err != nil {
		return "", err
	}
	recipient, err := parsePublicKeyEvenY(recipientPub)
	if err != nil {
		return "", err
	}

	key, err := nip44SharedKey(priv, recipient)
	if err != nil {
		return "", err
	}

	nonce, err := randomBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return "", err
	}
	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	payload := append(append([]byte{}, nonce...), sealed...)
	return "v2:" + base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecryptNIP44 reverses EncryptNIP44. senderPub is the counterparty's
// x-only public key; since x-only keys don't carry Y parity, decryption
// tries the conventional even-Y point first and falls back to odd-Y only
// if that AEAD open fails, per spec.md §4.5 and §7 — neither failure is
// surfaced until both parities have been attempted.
func DecryptNIP44(payload string, senderPub [32]byte, recipientSecret [32]byte) (string, error) {
	const prefix = "v2:"
	if len(payload) < len(prefix) || payload[:len(prefix)] != prefix {
		return "", ErrUnsupportedVersion
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload[len(prefix):])
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < chacha20poly1305.NonceSizeX+16 {
		return "", ErrInvalidCiphertext
	}
	nonce := raw[:chacha20poly1305.NonceSizeX]
	ctPlusTag := raw[chacha20poly1305.NonceSizeX:]

	priv, err := parsePrivateKey(recipientSecret)
	if err != nil {
		return "", err
	}

	for _, parse := range []func([32]byte) (*btcec.PublicKey, error){parsePublicKeyEvenY, parsePublicKeyOddY} {
		sender, err := parse(senderPub)
		if err != nil {
			continue
		}
		key, err := nip44SharedKey(priv, sender)
		if err != nil {
			continue
		}
		aead, err := chacha20poly1305.NewX(key[:])
		if err != nil {
			continue
		}
		if pt, err := aead.Open(nil, nonce, ctPlusTag, nil); err == nil {
			return string(pt), nil
		}
	}
	return "", ErrInvalidCiphertext
}

func nip44SharedKey(priv *btcec.PrivateKey, pub *btcec.PublicKey) ([32]byte, error) {
	shared := ecdhXCoordinate(priv, pub)
	reader := hkdf.New(sha256.New, shared[:], nil, []byte(nip44Info))
	var key [32]byte
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		return key, err
	}
	return key, nil
}
