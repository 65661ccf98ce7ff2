package nostr

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"strings"
)

const nip04IVMarker = "?iv="

// EncryptNIP04 implements the legacy NIP-04 scheme: AES-256-CBC under the
// raw X-coordinate ECDH shared secret, PKCS#7 padded, framed as
// base64(ciphertext) + "?iv=" + base64(iv).
func EncryptNIP04(plaintext string, recipientPub [32]byte, senderSecret [32]byte) (string, error) {
	priv, err := parsePrivateKey(senderSecret)
	if err != nil {
		return "", err
	}
	recipient, err := parsePublicKeyEvenY(recipientPub)
	if err != nil {
		return "", err
	}
	shared := ecdhXCoordinate(priv, recipient)

	block, err := aes.NewCipher(shared[:])
	if err != nil {
		return "", err
	}
	iv, err := randomBytes(aes.BlockSize)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext) + nip04IVMarker + base64.StdEncoding.EncodeToString(iv), nil
}

// DecryptNIP04 reverses EncryptNIP04. Accepts either field order
// (ciphertext then iv, or iv then ciphertext) as long as the "?iv="
// separator is present exactly once, per spec.md §4.5.
func DecryptNIP04(payload string, senderPub [32]byte, recipientSecret [32]byte) (string, error) {
	parts := strings.Split(payload, nip04IVMarker)
	if len(parts) != 2 {
		return "", ErrMissingIVField
	}

	ciphertext, iv, err := resolveNIP04Fields(parts[0], parts[1])
	if err != nil {
		return "", err
	}

	priv, err := parsePrivateKey(recipientSecret)
	if err != nil {
		return "", err
	}
	sender, err := parsePublicKeyEvenY(senderPub)
	if err != nil {
		return "", err
	}
	shared := ecdhXCoordinate(priv, sender)

	block, err := aes.NewCipher(shared[:])
	if err != nil {
		return "", err
	}
	orders := [][2][]byte{{ciphertext, iv}}
	if len(ciphertext) == aes.BlockSize {
		// Both fields are one block long, so their lengths do not tell
		// them apart: the reverse order is tried as well.
		orders = append(orders, [2][]byte{iv, ciphertext})
	}
	for _, o := range orders {
		plaintext := make([]byte, len(o[0]))
		cipher.NewCBCDecrypter(block, o[1]).CryptBlocks(plaintext, o[0])
		if unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize); err == nil {
			return string(unpadded), nil
		}
	}
	return "", ErrInvalidCiphertext
}

// resolveNIP04Fields identifies which of the two "?iv="-separated fields
// is the 16-byte IV and which is the ciphertext, regardless of which one
// the sender wrote first: the IV is exactly one AES block, decoded
// base64; the ciphertext is always a non-empty whole number of blocks.
func resolveNIP04Fields(first, second string) (ciphertext, iv []byte, err error) {
	a, errA := base64.StdEncoding.DecodeString(first)
	b, errB := base64.StdEncoding.DecodeString(second)
	if errA != nil || errB != nil {
		return nil, nil, ErrInvalidCiphertext
	}

	aIsIV := len(a) == aes.BlockSize
	bIsIV := len(b) == aes.BlockSize
	switch {
	case aIsIV && !bIsIV:
		iv, ciphertext = a, b
	case bIsIV && !aIsIV:
		iv, ciphertext = b, a
	case aIsIV && bIsIV:
		// Ambiguous; return the documented order (ciphertext, iv) and
		// let DecryptNIP04 also try the reverse.
		ciphertext, iv = a, b
	default:
		return nil, nil, ErrInvalidCiphertext
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, nil, ErrInvalidCiphertext
	}
	return ciphertext, iv, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidCiphertext
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, ErrInvalidCiphertext
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidCiphertext
		}
	}
	return data[:len(data)-padLen], nil
}
