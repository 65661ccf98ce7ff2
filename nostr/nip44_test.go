package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNIP44_EncryptDecrypt_RoundTrip(t *testing.T) {
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)

	ct, err := EncryptNIP44("hello nip-44", recipient.Public, sender.Secret)
	require.NoError(t, err)
	require.Contains(t, ct, "v2:")

	pt, err := DecryptNIP44(ct, sender.Public, recipient.Secret)
	require.NoError(t, err)
	require.Equal(t, "hello nip-44", pt)
}

func TestNIP44_Decrypt_RejectsShortCiphertext(t *testing.T) {
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)
	_, err = DecryptNIP44("v2:AAAA", recipient.Public, recipient.Secret)
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNIP44_Decrypt_RejectsUnknownVersion(t *testing.T) {
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)
	_, err = DecryptNIP44("v1:whatever", recipient.Public, recipient.Secret)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestNIP44_Decrypt_WrongKeyFails(t *testing.T) {
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)
	stranger, err := GenerateKeyPair()
	require.NoError(t, err)

	ct, err := EncryptNIP44("secret", recipient.Public, sender.Secret)
	require.NoError(t, err)

	_, err = DecryptNIP44(ct, sender.Public, stranger.Secret)
	require.Error(t, err)
}
