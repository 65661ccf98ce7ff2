package nostr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNIP04_EncryptDecrypt_RoundTrip(t *testing.T) {
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)

	ct, err := EncryptNIP04("legacy message", recipient.Public, sender.Secret)
	require.NoError(t, err)
	require.Contains(t, ct, nip04IVMarker)

	pt, err := DecryptNIP04(ct, sender.Public, recipient.Secret)
	require.NoError(t, err)
	require.Equal(t, "legacy message", pt)
}

func TestNIP04_Decrypt_AcceptsSwappedFieldOrder(t *testing.T) {
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)

	ct, err := EncryptNIP04("swap me", recipient.Public, sender.Secret)
	require.NoError(t, err)

	parts := strings.SplitN(ct, nip04IVMarker, 2)
	require.Len(t, parts, 2)
	swapped := parts[1] + nip04IVMarker + parts[0]

	pt, err := DecryptNIP04(swapped, sender.Public, recipient.Secret)
	require.NoError(t, err)
	require.Equal(t, "swap me", pt)
}

func TestNIP04_Decrypt_RequiresIVField(t *testing.T) {
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)
	_, err = DecryptNIP04("bm90aGluZw==", recipient.Public, recipient.Secret)
	require.ErrorIs(t, err, ErrMissingIVField)
}
