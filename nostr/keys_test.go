package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPairFromSecret_RejectsZero(t *testing.T) {
	var zero [32]byte
	_, err := KeyPairFromSecret(zero)
	require.ErrorIs(t, err, ErrInvalidSecretKey)
}

func TestParsePublicKeyOddY_SharesXWithEvenY(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	even, err := parsePublicKeyEvenY(kp.Public)
	require.NoError(t, err)
	odd, err := parsePublicKeyOddY(kp.Public)
	require.NoError(t, err)

	require.True(t, even.X().Cmp(odd.X()) == 0)
	require.NotEqual(t, even.Y().Bit(0), odd.Y().Bit(0))
}

func TestEcdhXCoordinate_SymmetricBetweenParties(t *testing.T) {
	alice, err := GenerateKeyPair()
	require.NoError(t, err)
	bob, err := GenerateKeyPair()
	require.NoError(t, err)

	alicePriv, err := parsePrivateKey(alice.Secret)
	require.NoError(t, err)
	bobPriv, err := parsePrivateKey(bob.Secret)
	require.NoError(t, err)

	bobPub, err := parsePublicKeyEvenY(bob.Public)
	require.NoError(t, err)
	alicePub, err := parsePublicKeyEvenY(alice.Public)
	require.NoError(t, err)

	sharedFromAlice := ecdhXCoordinate(alicePriv, bobPub)
	sharedFromBob := ecdhXCoordinate(bobPriv, alicePub)
	require.Equal(t, sharedFromAlice, sharedFromBob)
}
