package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildGeohashNote_SignsAndTags(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	note, err := BuildGeohashNote("u4pruydqqvj", "anon", true, "hello geohash", kp.Secret, nil)
	require.NoError(t, err)
	require.Equal(t, KindGeohashNote, note.Kind)
	require.True(t, note.Verify())
	require.Contains(t, note.Tags, []string{"g", "u4pruydqqvj"})
	require.Contains(t, note.Tags, []string{"n", "anon"})
	require.Contains(t, note.Tags, []string{"t", "teleport"})
}

func TestBuildGeohashPresence_EmptyContent(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	presence, err := BuildGeohashPresence("u4pruydqqvj", kp.Secret, nil)
	require.NoError(t, err)
	require.Equal(t, KindGeohashPresence, presence.Kind)
	require.Empty(t, presence.Content)
	require.Equal(t, [][]string{{"g", "u4pruydqqvj"}}, presence.Tags)
	require.True(t, presence.Verify())
}

func TestGeohashChannelKey_DeterministicPerGeohash(t *testing.T) {
	k1 := GeohashChannelKey("u4pruydqqvj")
	k2 := GeohashChannelKey("u4pruydqqvj")
	k3 := GeohashChannelKey("different")

	require.Equal(t, k1, k2)
	require.NotEqual(t, k1, k3)
}
