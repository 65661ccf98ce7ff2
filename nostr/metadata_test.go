package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataEvent_RoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	profile := Profile{Name: "alice", About: "testing", Extra: map[string]string{"lud16": "alice@example.com"}}
	event, err := BuildMetadataEvent(profile, kp.Secret, nil)
	require.NoError(t, err)
	require.Equal(t, KindMetadata, event.Kind)
	require.True(t, event.Verify())

	parsed, err := ParseMetadataEvent(event)
	require.NoError(t, err)
	require.Equal(t, "alice", parsed.Name)
	require.Equal(t, "testing", parsed.About)
	require.Equal(t, "alice@example.com", parsed.Extra["lud16"])
}

func TestParseMetadataEvent_RejectsWrongKind(t *testing.T) {
	_, err := ParseMetadataEvent(Event{Kind: KindTextNote, Content: "{}"})
	require.ErrorIs(t, err, ErrInvalidEvent)
}
