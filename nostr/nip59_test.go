package nostr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrivateMessage_RoundTrip(t *testing.T) {
	// spec scenario 5: createPrivateMessage -> decryptPrivateMessage.
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)

	wrap, err := CreatePrivateMessage("ping", recipient.Public, sender.Secret)
	require.NoError(t, err)
	require.Equal(t, KindGiftWrap, wrap.Kind)
	require.True(t, wrap.Verify())

	// The wrap's outer pubkey must not be the sender's identity.
	require.NotEqual(t, hexEncode(sender.Public[:]), wrap.PubKey)

	msg, err := DecryptPrivateMessage(wrap, recipient.Secret)
	require.NoError(t, err)
	require.Equal(t, "ping", msg.Content)
	require.Equal(t, sender.Public, msg.Sender)
	require.WithinDuration(t, time.Now(), time.Unix(msg.Timestamp, 0), 60*time.Second)
}

func TestPrivateMessage_OuterPubkeyVariesAcrossWraps(t *testing.T) {
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		wrap, err := CreatePrivateMessage("same message", recipient.Public, sender.Secret)
		require.NoError(t, err)
		seen[wrap.PubKey] = true
	}
	require.Len(t, seen, 10)
}

func TestDecryptPrivateMessage_RejectsWrongRecipient(t *testing.T) {
	sender, err := GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)
	stranger, err := GenerateKeyPair()
	require.NoError(t, err)

	wrap, err := CreatePrivateMessage("ping", recipient.Public, sender.Secret)
	require.NoError(t, err)

	_, err = DecryptPrivateMessage(wrap, stranger.Secret)
	require.Error(t, err)
}

func TestDecryptPrivateMessage_RejectsWrongKind(t *testing.T) {
	recipient, err := GenerateKeyPair()
	require.NoError(t, err)
	_, err = DecryptPrivateMessage(Event{Kind: KindTextNote}, recipient.Secret)
	require.ErrorIs(t, err, ErrInvalidEvent)
}
