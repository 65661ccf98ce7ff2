package noise

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func establishedPair(t *testing.T, mode NonceMode) (a, b *Session) {
	t.Helper()
	aStatic := genStatic(t)
	bStatic := genStatic(t)

	a, err := NewSession(Config{Role: Initiator, Pattern: PatternXX, LocalStaticPrivate: &aStatic, NonceMode: mode})
	require.NoError(t, err)
	b, err = NewSession(Config{Role: Responder, Pattern: PatternXX, LocalStaticPrivate: &bStatic, NonceMode: mode})
	require.NoError(t, err)

	msg, err := a.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = b.ReadHandshakeMessage(msg)
	require.NoError(t, err)

	msg, err = b.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = a.ReadHandshakeMessage(msg)
	require.NoError(t, err)

	msg, err = a.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = b.ReadHandshakeMessage(msg)
	require.NoError(t, err)

	return a, b
}

func TestSession_EncryptBeforeEstablished(t *testing.T) {
	aStatic := genStatic(t)
	s, err := NewSession(Config{Role: Initiator, Pattern: PatternXX, LocalStaticPrivate: &aStatic, NonceMode: NonceCounterSynchronous})
	require.NoError(t, err)

	_, err = s.Encrypt([]byte("x"))
	require.ErrorIs(t, err, ErrSessionNotEstablished)
}

func TestSession_ReplayRejection_ExtractedNonceMode(t *testing.T) {
	a, b := establishedPair(t, NonceExtracted)

	var records [][]byte
	for i := 0; i < 5; i++ {
		ct, err := a.Encrypt([]byte("msg"))
		require.NoError(t, err)
		records = append(records, ct)
	}

	for _, idx := range []int{0, 1, 2, 3, 4} {
		_, err := b.Decrypt(records[idx])
		require.NoError(t, err)
	}

	_, err := b.Decrypt(records[2])
	require.ErrorIs(t, err, ErrReplayDetected)
}

func TestSession_Close_Idempotent(t *testing.T) {
	a, b := establishedPair(t, NonceCounterSynchronous)
	_ = b

	a.Close()
	require.Equal(t, StatusClosed, a.Status())
	a.Close() // must not panic

	_, err := a.Encrypt([]byte("x"))
	require.ErrorIs(t, err, ErrSessionNotEstablished)
}
