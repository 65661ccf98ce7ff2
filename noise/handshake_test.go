package noise

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func genStatic(t *testing.T) [32]byte {
	t.Helper()
	kp, err := generateKeyPair()
	require.NoError(t, err)
	return kp.private
}

func TestHandshake_XX_Smoke(t *testing.T) {
	aStatic := genStatic(t)
	bStatic := genStatic(t)

	initiator, err := NewSession(Config{
		Role:               Initiator,
		Pattern:            PatternXX,
		LocalStaticPrivate: &aStatic,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	responder, err := NewSession(Config{
		Role:               Responder,
		Pattern:            PatternXX,
		LocalStaticPrivate: &bStatic,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	// -> e
	msg1, err := initiator.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = responder.ReadHandshakeMessage(msg1)
	require.NoError(t, err)

	// <- e, ee, s, es
	msg2, err := responder.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = initiator.ReadHandshakeMessage(msg2)
	require.NoError(t, err)

	// -> s, se
	msg3, err := initiator.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = responder.ReadHandshakeMessage(msg3)
	require.NoError(t, err)

	require.Equal(t, StatusEstablished, initiator.Status())
	require.Equal(t, StatusEstablished, responder.Status())

	ih, err := initiator.HandshakeHash()
	require.NoError(t, err)
	rh, err := responder.HandshakeHash()
	require.NoError(t, err)
	require.Equal(t, ih, rh)

	ct, err := initiator.Encrypt([]byte("hello"))
	require.NoError(t, err)
	pt, err := responder.Decrypt(ct)
	require.NoError(t, err)
	require.Equal(t, "hello", string(pt))

	ct2, err := responder.Encrypt([]byte("world"))
	require.NoError(t, err)
	pt2, err := initiator.Decrypt(ct2)
	require.NoError(t, err)
	require.Equal(t, "world", string(pt2))
}

func TestHandshake_IK_Smoke(t *testing.T) {
	aStatic := genStatic(t)
	bStatic := genStatic(t)
	bPub, err := staticKeyPairFromPrivate(bStatic)
	require.NoError(t, err)

	initiator, err := NewSession(Config{
		Role:               Initiator,
		Pattern:            PatternIK,
		LocalStaticPrivate: &aStatic,
		RemoteStaticPublic: &bPub.public,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	responder, err := NewSession(Config{
		Role:               Responder,
		Pattern:            PatternIK,
		LocalStaticPrivate: &bStatic,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	msg1, err := initiator.WriteHandshakeMessage([]byte("hi"))
	require.NoError(t, err)
	p1, err := responder.ReadHandshakeMessage(msg1)
	require.NoError(t, err)
	require.Equal(t, "hi", string(p1))

	msg2, err := responder.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = initiator.ReadHandshakeMessage(msg2)
	require.NoError(t, err)

	require.Equal(t, StatusEstablished, initiator.Status())
	require.Equal(t, StatusEstablished, responder.Status())
}

func TestHandshake_NK_Smoke(t *testing.T) {
	bStatic := genStatic(t)
	bPub, err := staticKeyPairFromPrivate(bStatic)
	require.NoError(t, err)

	initiator, err := NewSession(Config{
		Role:               Initiator,
		Pattern:            PatternNK,
		RemoteStaticPublic: &bPub.public,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	responder, err := NewSession(Config{
		Role:               Responder,
		Pattern:            PatternNK,
		LocalStaticPrivate: &bStatic,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	msg1, err := initiator.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = responder.ReadHandshakeMessage(msg1)
	require.NoError(t, err)

	msg2, err := responder.WriteHandshakeMessage(nil)
	require.NoError(t, err)
	_, err = initiator.ReadHandshakeMessage(msg2)
	require.NoError(t, err)

	require.Equal(t, StatusEstablished, initiator.Status())
	require.Equal(t, StatusEstablished, responder.Status())
}

func TestHandshake_RejectsLowOrderPoint(t *testing.T) {
	aStatic := genStatic(t)
	bStatic := genStatic(t)

	responder, err := NewSession(Config{
		Role:               Responder,
		Pattern:            PatternXX,
		LocalStaticPrivate: &bStatic,
		NonceMode:          NonceCounterSynchronous,
	})
	require.NoError(t, err)

	_ = aStatic
	badMessage := make([]byte, 32) // all-zero ephemeral: a rejected low-order point
	_, err = responder.ReadHandshakeMessage(badMessage)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestHandshake_MissingLocalStatic(t *testing.T) {
	_, err := NewHandshakeState(Config{
		Role:    Initiator,
		Pattern: PatternXX,
	})
	require.ErrorIs(t, err, ErrMissingLocalStatic)
}
