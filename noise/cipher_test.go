package noise

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherState_EncryptDecrypt_CounterSynchronous(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	sender := NewCipherState(NonceCounterSynchronous)
	require.NoError(t, sender.InitializeKey(key))
	receiver := NewCipherState(NonceCounterSynchronous)
	require.NoError(t, receiver.InitializeKey(key))

	for i := 0; i < 5; i++ {
		ct, err := sender.Encrypt([]byte("hello"), nil)
		require.NoError(t, err)
		pt, err := receiver.Decrypt(ct, nil)
		require.NoError(t, err)
		require.Equal(t, "hello", string(pt))
	}
}

func TestCipherState_NonceExceeded(t *testing.T) {
	var key [32]byte
	c := NewCipherState(NonceCounterSynchronous)
	require.NoError(t, c.InitializeKey(key))
	c.sendCounter = maxNonce

	_, err := c.Encrypt([]byte("x"), nil)
	require.NoError(t, err)

	_, err = c.Encrypt([]byte("x"), nil)
	require.ErrorIs(t, err, ErrNonceExceeded)
}

func TestCipherState_ExtractedNonce_ReplayRejection(t *testing.T) {
	var key [32]byte
	sender := NewCipherState(NonceExtracted)
	require.NoError(t, sender.InitializeKey(key))
	receiver := NewCipherState(NonceExtracted)
	require.NoError(t, receiver.InitializeKey(key))

	var records [][]byte
	for i := 0; i < 5; i++ {
		ct, err := sender.EncryptWithPrefix([]byte("msg"), nil)
		require.NoError(t, err)
		records = append(records, ct)
	}

	for _, idx := range []int{0, 1, 2, 3, 4} {
		_, err := receiver.Decrypt(records[idx], nil)
		require.NoError(t, err)
	}

	_, err := receiver.Decrypt(records[2], nil)
	require.ErrorIs(t, err, ErrReplayDetected)
}

func TestCipherState_ExtractedNonce_OutOfOrderAccept(t *testing.T) {
	var key [32]byte
	sender := NewCipherState(NonceExtracted)
	require.NoError(t, sender.InitializeKey(key))
	receiver := NewCipherState(NonceExtracted)
	require.NoError(t, receiver.InitializeKey(key))

	var records [][]byte
	for i := 0; i < 5; i++ {
		ct, err := sender.EncryptWithPrefix([]byte("msg"), nil)
		require.NoError(t, err)
		records = append(records, ct)
	}

	order := []int{0, 2, 1, 4, 3}
	for _, idx := range order {
		_, err := receiver.Decrypt(records[idx], nil)
		require.NoError(t, err, "nonce %d should be accepted", idx)
	}
}

func TestCipherState_ReplayWindow_RejectsTooOld(t *testing.T) {
	var key [32]byte
	sender := NewCipherState(NonceExtracted)
	require.NoError(t, sender.InitializeKey(key))
	receiver := NewCipherState(NonceExtracted)
	require.NoError(t, receiver.InitializeKey(key))

	const total = 1100
	var records [][]byte
	for i := 0; i < total; i++ {
		ct, err := sender.EncryptWithPrefix([]byte("msg"), nil)
		require.NoError(t, err)
		records = append(records, ct)
	}

	// Deliver nonce 0 first, then jump straight to the end so nonces 0
	// and 1 fall outside the 1024-wide window.
	_, err := receiver.Decrypt(records[0], nil)
	require.NoError(t, err)

	_, err = receiver.Decrypt(records[total-1], nil)
	require.NoError(t, err)

	_, err = receiver.Decrypt(records[1], nil)
	require.ErrorIs(t, err, ErrReplayDetected)
}

func TestCipherState_Clear(t *testing.T) {
	var key [32]byte
	c := NewCipherState(NonceCounterSynchronous)
	require.NoError(t, c.InitializeKey(key))
	_, _ = c.Encrypt([]byte("x"), nil)
	c.Clear()

	require.False(t, c.HasKey())
	_, err := c.Encrypt([]byte("x"), nil)
	require.ErrorIs(t, err, ErrUninitializedCipher)
}
