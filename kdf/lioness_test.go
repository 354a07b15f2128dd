package kdf

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLionessRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)

	block := make([]byte, 1024)
	_, err = rand.Read(block)
	require.NoError(t, err)

	l, err := NewLioness(key, 16, 1024)
	require.NoError(t, err)

	ct, err := l.Encrypt(block)
	require.NoError(t, err)
	require.False(t, bytes.Equal(ct, block))

	pt, err := l.Decrypt(ct)
	require.NoError(t, err)
	require.True(t, bytes.Equal(pt, block))
}

func TestLionessKeyMismatch(t *testing.T) {
	_, err := NewLioness(make([]byte, 15), 16, 1024)
	require.ErrorIs(t, err, ErrKeyMismatch)
}

func TestLionessBlockSizeMismatch(t *testing.T) {
	l, err := NewLioness(make([]byte, 16), 16, 1024)
	require.NoError(t, err)

	_, err = l.Encrypt(make([]byte, 27))
	require.ErrorIs(t, err, ErrBlockSizeMismatch)

	_, err = l.Decrypt(make([]byte, 27))
	require.ErrorIs(t, err, ErrBlockSizeMismatch)
}

func TestLionessDiffusesEveryByte(t *testing.T) {
	key := make([]byte, 16)
	l, err := NewLioness(key, 16, 1024)
	require.NoError(t, err)

	block := make([]byte, 1024)
	ct1, err := l.Encrypt(block)
	require.NoError(t, err)

	block[1000] ^= 0x01
	ct2, err := l.Encrypt(block)
	require.NoError(t, err)

	// Flipping one byte of a large wide-block PRP input should perturb
	// the left half too, not just the touched region of the right half.
	require.False(t, bytes.Equal(ct1[:16], ct2[:16]))
}
