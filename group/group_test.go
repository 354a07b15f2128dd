package group

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampBits(t *testing.T) {
	s, err := GenerateSecret(nil)
	require.NoError(t, err)
	require.Zero(t, s[0]&0x07)
	require.Zero(t, s[31] & ^byte(0x7F))
	require.Equal(t, byte(0x40), s[31]&0x40)
}

func TestScalarMultDiffieHellman(t *testing.T) {
	a, err := GenerateSecret(nil)
	require.NoError(t, err)
	b, err := GenerateSecret(nil)
	require.NoError(t, err)

	pubA, err := ScalarMult(nil, a)
	require.NoError(t, err)
	pubB, err := ScalarMult(nil, b)
	require.NoError(t, err)

	sharedA, err := ScalarMult(&pubB, a)
	require.NoError(t, err)
	sharedB, err := ScalarMult(&pubA, b)
	require.NoError(t, err)

	require.True(t, bytes.Equal(sharedA[:], sharedB[:]))
}

func TestMultiScalarMultMatchesSequentialFold(t *testing.T) {
	base, err := GenerateSecret(nil)
	require.NoError(t, err)
	s1, err := GenerateSecret(nil)
	require.NoError(t, err)
	s2, err := GenerateSecret(nil)
	require.NoError(t, err)

	got, err := MultiScalarMult(base, [][Size]byte{s1, s2})
	require.NoError(t, err)

	step1, err := ScalarMult(&base, s1)
	require.NoError(t, err)
	want, err := ScalarMult(&step1, s2)
	require.NoError(t, err)

	require.Equal(t, want, got)
}

func TestInGroup(t *testing.T) {
	require.True(t, InGroup(make([]byte, 32)))
	require.False(t, InGroup(make([]byte, 31)))
	require.False(t, InGroup(make([]byte, 33)))
}
