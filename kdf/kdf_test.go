package kdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash(prefixRho, []byte("shared-secret"))
	b := Hash(prefixRho, []byte("shared-secret"))
	require.Equal(t, a, b)

	c := Hash(prefixMu, []byte("shared-secret"))
	require.NotEqual(t, a, c, "different prefixes must yield different outputs")
}

func TestHRhoHMuHPiLength(t *testing.T) {
	s := []byte("some-32-byte-shared-secret-here")
	require.Len(t, HRho(s, 16), 16)
	require.Len(t, HMuKey(s, 16), 16)
	require.Len(t, HPi(s, 16), 16)
}

func TestHTauLength(t *testing.T) {
	tau := HTau([]byte("s"))
	require.Len(t, tau[:], 32)
}

func TestMuConstantOutputLength(t *testing.T) {
	key := make([]byte, 16)
	out := Mu(key, []byte("beta-bytes"))
	require.Len(t, out, 16)
}

func TestStreamDeterministicAndLong(t *testing.T) {
	seed := []byte("0123456789abcdef")
	s1 := Stream(seed, 208)
	s2 := Stream(seed, 208)
	require.True(t, bytes.Equal(s1, s2))
	require.Len(t, s1, 208)

	other := Stream([]byte("fedcba9876543210"), 208)
	require.False(t, bytes.Equal(s1, other))
}

func TestXOR(t *testing.T) {
	dst := make([]byte, 4)
	XOR(dst, []byte{0x0F, 0xF0, 0xAA, 0x55}, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.Equal(t, []byte{0xF0, 0x0F, 0x55, 0xAA}, dst)
}
