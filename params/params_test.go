package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultParamsDimensions(t *testing.T) {
	p := DefaultParams
	require.Equal(t, 32, p.AlphaLen())
	require.Equal(t, 176, p.BetaLen())
	require.Equal(t, 16, p.GammaLen())
	require.Equal(t, 1024, p.DeltaLen())
	require.Equal(t, 1248, p.PacketLen())
	require.Equal(t, 208, p.BetaCipherLen())
}

func TestNewParamsValidation(t *testing.T) {
	_, err := NewParams(0, 16, 1024)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewParams(5, 0, 1024)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewParams(5, 16, 0)
	require.ErrorIs(t, err, ErrInvalidParams)

	p, err := NewParams(3, 16, 512)
	require.NoError(t, err)
	require.Equal(t, 3, p.R)
}
