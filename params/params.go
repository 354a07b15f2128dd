// Package params defines the immutable geometry of a Sphinx packet:
// the maximum route length r, the symmetric security parameter k, and
// the payload size m, plus the derived header/field lengths every
// other package in this module builds against.
package params

import (
	"errors"

	"github.com/sphinxmix/core/group"
)

// ErrInvalidParams is returned by NewParams when r, k, or m is out of range.
var ErrInvalidParams = errors.New("params: r, k and m must be positive")

// SphinxParams is the immutable parameter set for one network
// configuration. It is safe for concurrent use since it is never
// mutated after construction.
type SphinxParams struct {
	R int // maximum route length (hops)
	K int // symmetric block size in bytes
	M int // payload size in bytes
}

// NewParams validates and constructs a SphinxParams.
func NewParams(r, k, m int) (*SphinxParams, error) {
	if r < 1 || k < 1 || m <= 0 {
		return nil, ErrInvalidParams
	}
	return &SphinxParams{R: r, K: k, M: m}, nil
}

// DefaultParams are the canonical parameters used throughout this
// module's fixtures and test vectors: r=5, k=16, m=1024.
var DefaultParams = &SphinxParams{R: 5, K: 16, M: 1024}

// AlphaLen is the fixed length of the alpha group element.
func (p *SphinxParams) AlphaLen() int { return group.Size }

// BetaLen is the length of the encrypted routing header.
func (p *SphinxParams) BetaLen() int { return (2*p.R + 1) * p.K }

// GammaLen is the length of the header MAC.
func (p *SphinxParams) GammaLen() int { return p.K }

// DeltaLen is the length of the encrypted payload.
func (p *SphinxParams) DeltaLen() int { return p.M }

// PacketLen is the total serialized packet size.
func (p *SphinxParams) PacketLen() int {
	return p.AlphaLen() + p.BetaLen() + p.GammaLen() + p.DeltaLen()
}

// BetaCipherLen is the length of the PRG keystream needed to mask
// (beta || 0^2k): (2r+3)*k bytes.
func (p *SphinxParams) BetaCipherLen() int { return (2*p.R + 3) * p.K }
