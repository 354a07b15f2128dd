// Package sphinx implements the Sphinx mix-network packet format: the
// fixed-size, layered-encryption header and payload described in
// spec.md, the per-hop node unwrap transform, and the packet/SURB
// builder that constructs packets in the reverse direction.
package sphinx

import (
	"errors"

	"github.com/sphinxmix/core/params"
)

// ErrTruncatedPacket is returned by Deserialize when the input length
// differs from the parameter set's total packet length.
var ErrTruncatedPacket = errors.New("sphinx: truncated packet")

// Packet is a four-part Sphinx packet: the ephemeral group element
// Alpha, the encrypted routing header Beta, the header MAC Gamma, and
// the layer-encrypted payload Delta.
type Packet struct {
	Alpha [32]byte
	Beta  []byte
	Gamma []byte
	Delta []byte
}

// Serialize concatenates a packet's fields into the fixed-size wire
// layout of spec.md 6: alpha || beta || gamma || delta.
func (pkt *Packet) Serialize(p *params.SphinxParams) []byte {
	out := make([]byte, 0, p.PacketLen())
	out = append(out, pkt.Alpha[:]...)
	out = append(out, pkt.Beta...)
	out = append(out, pkt.Gamma...)
	out = append(out, pkt.Delta...)
	return out
}

// Deserialize parses the fixed-size wire layout back into a Packet.
func Deserialize(b []byte, p *params.SphinxParams) (*Packet, error) {
	if len(b) != p.PacketLen() {
		return nil, ErrTruncatedPacket
	}
	pkt := &Packet{}
	off := 0
	copy(pkt.Alpha[:], b[off:off+p.AlphaLen()])
	off += p.AlphaLen()
	pkt.Beta = append([]byte(nil), b[off:off+p.BetaLen()]...)
	off += p.BetaLen()
	pkt.Gamma = append([]byte(nil), b[off:off+p.GammaLen()]...)
	off += p.GammaLen()
	pkt.Delta = append([]byte(nil), b[off:off+p.DeltaLen()]...)
	return pkt, nil
}
