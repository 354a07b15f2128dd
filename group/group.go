// Package group implements the Curve25519 group operations used to build
// the Diffie-Hellman chain of a Sphinx packet header: secret generation,
// scalar multiplication, and the folded multi-scalar multiplication used
// to re-derive a blinded shared secret from an accumulated set of
// blinding factors.
package group

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

// Size is the length in bytes of a Curve25519 scalar or group element.
const Size = 32

// ErrBadElementLength is returned when a purported group element is not
// exactly Size bytes long.
var ErrBadElementLength = errors.New("group: element must be 32 bytes")

// basepoint is the standard Curve25519 base point, 9 followed by 31 zero
// bytes.
var basepoint = [Size]byte{9}

// GenerateSecret draws a fresh 32-byte scalar from rng and clamps it
// per the X25519 contract: the low three bits of byte 0 are cleared,
// the high bit of byte 31 is cleared, and the second-highest bit of
// byte 31 is set.
func GenerateSecret(rng io.Reader) ([Size]byte, error) {
	var s [Size]byte
	if rng == nil {
		rng = rand.Reader
	}
	if _, err := io.ReadFull(rng, s[:]); err != nil {
		return s, err
	}
	Clamp(&s)
	return s, nil
}

// Clamp applies the X25519 scalar clamping in place.
func Clamp(s *[Size]byte) {
	s[0] &= 0xF8
	s[31] &= 0x7F
	s[31] |= 0x40
}

// ScalarMult computes base*scalar on Curve25519. When base is nil the
// standard base point G is used, i.e. this computes G*scalar.
func ScalarMult(base *[Size]byte, scalar [Size]byte) ([Size]byte, error) {
	var out [Size]byte
	var in [Size]byte
	if base == nil {
		in = basepoint
	} else {
		in = *base
	}
	dst, err := curve25519.X25519(scalar[:], in[:])
	if err != nil {
		return out, err
	}
	copy(out[:], dst)
	return out, nil
}

// MultiScalarMult folds base through the given sequence of scalars:
// ((base*s1)*s2)...*sn. This is how a node that has accumulated a chain
// of blinding factors re-derives a later hop's shared secret without
// storing every intermediate alpha.
func MultiScalarMult(base [Size]byte, scalars [][Size]byte) ([Size]byte, error) {
	acc := base
	for _, s := range scalars {
		next, err := ScalarMult(&acc, s)
		if err != nil {
			return acc, err
		}
		acc = next
	}
	return acc, nil
}

// InGroup reports whether x is a validly-sized Curve25519 element. Per
// DJB's X25519 contract every 32-byte string is an acceptable input, so
// this is purely a length check.
func InGroup(x []byte) bool {
	return len(x) == Size
}
