// Package kdf implements the domain-separated key derivation and
// symmetric primitives that sit between the Curve25519 shared secret
// and the Sphinx packet transforms: the hash H, the keyed MAC mu, the
// stream-cipher PRG rho used to mask the header, and the Lioness
// wide-block PRP pi used to layer-encrypt the payload.
//
// Every derivation hashes a single domain-separation prefix byte
// together with the shared secret, mirroring the teacher's
// generateKey(keyType, secret) helper but keyed on Blake2b instead of
// HMAC-SHA256.
package kdf

import (
	"errors"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"

	"github.com/sphinxmix/core/group"
)

// Domain-separation prefixes, per spec.md's resolution of the legacy
// four-byte-literal ambiguity: each prefix is exactly one byte.
const (
	prefixBlind byte = 0x11
	prefixRho   byte = 0x22
	prefixMu    byte = 0x33
	prefixPi    byte = 0x44
	prefixTau   byte = 0x55

	// prefixPad seeds the builder's initial header window before any
	// real routing command has been written into it, the way the
	// teacher's generateKey(pad, sharedSecrets[0]) seeds packetBytes: a
	// domain separate from rho so the first hop's own header mask does
	// not cancel it back to zero.
	prefixPad byte = 0x66
)

// ErrKeyMismatch is returned when a Lioness key is not K bytes long.
var ErrKeyMismatch = errors.New("kdf: lioness key length mismatch")

// ErrBlockSizeMismatch is returned when a Lioness block is not M bytes long.
var ErrBlockSizeMismatch = errors.New("kdf: lioness block size mismatch")

// Hash is the domain-separated 32-byte digest H used throughout this
// package: Blake2b-256 of prefix||data.
func Hash(prefix byte, data ...[]byte) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{prefix})
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HBlind computes the blinding-factor scalar b = h_b(alpha, s), clamped
// per the group's scalar contract.
func HBlind(alpha []byte, s []byte) [group.Size]byte {
	digest := Hash(prefixBlind, alpha, s)
	var scalar [group.Size]byte
	copy(scalar[:], digest[:])
	group.Clamp(&scalar)
	return scalar
}

// HRho derives the k-byte PRG key from the shared secret.
func HRho(s []byte, k int) []byte {
	digest := Hash(prefixRho, s)
	return digest[:k]
}

// HMuKey derives the k-byte MAC key from the shared secret.
func HMuKey(s []byte, k int) []byte {
	digest := Hash(prefixMu, s)
	return digest[:k]
}

// HPi derives the k-byte Lioness key from the shared secret.
func HPi(s []byte, k int) []byte {
	digest := Hash(prefixPi, s)
	return digest[:k]
}

// HPad derives the k-byte seed used to fill a header window with
// keystream-looking content before a builder has written any real
// routing commands into it.
func HPad(s []byte, k int) []byte {
	digest := Hash(prefixPad, s)
	return digest[:k]
}

// HTau derives the 32-byte replay tag from the shared secret.
func HTau(s []byte) [32]byte {
	return Hash(prefixTau, s)
}

// Mu computes the keyed MAC over data under key, truncated to the
// security parameter length implied by len(key).
func Mu(key []byte, data []byte) []byte {
	h, _ := blake2b.New(len(key), key)
	h.Write(data)
	return h.Sum(nil)
}

// rekey turns a short PRG/Lioness seed into a ChaCha20 key and nonce by
// hashing it through Blake2b-512 and slicing the digest, the way the
// teacher's generateRandomByteStream re-keys before invoking ChaCha20.
func rekey(seed []byte) (key [32]byte, nonce [chacha20.NonceSize]byte) {
	digest := blake2b.Sum512(seed)
	copy(key[:], digest[8:40])
	copy(nonce[:8], digest[0:8])
	return key, nonce
}

// Stream produces n bytes of ChaCha20 keystream derived from seed,
// implementing both the PRG rho (masking the header) and the keystream
// step of the Lioness key expansion.
func Stream(seed []byte, n int) []byte {
	key, nonce := rekey(seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic(err) // key/nonce are always correctly sized above
	}
	out := make([]byte, n)
	c.XORKeyStream(out, out)
	return out
}

// XOR computes dst = a ^ b for len(a) == len(b) == len(dst), matching
// the teacher's constant-length xor helper.
func XOR(dst, a, b []byte) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
}
