package kdf

import (
	"golang.org/x/crypto/blake2b"
)

// lionessKeyExpansionLen is the size of the zero block encrypted under
// h_pi(s) to derive the four Lioness round subkeys (spec.md 4.2).
const lionessKeyExpansionLen = 208

// subkeyLen is the size of each of the four round subkeys sliced out of
// the 208-byte expansion.
const subkeyLen = lionessKeyExpansionLen / 4

// Lioness is the four-round unbalanced Feistel wide-block PRP keyed by
// h_pi(s). The left half has length k (the security parameter) and the
// right half carries the remainder of the m-byte payload block.
type Lioness struct {
	k       int
	m       int
	subkeys [4][]byte
}

// NewLioness derives the four round subkeys from key (h_pi(s), k bytes)
// by running the PRG over a zero block of lionessKeyExpansionLen bytes,
// the construction spec.md 4.2 calls "key expansion for ChaCha-based
// Lioness".
func NewLioness(key []byte, k, m int) (*Lioness, error) {
	if len(key) != k {
		return nil, ErrKeyMismatch
	}
	if m <= k {
		return nil, ErrBlockSizeMismatch
	}
	expansion := Stream(key, lionessKeyExpansionLen)
	l := &Lioness{k: k, m: m}
	for i := 0; i < 4; i++ {
		l.subkeys[i] = expansion[i*subkeyLen : (i+1)*subkeyLen]
	}
	return l, nil
}

// roundHash is the keyed-hash half of a round: it folds the (unchanged)
// right half and the round subkey into a left-sized mask.
func (l *Lioness) roundHash(subkey, data []byte) []byte {
	h, _ := blake2b.New(l.k, subkey[:min(len(subkey), 64)])
	h.Write(data)
	return h.Sum(nil)
}

// roundStream is the stream-cipher half of a round: it folds the round
// subkey and the (unchanged) left half into a right-sized keystream.
func (l *Lioness) roundStream(subkey, data []byte, n int) []byte {
	seed := make([]byte, 0, len(subkey)+len(data))
	seed = append(seed, subkey...)
	seed = append(seed, data...)
	return Stream(seed, n)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Encrypt applies the forward Lioness PRP to a block of exactly m bytes.
func (l *Lioness) Encrypt(block []byte) ([]byte, error) {
	if len(block) != l.m {
		return nil, ErrBlockSizeMismatch
	}
	right := l.m - l.k
	out := make([]byte, l.m)
	copy(out, block)
	L, R := out[:l.k], out[l.k:]

	XOR(L, L, l.roundHash(l.subkeys[0], R))
	XOR(R, R, l.roundStream(l.subkeys[1], L, right))
	XOR(L, L, l.roundHash(l.subkeys[2], R))
	XOR(R, R, l.roundStream(l.subkeys[3], L, right))

	return out, nil
}

// Decrypt applies the inverse Lioness PRP to a block of exactly m bytes.
func (l *Lioness) Decrypt(block []byte) ([]byte, error) {
	if len(block) != l.m {
		return nil, ErrBlockSizeMismatch
	}
	right := l.m - l.k
	out := make([]byte, l.m)
	copy(out, block)
	L, R := out[:l.k], out[l.k:]

	XOR(R, R, l.roundStream(l.subkeys[3], L, right))
	XOR(L, L, l.roundHash(l.subkeys[2], R))
	XOR(R, R, l.roundStream(l.subkeys[1], L, right))
	XOR(L, L, l.roundHash(l.subkeys[0], R))

	return out, nil
}
