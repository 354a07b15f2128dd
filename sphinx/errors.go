package sphinx

import (
	"errors"

	"github.com/sphinxmix/core/kdf"
)

// Error kinds surfaced from Node.Unwrap, spec.md table in section 7.
// Each is fatal for the packet and never retried.
var (
	ErrBodySizeMismatch          = errors.New("sphinx: payload length does not match params.M")
	ErrAlphaGroupMismatch        = errors.New("sphinx: alpha is not a valid group element")
	ErrReplay                    = errors.New("sphinx: replay tag already seen")
	ErrIncorrectMAC              = errors.New("sphinx: header MAC mismatch")
	ErrInvalidProcessDestination = errors.New("sphinx: process command missing zero-prefix witness or inner client command")
	ErrInvalidMessageType        = errors.New("sphinx: routing command byte not in {0x00, 0xFF, 1..127}")

	// ErrKeyMismatch and ErrBlockSizeMismatch are the Lioness key/block
	// errors, re-exported under the sphinx package since spec.md's
	// error table lists them alongside the rest of the unwrap outcomes.
	ErrKeyMismatch       = kdf.ErrKeyMismatch
	ErrBlockSizeMismatch = kdf.ErrBlockSizeMismatch

	// Builder-side errors (spec.md 4.4).
	ErrEmptyRoute     = errors.New("sphinx: route must have at least one hop")
	ErrRouteTooLong   = errors.New("sphinx: route longer than params.R")
	ErrMessageTooLong = errors.New("sphinx: message does not fit in the payload after padding")
	ErrBadClientID    = errors.New("sphinx: SURB client id must be exactly k-1 bytes")
)
