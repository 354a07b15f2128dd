// Package command implements the prefix-free routing-command encoding
// carried inside a Sphinx header's beta field, the destination encoding
// used in the final delivery layer, and the payload padding scheme they
// share.
package command

import "errors"

// NodeIDLength is the canonical length of a mix node identifier, used
// wherever a fixed-size node id is convenient (Node.ID, the consensus
// directory). Inside the wire-encoded header itself the next-hop id
// occupies exactly k bytes (spec.md 4.3 step 9); for the canonical
// parameter set k == NodeIDLength, so Decode takes k explicitly rather
// than assuming this constant.
const NodeIDLength = 16

// Kind tags a decoded routing command.
type Kind int

const (
	// Process indicates the packet's final Lioness layer should be
	// peeled and an inner command decoded from the plaintext payload.
	Process Kind = iota
	// Mix indicates the packet should be forwarded to another node.
	Mix
	// Client indicates the payload should be delivered, still
	// encrypted, to a client identified by ClientID.
	Client
)

// mixTag and processTag are the L-byte tags reserved by spec.md's
// prefix-free encoding; 1..127 is read as a client-id length.
const (
	processTag byte = 0x00
	mixTag     byte = 0xFF
	maxClientL byte = 127
)

// ErrInvalidMessageType is returned when the leading tag byte is
// neither 0x00, 0xFF, nor in 1..127.
var ErrInvalidMessageType = errors.New("command: invalid routing command tag")

// Command is a decoded routing command plus the unread remainder of
// the buffer it was decoded from.
type Command struct {
	Kind      Kind
	NextID    []byte // valid when Kind == Mix, k bytes long
	ClientID  []byte // valid when Kind == Client
	Remainder []byte
}

// Decode reads one prefix-free routing command from the front of b.
// idLen is the length of a mix next-hop id, which is k bytes per
// spec.md 4.3 (the symmetric security parameter doubles as the
// next-hop id length inside the header); it is unused for the Process
// and Client branches.
//
// The mix case is special: a node id's own high byte is the 0xFF tag
// (spec.md 6), so unlike Process and Client it does not cost a
// separate leading byte. Decode peeks at b[0] without consuming it and
// returns the full idLen-byte id, first byte included, exactly as
// original_source/sphinxmixcrypto/node.py's prefix_free_decode does.
func Decode(b []byte, idLen int) (Command, error) {
	if len(b) == 0 {
		return Command{}, ErrInvalidMessageType
	}
	l := b[0]
	switch {
	case l == processTag:
		return Command{Kind: Process, Remainder: b[1:]}, nil
	case l == mixTag:
		if len(b) < idLen {
			return Command{}, ErrInvalidMessageType
		}
		return Command{Kind: Mix, NextID: b[:idLen], Remainder: b[idLen:]}, nil
	case l >= 1 && l <= maxClientL:
		n := int(l)
		if len(b) < 1+n {
			return Command{}, ErrInvalidMessageType
		}
		return Command{Kind: Client, ClientID: b[1 : 1+n], Remainder: b[1+n:]}, nil
	default:
		return Command{}, ErrInvalidMessageType
	}
}

// EncodeMix writes the mix routing-command prefix: a copy of nextID,
// k bytes, with its first byte set to the 0xFF tag. There is no
// separate tag byte; see the note on Decode.
func EncodeMix(nextID []byte) []byte {
	out := make([]byte, len(nextID))
	copy(out, nextID)
	out[0] = mixTag
	return out
}

// EncodeProcess writes the process-locally routing-command prefix.
func EncodeProcess() []byte {
	return []byte{processTag}
}

// EncodeClient writes the deliver-to-client routing-command prefix.
func EncodeClient(clientID []byte) ([]byte, error) {
	if len(clientID) < 1 || len(clientID) > int(maxClientL) {
		return nil, errors.New("command: client id must be 1..127 bytes")
	}
	out := make([]byte, 1+len(clientID))
	out[0] = byte(len(clientID))
	copy(out[1:], clientID)
	return out, nil
}

// EncodeDestination is the final-delivery destination encoding of
// spec.md 6: a single length byte followed by the identifier bytes.
func EncodeDestination(dest []byte) ([]byte, error) {
	return EncodeClient(dest)
}

// padSentinel marks the end of the meaningful payload before the
// trailing zero padding.
const padSentinel = 0x7F

// Pad right-pads body with padSentinel followed by zero bytes out to
// totalLen. It returns an error if body plus the sentinel byte would
// not fit.
func Pad(body []byte, totalLen int) ([]byte, error) {
	if len(body)+1 > totalLen {
		return nil, errors.New("command: body too large to pad")
	}
	out := make([]byte, totalLen)
	copy(out, body)
	out[len(body)] = padSentinel
	return out, nil
}

// RemovePadding strips trailing zero bytes and then the 0x7F sentinel,
// the inverse of Pad.
func RemovePadding(padded []byte) ([]byte, error) {
	i := len(padded) - 1
	for i >= 0 && padded[i] == 0x00 {
		i--
	}
	if i < 0 || padded[i] != padSentinel {
		return nil, errors.New("command: missing padding sentinel")
	}
	return padded[:i], nil
}
