package sphinx

import (
	"io"

	"github.com/sphinxmix/core/command"
	"github.com/sphinxmix/core/group"
	"github.com/sphinxmix/core/kdf"
	"github.com/sphinxmix/core/params"
)

// Hop names one node on a route: its id (used for the routing command
// embedded in the header) and the Curve25519 public key the builder
// performs a Diffie-Hellman exchange against.
type Hop struct {
	ID        [command.NodeIDLength]byte
	PublicKey [32]byte
}

// routeKeys is the per-hop key material a builder accumulates by
// walking the route once, forward, before laying out the header
// backward. It mirrors the teacher's ephemeralPublicKeys/sharedSecrets
// arrays in ConstructOnion, generalized from secp256k1 ECDH to the
// group package's Curve25519 multi_scalar_mult.
type routeKeys struct {
	alphas  [][32]byte // alphas[i] is what hop i receives as Packet.Alpha
	secrets [][]byte   // secrets[i] is s_i, hop i's shared secret
}

func deriveRouteKeys(route []Hop, x0 [32]byte) (routeKeys, error) {
	rk := routeKeys{
		alphas:  make([][32]byte, len(route)),
		secrets: make([][]byte, len(route)),
	}

	currentAlpha, err := group.ScalarMult(nil, x0)
	if err != nil {
		return rk, err
	}
	blinds := [][32]byte{x0}

	for i, hop := range route {
		s, err := group.MultiScalarMult(hop.PublicKey, blinds)
		if err != nil {
			return rk, err
		}
		rk.alphas[i] = currentAlpha
		rk.secrets[i] = s[:]

		b := kdf.HBlind(currentAlpha[:], s[:])
		nextAlpha, err := group.ScalarMult(&currentAlpha, b)
		if err != nil {
			return rk, err
		}
		currentAlpha = nextAlpha
		blinds = append(blinds, b)
	}
	return rk, nil
}

// buildFiller implements spec.md 4.4 step 4, generalizing the
// teacher's generateFiller: each of the l-1 non-final hops contributes
// a growing XOR of a slice of its own rho keystream, so that a later
// hop's real header mask reproduces exactly the random-looking tail
// this hop anticipated, regardless of how many hops remain.
func buildFiller(p *params.SphinxParams, secrets [][]byte) []byte {
	l := len(secrets)
	shiftSize := 2 * p.K
	filler := make([]byte, (l-1)*shiftSize)

	for i := 0; i < l-1; i++ {
		fillerStart := p.BetaLen() - i*shiftSize
		keystream := kdf.Stream(kdf.HRho(secrets[i], p.K), p.BetaCipherLen())
		windowLen := shiftSize * (i + 1)
		kdf.XOR(filler[:windowLen], filler[:windowLen], keystream[fillerStart:])
	}
	return filler
}

// rightShift shifts slice right by num bytes, zero-filling the gap it
// opens at the front, exactly like the teacher's rightShift.
func rightShift(slice []byte, num int) {
	for i := len(slice) - num - 1; i >= 0; i-- {
		slice[num+i] = slice[i]
	}
	for i := 0; i < num; i++ {
		slice[i] = 0
	}
}

// buildHeader implements spec.md 4.4 steps 3-6: it lays out beta and
// gamma backward, from the innermost (last) hop to the first, the
// direction ConstructOnion builds in. innerHeader is the exactly
// 2*p.K-byte plaintext the final hop's slot should contain, already
// padded out to that width by the caller (a process tag, or a
// deliver-to-client command plus message id).
func buildHeader(p *params.SphinxParams, route []Hop, secrets [][]byte, innerHeader []byte) (beta, gamma []byte) {
	l := len(route)
	shiftSize := 2 * p.K

	beta = kdf.Stream(kdf.HPad(secrets[0], p.K), p.BetaLen())
	filler := buildFiller(p, secrets)

	var nextGamma []byte
	for i := l - 1; i >= 0; i-- {
		var headerBytes []byte
		if i == l-1 {
			headerBytes = innerHeader
		} else {
			headerBytes = append(command.EncodeMix(route[i+1].ID[:]), nextGamma...)
		}

		rightShift(beta, shiftSize)
		copy(beta[:shiftSize], headerBytes)

		keystream := kdf.Stream(kdf.HRho(secrets[i], p.K), p.BetaLen())
		kdf.XOR(beta, beta, keystream)

		if i == l-1 {
			copy(beta[len(beta)-len(filler):], filler)
		}

		muKey := kdf.HMuKey(secrets[i], p.K)
		nextGamma = kdf.Mu(muKey, beta)
	}
	return beta, nextGamma
}

// NewForwardPacket implements spec.md 4.4: it builds a complete
// forward Sphinx packet whose innermost payload layer names
// destination (the final-delivery destination encoding of spec.md 6)
// and carries message, routed through route. It returns the packet and
// the id of the first hop to send it to.
func NewForwardPacket(p *params.SphinxParams, route []Hop, destination, message []byte, rng io.Reader) (*Packet, [command.NodeIDLength]byte, error) {
	var firstHop [command.NodeIDLength]byte
	l := len(route)
	if l == 0 {
		return nil, firstHop, ErrEmptyRoute
	}
	if l > p.R {
		return nil, firstHop, ErrRouteTooLong
	}

	x0, err := group.GenerateSecret(rng)
	if err != nil {
		return nil, firstHop, err
	}
	rk, err := deriveRouteKeys(route, x0)
	if err != nil {
		return nil, firstHop, err
	}

	destEnc, err := command.EncodeDestination(destination)
	if err != nil {
		return nil, firstHop, err
	}

	plain := make([]byte, 0, p.M)
	plain = append(plain, make([]byte, p.K)...)
	plain = append(plain, destEnc...)
	if len(plain) >= p.M {
		return nil, firstHop, ErrMessageTooLong
	}
	padded, err := command.Pad(message, p.M-len(plain))
	if err != nil {
		return nil, firstHop, ErrMessageTooLong
	}
	plain = append(plain, padded...)

	delta := plain
	for i := l - 1; i >= 0; i-- {
		lio, err := kdf.NewLioness(kdf.HPi(rk.secrets[i], p.K), p.K, p.M)
		if err != nil {
			return nil, firstHop, err
		}
		delta, err = lio.Encrypt(delta)
		if err != nil {
			return nil, firstHop, err
		}
	}

	innerHeader := make([]byte, 2*p.K)
	innerHeader[0] = 0x00 // process tag; the rest is unread filler

	beta, gamma := buildHeader(p, route, rk.secrets, innerHeader)

	return &Packet{
		Alpha: rk.alphas[0],
		Beta:  beta,
		Gamma: gamma,
		Delta: delta,
	}, route[0].ID, nil
}

// SURB is a single-use reply block: a pre-built header plus the
// per-hop Lioness keys needed to layer a future reply payload so that
// the route's mix nodes transparently peel it like any forward packet
// (spec.md 4.4's SURB-construction paragraph).
type SURB struct {
	FirstHop    [command.NodeIDLength]byte
	Alpha       [32]byte
	Beta        []byte
	Gamma       []byte
	PayloadKeys [][]byte // one k-byte Lioness key per hop, in route order
	MessageID   [command.NodeIDLength]byte
}

// NewSURB builds a SURB whose route ends by handing the still-encrypted
// reply to clientID at the final hop (a provider), rather than
// decoding a destination out of the payload. clientID must be exactly
// p.K-1 bytes so that, together with the trailing message id, it fills
// the same 2*p.K-byte header slot every other hop's routing command
// occupies.
func NewSURB(p *params.SphinxParams, route []Hop, clientID []byte, rng io.Reader) (*SURB, error) {
	l := len(route)
	if l == 0 {
		return nil, ErrEmptyRoute
	}
	if l > p.R {
		return nil, ErrRouteTooLong
	}
	if len(clientID) != p.K-1 {
		return nil, ErrBadClientID
	}

	x0, err := group.GenerateSecret(rng)
	if err != nil {
		return nil, err
	}
	rk, err := deriveRouteKeys(route, x0)
	if err != nil {
		return nil, err
	}

	var messageID [command.NodeIDLength]byte
	if _, err := io.ReadFull(rng, messageID[:p.K]); err != nil {
		return nil, err
	}

	clientEnc, err := command.EncodeClient(clientID)
	if err != nil {
		return nil, err
	}
	innerHeader := make([]byte, 2*p.K)
	copy(innerHeader, clientEnc)
	copy(innerHeader[len(clientEnc):], messageID[:p.K])

	beta, gamma := buildHeader(p, route, rk.secrets, innerHeader)

	payloadKeys := make([][]byte, l)
	for i := range rk.secrets {
		payloadKeys[i] = kdf.HPi(rk.secrets[i], p.K)
	}

	return &SURB{
		FirstHop:    route[0].ID,
		Alpha:       rk.alphas[0],
		Beta:        beta,
		Gamma:       gamma,
		PayloadKeys: payloadKeys,
		MessageID:   messageID,
	}, nil
}

// EncryptSURBReply layers message with the SURB's stored per-hop keys
// in the same backward order NewForwardPacket uses, so that the l
// mix nodes on the SURB's route each peel exactly one layer during
// their ordinary Unwrap and the SURB's creator receives the plaintext
// directly in a DeliverToClient outcome.
func EncryptSURBReply(p *params.SphinxParams, surb *SURB, message []byte) (*Packet, error) {
	padded, err := command.Pad(message, p.M)
	if err != nil {
		return nil, ErrMessageTooLong
	}

	delta := padded
	for i := len(surb.PayloadKeys) - 1; i >= 0; i-- {
		lio, err := kdf.NewLioness(surb.PayloadKeys[i], p.K, p.M)
		if err != nil {
			return nil, err
		}
		delta, err = lio.Encrypt(delta)
		if err != nil {
			return nil, err
		}
	}

	return &Packet{
		Alpha: surb.Alpha,
		Beta:  append([]byte(nil), surb.Beta...),
		Gamma: append([]byte(nil), surb.Gamma...),
		Delta: delta,
	}, nil
}
