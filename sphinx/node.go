package sphinx

import (
	"crypto/hmac"
	"sync"

	"github.com/sphinxmix/core/command"
	"github.com/sphinxmix/core/group"
	"github.com/sphinxmix/core/kdf"
	"github.com/sphinxmix/core/params"
	"github.com/sphinxmix/core/replay"
)

// Outcome is one of ForwardToMix, DeliverToDestination, or
// DeliverToClient, the three results a mix node's Unwrap can produce.
type Outcome interface {
	isOutcome()
}

// ForwardToMix is returned when the packet has one or more hops left
// to traverse.
type ForwardToMix struct {
	NextID [command.NodeIDLength]byte
	Packet *Packet
}

func (ForwardToMix) isOutcome() {}

// DeliverToDestination is returned when this node is the final hop and
// has fully decrypted the message for local delivery.
type DeliverToDestination struct {
	ClientID []byte
	Body     []byte
}

func (DeliverToDestination) isOutcome() {}

// DeliverToClient is returned when this node is a provider handing a
// fully decrypted SURB-reply payload to one of its local clients. The
// destination client id and a correlation MessageID (set by the SURB's
// creator) are carried in the header's routing command itself rather
// than inside the payload, since a SURB's route is fixed at creation
// time and does not need the payload to carry an encoded destination.
type DeliverToClient struct {
	ClientID  []byte
	MessageID []byte
	Body      []byte
}

func (DeliverToClient) isOutcome() {}

// Node is a mix node's cryptographic identity: a stable id, a clamped
// Curve25519 private key, and the replay cache guarding its unwrap
// calls.
type Node struct {
	ID      [command.NodeIDLength]byte
	Private [32]byte
	Public  [32]byte
	Cache   replay.Cache

	// mu serializes the has_seen -> verify_MAC -> mark_seen critical
	// section across concurrent Unwrap calls (spec.md 5): a coarse
	// mutex around the cache, per the design notes.
	mu sync.Mutex
}

// NewNode derives the public key from private and constructs a Node
// bound to cache.
func NewNode(id [command.NodeIDLength]byte, private [32]byte, cache replay.Cache) (*Node, error) {
	pub, err := group.ScalarMult(nil, private)
	if err != nil {
		return nil, err
	}
	return &Node{ID: id, Private: private, Public: pub, Cache: cache}, nil
}

// Unwrap implements spec.md 4.3: it checks sizes, derives the shared
// secret, enforces replay protection and header integrity, decrypts
// one Lioness layer of the payload, and decodes the routing command to
// decide whether to forward, deliver locally, or deliver to a client.
func (n *Node) Unwrap(pkt *Packet, p *params.SphinxParams) (Outcome, error) {
	if len(pkt.Delta) != p.DeltaLen() {
		return nil, ErrBodySizeMismatch
	}
	if !group.InGroup(pkt.Alpha[:]) {
		return nil, ErrAlphaGroupMismatch
	}

	s, err := group.ScalarMult(&pkt.Alpha, n.Private)
	if err != nil {
		return nil, err
	}

	tau := kdf.HTau(s[:])
	muKey := kdf.HMuKey(s[:], p.K)
	expectedGamma := kdf.Mu(muKey, pkt.Beta)

	if err := n.checkAndMarkReplay(tau, expectedGamma, pkt.Gamma); err != nil {
		return nil, err
	}

	piKey := kdf.HPi(s[:], p.K)
	lioness, err := kdf.NewLioness(piKey, p.K, p.M)
	if err != nil {
		return nil, err
	}
	deltaPrime, err := lioness.Decrypt(pkt.Delta)
	if err != nil {
		return nil, err
	}

	rhoKey := kdf.HRho(s[:], p.K)
	keystream := kdf.Stream(rhoKey, p.BetaCipherLen())
	B := make([]byte, p.BetaCipherLen())
	copy(B, pkt.Beta) // remaining 2k bytes of B stay zero before the xor
	kdf.XOR(B, B, keystream)

	cmd, err := command.Decode(B, p.K)
	if err != nil {
		return nil, ErrInvalidMessageType
	}

	switch cmd.Kind {
	case command.Mix:
		return n.forward(pkt.Alpha, s[:], cmd, deltaPrime, p)
	case command.Process:
		return deliverLocally(deltaPrime, p)
	case command.Client:
		return deliverToClient(cmd, deltaPrime, p)
	default:
		return nil, ErrInvalidMessageType
	}
}

// checkAndMarkReplay is the critical section of spec.md 5: has_seen,
// then the constant-time MAC comparison, then mark_seen, all under one
// lock so a forged packet can never pollute the cache and two
// concurrent deliveries of the same packet can never both succeed.
func (n *Node) checkAndMarkReplay(tau replay.Tag, expectedGamma, gotGamma []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Cache.HasSeen(tau) {
		return ErrReplay
	}
	if !hmac.Equal(expectedGamma, gotGamma) {
		return ErrIncorrectMAC
	}
	n.Cache.MarkSeen(tau)
	return nil
}

func (n *Node) forward(alpha [32]byte, s []byte, cmd command.Command, deltaPrime []byte, p *params.SphinxParams) (Outcome, error) {
	// cmd.Remainder is B with the k-byte next-hop id already consumed,
	// so it holds exactly gamma' (k bytes) followed by beta' (beta_len
	// bytes): (2r+3)k - k - k = (2r+1)k = beta_len.
	if len(cmd.Remainder) != p.K+p.BetaLen() {
		return nil, ErrInvalidMessageType
	}
	gammaPrime := cmd.Remainder[:p.K]
	betaPrime := cmd.Remainder[p.K:]

	b := kdf.HBlind(alpha[:], s)
	alphaPrime, err := group.ScalarMult(&alpha, b)
	if err != nil {
		return nil, err
	}

	var nextID [command.NodeIDLength]byte
	copy(nextID[:], cmd.NextID)

	return ForwardToMix{
		NextID: nextID,
		Packet: &Packet{
			Alpha: alphaPrime,
			Beta:  append([]byte(nil), betaPrime...),
			Gamma: append([]byte(nil), gammaPrime...),
			Delta: deltaPrime,
		},
	}, nil
}

func deliverLocally(deltaPrime []byte, p *params.SphinxParams) (Outcome, error) {
	if len(deltaPrime) < p.K {
		return nil, ErrInvalidProcessDestination
	}
	for _, b := range deltaPrime[:p.K] {
		if b != 0 {
			return nil, ErrInvalidProcessDestination
		}
	}
	inner, err := command.Decode(deltaPrime[p.K:], p.K)
	if err != nil || inner.Kind != command.Client {
		return nil, ErrInvalidProcessDestination
	}
	body, err := command.RemovePadding(inner.Remainder)
	if err != nil {
		return nil, ErrInvalidProcessDestination
	}
	return DeliverToDestination{ClientID: inner.ClientID, Body: body}, nil
}

func deliverToClient(cmd command.Command, deltaPrime []byte, p *params.SphinxParams) (Outcome, error) {
	if len(cmd.Remainder) < p.K {
		return nil, ErrInvalidMessageType
	}
	body, err := command.RemovePadding(deltaPrime)
	if err != nil {
		return nil, ErrInvalidProcessDestination
	}
	return DeliverToClient{
		ClientID:  cmd.ClientID,
		MessageID: cmd.Remainder[:p.K],
		Body:      body,
	}, nil
}
