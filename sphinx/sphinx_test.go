package sphinx

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sphinxmix/core/command"
	"github.com/sphinxmix/core/group"
	"github.com/sphinxmix/core/params"
	"github.com/sphinxmix/core/replay"
)

// newTestNode mints a Node with a random Curve25519 keypair and a
// fresh in-memory replay cache.
func newTestNode(t *testing.T, id byte) (*Node, Hop) {
	t.Helper()
	priv, err := group.GenerateSecret(rand.Reader)
	require.NoError(t, err)

	node, err := NewNode(idOf(id), priv, replay.NewMemCache())
	require.NoError(t, err)

	return node, Hop{ID: idOf(id), PublicKey: node.Public}
}

func idOf(b byte) [command.NodeIDLength]byte {
	var id [command.NodeIDLength]byte
	id[0] = 0xFF
	id[command.NodeIDLength-1] = b
	return id
}

// unwrapChain drives a built Packet through nodesByID starting at
// firstHop, until it terminates in a DeliverToDestination or
// DeliverToClient outcome, returning that outcome.
func unwrapChain(t *testing.T, nodesByID map[[command.NodeIDLength]byte]*Node, firstHop [command.NodeIDLength]byte, pkt *Packet, p *params.SphinxParams) Outcome {
	t.Helper()
	hop := firstHop
	current := pkt
	for i := 0; i < p.R+1; i++ {
		node, ok := nodesByID[hop]
		require.True(t, ok, "no node registered for hop id")

		outcome, err := node.Unwrap(current, p)
		require.NoError(t, err)

		switch o := outcome.(type) {
		case ForwardToMix:
			hop = o.NextID
			current = o.Packet
		default:
			return outcome
		}
	}
	t.Fatal("route did not terminate within R+1 hops")
	return nil
}

func TestForwardPacketSingleHop(t *testing.T) {
	p := params.DefaultParams
	node, hop := newTestNode(t, 1)
	nodes := map[[command.NodeIDLength]byte]*Node{hop.ID: node}

	dest := []byte("alice")
	message := []byte("the quick brown fox")

	pkt, firstHop, err := NewForwardPacket(p, []Hop{hop}, dest, message, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, hop.ID, firstHop)

	outcome := unwrapChain(t, nodes, firstHop, pkt, p)
	deliver, ok := outcome.(DeliverToDestination)
	require.True(t, ok)
	require.Equal(t, dest, deliver.ClientID)
	require.Equal(t, message, deliver.Body)
}

func TestForwardPacketFiveHops(t *testing.T) {
	p := params.DefaultParams
	nodes := map[[command.NodeIDLength]byte]*Node{}
	var route []Hop
	for i := byte(1); i <= 5; i++ {
		node, hop := newTestNode(t, i)
		nodes[hop.ID] = node
		route = append(route, hop)
	}

	dest := []byte("bob")
	message := []byte("the quick brown fox jumps over the lazy dog")

	pkt, firstHop, err := NewForwardPacket(p, route, dest, message, rand.Reader)
	require.NoError(t, err)

	outcome := unwrapChain(t, nodes, firstHop, pkt, p)
	deliver, ok := outcome.(DeliverToDestination)
	require.True(t, ok)
	require.Equal(t, dest, deliver.ClientID)
	require.Equal(t, message, deliver.Body)
}

func TestReplayedPacketRejectedOnSecondDelivery(t *testing.T) {
	p := params.DefaultParams
	node, hop := newTestNode(t, 7)

	pkt, _, err := NewForwardPacket(p, []Hop{hop}, []byte("carol"), []byte("hi"), rand.Reader)
	require.NoError(t, err)

	_, err = node.Unwrap(pkt, p)
	require.NoError(t, err)

	_, err = node.Unwrap(pkt, p)
	require.ErrorIs(t, err, ErrReplay)
}

func TestTamperedGammaRejected(t *testing.T) {
	p := params.DefaultParams
	node, hop := newTestNode(t, 9)

	pkt, _, err := NewForwardPacket(p, []Hop{hop}, []byte("dave"), []byte("hi"), rand.Reader)
	require.NoError(t, err)
	pkt.Gamma[0] ^= 0xFF

	_, err = node.Unwrap(pkt, p)
	require.ErrorIs(t, err, ErrIncorrectMAC)
}

func TestBodySizeMismatchRejected(t *testing.T) {
	p := params.DefaultParams
	node, hop := newTestNode(t, 11)

	pkt, _, err := NewForwardPacket(p, []Hop{hop}, []byte("erin"), []byte("hi"), rand.Reader)
	require.NoError(t, err)
	pkt.Delta = pkt.Delta[:len(pkt.Delta)-1]

	_, err = node.Unwrap(pkt, p)
	require.ErrorIs(t, err, ErrBodySizeMismatch)
}

func TestTamperedAlphaFailsMAC(t *testing.T) {
	p := params.DefaultParams
	node, hop := newTestNode(t, 13)

	pkt, _, err := NewForwardPacket(p, []Hop{hop}, []byte("frank"), []byte("hi"), rand.Reader)
	require.NoError(t, err)
	pkt.Alpha[0] ^= 0xFF

	// A tampered alpha is still 32 bytes, so it passes the InGroup
	// length check; it derives a different shared secret, so the MAC
	// computed over beta no longer matches gamma.
	_, err = node.Unwrap(pkt, p)
	require.ErrorIs(t, err, ErrIncorrectMAC)
}

func TestSURBReplyRoundTrip(t *testing.T) {
	p := params.DefaultParams
	nodes := map[[command.NodeIDLength]byte]*Node{}
	var route []Hop
	for i := byte(1); i <= 3; i++ {
		node, hop := newTestNode(t, i)
		nodes[hop.ID] = node
		route = append(route, hop)
	}

	clientID := make([]byte, p.K-1)
	clientID[0] = 'A'

	surb, err := NewSURB(p, route, clientID, rand.Reader)
	require.NoError(t, err)
	require.Equal(t, route[0].ID, surb.FirstHop)

	reply := []byte("the human rights message travels back home")
	pkt, err := EncryptSURBReply(p, surb, reply)
	require.NoError(t, err)

	outcome := unwrapChain(t, nodes, surb.FirstHop, pkt, p)
	deliver, ok := outcome.(DeliverToClient)
	require.True(t, ok)
	require.Equal(t, clientID, deliver.ClientID)
	require.Equal(t, surb.MessageID[:p.K], deliver.MessageID)
	require.Equal(t, reply, deliver.Body)
}

func TestNewForwardPacketRejectsOversizedRoute(t *testing.T) {
	p := params.DefaultParams
	route := make([]Hop, p.R+1)
	for i := range route {
		_, hop := newTestNode(t, byte(i+1))
		route[i] = hop
	}
	_, _, err := NewForwardPacket(p, route, []byte("x"), []byte("hi"), rand.Reader)
	require.ErrorIs(t, err, ErrRouteTooLong)
}

func TestNewSURBRejectsWrongClientIDLength(t *testing.T) {
	p := params.DefaultParams
	_, hop := newTestNode(t, 1)
	_, err := NewSURB(p, []Hop{hop}, []byte("too-short"), rand.Reader)
	require.ErrorIs(t, err, ErrBadClientID)
}
