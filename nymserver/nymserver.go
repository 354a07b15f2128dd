// Package nymserver implements a minimal SURB reply service: clients
// deposit single-use reply blocks under a nym id, and later senders
// hand the server a plaintext reply addressed to that nym, which the
// server wraps in a fresh Sphinx packet using the oldest still-unused
// SURB on file, the way a Katzenpost provider's spool hands a stored
// SURB back out to answer an onToUser delivery (provider.go).
package nymserver

import (
	"errors"
	"sync"

	logging "gopkg.in/op/go-logging.v1"

	"github.com/sphinxmix/core/command"
	"github.com/sphinxmix/core/params"
	"github.com/sphinxmix/core/sphinx"
)

var log = logging.MustGetLogger("nymserver")

// ErrNoSURBAvailable is returned by Process when a nym has no stored
// SURB left to answer with.
var ErrNoSURBAvailable = errors.New("nymserver: no SURB available for this nym")

// ErrUnknownNym is returned by Process when the nym id has never had a
// SURB stored for it.
var ErrUnknownNym = errors.New("nymserver: unknown nym id")

// Server holds, per nym id, a FIFO queue of SURBs deposited by that
// nym's owner and not yet consumed by a reply.
type Server struct {
	p *params.SphinxParams

	mu    sync.Mutex
	surbs map[string][]*sphinx.SURB
}

// NewServer constructs an empty nym server for the given parameter set.
func NewServer(p *params.SphinxParams) *Server {
	return &Server{p: p, surbs: make(map[string][]*sphinx.SURB)}
}

// StoreSURB enqueues surb under nym, to be spent by a future Process
// call. SURBs are consumed oldest-first.
func (s *Server) StoreSURB(nym string, surb *sphinx.SURB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surbs[nym] = append(s.surbs[nym], surb)
	log.Debugf("stored SURB for nym %q (%d now queued)", nym, len(s.surbs[nym]))
}

// Process pops the oldest unused SURB stored for nym, layers message
// into a reply packet with it, and returns the first hop to send that
// packet to.
func (s *Server) Process(nym string, message []byte) ([command.NodeIDLength]byte, *sphinx.Packet, error) {
	var firstHop [command.NodeIDLength]byte

	s.mu.Lock()
	queue, ok := s.surbs[nym]
	if !ok {
		s.mu.Unlock()
		return firstHop, nil, ErrUnknownNym
	}
	if len(queue) == 0 {
		s.mu.Unlock()
		return firstHop, nil, ErrNoSURBAvailable
	}
	surb := queue[0]
	s.surbs[nym] = queue[1:]
	s.mu.Unlock()

	pkt, err := sphinx.EncryptSURBReply(s.p, surb, message)
	if err != nil {
		return firstHop, nil, err
	}
	log.Debugf("spent SURB for nym %q, routing reply via first hop %x", nym, surb.FirstHop)
	return surb.FirstHop, pkt, nil
}

// Pending reports how many unused SURBs remain queued for nym.
func (s *Server) Pending(nym string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.surbs[nym])
}
