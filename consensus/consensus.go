// Package consensus provides the node_id -> public_key directory a
// packet builder consults when selecting a route. Distribution of
// this directory (gossip, a real consensus protocol, an authority
// server) is out of scope per spec.md 1; this package only covers the
// lookup contract and two concrete backings.
package consensus

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/coreos/bbolt"

	"github.com/sphinxmix/core/command"
)

// ErrNotFound is returned by Lookup when a node id has no known public key.
var ErrNotFound = errors.New("consensus: node id not found")

// Directory maps mix node identifiers to their Curve25519 public keys.
type Directory interface {
	Lookup(nodeID [command.NodeIDLength]byte) ([32]byte, error)
	Add(nodeID [command.NodeIDLength]byte, pub [32]byte) error
}

// MapDirectory is a plain in-memory directory, suitable for builders
// running in the same process as a test harness or a small demo
// network.
type MapDirectory struct {
	mu sync.RWMutex
	m  map[[command.NodeIDLength]byte][32]byte
}

// NewMapDirectory constructs an empty in-memory directory.
func NewMapDirectory() *MapDirectory {
	return &MapDirectory{m: make(map[[command.NodeIDLength]byte][32]byte)}
}

// Lookup returns the public key registered for nodeID.
func (d *MapDirectory) Lookup(nodeID [command.NodeIDLength]byte) ([32]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pub, ok := d.m[nodeID]
	if !ok {
		return [32]byte{}, ErrNotFound
	}
	return pub, nil
}

// Add registers or replaces a node's public key.
func (d *MapDirectory) Add(nodeID [command.NodeIDLength]byte, pub [32]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[nodeID] = pub
	return nil
}

// boltBucket is the single bucket a BoltDirectory keeps its entries in.
var boltBucket = []byte("consensus")

// BoltDirectory is a bolt-backed directory, grounded on
// katzenpost-client's mix_pki persistence, for a long-lived client or
// provider that should not have to re-fetch the network view on every
// restart.
type BoltDirectory struct {
	db *bbolt.DB
}

// OpenBoltDirectory opens (creating if necessary) a directory database at path.
func OpenBoltDirectory(path string) (*BoltDirectory, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("consensus: opening bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltDirectory{db: db}, nil
}

// Close releases the underlying bolt database handle.
func (d *BoltDirectory) Close() error { return d.db.Close() }

// Lookup returns the public key registered for nodeID.
func (d *BoltDirectory) Lookup(nodeID [command.NodeIDLength]byte) ([32]byte, error) {
	var pub [32]byte
	found := false
	err := d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(nodeID[:])
		if v == nil {
			return nil
		}
		copy(pub[:], v)
		found = true
		return nil
	})
	if err != nil {
		return pub, err
	}
	if !found {
		return pub, ErrNotFound
	}
	return pub, nil
}

// Add registers or replaces a node's public key.
func (d *BoltDirectory) Add(nodeID [command.NodeIDLength]byte, pub [32]byte) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put(nodeID[:], pub[:])
	})
}

// FormatNodeID renders a node id as hex for logging, the way
// katzenpost-client's debug logs render key material.
func FormatNodeID(id [command.NodeIDLength]byte) string {
	return hex.EncodeToString(id[:])
}
