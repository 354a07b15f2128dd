package replay

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/coreos/bbolt"
)

// BoltCache is a durable replay cache backed by a bolt database, one
// bucket per node public key so that a new node key automatically
// starts with a fresh cache (spec.md 3's key-lifecycle note), the way
// katzenpost-client's storage layer keys its ingress buckets off an
// account name.
type BoltCache struct {
	mu     sync.Mutex
	db     *bbolt.DB
	bucket []byte
}

// OpenBoltCache opens (creating if necessary) a replay cache at path,
// scoped to the bucket for the given node public key.
func OpenBoltCache(path string, nodePublicKey []byte) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("replay: opening bolt db: %w", err)
	}
	bucket := []byte(fmt.Sprintf("replay_%s", hex.EncodeToString(nodePublicKey)))
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("replay: creating bucket: %w", err)
	}
	return &BoltCache{db: db, bucket: bucket}, nil
}

// Close releases the underlying bolt database handle.
func (c *BoltCache) Close() error {
	return c.db.Close()
}

// HasSeen reports whether tag has already been marked seen.
func (c *BoltCache) HasSeen(tag Tag) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found bool
	_ = c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		found = b.Get(tag[:]) != nil
		return nil
	})
	return found
}

// MarkSeen durably records tag as seen.
func (c *BoltCache) MarkSeen(tag Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(c.bucket)
		return b.Put(tag[:], []byte{1})
	})
}

// Flush deletes and recreates the bucket, discarding every recorded tag.
func (c *BoltCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(c.bucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(c.bucket)
		return err
	})
}
