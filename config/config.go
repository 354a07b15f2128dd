// Package config loads the TOML configuration for a sphinxctl node:
// the packet parameters it speaks, its own key material, and the
// paths to the consensus directory and replay cache it persists to
// disk, in the shape of katzenpost-client/config's FromFile loader.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/sphinxmix/core/command"
)

// ErrMissingNode is returned when a Config has no [Node] section,
// since every sphinxctl invocation needs a node identity to act as.
var ErrMissingNode = errors.New("config: missing [Node] section")

// Params mirrors params.SphinxParams in TOML form. It is kept
// separate from params.SphinxParams so this package does not need to
// import params just to decode three integers.
type Params struct {
	R int `toml:"r"`
	K int `toml:"k"`
	M int `toml:"m"`
}

// Node describes this process's own mix identity: a 16-byte hex id
// and the hex-encoded Curve25519 private key it unwraps packets with.
type Node struct {
	ID         string `toml:"id"`
	PrivateKey string `toml:"private_key"`
}

// Consensus points at the directory file a builder consults to
// resolve node ids to public keys.
type Consensus struct {
	DirectoryPath string `toml:"directory_path"`
}

// ReplayCache points at the bolt database backing this node's
// persistent replay cache.
type ReplayCache struct {
	Path string `toml:"path"`
}

// Config is the full on-disk configuration of one sphinxctl node.
type Config struct {
	Params      Params      `toml:"Params"`
	Node        Node        `toml:"Node"`
	Consensus   Consensus   `toml:"Consensus"`
	ReplayCache ReplayCache `toml:"ReplayCache"`
}

// FromFile decodes a Config from a TOML file at path, the way
// katzenpost-client/config.FromFile reads a client's configuration.
func FromFile(path string) (*Config, error) {
	c := &Config{}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if c.Node.ID == "" {
		return nil, ErrMissingNode
	}
	return c, nil
}

// NodeID decodes the configured node id into the fixed-size array the
// rest of this module passes around.
func (c *Config) NodeID() ([command.NodeIDLength]byte, error) {
	var id [command.NodeIDLength]byte
	raw, err := hex.DecodeString(c.Node.ID)
	if err != nil {
		return id, fmt.Errorf("config: decoding node id: %w", err)
	}
	if len(raw) != command.NodeIDLength {
		return id, fmt.Errorf("config: node id must be %d bytes, got %d", command.NodeIDLength, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// PrivateKey decodes the configured private key into a 32-byte array.
func (c *Config) PrivateKey() ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(c.Node.PrivateKey)
	if err != nil {
		return key, fmt.Errorf("config: decoding private key: %w", err)
	}
	if len(raw) != 32 {
		return key, fmt.Errorf("config: private key must be 32 bytes, got %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// Exists reports whether os.Stat succeeds for path. sphinxctl does not
// call it: the bolt-backed replay cache and consensus directory are
// created on open when their database file is missing.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
