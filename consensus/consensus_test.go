package consensus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sphinxmix/core/command"
)

func TestMapDirectoryLookup(t *testing.T) {
	d := NewMapDirectory()
	var id [command.NodeIDLength]byte
	id[0] = 0xAA
	var pub [32]byte
	pub[0] = 0xBB

	_, err := d.Lookup(id)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, d.Add(id, pub))
	got, err := d.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, pub, got)
}

func TestBoltDirectoryPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consensus.db")

	var id [command.NodeIDLength]byte
	id[1] = 0x01
	var pub [32]byte
	pub[1] = 0x02

	d, err := OpenBoltDirectory(path)
	require.NoError(t, err)
	require.NoError(t, d.Add(id, pub))
	require.NoError(t, d.Close())

	reopened, err := OpenBoltDirectory(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Lookup(id)
	require.NoError(t, err)
	require.Equal(t, pub, got)
}

func TestFormatNodeID(t *testing.T) {
	var id [command.NodeIDLength]byte
	id[0] = 0xFF
	require.Contains(t, FormatNodeID(id), "ff")
}
