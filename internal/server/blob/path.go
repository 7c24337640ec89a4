// Package blob is the flat-file area holding message bodies, addressed by
// message number through a deterministic sharded path. Files carry a fixed
// binary header followed by the compressed or sealed payload.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// shardWidth bounds the fan-out of each directory level. Four levels of
// division cover the full message-number range.
const (
	shardWidth  = 32768
	shardLevels = 4
)

// PathNamer derives filesystem locations from message numbers. A non-empty
// server qualifier addresses content held under another storage server's
// subtree.
type PathNamer struct {
	root string
}

func NewPathNamer(root string) *PathNamer {
	return &PathNamer{root: root}
}

// Dir returns the directory that holds the given message's file.
func (n *PathNamer) Dir(messagenum uint64, server string) string {
	parts := make([]string, 0, shardLevels+2)
	parts = append(parts, n.root)
	if server != "" {
		parts = append(parts, server)
	}
	div := uint64(1)
	for i := 0; i < shardLevels; i++ {
		div *= shardWidth
	}
	for i := 0; i < shardLevels; i++ {
		parts = append(parts, strconv.FormatUint(messagenum/div%shardWidth, 10))
		div /= shardWidth
	}
	return filepath.Join(parts...)
}

// Path returns the full file path for a message. Deterministic: the same
// message number and server always map to the same location.
func (n *PathNamer) Path(messagenum uint64, server string) string {
	return filepath.Join(n.Dir(messagenum, server), strconv.FormatUint(messagenum, 10))
}

// EnsureDir creates the message's directory tree. Idempotent.
func (n *PathNamer) EnsureDir(messagenum uint64, server string) error {
	dir := n.Dir(messagenum, server)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
