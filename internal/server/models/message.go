package models

import "time"

// Storage flags recorded in the on-disk file header. Compression and
// encryption are mutually exclusive: an encrypted body is sealed whole,
// skipping compression.
const (
	FileFlagCompressed uint8 = 1 << 0
	FileFlagEncrypted  uint8 = 1 << 1
)

// Message status bits stored in the metadata row. Only the bits this layer
// sets or tests are named; the rest belong to the protocol handlers.
const (
	StatusSeen      uint32 = 1 << 0
	StatusAnswered  uint32 = 1 << 1
	StatusFlagged   uint32 = 1 << 2
	StatusDeleted   uint32 = 1 << 3
	StatusRecent    uint32 = 1 << 4
	StatusEncrypted uint32 = 1 << 9
)

// MessageRecord is one stored mail message's metadata row. MessageNum is
// assigned by the database on insert and never reused.
type MessageRecord struct {
	MessageNum    uint64
	UserNum       uint64
	FolderNum     uint64
	Server        string
	Status        uint32
	Size          uint32
	SpamSignature uint64
	SpamKey       uint64
	Created       time.Time
}
