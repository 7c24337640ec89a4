package blob

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/maildepot/maildepot/internal/common"
)

// On-disk header: [magic1:u32][magic2:u32][reserved:u32][flags:u8],
// little-endian, immediately followed by the payload. No trailer, no
// checksum.
const (
	headerMagic1 uint32 = 0x4d44504f // "MDPO"
	headerMagic2 uint32 = 0x544d5347 // "TMSG"

	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 13
)

// Store writes and reads message blobs. Callers observe either a complete,
// durable, header-prefixed file at the derived path, or no file at all.
type Store struct {
	namer *PathNamer
}

func NewStore(namer *PathNamer) *Store {
	return &Store{namer: namer}
}

func encodeHeader(flags uint8) [HeaderSize]byte {
	var h [HeaderSize]byte
	binary.LittleEndian.PutUint32(h[0:4], headerMagic1)
	binary.LittleEndian.PutUint32(h[4:8], headerMagic2)
	binary.LittleEndian.PutUint32(h[8:12], 0)
	h[12] = flags
	return h
}

// open creates the message file, handling the missing-directory case with a
// single mkdir-and-retry. Any other open failure, or a second failure after
// the retry, is final. The narrow retry keeps unrelated I/O errors from
// being masked.
func (s *Store) open(path string, messagenum uint64) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := s.namer.EnsureDir(messagenum, ""); err != nil {
		return nil, err
	}
	f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Write persists a message body under its derived path: header then payload
// as two sequential writes, synced to stable storage before success. On any
// failure after creation the partial file is removed.
func (s *Store) Write(messagenum uint64, flags uint8, payload []byte) (string, error) {

	path := s.namer.Path(messagenum, "")

	f, err := s.open(path, messagenum)
	if err != nil {
		return "", err
	}

	header := encodeHeader(flags)
	if _, err := f.Write(header[:]); err != nil {
		return "", s.abandon(f, path, fmt.Errorf("write header %s: %w", path, err))
	}
	if _, err := f.Write(payload); err != nil {
		return "", s.abandon(f, path, fmt.Errorf("write payload %s: %w", path, err))
	}
	if err := f.Sync(); err != nil {
		return "", s.abandon(f, path, fmt.Errorf("sync %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

// abandon closes and deletes a partially written file, returning the
// original failure.
func (s *Store) abandon(f *os.File, path string, err error) error {
	_ = f.Close()
	_ = os.Remove(path)
	return err
}

// Link creates the copy's path as a hard link to the original's blob, with
// the same single mkdir-and-retry policy as Write. The two messages share
// storage until one is deleted.
func (s *Store) Link(originalnum uint64, server string, copynum uint64) (string, error) {

	origpath := s.namer.Path(originalnum, server)
	copypath := s.namer.Path(copynum, "")

	err := os.Link(origpath, copypath)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		if mkErr := s.namer.EnsureDir(copynum, ""); mkErr != nil {
			return "", mkErr
		}
		err = os.Link(origpath, copypath)
	}
	if err != nil {
		return "", fmt.Errorf("link %s -> %s: %w", origpath, copypath, err)
	}

	return copypath, nil
}

// Exists probes a message blob by opening and closing it.
func (s *Store) Exists(messagenum uint64, server string) error {
	f, err := os.Open(s.namer.Path(messagenum, server))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("message %d: %w", messagenum, common.ErrNotFound)
		}
		return fmt.Errorf("probe message %d: %w", messagenum, err)
	}
	return f.Close()
}

// Read loads a message blob and validates its header, returning the storage
// flags and the raw payload. A magic mismatch means the file is not one of
// ours and is reported as ErrInconsistent.
func (s *Store) Read(messagenum uint64, server string) (uint8, []byte, error) {

	path := s.namer.Path(messagenum, server)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil, fmt.Errorf("message %d: %w", messagenum, common.ErrNotFound)
		}
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: truncated header in %s", common.ErrInconsistent, path)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != headerMagic1 ||
		binary.LittleEndian.Uint32(data[4:8]) != headerMagic2 {
		return 0, nil, fmt.Errorf("%w: bad magic in %s", common.ErrInconsistent, path)
	}

	return data[12], data[HeaderSize:], nil
}

// Remove deletes a blob file. Used by the services to compensate after a
// failed commit.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
