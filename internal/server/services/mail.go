package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/maildepot/maildepot/internal/common"
	"github.com/maildepot/maildepot/internal/cryptox"
	"github.com/maildepot/maildepot/internal/dbx"
	"github.com/maildepot/maildepot/internal/logging"
	"github.com/maildepot/maildepot/internal/server/blob"
	"github.com/maildepot/maildepot/internal/server/models"
	"github.com/maildepot/maildepot/internal/server/repositories/repomanager"
)

// MailService keeps the metadata store and the blob store mutually
// consistent across message creation, duplication, and relocation. Each
// operation mutates metadata before the blob, and commits only after both,
// so compensation (rollback, then file deletion) always runs in reverse
// acquisition order. There is no cross-resource locking; uniqueness of
// database-assigned message numbers keeps concurrent writers apart on disk.
type MailService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  *blob.Store
	server string
	logger logging.Logger
}

// NewMailService builds the service. server is this host's storage-server
// name; callers addressing content by that name are resolved to the local,
// unqualified subtree.
func NewMailService(db *sql.DB, repos repomanager.RepositoryManager, blobs *blob.Store, server string, logger logging.Logger) *MailService {
	return &MailService{db: db, repos: repos, blobs: blobs, server: server, logger: logger}
}

// StoreInput carries one message to be persisted. A non-nil RecipientKey
// switches the body transform from compression to whole-body sealing.
type StoreInput struct {
	UserNum       uint64
	RecipientKey  *[cryptox.KeySize]byte
	FolderNum     uint64
	Status        uint32
	SpamSignature uint64
	SpamKey       uint64
	Body          []byte
}

// Store persists a message: body transform, metadata insert, blob write,
// commit. The metadata row records the original body length, not the
// transformed payload length. Returns the new message number.
func (s *MailService) Store(ctx context.Context, in StoreInput) (uint64, error) {

	var payload []byte
	var flags uint8
	var err error

	status := in.Status
	if in.RecipientKey != nil {
		if payload, err = cryptox.Seal(in.Body, in.RecipientKey); err != nil {
			return 0, fmt.Errorf("encrypt message: %w", err)
		}
		flags = models.FileFlagEncrypted
		status |= models.StatusEncrypted
	} else {
		if payload, err = cryptox.Compress(in.Body); err != nil {
			return 0, fmt.Errorf("compress message: %w", err)
		}
		flags = models.FileFlagCompressed
	}

	var messagenum uint64
	var blobPath string

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		messagenum, err = s.repos.Messages(tx).Insert(ctx, &models.MessageRecord{
			UserNum:       in.UserNum,
			FolderNum:     in.FolderNum,
			Status:        status,
			Size:          uint32(len(in.Body)),
			SpamSignature: in.SpamSignature,
			SpamKey:       in.SpamKey,
		})
		if err != nil {
			return err
		}
		blobPath, err = s.blobs.Write(messagenum, flags, payload)
		return err
	})
	if err != nil {
		// The transaction has rolled back (or its commit failed). A non-empty
		// path means the blob write completed, so delete the file rather than
		// leave an orphan. The store's own commit outcome is taken as rolled
		// back without an independent verification read.
		s.removeBlob(ctx, blobPath)
		return 0, fmt.Errorf("store message: %w", err)
	}

	return messagenum, nil
}

// CopyInput identifies a source message and the attributes its duplicate row
// carries.
type CopyInput struct {
	UserNum  uint64
	Original uint64

	// Server qualifies where the original's blob lives. Empty, or this
	// host's own name, means local.
	Server string

	Size          uint32
	FolderNum     uint64
	Status        uint32
	SpamSignature uint64
	SpamKey       uint64
	Created       time.Time
}

// Copy duplicates a message: a new metadata row and a hard link to the
// original blob, which share storage. The source blob is probed before any
// transaction; absence fails with nothing touched. A failed commit removes
// the fresh link, mirroring Store's orphan cleanup.
//
// The link always lives under the local subtree, so the duplicate row is
// recorded as local whatever qualifier the source carried. A row carrying
// the source's qualifier would address a path where no blob exists.
func (s *MailService) Copy(ctx context.Context, in CopyInput) (uint64, error) {

	src := in.Server
	if src == s.server {
		src = ""
	}

	if err := s.blobs.Exists(in.Original, src); err != nil {
		return 0, fmt.Errorf("copy source %d: %w", in.Original, err)
	}

	var messagenum uint64
	var copyPath string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		messagenum, err = s.repos.Messages(tx).InsertDuplicate(ctx, &models.MessageRecord{
			UserNum:       in.UserNum,
			FolderNum:     in.FolderNum,
			Status:        in.Status,
			Size:          in.Size,
			SpamSignature: in.SpamSignature,
			SpamKey:       in.SpamKey,
			Created:       in.Created,
		})
		if err != nil {
			return err
		}
		copyPath, err = s.blobs.Link(in.Original, src, messagenum)
		return err
	})
	if err != nil {
		s.removeBlob(ctx, copyPath)
		return 0, fmt.Errorf("copy message %d: %w", in.Original, err)
	}

	return messagenum, nil
}

// Move repoints a message's folder. Zero affected rows is ErrNotFound, a
// caller-correctable miss; more than one is an invariant violation. Both
// roll the transaction back.
func (s *MailService) Move(ctx context.Context, usernum, messagenum, source, target uint64) error {

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		affected, err := s.repos.Messages(tx).UpdateFolder(ctx, usernum, messagenum, source, target)
		if err != nil {
			return err
		}
		switch {
		case affected == 0:
			return common.ErrNotFound
		case affected != 1:
			s.logger.Error(ctx, "folder move affected multiple rows",
				"usernum", usernum, "messagenum", messagenum, "affected", affected)
			return common.ErrInconsistent
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("move message %d: %w", messagenum, err)
	}

	return nil
}

// removeBlob is the compensation step for a file that outlived its
// transaction. A failed removal is logged, never allowed to mask the
// original failure.
func (s *MailService) removeBlob(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.blobs.Remove(path); err != nil {
		s.logger.Error(ctx, "failed to remove orphaned message file", "path", path, "error", err)
	}
}
