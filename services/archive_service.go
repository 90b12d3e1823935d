package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/database"
	"go.uber.org/zap"
)

// Archiver keeps a copy of a subtree before it is deleted and returns where
// the copy went.
type Archiver interface {
	Archive(ctx context.Context, rootPath string, docs []database.Document) (string, error)
}

// ObjectStore is the object storage an ArchiveService writes to
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Snapshot is the archived form of a deleted subtree
type Snapshot struct {
	Root       string              `json:"root"`
	ArchivedAt int64               `json:"archivedAt"`
	Documents  []database.Document `json:"documents"`
}

// ArchiveService writes deletion snapshots as JSON objects
type ArchiveService struct {
	objects   ObjectStore
	collegeID string
	logger    *zap.Logger
	now       func() time.Time
}

// NewArchiveService creates a new archive service
func NewArchiveService(objects ObjectStore, collegeID string, logger *zap.Logger) *ArchiveService {
	return &ArchiveService{objects: objects, collegeID: collegeID, logger: logger, now: time.Now}
}

// SnapshotKey is archives/<college>/<root path>/<unix ms>.json
func SnapshotKey(collegeID, rootPath string, at time.Time) string {
	return fmt.Sprintf("archives/%s/%s/%d.json", collegeID, strings.Trim(rootPath, "/"), at.UnixMilli())
}

// Archive uploads the snapshot of a subtree
func (a *ArchiveService) Archive(ctx context.Context, rootPath string, docs []database.Document) (string, error) {
	at := a.now()
	body, err := json.Marshal(Snapshot{Root: rootPath, ArchivedAt: at.UnixMilli(), Documents: docs})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode snapshot")
	}

	key := SnapshotKey(a.collegeID, rootPath, at)
	if err := a.objects.PutObject(ctx, key, body, "application/json"); err != nil {
		return "", errors.Wrapf(err, "failed to upload snapshot of %s", rootPath)
	}

	a.logger.Info("subtree archived",
		zap.String("root", rootPath),
		zap.String("key", key),
		zap.Int("documents", len(docs)))
	return key, nil
}
