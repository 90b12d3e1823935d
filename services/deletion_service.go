package services

import (
	"context"
	"errors"

	"github.com/sahilchouksey/campus-api/database"
	"go.uber.org/zap"
)

// DeletionService removes a node of the hierarchy together with every
// document below it.
type DeletionService struct {
	storeAccess
	tree Hierarchy
	opts options
}

// NewDeletionService creates a new deletion service
func NewDeletionService(store database.DocumentStore, collegeID string, logger *zap.Logger, opts ...Option) *DeletionService {
	return &DeletionService{
		storeAccess: storeAccess{store: store, logger: logger},
		tree:        Hierarchy{CollegeID: collegeID},
		opts:        newOptions(opts),
	}
}

// DeleteResult reports what a deletion removed
type DeleteResult struct {
	Root       string `json:"root"`
	Deleted    int    `json:"deleted"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// DeleteDegree removes a degree with all its streams, batches and below
func (s *DeletionService) DeleteDegree(ctx context.Context, degreeID string) (*DeleteResult, error) {
	const op = "delete degree"

	if !validID(degreeID) {
		return nil, validationError(op, "degree id is required")
	}
	return s.deleteSubtree(ctx, op, s.tree.DegreePath(degreeID), "degree", nil)
}

// DeleteStream removes a stream and rewrites the degree's stream count
func (s *DeletionService) DeleteStream(ctx context.Context, ref StreamRef) (*DeleteResult, error) {
	const op = "delete stream"

	if !ref.valid() {
		return nil, validationError(op, "degree and stream ids are required")
	}

	docs, err := s.children(ctx, op, s.tree.StreamsPath(ref.DegreeID), "streams")
	if err != nil {
		return nil, err
	}
	remaining := 0
	for _, doc := range docs {
		if doc.ID != ref.StreamID {
			remaining++
		}
	}

	countUpdate := database.BatchOp{
		Kind:  database.OpSet,
		Path:  s.tree.DegreePath(ref.DegreeID),
		Data:  map[string]interface{}{"streamCount": remaining},
		Merge: true,
	}
	return s.deleteSubtree(ctx, op, s.tree.StreamPath(ref), "stream", &countUpdate)
}

// DeleteBatch removes a batch with its years, semesters and sections
func (s *DeletionService) DeleteBatch(ctx context.Context, ref BatchRef) (*DeleteResult, error) {
	const op = "delete batch"

	if !ref.valid() {
		return nil, validationError(op, "degree, stream and batch ids are required")
	}
	return s.deleteSubtree(ctx, op, s.tree.BatchPath(ref), "batch", nil)
}

// DeleteSection removes a section with its leaf collections. A semester
// keeps at least one section, so its last section cannot be deleted.
func (s *DeletionService) DeleteSection(ctx context.Context, ref SectionRef) (*DeleteResult, error) {
	const op = "delete section"

	if !ref.valid() {
		return nil, validationError(op, "section path is incomplete")
	}

	siblings, err := s.children(ctx, op, s.tree.SectionsPath(ref.SemesterRef), "sections")
	if err != nil {
		return nil, err
	}
	found := false
	for _, doc := range siblings {
		if doc.ID == ref.SectionID {
			found = true
			break
		}
	}
	if !found {
		return nil, notFoundError(op, "section not found")
	}
	if len(siblings) == 1 {
		return nil, conflictError(op, "section %q is the only section of its semester", ref.SectionID)
	}
	return s.deleteSubtree(ctx, op, s.tree.SectionPath(ref), "section", nil)
}

// Collect returns the document at rootPath and every document below it in
// pre-order: a parent always comes before its descendants.
func (s *DeletionService) Collect(ctx context.Context, rootPath string) ([]database.Document, error) {
	return s.collect(ctx, "collect subtree", rootPath, "document")
}

func (s *DeletionService) collect(ctx context.Context, op, rootPath, what string) ([]database.Document, error) {
	root, err := s.store.Get(ctx, rootPath)
	if errors.Is(err, database.ErrDocumentNotFound) {
		return nil, notFoundError(op, "%s not found", what)
	}
	if err != nil {
		return nil, persistenceError(op, err, "could not read %s", what)
	}

	var ordered []database.Document
	stack := []database.Document{*root}
	for len(stack) > 0 {
		doc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ordered = append(ordered, doc)

		for _, sub := range subcollections[database.CollectionName(doc.Path)] {
			children, err := s.store.List(ctx, database.JoinPath(doc.Path, sub))
			if err != nil {
				s.logger.Error("failed to list subcollection", zap.String("op", op), zap.String("path", doc.Path), zap.String("collection", sub), zap.Error(err))
				return nil, persistenceError(op, err, "could not list %s below %s", sub, what)
			}
			stack = append(stack, children...)
		}
	}
	return ordered, nil
}

// deleteSubtree deletes descendants before their parents in chunks no larger
// than the store's batch limit. A trailing write, if given, goes into the
// last chunk that has room for it.
func (s *DeletionService) deleteSubtree(ctx context.Context, op, rootPath, what string, trailing *database.BatchOp) (*DeleteResult, error) {
	docs, err := s.collect(ctx, op, rootPath, what)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{Root: rootPath}
	if s.opts.archiver != nil {
		key, err := s.opts.archiver.Archive(ctx, rootPath, docs)
		if err != nil {
			s.logger.Error("failed to archive subtree", zap.String("op", op), zap.String("root", rootPath), zap.Error(err))
			return nil, persistenceError(op, err, "could not archive %s before deletion, nothing was deleted", what)
		}
		result.ArchiveKey = key
	}

	ops := make([]database.BatchOp, 0, len(docs)+1)
	for i := len(docs) - 1; i >= 0; i-- {
		ops = append(ops, database.BatchOp{Kind: database.OpDelete, Path: docs[i].Path})
	}
	if trailing != nil {
		ops = append(ops, *trailing)
	}

	limit := s.store.MaxBatchSize()
	if limit <= 0 {
		limit = len(ops)
	}

	for start := 0; start < len(ops); start += limit {
		end := start + limit
		if end > len(ops) {
			end = len(ops)
		}

		b := s.store.Batch()
		for _, o := range ops[start:end] {
			if o.Kind == database.OpDelete {
				b.Delete(o.Path)
			} else {
				b.Set(o.Path, o.Data, o.Merge)
			}
		}
		if err := b.Commit(ctx); err != nil {
			s.logger.Error("deletion stopped part-way",
				zap.String("op", op),
				zap.String("root", rootPath),
				zap.Int("deleted", result.Deleted),
				zap.Int("total", len(docs)),
				zap.Error(err))
			return nil, persistenceError(op, err, "deleted %d of %d documents before failing", result.Deleted, len(docs))
		}
		for _, o := range ops[start:end] {
			if o.Kind == database.OpDelete {
				result.Deleted++
			}
		}
	}

	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)
	s.logger.Info("subtree deleted",
		zap.String("op", op),
		zap.String("root", rootPath),
		zap.Int("deleted", result.Deleted))
	return result, nil
}
