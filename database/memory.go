package database

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/config"
)

// CommitHook runs before a MemoryStore commit is applied; a non-nil error
// aborts the commit with nothing written.
type CommitHook func(ops []BatchOp) error

// MemoryStore keeps documents in a map. Used by tests and the "memory" driver.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]Document
	maxBatch int
	hook     CommitHook
	commits  int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(maxBatch int) *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]Document),
		maxBatch: maxBatch,
	}
}

func (s *MemoryStore) Init() error        { return nil }
func (s *MemoryStore) Close() error       { return nil }
func (s *MemoryStore) HealthCheck() error { return nil }
func (s *MemoryStore) Driver() string     { return config.DriverMemory }
func (s *MemoryStore) MaxBatchSize() int  { return s.maxBatch }

// SetCommitHook installs a hook consulted by every commit
func (s *MemoryStore) SetCommitHook(hook CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
}

// Commits returns the number of successfully applied batches
func (s *MemoryStore) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Len returns the number of stored documents
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return nil, errors.WithStack(ErrDocumentNotFound)
	}
	doc.Data = cloneData(doc.Data)
	return &doc, nil
}

func (s *MemoryStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []Document{}
	for path, doc := range s.docs {
		if ParentPath(path) == collectionPath {
			doc.Data = cloneData(doc.Data)
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) Batch() WriteBatch {
	return &memoryBatch{store: s}
}

type memoryBatch struct {
	opQueue
	store *MemoryStore
}

func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := b.check(ctx, b.store.maxBatch); err != nil {
		return err
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hook != nil {
		if err := s.hook(b.ops); err != nil {
			return errors.Wrap(err, "commit batch")
		}
	}

	for _, op := range b.ops {
		if op.Kind == OpDelete {
			delete(s.docs, op.Path)
			continue
		}
		data := op.Data
		if existing, ok := s.docs[op.Path]; ok && op.Merge {
			data = mergeData(existing.Data, op.Data)
		}
		s.docs[op.Path] = Document{ID: DocumentID(op.Path), Path: op.Path, Data: cloneData(data)}
	}
	s.commits++
	return nil
}
