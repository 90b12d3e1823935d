package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/campus-api/database"
	"go.uber.org/zap"
)

// Cache is the subset of the redis cache the services use
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Option configures a service
type Option func(*options)

type options struct {
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
	archiver Archiver
}

func newOptions(opts []Option) options {
	o := options{
		cacheTTL: 10 * time.Minute,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCache caches read models; a nil cache disables caching
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = cache
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the uuid generator for new documents
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithArchiver snapshots subtrees before they are deleted
func WithArchiver(a Archiver) Option {
	return func(o *options) { o.archiver = a }
}

func treeCacheKey(collegeID string) string {
	return "structure:tree:" + collegeID
}

// storeAccess holds the store helpers shared by the services
type storeAccess struct {
	store  database.DocumentStore
	logger *zap.Logger
}

// load reads one document into out. A missing document is a NotFound error
// naming what.
func (a storeAccess) load(ctx context.Context, op, path, what string, out interface{}) error {
	doc, err := a.store.Get(ctx, path)
	if errors.Is(err, database.ErrDocumentNotFound) {
		return notFoundError(op, "%s not found", what)
	}
	if err != nil {
		a.logger.Error("failed to read document", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return persistenceError(op, err, "could not read %s", what)
	}
	if out == nil {
		return nil
	}
	if err := decode(doc, out); err != nil {
		a.logger.Error("failed to decode document", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return persistenceError(op, err, "stored %s is malformed", what)
	}
	return nil
}

// exists reports whether a document is present
func (a storeAccess) exists(ctx context.Context, op, path, what string) (bool, error) {
	err := a.load(ctx, op, path, what, nil)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// children lists a collection without its placeholder
func (a storeAccess) children(ctx context.Context, op, collectionPath, what string) ([]database.Document, error) {
	docs, err := a.store.List(ctx, collectionPath)
	if err != nil {
		a.logger.Error("failed to list collection", zap.String("op", op), zap.String("path", collectionPath), zap.Error(err))
		return nil, persistenceError(op, err, "could not list %s", what)
	}

	out := docs[:0]
	for _, doc := range docs {
		if !isPlaceholder(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// commit applies a batch atomically. Batches above the store limit are
// refused before anything is written.
func (a storeAccess) commit(ctx context.Context, op string, b database.WriteBatch) error {
	if limit := a.store.MaxBatchSize(); limit > 0 && b.Len() > limit {
		return validationError(op, "operation needs %d writes, more than the store limit of %d", b.Len(), limit)
	}
	if err := b.Commit(ctx); err != nil {
		a.logger.Error("failed to commit batch", zap.String("op", op), zap.Int("writes", b.Len()), zap.Error(err))
		return persistenceError(op, err, "could not save changes")
	}
	return nil
}

func invalidateTree(ctx context.Context, o options, collegeID string, logger *zap.Logger) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Delete(ctx, treeCacheKey(collegeID)); err != nil {
		logger.Warn("failed to invalidate structure cache", zap.Error(err))
	}
}
