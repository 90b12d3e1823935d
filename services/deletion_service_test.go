package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubArchiver struct {
	root string
	docs []database.Document
	err  error
}

func (a *stubArchiver) Archive(_ context.Context, rootPath string, docs []database.Document) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.root = rootPath
	a.docs = docs
	return "archives/test.json", nil
}

func TestCollect_ParentsBeforeChildren(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	ref := provisionBTech(t, s)
	d := NewDeletionService(store, testCollege, zap.NewNop())

	root := s.Hierarchy().BatchPath(ref)
	docs, err := d.Collect(ctx, root)
	require.NoError(t, err)
	require.Len(t, docs, 1+4+8+8*7)
	assert.Equal(t, root, docs[0].Path)

	seen := map[string]bool{}
	for i, doc := range docs {
		if i > 0 {
			owner := database.ParentPath(database.ParentPath(doc.Path))
			assert.True(t, seen[owner], "%s listed before its parent", doc.Path)
		}
		seen[doc.Path] = true
	}

	_, err = d.Collect(ctx, s.Hierarchy().DegreePath("mba"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteBatch_ChunkedByStoreLimit(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemoryStore(500)
	s := newStructure(mem)
	ref := provisionBTech(t, s)
	before := mem.Commits()

	d := NewDeletionService(smallBatchStore{MemoryStore: mem, limit: 10}, testCollege, zap.NewNop())
	result, err := d.DeleteBatch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 69, result.Deleted)
	assert.Equal(t, s.Hierarchy().BatchPath(ref), result.Root)
	assert.Empty(t, result.ArchiveKey)

	// 69 deletes in chunks of 10
	assert.Equal(t, 7, mem.Commits()-before)
	assert.Equal(t, 8, mem.Len())

	_, err = s.GetBatch(ctx, ref)
	assert.True(t, errors.Is(err, ErrNotFound))
	batches, err := s.ListBatches(ctx, ref.StreamRef)
	require.NoError(t, err)
	assert.Empty(t, batches)

	// The emptied batches collection keeps its placeholder
	_, err = mem.Get(ctx, database.JoinPath(s.Hierarchy().BatchesPath(ref.StreamRef), PlaceholderID))
	assert.NoError(t, err)
}

func TestDeleteBatch_FailurePartWayReportsProgress(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemoryStore(500)
	s := newStructure(mem)
	ref := provisionBTech(t, s)

	calls := 0
	mem.SetCommitHook(func(ops []database.BatchOp) error {
		calls++
		if calls == 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	d := NewDeletionService(smallBatchStore{MemoryStore: mem, limit: 10}, testCollege, zap.NewNop())
	_, err := d.DeleteBatch(ctx, ref)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "deleted 20 of 69 documents before failing", ErrorDetail(err))

	// Children go first, so the batch document itself is still there
	_, err = s.GetBatch(ctx, ref)
	assert.NoError(t, err)
}

func TestDeleteStream_RewritesStreamCount(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	ref := provisionBTech(t, s)
	d := NewDeletionService(store, testCollege, zap.NewNop())

	result, err := d.DeleteStream(ctx, StreamRef{DegreeID: ref.DegreeID, StreamID: "aiml"})
	require.NoError(t, err)
	// stream + its batches placeholder
	assert.Equal(t, 2, result.Deleted)

	doc, err := store.Get(ctx, s.Hierarchy().DegreePath(ref.DegreeID))
	require.NoError(t, err)
	assert.EqualValues(t, 2, doc.Data["streamCount"])

	degree, err := s.GetDegree(ctx, ref.DegreeID)
	require.NoError(t, err)
	assert.Equal(t, 2, degree.StreamCount)

	// cse carries the batch; its whole subtree goes with it
	result, err = d.DeleteStream(ctx, ref.StreamRef)
	require.NoError(t, err)
	assert.Equal(t, 1+1+69, result.Deleted)

	doc, err = store.Get(ctx, s.Hierarchy().DegreePath(ref.DegreeID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, doc.Data["streamCount"])
}

func TestDeleteStream_CountUpdateRidesInLastChunk(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemoryStore(500)
	s := newStructure(mem)
	_, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)

	var last []database.BatchOp
	mem.SetCommitHook(func(ops []database.BatchOp) error {
		last = ops
		return nil
	})

	d := NewDeletionService(smallBatchStore{MemoryStore: mem, limit: 2}, testCollege, zap.NewNop())
	_, err = d.DeleteStream(ctx, StreamRef{DegreeID: "btech", StreamID: "cse"})
	require.NoError(t, err)

	require.Len(t, last, 1)
	assert.Equal(t, database.OpSet, last[0].Kind)
	assert.Equal(t, s.Hierarchy().DegreePath("btech"), last[0].Path)
	assert.True(t, last[0].Merge)
}

func TestDeleteDegree(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	cache := newMemoryCache()
	s := newStructure(store, WithCache(cache, time.Minute))
	provisionBTech(t, s)

	_, err := s.Tree(ctx)
	require.NoError(t, err)

	d := NewDeletionService(store, testCollege, zap.NewNop(), WithCache(cache, time.Minute))
	result, err := d.DeleteDegree(ctx, "btech")
	require.NoError(t, err)
	assert.Equal(t, 8+69-1, result.Deleted)

	// Only the college document is left
	assert.Equal(t, 1, store.Len())
	assert.NotContains(t, cache.entries, treeCacheKey(testCollege))

	degrees, err := s.ListDegrees(ctx)
	require.NoError(t, err)
	assert.Empty(t, degrees)

	_, err = d.DeleteDegree(ctx, "btech")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteSection(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	section := firstSection(provisionBTech(t, s))
	d := NewDeletionService(store, testCollege, zap.NewNop())

	sectionB, err := s.AddSection(ctx, section.SemesterRef, "Section B")
	require.NoError(t, err)

	result, err := d.DeleteSection(ctx, section)
	require.NoError(t, err)
	assert.Equal(t, 1+len(LeafCollections), result.Deleted)

	sections, err := s.ListSections(ctx, section.SemesterRef)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, sectionB, sections[0].ID)

	_, err = d.DeleteSection(ctx, section)
	assert.True(t, errors.Is(err, ErrNotFound))

	// The last section of a semester stays
	before := store.Len()
	last := section
	last.SectionID = sectionB
	_, err = d.DeleteSection(ctx, last)
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
	assert.Equal(t, before, store.Len())

	report, err := NewAuditService(store, testCollege, zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%v", report.Violations)

	_, err = d.DeleteSection(ctx, SectionRef{})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDelete_ArchivesBeforeDeleting(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	section := firstSection(provisionBTech(t, s))
	extra, err := s.AddSection(ctx, section.SemesterRef, "Section B")
	require.NoError(t, err)
	section.SectionID = extra

	archiver := &stubArchiver{}
	d := NewDeletionService(store, testCollege, zap.NewNop(), WithArchiver(archiver))
	result, err := d.DeleteSection(ctx, section)
	require.NoError(t, err)
	assert.Equal(t, "archives/test.json", result.ArchiveKey)
	assert.Equal(t, s.Hierarchy().SectionPath(section), archiver.root)
	assert.Len(t, archiver.docs, result.Deleted)
}

func TestDelete_ArchiveFailureDeletesNothing(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	ref := provisionBTech(t, s)
	before, commits := store.Len(), store.Commits()

	archiver := &stubArchiver{err: fmt.Errorf("bucket unavailable")}
	d := NewDeletionService(store, testCollege, zap.NewNop(), WithArchiver(archiver))
	_, err := d.DeleteBatch(ctx, ref)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, before, store.Len())
	assert.Equal(t, commits, store.Commits())
}
