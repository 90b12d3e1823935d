package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCollege = "GEC"

var fixedNow = time.Date(2025, time.October, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// sequentialIDs returns prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// smallBatchStore reports a lower write limit than the memory store enforces
type smallBatchStore struct {
	*database.MemoryStore
	limit int
}

func (s smallBatchStore) MaxBatchSize() int { return s.limit }

// memoryCache is a Cache backed by a map
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("cache miss: %s", key)
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.deletes++
	return nil
}

func newStructure(store database.DocumentStore, opts ...Option) *StructureService {
	opts = append([]Option{WithClock(fixedClock), WithIDGenerator(sequentialIDs("batch"))}, opts...)
	return NewStructureService(store, testCollege, zap.NewNop(), opts...)
}

// provisionBTech creates B.Tech with a 2023 batch under CSE and returns the batch ref
func provisionBTech(t *testing.T, s *StructureService) BatchRef {
	t.Helper()
	ctx := context.Background()

	degreeID, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)

	stream := StreamRef{DegreeID: degreeID, StreamID: "cse"}
	batchID, err := s.ProvisionBatch(ctx, stream, BatchInput{StartYear: 2023})
	require.NoError(t, err)
	return BatchRef{StreamRef: stream, BatchID: batchID}
}

func firstSection(ref BatchRef) SectionRef {
	return SectionRef{
		SemesterRef: SemesterRef{YearRef: YearRef{BatchRef: ref, YearID: YearID(1)}, SemesterID: SemesterID(1)},
		SectionID:   DefaultSectionID,
	}
}
