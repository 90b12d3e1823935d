package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionDegree(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)

	degreeID, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)
	assert.Equal(t, "btech", degreeID)

	degree, err := s.GetDegree(ctx, degreeID)
	require.NoError(t, err)
	assert.Equal(t, "B.Tech", degree.Name)
	assert.Equal(t, 4, degree.Duration)
	assert.Equal(t, 3, degree.StreamCount)

	streams, err := s.ListStreams(ctx, degreeID)
	require.NoError(t, err)
	ids := make([]string, 0, len(streams))
	for _, st := range streams {
		ids = append(ids, st.ID)
	}
	assert.ElementsMatch(t, []string{"cse", "aiml", "data-science"}, ids)

	// Every stream starts with an enumerable, empty batches collection
	for _, id := range ids {
		ref := StreamRef{DegreeID: degreeID, StreamID: id}
		doc, err := store.Get(ctx, database.JoinPath(s.Hierarchy().BatchesPath(ref), PlaceholderID))
		require.NoError(t, err)
		assert.Equal(t, true, doc.Data["initialized"])

		batches, err := s.ListBatches(ctx, ref)
		require.NoError(t, err)
		assert.Empty(t, batches)
	}

	college, err := store.Get(ctx, s.Hierarchy().CollegePath())
	require.NoError(t, err)
	assert.Equal(t, CollegeName, college.Data["name"])

	// college + degree + 3 streams + 3 placeholders
	assert.Equal(t, 8, store.Len())
	assert.Equal(t, 1, store.Commits())
}

func TestProvisionDegree_UnknownDegreeGetsGeneralStream(t *testing.T) {
	ctx := context.Background()
	s := newStructure(database.NewMemoryStore(500))

	degreeID, err := s.ProvisionDegree(ctx, "Diploma", 3)
	require.NoError(t, err)

	streams, err := s.ListStreams(ctx, degreeID)
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, "general", streams[0].ID)
	assert.Equal(t, "General", streams[0].Name)
}

func TestProvisionDegree_Errors(t *testing.T) {
	ctx := context.Background()
	s := newStructure(database.NewMemoryStore(500))

	_, err := s.ProvisionDegree(ctx, "  ", 4)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = s.ProvisionDegree(ctx, "MCA", 0)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = s.ProvisionDegree(ctx, "MCA", 2)
	require.NoError(t, err)
	_, err = s.ProvisionDegree(ctx, "MCA", 2)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestProvisionDegree_FailedCommitWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	store.SetCommitHook(func(ops []database.BatchOp) error {
		return errors.New("backend unavailable")
	})
	s := newStructure(store)

	_, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, 0, store.Len())
}

func TestAddStream(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)

	_, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)

	streamID, err := s.AddStream(ctx, "btech", "Cyber Security")
	require.NoError(t, err)
	assert.Equal(t, "cyber-security", streamID)

	doc, err := store.Get(ctx, s.Hierarchy().DegreePath("btech"))
	require.NoError(t, err)
	assert.EqualValues(t, 4, doc.Data["streamCount"])
	assert.Equal(t, "B.Tech", doc.Data["name"])

	_, err = s.AddStream(ctx, "btech", "Cyber Security")
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = s.AddStream(ctx, "mba", "HR")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateDegree(t *testing.T) {
	ctx := context.Background()
	s := newStructure(database.NewMemoryStore(500))

	_, err := s.ProvisionDegree(ctx, "MBA", 2)
	require.NoError(t, err)

	name := "MBA (Executive)"
	degree, err := s.UpdateDegree(ctx, "mba", DegreeUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "mba", degree.ID)
	assert.Equal(t, name, degree.Name)
	assert.Equal(t, 2, degree.Duration)
	assert.Equal(t, 4, degree.StreamCount)

	_, err = s.UpdateDegree(ctx, "mba", DegreeUpdate{})
	assert.True(t, errors.Is(err, ErrValidation))

	zero := 0
	_, err = s.UpdateDegree(ctx, "mba", DegreeUpdate{Duration: &zero})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = s.UpdateDegree(ctx, "bca", DegreeUpdate{Name: &name})
	assert.True(t, errors.Is(err, ErrNotFound))

	// The duration is free to change until a batch exists
	three := 3
	degree, err = s.UpdateDegree(ctx, "mba", DegreeUpdate{Duration: &three})
	require.NoError(t, err)
	assert.Equal(t, 3, degree.Duration)

	batchID, err := s.ProvisionBatch(ctx, StreamRef{DegreeID: "mba", StreamID: "finance"}, BatchInput{StartYear: 2024})
	require.NoError(t, err)
	years, err := s.ListYears(ctx, BatchRef{StreamRef: StreamRef{DegreeID: "mba", StreamID: "finance"}, BatchID: batchID})
	require.NoError(t, err)
	assert.Len(t, years, 3)

	four := 4
	_, err = s.UpdateDegree(ctx, "mba", DegreeUpdate{Duration: &four})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

	// Same duration or a rename are still fine
	degree, err = s.UpdateDegree(ctx, "mba", DegreeUpdate{Name: &name, Duration: &three})
	require.NoError(t, err)
	assert.Equal(t, 3, degree.Duration)
}

func TestProvisionBatch(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)

	ref := provisionBTech(t, s)
	assert.Equal(t, "batch-1", ref.BatchID)

	batch, err := s.GetBatch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "2023-2027 Batch", batch.Name)
	assert.Equal(t, 2023, batch.StartYear)
	assert.Equal(t, 2027, batch.EndYear)
	assert.Equal(t, DefaultStartMonth, batch.StartMonth)
	assert.Equal(t, 0, batch.PromotedYears)
	assert.Equal(t, "3rd Year", batch.CurrentYear)

	years, err := s.ListYears(ctx, ref)
	require.NoError(t, err)
	require.Len(t, years, 4)
	for i, year := range years {
		n := i + 1
		assert.Equal(t, YearID(n), year.ID)
		assert.Equal(t, YearName(n), year.Name)
		assert.Equal(t, n, year.Number)

		semesters, err := s.ListSemesters(ctx, YearRef{BatchRef: ref, YearID: year.ID})
		require.NoError(t, err)
		require.Len(t, semesters, 2)
		assert.Equal(t, 2*n-1, semesters[0].Number)
		assert.Equal(t, 2*n, semesters[1].Number)
		assert.Equal(t, SemesterID(2*n), semesters[1].ID)
		assert.Equal(t, SemesterName(2*n), semesters[1].Name)

		for _, sem := range semesters {
			semRef := SemesterRef{YearRef: YearRef{BatchRef: ref, YearID: year.ID}, SemesterID: sem.ID}
			sections, err := s.ListSections(ctx, semRef)
			require.NoError(t, err)
			require.Len(t, sections, 1)
			assert.Equal(t, DefaultSectionID, sections[0].ID)
			assert.Equal(t, DefaultSectionName, sections[0].Name)

			detail, err := s.SectionCollections(ctx, SectionRef{SemesterRef: semRef, SectionID: DefaultSectionID})
			require.NoError(t, err)
			assert.Len(t, detail.Collections, len(LeafCollections))
			for _, leaf := range LeafCollections {
				count, ok := detail.Collections[leaf]
				assert.True(t, ok, leaf)
				assert.Zero(t, count, leaf)
			}
		}
	}

	// 8 from the degree, then batch + 4 years + 8 semesters + 8 * (section + 6 leaves)
	assert.Equal(t, 8+1+4+8+8*7, store.Len())
	assert.Equal(t, 2, store.Commits())
}

func TestProvisionBatch_FollowsDegreeDuration(t *testing.T) {
	tests := []struct {
		degree   string
		stream   string
		duration int
	}{
		{"Certificate", "general", 1},
		{"MCA", "general", 2},
		{"BCA", "general", 3},
		{"B.Tech", "cse", 4},
	}
	for _, tt := range tests {
		t.Run(tt.degree, func(t *testing.T) {
			ctx := context.Background()
			store := database.NewMemoryStore(500)
			s := newStructure(store)

			degreeID, err := s.ProvisionDegree(ctx, tt.degree, tt.duration)
			require.NoError(t, err)
			before := store.Len()

			stream := StreamRef{DegreeID: degreeID, StreamID: tt.stream}
			batchID, err := s.ProvisionBatch(ctx, stream, BatchInput{StartYear: 2024})
			require.NoError(t, err)
			ref := BatchRef{StreamRef: stream, BatchID: batchID}

			batch, err := s.GetBatch(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, 2024+tt.duration, batch.EndYear)

			years, err := s.ListYears(ctx, ref)
			require.NoError(t, err)
			require.Len(t, years, tt.duration)

			semesters, sections := 0, 0
			for _, year := range years {
				yearRef := YearRef{BatchRef: ref, YearID: year.ID}
				sems, err := s.ListSemesters(ctx, yearRef)
				require.NoError(t, err)
				assert.Len(t, sems, 2)
				semesters += len(sems)

				for _, sem := range sems {
					semRef := SemesterRef{YearRef: yearRef, SemesterID: sem.ID}
					secs, err := s.ListSections(ctx, semRef)
					require.NoError(t, err)
					require.Len(t, secs, 1)
					sections++

					detail, err := s.SectionCollections(ctx, SectionRef{SemesterRef: semRef, SectionID: secs[0].ID})
					require.NoError(t, err)
					assert.Len(t, detail.Collections, len(LeafCollections))
				}
			}
			assert.Equal(t, 2*tt.duration, semesters)
			assert.Equal(t, 2*tt.duration, sections)

			// batch + years + semesters + sections with their six leaf placeholders
			assert.Equal(t, 1+tt.duration+2*tt.duration+2*tt.duration*(1+len(LeafCollections)), store.Len()-before)
		})
	}
}

func TestProvisionBatch_Validation(t *testing.T) {
	ctx := context.Background()
	s := newStructure(database.NewMemoryStore(500))
	_, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)
	stream := StreamRef{DegreeID: "btech", StreamID: "cse"}

	tests := []struct {
		name string
		in   BatchInput
	}{
		{"missing start year", BatchInput{}},
		{"bad month", BatchInput{StartYear: 2024, StartMonth: 13}},
		{"negative promotion", BatchInput{StartYear: 2024, PromotedYears: -1}},
		{"shorter than the degree", BatchInput{StartYear: 2024, EndYear: 2026}},
		{"longer than the degree", BatchInput{StartYear: 2024, EndYear: 2029}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ProvisionBatch(ctx, stream, tt.in)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}

	_, err = s.ProvisionBatch(ctx, StreamRef{DegreeID: "mba", StreamID: "hr"}, BatchInput{StartYear: 2024})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.ProvisionBatch(ctx, StreamRef{DegreeID: "btech", StreamID: "mechanical"}, BatchInput{StartYear: 2024})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProvisionBatch_OverStoreLimitIsRejected(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(50)
	s := newStructure(store)

	_, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)
	before := store.Len()

	_, err = s.ProvisionBatch(ctx, StreamRef{DegreeID: "btech", StreamID: "cse"}, BatchInput{StartYear: 2024})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, before, store.Len())
}

func TestListBatches_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStructure(database.NewMemoryStore(500))
	ref := provisionBTech(t, s)

	_, err := s.ProvisionBatch(ctx, ref.StreamRef, BatchInput{StartYear: 2025, Name: "Class of 2029"})
	require.NoError(t, err)
	_, err = s.ProvisionBatch(ctx, ref.StreamRef, BatchInput{StartYear: 2020})
	require.NoError(t, err)

	batches, err := s.ListBatches(ctx, ref.StreamRef)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, 2025, batches[0].StartYear)
	assert.Equal(t, "Class of 2029", batches[0].Name)
	assert.Equal(t, "1st Year", batches[0].CurrentYear)
	assert.Equal(t, 2023, batches[1].StartYear)
	assert.Equal(t, 2020, batches[2].StartYear)
	assert.Equal(t, LabelGraduated, batches[2].CurrentYear)
}

func TestAddSection(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	ref := provisionBTech(t, s)
	sectionA := firstSection(ref)
	sem := sectionA.SemesterRef

	b := store.Batch()
	b.Set(database.JoinPath(s.Hierarchy().SectionPath(sectionA), "students", "s1"), map[string]interface{}{"name": "Asha"}, false)
	require.NoError(t, b.Commit(ctx))

	sectionID, err := s.AddSection(ctx, sem, "Section B")
	require.NoError(t, err)
	assert.Equal(t, "batch-2", sectionID)

	// Section A keeps its records
	existing, err := s.SectionCollections(ctx, sectionA)
	require.NoError(t, err)
	assert.Equal(t, DefaultSectionName, existing.Name)
	assert.Equal(t, 1, existing.Collections["students"])
	student, err := store.Get(ctx, database.JoinPath(s.Hierarchy().SectionPath(sectionA), "students", "s1"))
	require.NoError(t, err)
	assert.Equal(t, "Asha", student.Data["name"])

	sections, err := s.ListSections(ctx, sem)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Section A", sections[0].Name)
	assert.Equal(t, "Section B", sections[1].Name)

	detail, err := s.SectionCollections(ctx, SectionRef{SemesterRef: sem, SectionID: sectionID})
	require.NoError(t, err)
	assert.Len(t, detail.Collections, len(LeafCollections))

	_, err = s.AddSection(ctx, sem, "")
	assert.True(t, errors.Is(err, ErrValidation))

	missing := sem
	missing.SemesterID = SemesterID(9)
	_, err = s.AddSection(ctx, missing, "Section C")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSectionCollections_CountsRecords(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)
	section := firstSection(provisionBTech(t, s))
	sectionPath := s.Hierarchy().SectionPath(section)

	b := store.Batch()
	b.Set(database.JoinPath(sectionPath, "students", "s1"), map[string]interface{}{"name": "Asha"}, false)
	b.Set(database.JoinPath(sectionPath, "students", "s2"), map[string]interface{}{"name": "Ravi"}, false)
	b.Set(database.JoinPath(sectionPath, "notes", "n1"), map[string]interface{}{"title": "Unit 1"}, false)
	require.NoError(t, b.Commit(ctx))

	detail, err := s.SectionCollections(ctx, section)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Collections["students"])
	assert.Equal(t, 1, detail.Collections["notes"])
	assert.Equal(t, 0, detail.Collections["assignments"])
}

func TestPromoteBatch(t *testing.T) {
	ctx := context.Background()
	s := newStructure(database.NewMemoryStore(500))
	ref := provisionBTech(t, s)

	_, err := s.PromoteBatch(ctx, ref, 0)
	assert.True(t, errors.Is(err, ErrValidation))

	batch, err := s.PromoteBatch(ctx, ref, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.PromotedYears)
	assert.Equal(t, "4th Year", batch.CurrentYear)

	batch, err = s.PromoteBatch(ctx, ref, 1)
	require.NoError(t, err)
	assert.Equal(t, LabelGraduated, batch.CurrentYear)

	_, err = s.PromoteBatch(ctx, ref, -3)
	assert.True(t, errors.Is(err, ErrValidation))

	batch, err = s.PromoteBatch(ctx, ref, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, batch.PromotedYears)

	stored, err := s.GetBatch(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PromotedYears)
	assert.Equal(t, "3rd Year", stored.CurrentYear)
}

func TestTree_UsesCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	s := newStructure(database.NewMemoryStore(500), WithCache(cache, time.Minute))
	provisionBTech(t, s)

	tree, err := s.Tree(ctx)
	require.NoError(t, err)
	assert.Equal(t, testCollege, tree.CollegeID)
	require.Len(t, tree.Degrees, 1)
	assert.Len(t, tree.Degrees[0].Streams, 3)
	assert.Equal(t, 0, cache.hits)

	_, err = s.Tree(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = s.AddStream(ctx, "btech", "Robotics")
	require.NoError(t, err)

	tree, err = s.Tree(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Len(t, tree.Degrees[0].Streams, 4)
	assert.Equal(t, 4, tree.Degrees[0].StreamCount)
}

func TestRefreshTree(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	s := newStructure(database.NewMemoryStore(500), WithCache(cache, time.Minute))
	ref := provisionBTech(t, s)
	_, err := s.ProvisionBatch(ctx, StreamRef{DegreeID: ref.DegreeID, StreamID: "aiml"}, BatchInput{StartYear: 2024})
	require.NoError(t, err)

	batches, err := s.RefreshTree(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
	assert.Contains(t, cache.entries, treeCacheKey(testCollege))
}

func TestReconcileStreamCounts(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := newStructure(store)

	_, err := s.ProvisionDegree(ctx, "B.Tech", 4)
	require.NoError(t, err)
	_, err = s.ProvisionDegree(ctx, "BCA", 3)
	require.NoError(t, err)

	fixed, err := s.ReconcileStreamCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, fixed)

	b := store.Batch()
	b.Set(s.Hierarchy().DegreePath("btech"), map[string]interface{}{"streamCount": 9}, true)
	require.NoError(t, b.Commit(ctx))

	fixed, err = s.ReconcileStreamCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"btech"}, fixed)

	doc, err := store.Get(ctx, s.Hierarchy().DegreePath("btech"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, doc.Data["streamCount"])
}
