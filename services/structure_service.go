package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"go.uber.org/zap"
)

// StructureService provisions and reads the degree -> stream -> batch ->
// year -> semester -> section tree of a college.
type StructureService struct {
	storeAccess
	tree Hierarchy
	opts options
}

// NewStructureService creates a new structure service
func NewStructureService(store database.DocumentStore, collegeID string, logger *zap.Logger, opts ...Option) *StructureService {
	return &StructureService{
		storeAccess: storeAccess{store: store, logger: logger},
		tree:        Hierarchy{CollegeID: collegeID},
		opts:        newOptions(opts),
	}
}

// Hierarchy exposes the path builder of the service's college
func (s *StructureService) Hierarchy() Hierarchy {
	return s.tree
}

// BatchInput is the caller-supplied part of a new batch
type BatchInput struct {
	Name          string
	StartYear     int
	EndYear       int
	PromotedYears int
	StartMonth    int
}

// DegreeUpdate changes the editable fields of a degree; nil fields are kept
type DegreeUpdate struct {
	Name     *string
	Duration *int
}

// ProvisionDegree creates a degree with its default streams in one commit.
// Streams get an empty batches collection; batches are provisioned later.
func (s *StructureService) ProvisionDegree(ctx context.Context, name string, duration int) (string, error) {
	const op = "provision degree"

	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError(op, "degree name is required")
	}
	if duration < 1 {
		return "", validationError(op, "duration must be a positive number of years")
	}
	degreeID := DegreeID(name)
	if !validID(degreeID) {
		return "", validationError(op, "degree name %q does not give a usable id", name)
	}

	degreePath := s.tree.DegreePath(degreeID)
	exists, err := s.exists(ctx, op, degreePath, "degree")
	if err != nil {
		return "", err
	}
	if exists {
		return "", conflictError(op, "degree %q already exists", degreeID)
	}

	streams := StreamsFor(name)

	b := s.store.Batch()
	b.Set(s.tree.CollegePath(), map[string]interface{}{"name": CollegeName}, true)
	b.Set(degreePath, map[string]interface{}{
		"name":        name,
		"duration":    duration,
		"streamCount": len(streams),
	}, false)
	for _, streamName := range streams {
		ref := StreamRef{DegreeID: degreeID, StreamID: StreamID(streamName)}
		b.Set(s.tree.StreamPath(ref), map[string]interface{}{"name": streamName}, false)
		b.Set(database.JoinPath(s.tree.BatchesPath(ref), PlaceholderID), placeholderData(), false)
	}

	if err := s.commit(ctx, op, b); err != nil {
		return "", err
	}
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)

	s.logger.Info("degree provisioned",
		zap.String("degree_id", degreeID),
		zap.Int("duration", duration),
		zap.Strings("streams", streams))
	return degreeID, nil
}

// AddStream adds a stream to an existing degree and rewrites the degree's
// stream count from a recount in the same commit.
func (s *StructureService) AddStream(ctx context.Context, degreeID, name string) (string, error) {
	const op = "add stream"

	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError(op, "stream name is required")
	}
	ref := StreamRef{DegreeID: degreeID, StreamID: StreamID(name)}
	if !ref.valid() {
		return "", validationError(op, "stream name %q does not give a usable id", name)
	}

	if err := s.load(ctx, op, s.tree.DegreePath(degreeID), "degree", nil); err != nil {
		return "", err
	}
	exists, err := s.exists(ctx, op, s.tree.StreamPath(ref), "stream")
	if err != nil {
		return "", err
	}
	if exists {
		return "", conflictError(op, "stream %q already exists in degree %q", ref.StreamID, degreeID)
	}

	count, err := s.countStreams(ctx, op, degreeID)
	if err != nil {
		return "", err
	}

	b := s.store.Batch()
	b.Set(s.tree.StreamPath(ref), map[string]interface{}{"name": name}, false)
	b.Set(database.JoinPath(s.tree.BatchesPath(ref), PlaceholderID), placeholderData(), false)
	b.Set(s.tree.DegreePath(degreeID), map[string]interface{}{"streamCount": count + 1}, true)

	if err := s.commit(ctx, op, b); err != nil {
		return "", err
	}
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)

	s.logger.Info("stream added", zap.String("degree_id", degreeID), zap.String("stream_id", ref.StreamID))
	return ref.StreamID, nil
}

// UpdateDegree edits the name or duration of a degree. The duration can only
// change while no stream of the degree has batches, since every batch holds
// exactly one year per year of the degree.
func (s *StructureService) UpdateDegree(ctx context.Context, degreeID string, upd DegreeUpdate) (*model.Degree, error) {
	const op = "update degree"

	if !validID(degreeID) {
		return nil, validationError(op, "degree id is required")
	}
	patch := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, validationError(op, "degree name cannot be empty")
		}
		patch["name"] = name
	}
	if upd.Duration != nil {
		if *upd.Duration < 1 {
			return nil, validationError(op, "duration must be a positive number of years")
		}
		patch["duration"] = *upd.Duration
	}
	if len(patch) == 0 {
		return nil, validationError(op, "nothing to update")
	}

	var current model.Degree
	if err := s.load(ctx, op, s.tree.DegreePath(degreeID), "degree", &current); err != nil {
		return nil, err
	}
	if upd.Duration != nil && *upd.Duration != current.Duration {
		batches, err := s.countBatches(ctx, op, degreeID)
		if err != nil {
			return nil, err
		}
		if batches > 0 {
			return nil, conflictError(op, "degree %q has %d batches; its duration cannot change", degreeID, batches)
		}
	}

	b := s.store.Batch()
	b.Set(s.tree.DegreePath(degreeID), patch, true)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)

	return s.GetDegree(ctx, degreeID)
}

// GetDegree loads a degree with its stream count recounted
func (s *StructureService) GetDegree(ctx context.Context, degreeID string) (*model.Degree, error) {
	const op = "get degree"

	if !validID(degreeID) {
		return nil, validationError(op, "degree id is required")
	}
	var degree model.Degree
	if err := s.load(ctx, op, s.tree.DegreePath(degreeID), "degree", &degree); err != nil {
		return nil, err
	}
	degree.ID = degreeID

	count, err := s.countStreams(ctx, op, degreeID)
	if err != nil {
		return nil, err
	}
	degree.StreamCount = count
	return &degree, nil
}

// ListDegrees returns every degree of the college ordered by name
func (s *StructureService) ListDegrees(ctx context.Context) ([]model.Degree, error) {
	const op = "list degrees"

	docs, err := s.children(ctx, op, s.tree.DegreesPath(), "degrees")
	if err != nil {
		return nil, err
	}

	degrees := make([]model.Degree, 0, len(docs))
	for i := range docs {
		var degree model.Degree
		if err := decode(&docs[i], &degree); err != nil {
			return nil, persistenceError(op, err, "stored degree %q is malformed", docs[i].ID)
		}
		degree.ID = docs[i].ID
		if degree.StreamCount, err = s.countStreams(ctx, op, degree.ID); err != nil {
			return nil, err
		}
		degrees = append(degrees, degree)
	}
	sort.SliceStable(degrees, func(i, j int) bool { return degrees[i].Name < degrees[j].Name })
	return degrees, nil
}

func (s *StructureService) countBatches(ctx context.Context, op, degreeID string) (int, error) {
	streams, err := s.children(ctx, op, s.tree.StreamsPath(degreeID), "streams")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, stream := range streams {
		batches, err := s.children(ctx, op, s.tree.BatchesPath(StreamRef{DegreeID: degreeID, StreamID: stream.ID}), "batches")
		if err != nil {
			return 0, err
		}
		total += len(batches)
	}
	return total, nil
}

func (s *StructureService) countStreams(ctx context.Context, op, degreeID string) (int, error) {
	docs, err := s.children(ctx, op, s.tree.StreamsPath(degreeID), "streams")
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// ListStreams returns the streams of a degree
func (s *StructureService) ListStreams(ctx context.Context, degreeID string) ([]model.Stream, error) {
	const op = "list streams"

	if !validID(degreeID) {
		return nil, validationError(op, "degree id is required")
	}
	if err := s.load(ctx, op, s.tree.DegreePath(degreeID), "degree", nil); err != nil {
		return nil, err
	}

	docs, err := s.children(ctx, op, s.tree.StreamsPath(degreeID), "streams")
	if err != nil {
		return nil, err
	}
	streams := make([]model.Stream, 0, len(docs))
	for i := range docs {
		var stream model.Stream
		if err := decode(&docs[i], &stream); err != nil {
			return nil, persistenceError(op, err, "stored stream %q is malformed", docs[i].ID)
		}
		stream.ID = docs[i].ID
		streams = append(streams, stream)
	}
	return streams, nil
}

// ProvisionBatch creates a batch under a stream together with its full
// skeleton: one year per year of the degree's duration, two semesters per
// year, a default section per semester and the six leaf collections per
// section, all in one commit.
func (s *StructureService) ProvisionBatch(ctx context.Context, ref StreamRef, in BatchInput) (string, error) {
	const op = "provision batch"

	if !ref.valid() {
		return "", validationError(op, "degree and stream ids are required")
	}
	if in.StartYear < 1 {
		return "", validationError(op, "start year is required")
	}
	if in.StartMonth == 0 {
		in.StartMonth = DefaultStartMonth
	}
	if in.StartMonth < 1 || in.StartMonth > 12 {
		return "", validationError(op, "start month must be between 1 and 12")
	}
	if in.PromotedYears < 0 {
		return "", validationError(op, "promoted years cannot be negative")
	}

	var degree model.Degree
	if err := s.load(ctx, op, s.tree.DegreePath(ref.DegreeID), "degree", &degree); err != nil {
		return "", err
	}
	duration := degree.Duration
	if duration < 1 {
		return "", validationError(op, "degree %q has no usable duration", ref.DegreeID)
	}
	if in.EndYear == 0 {
		in.EndYear = in.StartYear + duration
	}
	if in.EndYear != in.StartYear+duration {
		return "", validationError(op, "end year must be start year + the degree's %d years (%d)", duration, in.StartYear+duration)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = fmt.Sprintf("%d-%d Batch", in.StartYear, in.EndYear)
	}

	if err := s.load(ctx, op, s.tree.StreamPath(ref), "stream", nil); err != nil {
		return "", err
	}

	batchRef := BatchRef{StreamRef: ref, BatchID: s.opts.newID()}

	b := s.store.Batch()
	b.Set(s.tree.BatchPath(batchRef), map[string]interface{}{
		"name":          in.Name,
		"startYear":     in.StartYear,
		"endYear":       in.EndYear,
		"promotedYears": in.PromotedYears,
		"startMonth":    in.StartMonth,
	}, false)

	for y := 1; y <= duration; y++ {
		yearRef := YearRef{BatchRef: batchRef, YearID: YearID(y)}
		b.Set(s.tree.YearPath(yearRef), map[string]interface{}{
			"name":   YearName(y),
			"number": y,
		}, false)

		for i := 1; i <= semestersPerYear; i++ {
			n := (y-1)*semestersPerYear + i
			semRef := SemesterRef{YearRef: yearRef, SemesterID: SemesterID(n)}
			b.Set(s.tree.SemesterPath(semRef), map[string]interface{}{
				"name":   SemesterName(n),
				"number": n,
			}, false)

			s.seedSection(b, SectionRef{SemesterRef: semRef, SectionID: DefaultSectionID}, DefaultSectionName)
		}
	}

	if err := s.commit(ctx, op, b); err != nil {
		return "", err
	}
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)

	s.logger.Info("batch provisioned",
		zap.String("degree_id", ref.DegreeID),
		zap.String("stream_id", ref.StreamID),
		zap.String("batch_id", batchRef.BatchID),
		zap.Int("duration", duration),
		zap.Int("writes", b.Len()))
	return batchRef.BatchID, nil
}

// seedSection queues a section document and its leaf collection placeholders
func (s *StructureService) seedSection(b database.WriteBatch, ref SectionRef, name string) {
	sectionPath := s.tree.SectionPath(ref)
	b.Set(sectionPath, map[string]interface{}{"name": name}, false)
	for _, leaf := range LeafCollections {
		b.Set(database.JoinPath(sectionPath, leaf, PlaceholderID), placeholderData(), false)
	}
}

// AddSection creates a section under a semester with its six leaf
// collections, atomically.
func (s *StructureService) AddSection(ctx context.Context, ref SemesterRef, name string) (string, error) {
	const op = "add section"

	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError(op, "section name is required")
	}
	if !ref.valid() {
		return "", validationError(op, "degree, stream, batch, year and semester ids are required")
	}
	if err := s.load(ctx, op, s.tree.SemesterPath(ref), "semester", nil); err != nil {
		return "", err
	}

	sectionRef := SectionRef{SemesterRef: ref, SectionID: s.opts.newID()}
	b := s.store.Batch()
	s.seedSection(b, sectionRef, name)

	if err := s.commit(ctx, op, b); err != nil {
		return "", err
	}

	s.logger.Info("section added",
		zap.String("batch_id", ref.BatchID),
		zap.String("semester_id", ref.SemesterID),
		zap.String("section_id", sectionRef.SectionID))
	return sectionRef.SectionID, nil
}

// PromoteBatch moves a batch forward (or back, with a negative count) by
// whole years on top of the calendar.
func (s *StructureService) PromoteBatch(ctx context.Context, ref BatchRef, years int) (*model.Batch, error) {
	const op = "promote batch"

	if !ref.valid() {
		return nil, validationError(op, "degree, stream and batch ids are required")
	}
	if years == 0 {
		return nil, validationError(op, "years must not be zero")
	}

	var batch model.Batch
	if err := s.load(ctx, op, s.tree.BatchPath(ref), "batch", &batch); err != nil {
		return nil, err
	}
	promoted := batch.PromotedYears + years
	if promoted < 0 {
		return nil, validationError(op, "batch has only %d promoted years", batch.PromotedYears)
	}

	b := s.store.Batch()
	b.Set(s.tree.BatchPath(ref), map[string]interface{}{"promotedYears": promoted}, true)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)

	batch.ID = ref.BatchID
	batch.PromotedYears = promoted
	batch.CurrentYear = CurrentYearLabel(TermOf(batch), s.opts.now())
	return &batch, nil
}

// GetBatch loads a batch with its current-year label
func (s *StructureService) GetBatch(ctx context.Context, ref BatchRef) (*model.Batch, error) {
	const op = "get batch"

	if !ref.valid() {
		return nil, validationError(op, "degree, stream and batch ids are required")
	}
	var batch model.Batch
	if err := s.load(ctx, op, s.tree.BatchPath(ref), "batch", &batch); err != nil {
		return nil, err
	}
	batch.ID = ref.BatchID
	batch.CurrentYear = CurrentYearLabel(TermOf(batch), s.opts.now())
	return &batch, nil
}

// ListBatches returns the batches of a stream, newest intake first
func (s *StructureService) ListBatches(ctx context.Context, ref StreamRef) ([]model.Batch, error) {
	const op = "list batches"

	if !ref.valid() {
		return nil, validationError(op, "degree and stream ids are required")
	}
	if err := s.load(ctx, op, s.tree.StreamPath(ref), "stream", nil); err != nil {
		return nil, err
	}

	docs, err := s.children(ctx, op, s.tree.BatchesPath(ref), "batches")
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	batches := make([]model.Batch, 0, len(docs))
	for i := range docs {
		var batch model.Batch
		if err := decode(&docs[i], &batch); err != nil {
			return nil, persistenceError(op, err, "stored batch %q is malformed", docs[i].ID)
		}
		batch.ID = docs[i].ID
		batch.CurrentYear = CurrentYearLabel(TermOf(batch), now)
		batches = append(batches, batch)
	}
	sort.SliceStable(batches, func(i, j int) bool { return batches[i].StartYear > batches[j].StartYear })
	return batches, nil
}

// ListYears returns the years of a batch in program order
func (s *StructureService) ListYears(ctx context.Context, ref BatchRef) ([]model.Year, error) {
	const op = "list years"

	if !ref.valid() {
		return nil, validationError(op, "degree, stream and batch ids are required")
	}
	if err := s.load(ctx, op, s.tree.BatchPath(ref), "batch", nil); err != nil {
		return nil, err
	}

	docs, err := s.children(ctx, op, s.tree.YearsPath(ref), "years")
	if err != nil {
		return nil, err
	}
	years := make([]model.Year, 0, len(docs))
	for i := range docs {
		var year model.Year
		if err := decode(&docs[i], &year); err != nil {
			return nil, persistenceError(op, err, "stored year %q is malformed", docs[i].ID)
		}
		year.ID = docs[i].ID
		years = append(years, year)
	}
	sort.SliceStable(years, func(i, j int) bool { return years[i].Number < years[j].Number })
	return years, nil
}

// ListSemesters returns the semesters of a year in program order
func (s *StructureService) ListSemesters(ctx context.Context, ref YearRef) ([]model.Semester, error) {
	const op = "list semesters"

	if !ref.valid() {
		return nil, validationError(op, "degree, stream, batch and year ids are required")
	}
	if err := s.load(ctx, op, s.tree.YearPath(ref), "year", nil); err != nil {
		return nil, err
	}

	docs, err := s.children(ctx, op, s.tree.SemestersPath(ref), "semesters")
	if err != nil {
		return nil, err
	}
	semesters := make([]model.Semester, 0, len(docs))
	for i := range docs {
		var semester model.Semester
		if err := decode(&docs[i], &semester); err != nil {
			return nil, persistenceError(op, err, "stored semester %q is malformed", docs[i].ID)
		}
		semester.ID = docs[i].ID
		semesters = append(semesters, semester)
	}
	sort.SliceStable(semesters, func(i, j int) bool { return semesters[i].Number < semesters[j].Number })
	return semesters, nil
}

// ListSections returns the sections of a semester ordered by name
func (s *StructureService) ListSections(ctx context.Context, ref SemesterRef) ([]model.Section, error) {
	const op = "list sections"

	if !ref.valid() {
		return nil, validationError(op, "degree, stream, batch, year and semester ids are required")
	}
	if err := s.load(ctx, op, s.tree.SemesterPath(ref), "semester", nil); err != nil {
		return nil, err
	}

	docs, err := s.children(ctx, op, s.tree.SectionsPath(ref), "sections")
	if err != nil {
		return nil, err
	}
	sections := make([]model.Section, 0, len(docs))
	for i := range docs {
		var section model.Section
		if err := decode(&docs[i], &section); err != nil {
			return nil, persistenceError(op, err, "stored section %q is malformed", docs[i].ID)
		}
		section.ID = docs[i].ID
		sections = append(sections, section)
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Name < sections[j].Name })
	return sections, nil
}

// SectionCollections loads a section with the record count of each leaf collection
func (s *StructureService) SectionCollections(ctx context.Context, ref SectionRef) (*model.SectionDetail, error) {
	const op = "section collections"

	if !ref.valid() {
		return nil, validationError(op, "section path is incomplete")
	}
	var section model.Section
	sectionPath := s.tree.SectionPath(ref)
	if err := s.load(ctx, op, sectionPath, "section", &section); err != nil {
		return nil, err
	}
	section.ID = ref.SectionID

	detail := &model.SectionDetail{Section: section, Collections: make(map[string]int, len(LeafCollections))}
	for _, leaf := range LeafCollections {
		docs, err := s.children(ctx, op, database.JoinPath(sectionPath, leaf), leaf)
		if err != nil {
			return nil, err
		}
		detail.Collections[leaf] = len(docs)
	}
	return detail, nil
}

// Tree returns the degree -> stream -> batch overview, from cache when fresh
func (s *StructureService) Tree(ctx context.Context) (*model.StructureTree, error) {
	key := treeCacheKey(s.tree.CollegeID)
	if s.opts.cache != nil {
		var cached model.StructureTree
		if err := s.opts.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	degrees, err := s.ListDegrees(ctx)
	if err != nil {
		return nil, err
	}

	tree := &model.StructureTree{
		CollegeID:   s.tree.CollegeID,
		CollegeName: CollegeName,
		Degrees:     make([]model.DegreeNode, 0, len(degrees)),
		GeneratedAt: s.opts.now().UnixMilli(),
	}
	for _, degree := range degrees {
		streams, err := s.ListStreams(ctx, degree.ID)
		if err != nil {
			return nil, err
		}
		node := model.DegreeNode{Degree: degree, Streams: make([]model.StreamNode, 0, len(streams))}
		for _, stream := range streams {
			batches, err := s.ListBatches(ctx, StreamRef{DegreeID: degree.ID, StreamID: stream.ID})
			if err != nil {
				return nil, err
			}
			node.Streams = append(node.Streams, model.StreamNode{Stream: stream, Batches: batches})
		}
		tree.Degrees = append(tree.Degrees, node)
	}

	if s.opts.cache != nil {
		if err := s.opts.cache.SetJSON(ctx, key, tree, s.opts.cacheTTL); err != nil {
			s.logger.Warn("failed to cache structure tree", zap.Error(err))
		}
	}
	return tree, nil
}

// ReconcileStreamCounts rewrites persisted stream counts that drifted from
// the real number of streams. It returns the ids of the corrected degrees.
func (s *StructureService) ReconcileStreamCounts(ctx context.Context) ([]string, error) {
	const op = "reconcile stream counts"

	docs, err := s.children(ctx, op, s.tree.DegreesPath(), "degrees")
	if err != nil {
		return nil, err
	}

	b := s.store.Batch()
	var fixed []string
	for i := range docs {
		var stored model.Degree
		if err := decode(&docs[i], &stored); err != nil {
			return nil, persistenceError(op, err, "stored degree %q is malformed", docs[i].ID)
		}
		count, err := s.countStreams(ctx, op, docs[i].ID)
		if err != nil {
			return nil, err
		}
		if stored.StreamCount != count {
			b.Set(docs[i].Path, map[string]interface{}{"streamCount": count}, true)
			fixed = append(fixed, docs[i].ID)
		}
	}
	if len(fixed) == 0 {
		return nil, nil
	}
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)
	return fixed, nil
}

// IsNotFound is a convenience for callers outside the package
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// RefreshTree drops the cached overview and rebuilds it. It returns the
// number of batches in the new overview.
func (s *StructureService) RefreshTree(ctx context.Context) (int, error) {
	invalidateTree(ctx, s.opts, s.tree.CollegeID, s.logger)
	tree, err := s.Tree(ctx)
	if err != nil {
		return 0, err
	}
	batches := 0
	for _, degree := range tree.Degrees {
		for _, stream := range degree.Streams {
			batches += len(stream.Batches)
		}
	}
	return batches, nil
}
