package services

import (
	"context"
	"sort"
	"strings"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"go.uber.org/zap"
)

const (
	collNotices = "notices"
	collEvents  = "events"
)

var (
	noticeCategories = map[model.NoticeCategory]bool{
		model.NoticeAcademic:   true,
		model.NoticeCampusLife: true,
		model.NoticeEvents:     true,
		model.NoticeHoliday:    true,
		model.NoticeSports:     true,
		model.NoticePlacement:  true,
		model.NoticeCanteen:    true,
	}
	eventTypes = map[model.EventType]bool{
		model.EventCompetition: true,
		model.EventWorkshop:    true,
		model.EventSocial:      true,
		model.EventAcademic:    true,
	}
)

// AudienceFilter selects notices visible to a reader. Empty fields match
// anything.
type AudienceFilter struct {
	Degree string
	Year   string
	Stream string
}

func containsOrEmpty(list []string, v string) bool {
	if v == "" || len(list) == 0 {
		return true
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Visible reports whether a notice addressed to a reaches the filter
func (f AudienceFilter) Visible(a model.Audience) bool {
	if a.All {
		return true
	}
	return containsOrEmpty(a.Degrees, f.Degree) &&
		containsOrEmpty(a.Years, f.Year) &&
		containsOrEmpty(a.Streams, f.Stream)
}

// BulletinService manages notices and events
type BulletinService struct {
	storeAccess
	tree Hierarchy
	opts options
}

// NewBulletinService creates a new bulletin service
func NewBulletinService(store database.DocumentStore, collegeID string, logger *zap.Logger, opts ...Option) *BulletinService {
	return &BulletinService{
		storeAccess: storeAccess{store: store, logger: logger},
		tree:        Hierarchy{CollegeID: collegeID},
		opts:        newOptions(opts),
	}
}

func (s *BulletinService) noticePath(id string) string {
	return database.JoinPath(s.tree.Collection(collNotices), id)
}

func (s *BulletinService) eventPath(id string) string {
	return database.JoinPath(s.tree.Collection(collEvents), id)
}

func checkNotice(op string, n *model.Notice) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return validationError(op, "notice title is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return validationError(op, "notice message is required")
	}
	if !noticeCategories[n.Category] {
		return validationError(op, "unknown notice category %q", n.Category)
	}
	return nil
}

// PostNotice publishes a notice stamped with the current time
func (s *BulletinService) PostNotice(ctx context.Context, n model.Notice) (*model.Notice, error) {
	const op = "post notice"

	if err := checkNotice(op, &n); err != nil {
		return nil, err
	}
	n.ID = s.opts.newID()
	n.PostedOn = s.opts.now().UnixMilli()
	if err := s.save(ctx, op, s.noticePath(n.ID), n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNotice edits a notice; author and posting time are kept
func (s *BulletinService) UpdateNotice(ctx context.Context, id string, n model.Notice) (*model.Notice, error) {
	const op = "update notice"

	if !validID(id) {
		return nil, validationError(op, "notice id is required")
	}
	if err := checkNotice(op, &n); err != nil {
		return nil, err
	}
	var stored model.Notice
	if err := s.load(ctx, op, s.noticePath(id), "notice", &stored); err != nil {
		return nil, err
	}
	n.ID = id
	n.PostedBy = stored.PostedBy
	n.PostedOn = stored.PostedOn
	if err := s.save(ctx, op, s.noticePath(id), n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotices returns visible notices, newest first
func (s *BulletinService) ListNotices(ctx context.Context, filter AudienceFilter) ([]model.Notice, error) {
	const op = "list notices"

	docs, err := s.children(ctx, op, s.tree.Collection(collNotices), "notices")
	if err != nil {
		return nil, err
	}
	out := make([]model.Notice, 0, len(docs))
	for i := range docs {
		var n model.Notice
		if err := decode(&docs[i], &n); err != nil {
			return nil, persistenceError(op, err, "stored notice %q is malformed", docs[i].ID)
		}
		if !filter.Visible(n.VisibleTo) {
			continue
		}
		n.ID = docs[i].ID
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PostedOn > out[j].PostedOn })
	return out, nil
}

// DeleteNotice removes a notice
func (s *BulletinService) DeleteNotice(ctx context.Context, id string) error {
	return s.remove(ctx, "delete notice", "notice", id, s.noticePath)
}

func checkEvent(op string, e *model.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return validationError(op, "event title is required")
	}
	if !eventTypes[e.Type] {
		return validationError(op, "unknown event type %q", e.Type)
	}
	if e.Date <= 0 {
		return validationError(op, "event date is required")
	}
	return nil
}

// CreateEvent adds an event
func (s *BulletinService) CreateEvent(ctx context.Context, e model.Event) (*model.Event, error) {
	const op = "create event"

	if err := checkEvent(op, &e); err != nil {
		return nil, err
	}
	e.ID = s.opts.newID()
	if err := s.save(ctx, op, s.eventPath(e.ID), e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEvent replaces an event
func (s *BulletinService) UpdateEvent(ctx context.Context, id string, e model.Event) (*model.Event, error) {
	const op = "update event"

	if !validID(id) {
		return nil, validationError(op, "event id is required")
	}
	if err := checkEvent(op, &e); err != nil {
		return nil, err
	}
	if err := s.load(ctx, op, s.eventPath(id), "event", nil); err != nil {
		return nil, err
	}
	e.ID = id
	if err := s.save(ctx, op, s.eventPath(id), e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEvents returns events in date order
func (s *BulletinService) ListEvents(ctx context.Context) ([]model.Event, error) {
	const op = "list events"

	docs, err := s.children(ctx, op, s.tree.Collection(collEvents), "events")
	if err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(docs))
	for i := range docs {
		var e model.Event
		if err := decode(&docs[i], &e); err != nil {
			return nil, persistenceError(op, err, "stored event %q is malformed", docs[i].ID)
		}
		e.ID = docs[i].ID
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// DeleteEvent removes an event
func (s *BulletinService) DeleteEvent(ctx context.Context, id string) error {
	return s.remove(ctx, "delete event", "event", id, s.eventPath)
}

func (s *BulletinService) save(ctx context.Context, op, path string, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return persistenceError(op, err, "could not encode record")
	}
	b := s.store.Batch()
	b.Set(path, data, false)
	return s.commit(ctx, op, b)
}

func (s *BulletinService) remove(ctx context.Context, op, what, id string, pathOf func(string) string) error {
	if !validID(id) {
		return validationError(op, "%s id is required", what)
	}
	if err := s.load(ctx, op, pathOf(id), what, nil); err != nil {
		return err
	}
	b := s.store.Batch()
	b.Delete(pathOf(id))
	return s.commit(ctx, op, b)
}
