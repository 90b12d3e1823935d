package services

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"go.uber.org/zap"
)

// Violation is one broken structural rule found by the auditor
type Violation struct {
	Path    string `json:"path"`
	Problem string `json:"problem"`
}

// AuditReport summarizes one walk of the hierarchy
type AuditReport struct {
	Degrees    int         `json:"degrees"`
	Batches    int         `json:"batches"`
	Sections   int         `json:"sections"`
	Violations []Violation `json:"violations"`
}

// OK reports whether the walk found nothing wrong
func (r *AuditReport) OK() bool { return len(r.Violations) == 0 }

func (r *AuditReport) add(path, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{Path: path, Problem: fmt.Sprintf(format, args...)})
}

// AuditService checks that every provisioned batch still has the shape
// provisioning gave it.
type AuditService struct {
	storeAccess
	tree Hierarchy
}

// NewAuditService creates a new audit service
func NewAuditService(store database.DocumentStore, collegeID string, logger *zap.Logger) *AuditService {
	return &AuditService{
		storeAccess: storeAccess{store: store, logger: logger},
		tree:        Hierarchy{CollegeID: collegeID},
	}
}

// Run walks every degree, stream and batch of the college
func (s *AuditService) Run(ctx context.Context) (*AuditReport, error) {
	const op = "audit structure"

	report := &AuditReport{Violations: []Violation{}}
	degrees, err := s.children(ctx, op, s.tree.DegreesPath(), "degrees")
	if err != nil {
		return nil, err
	}

	for i := range degrees {
		report.Degrees++
		var degree model.Degree
		if err := decode(&degrees[i], &degree); err != nil {
			report.add(degrees[i].Path, "degree document is malformed")
			continue
		}

		streams, err := s.children(ctx, op, s.tree.StreamsPath(degrees[i].ID), "streams")
		if err != nil {
			return nil, err
		}
		if degree.StreamCount != len(streams) {
			report.add(degrees[i].Path, "streamCount is %d but the degree has %d streams", degree.StreamCount, len(streams))
		}

		for _, stream := range streams {
			ref := StreamRef{DegreeID: degrees[i].ID, StreamID: stream.ID}
			if err := s.auditStream(ctx, op, ref, degree.Duration, report); err != nil {
				return nil, err
			}
		}
	}

	if err := s.auditTeachers(ctx, op, report); err != nil {
		return nil, err
	}

	if report.OK() {
		s.logger.Info("structure audit passed",
			zap.Int("degrees", report.Degrees),
			zap.Int("batches", report.Batches),
			zap.Int("sections", report.Sections))
	} else {
		s.logger.Warn("structure audit found violations",
			zap.Int("violations", len(report.Violations)),
			zap.Int("batches", report.Batches))
	}
	return report, nil
}

func (s *AuditService) auditStream(ctx context.Context, op string, ref StreamRef, duration int, report *AuditReport) error {
	all, err := s.store.List(ctx, s.tree.BatchesPath(ref))
	if err != nil {
		return persistenceError(op, err, "could not list batches")
	}
	if len(all) == 0 {
		report.add(s.tree.StreamPath(ref), "stream has no batches collection")
	}

	for i := range all {
		if isPlaceholder(all[i]) {
			continue
		}
		report.Batches++
		var batch model.Batch
		if err := decode(&all[i], &batch); err != nil {
			report.add(all[i].Path, "batch document is malformed")
			continue
		}
		batchRef := BatchRef{StreamRef: ref, BatchID: all[i].ID}
		if err := s.auditBatch(ctx, op, batchRef, batch, duration, report); err != nil {
			return err
		}
	}
	return nil
}

// auditBatch checks a batch against the duration of its degree
func (s *AuditService) auditBatch(ctx context.Context, op string, ref BatchRef, batch model.Batch, duration int, report *AuditReport) error {
	if span := batch.EndYear - batch.StartYear; span != duration {
		report.add(s.tree.BatchPath(ref), "batch spans %d years but the degree lasts %d", span, duration)
	}
	years, err := s.children(ctx, op, s.tree.YearsPath(ref), "years")
	if err != nil {
		return err
	}
	if len(years) != duration {
		report.add(s.tree.BatchPath(ref), "degree lasts %d years but the batch has %d year documents", duration, len(years))
	}

	for _, year := range years {
		yearRef := YearRef{BatchRef: ref, YearID: year.ID}
		semesters, err := s.children(ctx, op, s.tree.SemestersPath(yearRef), "semesters")
		if err != nil {
			return err
		}
		if len(semesters) != semestersPerYear {
			report.add(s.tree.YearPath(yearRef), "year has %d semesters, want %d", len(semesters), semestersPerYear)
		}

		for _, sem := range semesters {
			semRef := SemesterRef{YearRef: yearRef, SemesterID: sem.ID}
			sections, err := s.children(ctx, op, s.tree.SectionsPath(semRef), "sections")
			if err != nil {
				return err
			}
			if len(sections) == 0 {
				report.add(s.tree.SemesterPath(semRef), "semester has no sections")
			}
			for _, section := range sections {
				report.Sections++
				sectionPath := s.tree.SectionPath(SectionRef{SemesterRef: semRef, SectionID: section.ID})
				for _, leaf := range LeafCollections {
					docs, err := s.store.List(ctx, database.JoinPath(sectionPath, leaf))
					if err != nil {
						return persistenceError(op, err, "could not list %s", leaf)
					}
					if len(docs) == 0 {
						report.add(sectionPath, "section is missing the %s collection", leaf)
					}
				}
			}
		}
	}
	return nil
}

// auditTeachers reports assigned classes whose section was deleted
func (s *AuditService) auditTeachers(ctx context.Context, op string, report *AuditReport) error {
	teachers, err := s.children(ctx, op, s.tree.Collection(collTeachers), "teachers")
	if err != nil {
		return err
	}

	for i := range teachers {
		var t model.Teacher
		if err := decode(&teachers[i], &t); err != nil {
			report.add(teachers[i].Path, "teacher document is malformed")
			continue
		}
		for _, class := range t.AssignedClasses {
			sectionPath := s.tree.SectionPath(classSection(class))
			exists, err := s.exists(ctx, op, sectionPath, "section")
			if err != nil {
				return err
			}
			if !exists {
				report.add(teachers[i].Path, "assigned class %s (%s) no longer exists", sectionPath, class.Subject)
			}
		}
	}
	return nil
}
