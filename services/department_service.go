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
	collDepartments  = "departments"
	collDesignations = "designations"
)

var departmentTypes = map[model.DepartmentType]bool{
	model.DepartmentAcademic:       true,
	model.DepartmentNonAcademic:    true,
	model.DepartmentSupport:        true,
	model.DepartmentInfrastructure: true,
	model.DepartmentCreative:       true,
}

// DepartmentService manages departments and their designations
type DepartmentService struct {
	storeAccess
	tree Hierarchy
	opts options
}

// NewDepartmentService creates a new department service
func NewDepartmentService(store database.DocumentStore, collegeID string, logger *zap.Logger, opts ...Option) *DepartmentService {
	return &DepartmentService{
		storeAccess: storeAccess{store: store, logger: logger},
		tree:        Hierarchy{CollegeID: collegeID},
		opts:        newOptions(opts),
	}
}

func (s *DepartmentService) departmentPath(id string) string {
	return database.JoinPath(s.tree.Collection(collDepartments), id)
}

func (s *DepartmentService) designationPath(id string) string {
	return database.JoinPath(s.tree.Collection(collDesignations), id)
}

// CreateDepartment adds a department
func (s *DepartmentService) CreateDepartment(ctx context.Context, name string, kind model.DepartmentType) (*model.Department, error) {
	const op = "create department"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError(op, "department name is required")
	}
	if !departmentTypes[kind] {
		return nil, validationError(op, "unknown department type %q", kind)
	}

	dept := model.Department{ID: s.opts.newID(), Name: name, Type: kind}
	data, err := encode(dept)
	if err != nil {
		return nil, persistenceError(op, err, "could not encode department")
	}

	b := s.store.Batch()
	b.Set(s.departmentPath(dept.ID), data, false)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ListDepartments returns departments ordered by name
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	const op = "list departments"

	docs, err := s.children(ctx, op, s.tree.Collection(collDepartments), "departments")
	if err != nil {
		return nil, err
	}
	depts := make([]model.Department, 0, len(docs))
	for i := range docs {
		var dept model.Department
		if err := decode(&docs[i], &dept); err != nil {
			return nil, persistenceError(op, err, "stored department %q is malformed", docs[i].ID)
		}
		dept.ID = docs[i].ID
		depts = append(depts, dept)
	}
	sort.SliceStable(depts, func(i, j int) bool { return depts[i].Name < depts[j].Name })
	return depts, nil
}

// DeleteDepartment removes a department and its designations in one commit
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id string) error {
	const op = "delete department"

	if !validID(id) {
		return validationError(op, "department id is required")
	}
	if err := s.load(ctx, op, s.departmentPath(id), "department", nil); err != nil {
		return err
	}

	designations, err := s.ListDesignations(ctx, id)
	if err != nil {
		return err
	}

	b := s.store.Batch()
	for _, d := range designations {
		b.Delete(s.designationPath(d.ID))
	}
	b.Delete(s.departmentPath(id))
	if err := s.commit(ctx, op, b); err != nil {
		return err
	}

	s.logger.Info("department deleted", zap.String("department_id", id), zap.Int("designations", len(designations)))
	return nil
}

// CreateDesignation adds a designation to an existing department
func (s *DepartmentService) CreateDesignation(ctx context.Context, name, departmentID string) (*model.Designation, error) {
	const op = "create designation"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError(op, "designation name is required")
	}
	if !validID(departmentID) {
		return nil, validationError(op, "department id is required")
	}
	if err := s.load(ctx, op, s.departmentPath(departmentID), "department", nil); err != nil {
		return nil, err
	}

	d := model.Designation{ID: s.opts.newID(), Name: name, DepartmentID: departmentID}
	data, err := encode(d)
	if err != nil {
		return nil, persistenceError(op, err, "could not encode designation")
	}

	b := s.store.Batch()
	b.Set(s.designationPath(d.ID), data, false)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDesignations returns designations, optionally of one department
func (s *DepartmentService) ListDesignations(ctx context.Context, departmentID string) ([]model.Designation, error) {
	const op = "list designations"

	docs, err := s.children(ctx, op, s.tree.Collection(collDesignations), "designations")
	if err != nil {
		return nil, err
	}
	out := make([]model.Designation, 0, len(docs))
	for i := range docs {
		var d model.Designation
		if err := decode(&docs[i], &d); err != nil {
			return nil, persistenceError(op, err, "stored designation %q is malformed", docs[i].ID)
		}
		if departmentID != "" && d.DepartmentID != departmentID {
			continue
		}
		d.ID = docs[i].ID
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteDesignation removes one designation
func (s *DepartmentService) DeleteDesignation(ctx context.Context, id string) error {
	const op = "delete designation"

	if !validID(id) {
		return validationError(op, "designation id is required")
	}
	if err := s.load(ctx, op, s.designationPath(id), "designation", nil); err != nil {
		return err
	}
	b := s.store.Batch()
	b.Delete(s.designationPath(id))
	return s.commit(ctx, op, b)
}
