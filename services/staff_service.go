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
	collEmployees = "employees"
	collTeachers  = "teachers"
)

var (
	employeeStatuses = map[model.EmployeeStatus]bool{
		model.EmployeeActive:     true,
		model.EmployeeOnLeave:    true,
		model.EmployeeResigned:   true,
		model.EmployeeTerminated: true,
	}
	salaryTypes = map[model.SalaryType]bool{
		model.SalaryFixed:     true,
		model.SalaryHourly:    true,
		model.SalaryIncentive: true,
	}
)

// StaffService manages employee records and teacher profiles
type StaffService struct {
	storeAccess
	tree Hierarchy
	opts options
}

// NewStaffService creates a new staff service
func NewStaffService(store database.DocumentStore, collegeID string, logger *zap.Logger, opts ...Option) *StaffService {
	return &StaffService{
		storeAccess: storeAccess{store: store, logger: logger},
		tree:        Hierarchy{CollegeID: collegeID},
		opts:        newOptions(opts),
	}
}

func (s *StaffService) employeePath(id string) string {
	return database.JoinPath(s.tree.Collection(collEmployees), id)
}

func (s *StaffService) teacherPath(uid string) string {
	return database.JoinPath(s.tree.Collection(collTeachers), uid)
}

func checkEmployee(op string, e *model.Employee) error {
	e.FullName = strings.TrimSpace(e.FullName)
	e.Email = strings.TrimSpace(e.Email)
	if e.FullName == "" {
		return validationError(op, "full name is required")
	}
	if e.EmployeeID == "" {
		return validationError(op, "employee id is required")
	}
	if e.Status == "" {
		e.Status = model.EmployeeActive
	}
	if !employeeStatuses[e.Status] {
		return validationError(op, "unknown employee status %q", e.Status)
	}
	if e.SalaryType != "" && !salaryTypes[e.SalaryType] {
		return validationError(op, "unknown salary type %q", e.SalaryType)
	}
	if e.SalaryAmount < 0 {
		return validationError(op, "salary amount cannot be negative")
	}
	return nil
}

// CreateEmployee adds an employee record
func (s *StaffService) CreateEmployee(ctx context.Context, e model.Employee) (*model.Employee, error) {
	const op = "create employee"

	if err := checkEmployee(op, &e); err != nil {
		return nil, err
	}
	e.ID = s.opts.newID()
	if err := s.saveEmployee(ctx, op, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee replaces an existing employee record
func (s *StaffService) UpdateEmployee(ctx context.Context, id string, e model.Employee) (*model.Employee, error) {
	const op = "update employee"

	if !validID(id) {
		return nil, validationError(op, "employee id is required")
	}
	if err := checkEmployee(op, &e); err != nil {
		return nil, err
	}
	if err := s.load(ctx, op, s.employeePath(id), "employee", nil); err != nil {
		return nil, err
	}
	e.ID = id
	if err := s.saveEmployee(ctx, op, e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *StaffService) saveEmployee(ctx context.Context, op string, e model.Employee) error {
	data, err := encode(e)
	if err != nil {
		return persistenceError(op, err, "could not encode employee")
	}
	b := s.store.Batch()
	b.Set(s.employeePath(e.ID), data, false)
	return s.commit(ctx, op, b)
}

// ListEmployees returns employees ordered by name, optionally of one department
func (s *StaffService) ListEmployees(ctx context.Context, departmentID string) ([]model.Employee, error) {
	const op = "list employees"

	docs, err := s.children(ctx, op, s.tree.Collection(collEmployees), "employees")
	if err != nil {
		return nil, err
	}
	out := make([]model.Employee, 0, len(docs))
	for i := range docs {
		var e model.Employee
		if err := decode(&docs[i], &e); err != nil {
			return nil, persistenceError(op, err, "stored employee %q is malformed", docs[i].ID)
		}
		if departmentID != "" && e.DepartmentID != departmentID {
			continue
		}
		e.ID = docs[i].ID
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// DeleteEmployee removes an employee record
func (s *StaffService) DeleteEmployee(ctx context.Context, id string) error {
	const op = "delete employee"

	if !validID(id) {
		return validationError(op, "employee id is required")
	}
	if err := s.load(ctx, op, s.employeePath(id), "employee", nil); err != nil {
		return err
	}
	b := s.store.Batch()
	b.Delete(s.employeePath(id))
	return s.commit(ctx, op, b)
}

// UpsertTeacher writes the profile of a teacher keyed by auth uid. Assigned
// classes are kept from the stored profile.
func (s *StaffService) UpsertTeacher(ctx context.Context, uid string, t model.Teacher) (*model.Teacher, error) {
	const op = "save teacher"

	if !validID(uid) {
		return nil, validationError(op, "teacher uid is required")
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return nil, validationError(op, "teacher name is required")
	}

	existing, err := s.GetTeacher(ctx, uid)
	switch {
	case err == nil:
		t.AssignedClasses = existing.AssignedClasses
	case IsNotFound(err):
		t.AssignedClasses = []model.ClassAssignment{}
	default:
		return nil, err
	}
	t.ID = uid
	t.Role = model.RoleTeacher

	data, err := encode(t)
	if err != nil {
		return nil, persistenceError(op, err, "could not encode teacher")
	}
	b := s.store.Batch()
	b.Set(s.teacherPath(uid), data, false)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTeacher loads a teacher profile
func (s *StaffService) GetTeacher(ctx context.Context, uid string) (*model.Teacher, error) {
	const op = "get teacher"

	if !validID(uid) {
		return nil, validationError(op, "teacher uid is required")
	}
	var t model.Teacher
	if err := s.load(ctx, op, s.teacherPath(uid), "teacher", &t); err != nil {
		return nil, err
	}
	t.ID = uid
	return &t, nil
}

// ListTeachers returns teacher profiles ordered by name
func (s *StaffService) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	const op = "list teachers"

	docs, err := s.children(ctx, op, s.tree.Collection(collTeachers), "teachers")
	if err != nil {
		return nil, err
	}
	out := make([]model.Teacher, 0, len(docs))
	for i := range docs {
		var t model.Teacher
		if err := decode(&docs[i], &t); err != nil {
			return nil, persistenceError(op, err, "stored teacher %q is malformed", docs[i].ID)
		}
		t.ID = docs[i].ID
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// classSection addresses the section a class assignment points at
func classSection(class model.ClassAssignment) SectionRef {
	return SectionRef{SemesterRef: SemesterRef{YearRef: YearRef{BatchRef: BatchRef{
		StreamRef: StreamRef{DegreeID: class.DegreeID, StreamID: class.StreamID},
		BatchID:   class.BatchID},
		YearID: class.YearID},
		SemesterID: class.SemesterID},
		SectionID: class.SectionID}
}

// AssignClass adds a section of the hierarchy to a teacher's classes. The
// section must exist; assigning the same section and subject twice is a
// conflict.
func (s *StaffService) AssignClass(ctx context.Context, uid string, class model.ClassAssignment) (*model.Teacher, error) {
	const op = "assign class"

	ref := classSection(class)
	if !ref.valid() {
		return nil, validationError(op, "class must name degree, stream, batch, year, semester and section")
	}

	t, err := s.GetTeacher(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := s.load(ctx, op, s.tree.SectionPath(ref), "section", nil); err != nil {
		return nil, err
	}
	for _, c := range t.AssignedClasses {
		if c == class {
			return nil, conflictError(op, "class is already assigned to this teacher")
		}
	}

	t.AssignedClasses = append(t.AssignedClasses, class)
	classes, err := encode(struct {
		AssignedClasses []model.ClassAssignment `json:"assignedClasses"`
	}{t.AssignedClasses})
	if err != nil {
		return nil, persistenceError(op, err, "could not encode classes")
	}

	b := s.store.Batch()
	b.Set(s.teacherPath(uid), classes, true)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}

	s.logger.Info("class assigned",
		zap.String("teacher_uid", uid),
		zap.String("batch_id", class.BatchID),
		zap.String("section_id", class.SectionID))
	return t, nil
}
