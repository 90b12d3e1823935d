package database

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultDepartment is a department every new college starts with
type DefaultDepartment struct {
	Name string
	Type string
}

// DefaultDepartments are seeded once per college; ids are derived from the
// name so reruns do not duplicate them.
var DefaultDepartments = []DefaultDepartment{
	{Name: "Computer Science", Type: "Academic"},
	{Name: "Mechanical Engineering", Type: "Academic"},
	{Name: "Administration", Type: "Non-Academic"},
	{Name: "Library", Type: "Support"},
	{Name: "Maintenance", Type: "Infrastructure"},
}

// Seeder writes the documents a fresh college needs
type Seeder struct {
	store       DocumentStore
	collegeID   string
	collegeName string
	now         func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(store DocumentStore, collegeID, collegeName string) *Seeder {
	return &Seeder{store: store, collegeID: collegeID, collegeName: collegeName, now: time.Now}
}

// SeedResult counts what a seeding run wrote
type SeedResult struct {
	Departments int
	Admin       bool
}

// SeedAll writes the college document, the default departments that are
// missing and, when adminUID is set, an admin role record. It is safe to rerun.
func (s *Seeder) SeedAll(ctx context.Context, adminUID, adminEmail string) (*SeedResult, error) {
	log.Printf("[SEED] Seeding college %s", s.collegeID)

	collegePath := JoinPath("colleges", s.collegeID)
	result := &SeedResult{}

	b := s.store.Batch()
	b.Set(collegePath, map[string]interface{}{"name": s.collegeName}, true)

	for _, dept := range DefaultDepartments {
		path := JoinPath(collegePath, "departments", slug(dept.Name))
		_, err := s.store.Get(ctx, path)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrDocumentNotFound) {
			return nil, errors.Wrapf(err, "check department %s", dept.Name)
		}
		b.Set(path, map[string]interface{}{"name": dept.Name, "type": dept.Type}, false)
		result.Departments++
	}

	if adminUID != "" {
		data := map[string]interface{}{
			"uid":       adminUID,
			"role":      "admin",
			"disabled":  false,
			"updatedAt": s.now().UnixMilli(),
		}
		if adminEmail != "" {
			data["email"] = adminEmail
		}
		b.Set(JoinPath("users", adminUID), data, true)
		result.Admin = true
	}

	if err := b.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit seed batch")
	}

	log.Printf("[SEED] Wrote %d departments, admin record: %v", result.Departments, result.Admin)
	return result, nil
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
