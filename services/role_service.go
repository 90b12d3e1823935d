package services

import (
	"context"
	"strings"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"go.uber.org/zap"
)

// ResolveRole decides the role of a caller from the verified identity and its
// persisted role record. An empty role means anonymous.
func ResolveRole(identity model.Identity, record *model.UserRecord) model.Role {
	if identity.UID == "" {
		return ""
	}
	if record == nil {
		return model.RoleStudent
	}
	if record.Disabled {
		return ""
	}
	if !record.Role.Valid() {
		return model.RoleStudent
	}
	return record.Role
}

// RoleService reads and writes role records at users/<uid>
type RoleService struct {
	storeAccess
	tree Hierarchy
	opts options
}

// NewRoleService creates a new role service
func NewRoleService(store database.DocumentStore, logger *zap.Logger, opts ...Option) *RoleService {
	return &RoleService{
		storeAccess: storeAccess{store: store, logger: logger},
		opts:        newOptions(opts),
	}
}

// Record loads the role record of uid; nil when there is none
func (s *RoleService) Record(ctx context.Context, uid string) (*model.UserRecord, error) {
	const op = "load role record"

	if !validID(uid) {
		return nil, validationError(op, "uid is required")
	}
	var record model.UserRecord
	err := s.load(ctx, op, s.tree.UserPath(uid), "role record", &record)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record.UID = uid
	return &record, nil
}

// Resolve returns the role of a verified identity
func (s *RoleService) Resolve(ctx context.Context, identity model.Identity) (model.Role, error) {
	if identity.UID == "" {
		return "", nil
	}
	record, err := s.Record(ctx, identity.UID)
	if err != nil {
		return "", err
	}
	return ResolveRole(identity, record), nil
}

// RoleUpdate is a change to a role record. A nil Disabled leaves the flag as
// it is.
type RoleUpdate struct {
	Email    string
	Role     model.Role
	Disabled *bool
}

// AssignRole writes the role record of uid
func (s *RoleService) AssignRole(ctx context.Context, uid, email string, role model.Role) (*model.UserRecord, error) {
	return s.UpdateRecord(ctx, uid, RoleUpdate{Email: email, Role: role})
}

// UpdateRecord writes the role and, when given, the disabled flag of uid in a
// single batch
func (s *RoleService) UpdateRecord(ctx context.Context, uid string, in RoleUpdate) (*model.UserRecord, error) {
	const op = "assign role"

	if !validID(uid) {
		return nil, validationError(op, "uid is required")
	}
	if !in.Role.Valid() {
		return nil, validationError(op, "role must be one of admin, teacher, student")
	}

	data := map[string]interface{}{
		"uid":       uid,
		"role":      string(in.Role),
		"updatedAt": s.opts.now().UnixMilli(),
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		data["email"] = email
	}
	if in.Disabled != nil {
		data["disabled"] = *in.Disabled
	}

	b := s.store.Batch()
	b.Set(s.tree.UserPath(uid), data, true)
	if err := s.commit(ctx, op, b); err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("uid", uid), zap.String("role", string(in.Role))}
	if in.Disabled != nil {
		fields = append(fields, zap.Bool("disabled", *in.Disabled))
	}
	s.logger.Info("role assigned", fields...)
	return s.Record(ctx, uid)
}

// SetDisabled blocks or unblocks a user without touching the role
func (s *RoleService) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	const op = "set user disabled"

	if !validID(uid) {
		return validationError(op, "uid is required")
	}
	if err := s.load(ctx, op, s.tree.UserPath(uid), "role record", nil); err != nil {
		return err
	}

	b := s.store.Batch()
	b.Set(s.tree.UserPath(uid), map[string]interface{}{
		"disabled":  disabled,
		"updatedAt": s.opts.now().UnixMilli(),
	}, true)
	return s.commit(ctx, op, b)
}
