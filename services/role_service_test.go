package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveRole(t *testing.T) {
	id := model.Identity{UID: "u1", Email: "u1@gec.edu"}

	tests := []struct {
		name     string
		identity model.Identity
		record   *model.UserRecord
		want     model.Role
	}{
		{"anonymous", model.Identity{}, &model.UserRecord{Role: model.RoleAdmin}, ""},
		{"no record defaults to student", id, nil, model.RoleStudent},
		{"admin record", id, &model.UserRecord{Role: model.RoleAdmin}, model.RoleAdmin},
		{"teacher record", id, &model.UserRecord{Role: model.RoleTeacher}, model.RoleTeacher},
		{"unknown role falls back to student", id, &model.UserRecord{Role: "principal"}, model.RoleStudent},
		{"disabled record", id, &model.UserRecord{Role: model.RoleAdmin, Disabled: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.identity, tt.record))
		})
	}
}

func TestRoleService(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := NewRoleService(store, zap.NewNop(), WithClock(fixedClock))
	id := model.Identity{UID: "u1", Email: "u1@gec.edu"}

	record, err := s.Record(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, record)

	role, err := s.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, role)

	record, err = s.AssignRole(ctx, "u1", "u1@gec.edu", model.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, record.Role)
	assert.Equal(t, "u1@gec.edu", record.Email)
	assert.Equal(t, fixedNow.UnixMilli(), record.UpdatedAt)

	role, err = s.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, role)

	require.NoError(t, s.SetDisabled(ctx, "u1", true))
	role, err = s.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.Role(""), role)

	// Changing the role leaves the disabled flag alone
	record, err = s.AssignRole(ctx, "u1", "", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, record.Disabled)
	assert.Equal(t, "u1@gec.edu", record.Email)

	_, err = s.AssignRole(ctx, "u1", "", "principal")
	assert.True(t, errors.Is(err, ErrValidation))

	err = s.SetDisabled(ctx, "u2", true)
	assert.True(t, errors.Is(err, ErrNotFound))

	role, err = s.Resolve(ctx, model.Identity{})
	require.NoError(t, err)
	assert.Equal(t, model.Role(""), role)
}

func TestUpdateRecord_SingleCommit(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore(500)
	s := NewRoleService(store, zap.NewNop(), WithClock(fixedClock))
	disabled := true

	record, err := s.UpdateRecord(ctx, "u1", RoleUpdate{Email: "u1@gec.edu", Role: model.RoleTeacher, Disabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Commits())
	assert.Equal(t, model.RoleTeacher, record.Role)
	assert.True(t, record.Disabled)

	// A failed commit leaves both the role and the flag as they were
	store.SetCommitHook(func(ops []database.BatchOp) error { return errors.New("unavailable") })
	enabled := false
	_, err = s.UpdateRecord(ctx, "u1", RoleUpdate{Role: model.RoleAdmin, Disabled: &enabled})
	assert.True(t, errors.Is(err, ErrPersistence))
	store.SetCommitHook(nil)

	record, err = s.Record(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, record.Role)
	assert.True(t, record.Disabled)
	assert.Equal(t, 1, store.Commits())

	// Without a flag the stored one is kept
	record, err = s.UpdateRecord(ctx, "u1", RoleUpdate{Role: model.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, record.Role)
	assert.True(t, record.Disabled)
}
