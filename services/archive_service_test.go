package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sahilchouksey/campus-api/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubObjects struct {
	key         string
	body        []byte
	contentType string
	err         error
}

func (o *stubObjects) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	if o.err != nil {
		return o.err
	}
	o.key, o.body, o.contentType = key, data, contentType
	return nil
}

func TestSnapshotKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, "archives/GEC/colleges/GEC/degrees/btech/1700000000000.json",
		SnapshotKey("GEC", "colleges/GEC/degrees/btech", at))
}

func TestArchiveService(t *testing.T) {
	ctx := context.Background()
	objects := &stubObjects{}
	a := NewArchiveService(objects, testCollege, zap.NewNop())
	a.now = fixedClock

	root := "colleges/GEC/degrees/mca"
	docs := []database.Document{
		{ID: "mca", Path: root, Data: map[string]interface{}{"name": "MCA"}},
		{ID: "general", Path: root + "/streams/general", Data: map[string]interface{}{"name": "General"}},
	}

	key, err := a.Archive(ctx, root, docs)
	require.NoError(t, err)
	assert.Equal(t, SnapshotKey(testCollege, root, fixedNow), key)
	assert.Equal(t, key, objects.key)
	assert.Equal(t, "application/json", objects.contentType)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(objects.body, &snap))
	assert.Equal(t, root, snap.Root)
	assert.Equal(t, fixedNow.UnixMilli(), snap.ArchivedAt)
	require.Len(t, snap.Documents, 2)
	assert.Equal(t, "General", snap.Documents[1].Data["name"])

	objects.err = errors.New("access denied")
	_, err = a.Archive(ctx, root, docs)
	assert.Error(t, err)
}
