package database

import (
	"context"

	"github.com/pkg/errors"
)

// OpKind is the kind of a queued write
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// BatchOp is one queued write of a WriteBatch
type BatchOp struct {
	Kind  OpKind
	Path  string
	Data  map[string]interface{}
	Merge bool
}

// opQueue collects writes for the backend batches
type opQueue struct {
	ops []BatchOp
}

func (q *opQueue) Set(path string, data map[string]interface{}, merge bool) {
	q.ops = append(q.ops, BatchOp{Kind: OpSet, Path: path, Data: cloneData(data), Merge: merge})
}

func (q *opQueue) Delete(path string) {
	q.ops = append(q.ops, BatchOp{Kind: OpDelete, Path: path})
}

func (q *opQueue) Len() int {
	return len(q.ops)
}

// check validates the queue before a backend starts applying it
func (q *opQueue) check(ctx context.Context, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if limit > 0 && len(q.ops) > limit {
		return errors.Wrapf(ErrBatchTooLarge, "%d operations, limit %d", len(q.ops), limit)
	}
	for _, op := range q.ops {
		if !IsDocumentPath(op.Path) {
			return errors.Wrapf(ErrInvalidPath, "%q", op.Path)
		}
	}
	return nil
}

func cloneData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

// mergeData overlays patch on base at the top level
func mergeData(base, patch map[string]interface{}) map[string]interface{} {
	out := cloneData(base)
	for k, v := range patch {
		out[k] = v
	}
	return out
}
