package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
)

func (s *PostgreSQLStore) Get(ctx context.Context, path string) (*Document, error) {
	query := `SELECT doc_id, data FROM documents WHERE path = $1;`

	var (
		id  string
		raw []byte
	)
	err := s.db.QueryRowContext(ctx, query, path).Scan(&id, &raw)
	if err == sql.ErrNoRows {
		return nil, errors.WithStack(ErrDocumentNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", path)
	}

	return scanIntoDocument(path, id, raw)
}

func (s *PostgreSQLStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	query := `SELECT path, doc_id, data FROM documents WHERE parent = $1 ORDER BY doc_id;`

	rows, err := s.db.QueryContext(ctx, query, collectionPath)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", collectionPath)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			path, id string
			raw      []byte
		)
		if err := rows.Scan(&path, &id, &raw); err != nil {
			return nil, errors.Wrapf(err, "scan %s", collectionPath)
		}
		doc, err := scanIntoDocument(path, id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, errors.Wrapf(rows.Err(), "list %s", collectionPath)
}

func (s *PostgreSQLStore) Batch() WriteBatch {
	return &pqBatch{store: s}
}

type pqBatch struct {
	opQueue
	store *PostgreSQLStore
}

const (
	upsertReplace = `
	INSERT INTO documents (path, parent, doc_id, data) VALUES ($1, $2, $3, $4::jsonb)
	ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now();`

	upsertMerge = `
	INSERT INTO documents (path, parent, doc_id, data) VALUES ($1, $2, $3, $4::jsonb)
	ON CONFLICT (path) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now();`

	deleteDocument = `DELETE FROM documents WHERE path = $1;`
)

func (b *pqBatch) Commit(ctx context.Context) error {
	if err := b.check(ctx, b.store.maxBatch); err != nil {
		return err
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin batch")
	}

	for _, op := range b.ops {
		if err := execOp(ctx, tx, op); err != nil {
			tx.Rollback()
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit batch")
}

func execOp(ctx context.Context, tx *sql.Tx, op BatchOp) error {
	if op.Kind == OpDelete {
		_, err := tx.ExecContext(ctx, deleteDocument, op.Path)
		return errors.Wrapf(err, "delete %s", op.Path)
	}

	payload, err := json.Marshal(op.Data)
	if err != nil {
		return errors.Wrapf(err, "encode %s", op.Path)
	}

	query := upsertReplace
	if op.Merge {
		query = upsertMerge
	}
	// lib/pq sends []byte as bytea, the jsonb cast needs text
	_, err = tx.ExecContext(ctx, query, op.Path, ParentPath(op.Path), DocumentID(op.Path), string(payload))
	return errors.Wrapf(err, "set %s", op.Path)
}

func scanIntoDocument(path, id string, raw []byte) (*Document, error) {
	data := map[string]interface{}{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
	}
	return &Document{ID: id, Path: path, Data: data}, nil
}
