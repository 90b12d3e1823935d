package database

import (
	"log"
	"strings"
)

func (s *PostgreSQLStore) Initialize() error {
	log.Println("Initializing PostgresSQL Database.", "Initializing Tables")
	if err := s.InitTables(); err != nil {
		return err
	}
	s.PrintLayout()
	return nil
}

func (s *PostgreSQLStore) InitTables() error {
	// documents table: one row per document, addressed by its full path
	documentsTable := `
	CREATE TABLE IF NOT EXISTS documents (
		path       TEXT PRIMARY KEY,
		parent     TEXT NOT NULL,
		doc_id     TEXT NOT NULL,
		data       JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	parentIndex := `
	CREATE INDEX IF NOT EXISTS documents_parent_idx ON documents (parent, doc_id);
	`

	_, err := s.db.Exec(strings.Join([]string{documentsTable, parentIndex}, ""))
	return err
}

func (s *PostgreSQLStore) PrintLayout() {
	log.Println("documents: path -> parent collection path, doc_id = last path segment")
}
