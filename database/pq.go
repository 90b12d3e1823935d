package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/config"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidPath      = errors.New("invalid document path")
	ErrBatchTooLarge    = errors.New("batch exceeds the store operation limit")
)

// Document is a single record of the hierarchical store
type Document struct {
	ID   string                 `json:"id"`
	Path string                 `json:"path"`
	Data map[string]interface{} `json:"data"`
}

// WriteBatch queues writes and applies them as one all-or-nothing unit
type WriteBatch interface {
	Set(path string, data map[string]interface{}, merge bool)
	Delete(path string)
	Len() int
	Commit(ctx context.Context) error
}

// DocumentStore is the document primitive every backend provides
type DocumentStore interface {
	Get(ctx context.Context, path string) (*Document, error)
	// List returns the documents of a collection ordered by id, placeholders included.
	List(ctx context.Context, collectionPath string) ([]Document, error)
	Batch() WriteBatch
	MaxBatchSize() int
}

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	DocumentStore

	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error
	Driver() string
}

type PostgreSQLStore struct {
	db       *sql.DB
	maxBatch int
}

func Start(cfg *config.Config) (*PostgreSQLStore, error) {
	connectStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUserName, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	log.Println("Successfully connected to PostgresSQL Database.")
	return &PostgreSQLStore{
		db:       db,
		maxBatch: cfg.StoreMaxBatch,
	}, nil
}

func (s *PostgreSQLStore) Init() error {
	log.Println("Initializing PostgresSQL Database.")
	return s.Initialize()
}

func (s *PostgreSQLStore) Close() error {
	log.Println("Closing PostgresSQL Database.")
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgreSQLStore) Driver() string {
	return config.DriverPostgres
}

func (s *PostgreSQLStore) MaxBatchSize() int {
	return s.maxBatch
}
