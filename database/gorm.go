package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/config"
	"github.com/sahilchouksey/campus-api/model"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GORMStore struct {
	db       *gorm.DB
	maxBatch int
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(cfg *config.Config) (*GORMStore, error) {
	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUserName,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return NewGORMStore(db, cfg.StoreMaxBatch), nil
}

// NewGORMStore wraps an open gorm connection
func NewGORMStore(db *gorm.DB, maxBatch int) *GORMStore {
	return &GORMStore{db: db, maxBatch: maxBatch}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for documents...")

	if err := s.db.AutoMigrate(&model.Document{}); err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *GORMStore) Driver() string {
	return config.DriverGORM
}

func (s *GORMStore) MaxBatchSize() int {
	return s.maxBatch
}

// Get loads a single document by path
func (s *GORMStore) Get(ctx context.Context, path string) (*Document, error) {
	var row model.Document
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.WithStack(ErrDocumentNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", path)
	}
	return rowToDocument(row), nil
}

// List loads every document of a collection
func (s *GORMStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	var rows []model.Document
	if err := s.db.WithContext(ctx).
		Where("parent = ?", collectionPath).
		Order("doc_id ASC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "list %s", collectionPath)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, *rowToDocument(row))
	}
	return docs, nil
}

func (s *GORMStore) Batch() WriteBatch {
	return &gormBatch{store: s}
}

type gormBatch struct {
	opQueue
	store *GORMStore
}

// Commit applies the queued writes inside one transaction
func (b *gormBatch) Commit(ctx context.Context) error {
	if err := b.check(ctx, b.store.maxBatch); err != nil {
		return err
	}

	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range b.ops {
			if op.Kind == OpDelete {
				if err := tx.Where("path = ?", op.Path).Delete(&model.Document{}).Error; err != nil {
					return errors.Wrapf(err, "delete %s", op.Path)
				}
				continue
			}

			data := op.Data
			if op.Merge {
				var existing model.Document
				err := tx.Where("path = ?", op.Path).First(&existing).Error
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.Wrapf(err, "load %s", op.Path)
				}
				data = mergeData(existing.Data, op.Data)
			}

			row := model.Document{
				Path:   op.Path,
				Parent: ParentPath(op.Path),
				DocID:  DocumentID(op.Path),
				Data:   datatypes.JSONMap(data),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "path"}},
				DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return errors.Wrapf(err, "set %s", op.Path)
			}
		}
		return nil
	})
	return errors.Wrap(err, "commit batch")
}

func rowToDocument(row model.Document) *Document {
	data := map[string]interface{}(row.Data)
	if data == nil {
		data = map[string]interface{}{}
	}
	return &Document{ID: row.DocID, Path: row.Path, Data: data}
}
