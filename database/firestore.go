package database

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreWriteLimit is the number of writes Firestore accepts per transaction
const firestoreWriteLimit = 500

// NewFirebaseApp creates the firebase app shared by the Firestore store and
// the ID token verifier.
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		log.Println("[FIREBASE] Using credentials from:", cfg.FirebaseCredentialsFile)
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}

	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}
	return app, nil
}

// FirestoreStore keeps the hierarchy in Cloud Firestore, one Firestore
// document per hierarchy document.
type FirestoreStore struct {
	client   *firestore.Client
	maxBatch int
}

// StartFirestore opens a Firestore client from the firebase app
func StartFirestore(ctx context.Context, app *firebase.App, cfg *config.Config) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init firestore client")
	}

	maxBatch := cfg.StoreMaxBatch
	if maxBatch <= 0 || maxBatch > firestoreWriteLimit {
		maxBatch = firestoreWriteLimit
	}

	log.Println("Successfully connected to Firestore.")
	return &FirestoreStore{client: client, maxBatch: maxBatch}, nil
}

func (s *FirestoreStore) Init() error { return nil }

func (s *FirestoreStore) Close() error {
	log.Println("Closing Firestore client...")
	return s.client.Close()
}

// HealthCheck reads a document that need not exist; NotFound still proves
// the backend answered.
func (s *FirestoreStore) HealthCheck() error {
	_, err := s.client.Doc("health/ping").Get(context.Background())
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (s *FirestoreStore) Driver() string    { return config.DriverFirestore }
func (s *FirestoreStore) MaxBatchSize() int { return s.maxBatch }

func (s *FirestoreStore) docRef(path string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, errors.Wrapf(ErrInvalidPath, "%q", path)
	}
	return ref, nil
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (*Document, error) {
	ref, err := s.docRef(path)
	if err != nil {
		return nil, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errors.WithStack(ErrDocumentNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", path)
	}
	return &Document{ID: snap.Ref.ID, Path: path, Data: snap.Data()}, nil
}

func (s *FirestoreStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	coll := s.client.Collection(collectionPath)
	if coll == nil {
		return nil, errors.Wrapf(ErrInvalidPath, "%q", collectionPath)
	}

	iter := coll.OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	docs := []Document{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "list %s", collectionPath)
		}
		docs = append(docs, Document{
			ID:   snap.Ref.ID,
			Path: JoinPath(collectionPath, snap.Ref.ID),
			Data: snap.Data(),
		})
	}
	return docs, nil
}

func (s *FirestoreStore) Batch() WriteBatch {
	return &firestoreBatch{store: s}
}

type firestoreBatch struct {
	opQueue
	store *FirestoreStore
}

// Commit runs the queued writes in one Firestore transaction
func (b *firestoreBatch) Commit(ctx context.Context) error {
	if err := b.check(ctx, b.store.maxBatch); err != nil {
		return err
	}

	err := b.store.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range b.ops {
			ref, err := b.store.docRef(op.Path)
			if err != nil {
				return err
			}
			switch {
			case op.Kind == OpDelete:
				err = tx.Delete(ref)
			case op.Merge:
				err = tx.Set(ref, op.Data, firestore.MergeAll)
			default:
				err = tx.Set(ref, op.Data)
			}
			if err != nil {
				return errors.Wrapf(err, "queue %s", op.Path)
			}
		}
		return nil
	})
	return errors.Wrap(err, "commit batch")
}
