package database

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/sahilchouksey/campus-api/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "documents"

type mongoDocument struct {
	Path   string `bson:"_id"`
	Parent string `bson:"parent"`
	DocID  string `bson:"doc_id"`
	Data   bson.M `bson:"data"`
}

// MongoStore keeps every hierarchy document in one collection keyed by path.
// Commits need a replica set for multi-document transactions.
type MongoStore struct {
	client   *mongo.Client
	coll     *mongo.Collection
	maxBatch int
}

// StartMongo connects to MongoDB
func StartMongo(ctx context.Context, cfg *config.Config) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}

	log.Println("Successfully connected to MongoDB.")
	return &MongoStore{
		client:   client,
		coll:     client.Database(cfg.MongoDatabase).Collection(mongoCollection),
		maxBatch: cfg.StoreMaxBatch,
	}, nil
}

// Init creates the parent index used by List
func (s *MongoStore) Init() error {
	_, err := s.coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}, {Key: "doc_id", Value: 1}},
	})
	return errors.Wrap(err, "create parent index")
}

func (s *MongoStore) Close() error {
	log.Println("Closing MongoDB connection...")
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) HealthCheck() error {
	return s.client.Ping(context.Background(), nil)
}

func (s *MongoStore) Driver() string    { return config.DriverMongo }
func (s *MongoStore) MaxBatchSize() int { return s.maxBatch }

func (s *MongoStore) Get(ctx context.Context, path string) (*Document, error) {
	var row mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return nil, errors.WithStack(ErrDocumentNotFound)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", path)
	}
	return mongoToDocument(row), nil
}

func (s *MongoStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"parent": collectionPath},
		options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", collectionPath)
	}

	var rows []mongoDocument
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "decode %s", collectionPath)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, *mongoToDocument(row))
	}
	return docs, nil
}

func (s *MongoStore) Batch() WriteBatch {
	return &mongoBatch{store: s}
}

type mongoBatch struct {
	opQueue
	store *MongoStore
}

// Commit applies the queued writes inside one session transaction
func (b *mongoBatch) Commit(ctx context.Context) error {
	if err := b.check(ctx, b.store.maxBatch); err != nil {
		return err
	}

	session, err := b.store.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, op := range b.ops {
			if err := b.apply(sc, op); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return errors.Wrap(err, "commit batch")
}

func (b *mongoBatch) apply(ctx context.Context, op BatchOp) error {
	coll := b.store.coll
	filter := bson.M{"_id": op.Path}

	if op.Kind == OpDelete {
		_, err := coll.DeleteOne(ctx, filter)
		return errors.Wrapf(err, "delete %s", op.Path)
	}

	if op.Merge {
		set := bson.M{
			"parent": ParentPath(op.Path),
			"doc_id": DocumentID(op.Path),
		}
		for k, v := range op.Data {
			set["data."+k] = v
		}
		_, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(true))
		return errors.Wrapf(err, "merge %s", op.Path)
	}

	row := mongoDocument{
		Path:   op.Path,
		Parent: ParentPath(op.Path),
		DocID:  DocumentID(op.Path),
		Data:   bson.M(op.Data),
	}
	_, err := coll.ReplaceOne(ctx, filter, row, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "set %s", op.Path)
}

func mongoToDocument(row mongoDocument) *Document {
	data := map[string]interface{}(row.Data)
	if data == nil {
		data = map[string]interface{}{}
	}
	return &Document{ID: row.DocID, Path: row.Path, Data: data}
}
