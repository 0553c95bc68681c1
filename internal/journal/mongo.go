package journal

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "payment_attempts"

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(50)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type MongoJournal struct {
	coll *mongo.Collection
}

func NewMongoJournal(db *mongo.Database) *MongoJournal {
	return &MongoJournal{coll: db.Collection(collectionName)}
}

func (j *MongoJournal) CreateIndexes(ctx context.Context) error {
	_, err := j.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "authority", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (j *MongoJournal) Record(ctx context.Context, a Attempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := j.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ByAuthority returns every attempt for authority, oldest first.
func (j *MongoJournal) ByAuthority(ctx context.Context, authority string) ([]Attempt, error) {
	cur, err := j.coll.Find(ctx,
		bson.M{"authority": authority},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find attempts: %w", err)
	}
	defer cur.Close(ctx)

	var out []Attempt
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return out, nil
}
