// Package mongostore keeps each collection as one document in a MongoDB
// "records" collection, keyed by collection name.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsportal/ops-portal/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const recordsCollection = "records"

type document struct {
	Name      string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type Backend struct {
	client  *mongo.Client
	records *mongo.Collection
}

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri, database string) (*Backend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return New(client, client.Database(database)), nil
}

func New(client *mongo.Client, db *mongo.Database) *Backend {
	return &Backend{
		client:  client,
		records: db.Collection(recordsCollection),
	}
}

func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	var doc document
	err := b.records.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	return []byte(doc.Payload), nil
}

func (b *Backend) Save(ctx context.Context, name string, payload []byte) error {
	doc := document{
		Name:      name,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := b.records.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, readpref.Primary())
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
