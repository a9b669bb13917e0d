// Package docstore wraps the MongoDB client used by the document
// endpoints.
package docstore

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config contains configuration for the document store client.
type Config struct {
	// URI is the MongoDB connection URI.
	URI string

	// Database is the database name.
	Database string
}

// Client is a thin wrapper over the MongoDB client.
type Client struct {
	mc  *mongo.Client
	db  *mongo.Database
	log hclog.Logger
}

// Connect creates a client and verifies connectivity with a retried ping.
func Connect(ctx context.Context, cfg Config, log hclog.Logger) (*Client, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create document store client: %w", err)
	}

	c := &Client{
		mc:  mc,
		db:  mc.Database(cfg.Database),
		log: log,
	}

	op := func() error {
		return mc.Ping(ctx, nil)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		// Release the pool before reporting failure.
		_ = mc.Disconnect(ctx)
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	log.Info("connected to document store", "database", cfg.Database)
	return c, nil
}

// Insert adds a document to a collection and returns the inserted ID.
func (c *Client) Insert(ctx context.Context, collection string, doc map[string]interface{}) (string, error) {
	res, err := c.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert into %q failed: %w", collection, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", res.InsertedID), nil
}

// Find returns the documents in a collection matching the filter, with the
// object ID stringified for JSON responses.
func (c *Client) Find(ctx context.Context, collection string, filter map[string]interface{}) ([]map[string]interface{}, error) {
	if filter == nil {
		filter = map[string]interface{}{}
	}

	cursor, err := c.db.Collection(collection).Find(ctx, bson.M(filter))
	if err != nil {
		return nil, fmt.Errorf("find in %q failed: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []map[string]interface{}{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		if oid, ok := doc["_id"].(primitive.ObjectID); ok {
			doc["_id"] = oid.Hex()
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error in %q: %w", collection, err)
	}

	return docs, nil
}

// Close disconnects from the document store.
func (c *Client) Close(ctx context.Context) error {
	return c.mc.Disconnect(ctx)
}
