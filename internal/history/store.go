// Package history persists dispatch submissions to MongoDB for later
// analysis. The store is optional: when no MONGODB_URI is configured the
// gateway runs without it, and a write failure never fails a dispatch.
package history

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aashari/go-multimodel-dispatch/internal/logger"
)

const collectionName = "dispatch-history"

// StoreConfig holds MongoDB connection configuration
type StoreConfig struct {
	URI          string
	DatabaseName string
	AppName      string
}

// ConfigFromEnv builds the store configuration from environment variables.
// Returns nil when MONGODB_URI is unset, meaning history is disabled.
func ConfigFromEnv() *StoreConfig {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		return nil
	}

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	var envPrefix string
	switch environment {
	case "production", "prod":
		envPrefix = "prod"
	case "test":
		envPrefix = "test"
	case "local":
		envPrefix = "loc"
	default:
		envPrefix = "dev"
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "multimodel-dispatch"
	}

	return &StoreConfig{
		URI:          uri,
		DatabaseName: fmt.Sprintf("%s-%s", envPrefix, strings.ReplaceAll(serviceName, "_", "-")),
		AppName:      serviceName,
	}
}

// Store provides dispatch-history persistence
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a MongoDB connection and prepares the history collection
func Connect(ctx context.Context, config *StoreConfig) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("history store config is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.URI)
	if config.AppName != "" {
		clientOptions.SetAppName(config.AppName)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &Store{
		client:     client,
		collection: client.Database(config.DatabaseName).Collection(collectionName),
	}

	if err := store.createIndexes(ctx); err != nil {
		// Reduced query performance, not a connection failure
		logger.Warn(ctx, "Failed to create history indexes", "error_detail", err.Error())
	}

	logger.Info(ctx, "History store connected", "database", config.DatabaseName)
	return store, nil
}

// createIndexes creates indexes for the query patterns the analytics use
func (s *Store) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "dispatch_id", Value: 1}},
			Options: options.Index().SetName("dispatch_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created_at_desc"),
		},
	}

	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Insert persists one dispatch record
func (s *Store) Insert(ctx context.Context, record *DispatchRecord) error {
	record.CreatedAt = time.Now()

	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert dispatch record: %w", err)
	}
	return nil
}

// FindByDispatchID retrieves one dispatch record by its dispatch ID
func (s *Store) FindByDispatchID(ctx context.Context, dispatchID string) (*DispatchRecord, error) {
	var record DispatchRecord
	err := s.collection.FindOne(ctx, bson.M{"dispatch_id": dispatchID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find dispatch record: %w", err)
	}
	return &record, nil
}

// Recent returns the most recent dispatch records, newest first
func (s *Store) Recent(ctx context.Context, limit int64) ([]DispatchRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []DispatchRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode dispatch records: %w", err)
	}
	return records, nil
}

// HealthCheck verifies the MongoDB connection is alive
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}
	return nil
}

// Disconnect closes the MongoDB connection
func (s *Store) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
