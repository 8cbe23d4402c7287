package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

const (
	reportsCollection = "daily_reports"
	eventsCollection  = "ledger_events"
)

// Repository defines the interface for report and event storage.
type Repository interface {
	SaveEconomyReport(ctx context.Context, report models.EconomyReport) error
	RecordEvent(ctx context.Context, event models.LedgerEvent) error
	RecentEvents(ctx context.Context, limit int) ([]models.LedgerEvent, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{client: client, dbName: dbName}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.collection(eventsCollection).Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to index ledger events: %w", err)
	}

	return repo, nil
}

// SaveEconomyReport saves a daily report to the database.
func (r *MongoDBRepository) SaveEconomyReport(ctx context.Context, report models.EconomyReport) error {
	doc, err := newReportDocument(report)
	if err != nil {
		return fmt.Errorf("failed to encode economy report: %w", err)
	}
	if _, err := r.collection(reportsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert economy report: %w", err)
	}
	return nil
}

// RecordEvent appends a ledger event to the journal. Replays of the same
// sequence number are ignored.
func (r *MongoDBRepository) RecordEvent(ctx context.Context, event models.LedgerEvent) error {
	doc, err := newEventDocument(event)
	if err != nil {
		return fmt.Errorf("failed to encode ledger event %d: %w", event.Seq, err)
	}
	filter := bson.M{"seq": doc.Seq}
	update := bson.M{"$setOnInsert": doc}
	if _, err := r.collection(eventsCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to record ledger event %d: %w", event.Seq, err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (r *MongoDBRepository) RecentEvents(ctx context.Context, limit int) ([]models.LedgerEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.collection(eventsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode ledger events: %w", err)
	}
	out := make([]models.LedgerEvent, 0, len(docs))
	for _, doc := range docs {
		event, err := doc.model()
		if err != nil {
			return nil, fmt.Errorf("failed to decode ledger events: %w", err)
		}
		out = append(out, event)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}
