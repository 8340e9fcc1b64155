package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"audio-inspector/models"
)

type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoClient(uri, dbName string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	return &MongoClient{client: client, db: client.Database(dbName)}, nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoClient) StoreScan(scan *models.ScanRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if scan.Timestamp.IsZero() {
		scan.Timestamp = time.Now()
	}

	if _, err := m.db.Collection("scans").InsertOne(ctx, scan); err != nil {
		return fmt.Errorf("error storing scan: %s", err)
	}
	return nil
}

func (m *MongoClient) RecentScans(limit int) ([]models.ScanRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.db.Collection("scans").Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying scans: %s", err)
	}
	defer cursor.Close(ctx)

	var scans []models.ScanRecord
	if err := cursor.All(ctx, &scans); err != nil {
		return nil, fmt.Errorf("error decoding scans: %s", err)
	}
	return scans, nil
}

func (m *MongoClient) DeleteAllScans() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := m.db.Collection("scans").DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("error clearing scans: %s", err)
	}
	return nil
}
