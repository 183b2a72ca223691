package repositories

import (
	"context"
	"time"

	"github.com/wavelane/wavelane/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PushQueueRepository is the outbound delivery buffer. The pipeline appends;
// the push worker drains and marks results.
type PushQueueRepository interface {
	Enqueue(ctx context.Context, rec *models.PushRecord) error
	NextBatch(ctx context.Context, limit int64) ([]models.PushRecord, error)
	MarkSent(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID) error
}

// MongoPushQueueRepository implements PushQueueRepository for MongoDB
type MongoPushQueueRepository struct {
	collection *mongo.Collection
}

// NewMongoPushQueueRepository creates a new MongoPushQueueRepository
func NewMongoPushQueueRepository(db *mongo.Database) *MongoPushQueueRepository {
	return &MongoPushQueueRepository{collection: db.Collection("push_queue")}
}

// Enqueue appends a formatted payload to the delivery queue.
func (r *MongoPushQueueRepository) Enqueue(ctx context.Context, rec *models.PushRecord) error {
	rec.ID = primitive.NewObjectID()
	if rec.Status == "" {
		rec.Status = models.PushStatusPending
	}
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

// NextBatch returns up to limit pending records, oldest first.
func (r *MongoPushQueueRepository) NextBatch(ctx context.Context, limit int64) ([]models.PushRecord, error) {
	var records []models.PushRecord
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": models.PushStatusPending}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *MongoPushQueueRepository) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	return r.setStatus(ctx, id, models.PushStatusSent)
}

func (r *MongoPushQueueRepository) MarkFailed(ctx context.Context, id primitive.ObjectID) error {
	return r.setStatus(ctx, id, models.PushStatusFailed)
}

func (r *MongoPushQueueRepository) setStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"status": status, "updated_at": time.Now()},
			"$inc": bson.M{"attempts": 1},
		},
	)
	return err
}
