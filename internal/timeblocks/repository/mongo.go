package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	timeblockserrors "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	mongodb "github.com/PaingThuTa/booking-system-intern/pkg/db/mongo"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoTimeBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTimeBlockRepository(cfg *config.Config) TimeBlockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTimeBlockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTimeBlockRepository) CreateMany(ctx context.Context, blocks []*model.TimeBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(blocks))
	for _, b := range blocks {
		b.ID = ""
		b.CreatedAt = now
		b.UpdatedAt = now
		docs = append(docs, b)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create time blocks: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			blocks[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoTimeBlockRepository) FindByID(ctx context.Context, id string) (*model.TimeBlock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, id)
	}

	var block model.TimeBlock
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, timeblockserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find time block: %w", err)
	}

	return &block, nil
}

func (r *mongoTimeBlockRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.TimeBlock, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(objectIDs) == 0 {
		return nil, nil
	}

	return r.find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
}

func (r *mongoTimeBlockRepository) FindAll(ctx context.Context, filter Filter) ([]*model.TimeBlock, error) {
	return r.find(ctx, buildFilter(filter))
}

func (r *mongoTimeBlockRepository) find(ctx context.Context, filter bson.M) ([]*model.TimeBlock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find time blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.TimeBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode time blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoTimeBlockRepository) Update(ctx context.Context, block *model.TimeBlock) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(block.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, block.ID)
	}

	block.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"start_at":         block.StartAt,
			"end_at":           block.EndAt,
			"duration_minutes": block.DurationMinutes,
			"capacity":         block.Capacity,
			"status":           block.Status,
			"updated_at":       block.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update time block: %w", err)
	}
	if result.MatchedCount == 0 {
		return timeblockserrors.ErrNotFound
	}
	return nil
}

func (r *mongoTimeBlockRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete time block: %w", err)
	}
	if result.DeletedCount == 0 {
		return timeblockserrors.ErrNotFound
	}
	return nil
}

// LockForAdmission bumps lock_version so that two transactions touching
// the same block write-conflict and one of them is retried.
func (r *mongoTimeBlockRepository) LockForAdmission(ctx context.Context, id string) (*model.TimeBlock, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var block model.TimeBlock
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$inc": bson.M{"lock_version": 1}}, opts).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, timeblockserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock time block: %w", err)
	}

	return &block, nil
}

func buildFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.EndsAtOrAfter != nil {
		filter["end_at"] = bson.M{"$gte": *f.EndsAtOrAfter}
	}

	start := bson.M{}
	if f.StartsFrom != nil {
		start["$gte"] = *f.StartsFrom
	}
	if f.StartsBefore != nil {
		start["$lt"] = *f.StartsBefore
	}
	if len(start) > 0 {
		filter["start_at"] = start
	}
	return filter
}
