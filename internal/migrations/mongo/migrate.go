package mongo

import (
	"context"
	"fmt"

	bookingsrepo "github.com/PaingThuTa/booking-system-intern/internal/bookings/repository"
	"github.com/PaingThuTa/booking-system-intern/internal/migrations/mongo/validators"
	timeblocksrepo "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/repository"
	usersrepo "github.com/PaingThuTa/booking-system-intern/internal/users/repository"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	TimeBlocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_at", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("users_email_unique").SetUnique(true),
		},
		{
			// intern_id is omitted for admins who never linked one
			Keys:    bson.D{{Key: "intern_id", Value: 1}},
			Options: options.Index().SetName("users_intern_id_unique").SetUnique(true).SetSparse(true),
		},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName(bookingsrepo.OneConfirmedPerUserIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(model.BookingConfirmed)}),
		},
		{Keys: bson.D{{Key: "time_block_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
)

// RunMigration creates the collections with their JSON-schema validators and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	collections := []struct {
		Name      string
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		{
			Name:      usersrepo.CollectionName,
			Indexes:   UsersIndexes,
			Validator: validators.UserValidator,
		},
		{
			Name:      timeblocksrepo.CollectionName,
			Indexes:   TimeBlocksIndexes,
			Validator: validators.TimeBlockValidator,
		},
		{
			Name:      bookingsrepo.CollectionName,
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
	}

	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
