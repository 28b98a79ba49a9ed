package client

import (
	"context"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const mongoAppName = "intern-portal"

// mongoOptions applies majority read and write concerns so admission
// transactions only observe and publish committed state. Settings in the
// URI take precedence.
func mongoOptions(mongoURI string, connTimeout time.Duration) *options.ClientOptions {
	return options.Client().
		SetAppName(mongoAppName).
		SetServerSelectionTimeout(connTimeout).
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority()).
		SetRetryWrites(true).
		ApplyURI(mongoURI)
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoOptions(mongoURI, mongoConnTimeout))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB", "app_name", mongoAppName)
	c.Mongo = client
}
