package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes(cfg *Config) error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	interviews := MongoDatabase(cfg).Collection(cfg.MongoCollection)
	_, err := interviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// natural key of an interview record
		{
			Keys: bson.D{{Key: "username", Value: 1}, {Key: "start_time_unix", Value: 1}},
			Options: options.Index().
				SetName("uniq_username_start").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "start_time_unix", Value: -1}},
			Options: options.Index().SetName("by_start_desc"),
		},
	})
	return err
}
