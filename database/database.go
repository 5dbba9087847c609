package database

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var Users *mongo.Collection
var Groups *mongo.Collection
var Logs *mongo.Collection
var Choices *mongo.Collection
var Plants *mongo.Collection
var Gardens *mongo.Collection
var PushSubs *mongo.Collection

func ConnectDB() error {
	// Read MongoDB URI from environment variable
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Println("MONGODB_URI not set, using default localhost")
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	// Ping MongoDB
	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	db := Client.Database("growe")
	Users = db.Collection("users")
	Groups = db.Collection("groups")
	Logs = db.Collection("logs")
	Choices = db.Collection("choices")
	Plants = db.Collection("plants")
	Gardens = db.Collection("gardens")
	PushSubs = db.Collection("subscriptions")

	log.Println("Connected to MongoDB successfully")
	return nil
}

func DisconnectDB() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
