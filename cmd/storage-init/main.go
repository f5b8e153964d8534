// Command storage-init prepares the document store indexes and the activity
// queue before the API starts.
package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"workhub-api/activity"
	"workhub-api/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("load .env: %v", err)
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Fatal("missing MONGODB_URI")
	}
	db := os.Getenv("MONGODB_DATABASE")
	if db == "" {
		db = "taskboard"
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.New(ctx, uri, db, 30*time.Second)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("create indexes: %v", err)
	}
	log.WithField("database", db).Info("indexes ready")

	connStr := os.Getenv("ACTIVITY_QUEUE_CONNECTION_STRING")
	queue := os.Getenv("ACTIVITY_QUEUE")
	if connStr != "" && queue != "" {
		if err := activity.EnsureQueue(ctx, connStr, queue); err != nil {
			log.Fatalf("create queue: %v", err)
		}
		log.WithField("queue", queue).Info("activity queue ready")
	}

	log.Info("storage init complete")
}
