// Command seedteachers loads teacher accounts into the schoolhub database
// from a JSON file:
//
//	[{"username": "mrodriguez", "display_name": "Ms. Rodriguez",
//	  "role": "teacher", "password": "..."}]
//
// Existing teachers with the same username are replaced.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	teacherstore "github.com/dalemusser/schoolhub/internal/app/store/teachers"
	"github.com/dalemusser/schoolhub/internal/app/system/passwords"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading SCHOOLHUB_* variables")
	file := flag.String("file", "teachers.json", "JSON seed file")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load %s: %v", *envFile, err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	uri := envOr("SCHOOLHUB_MONGO_URI", "mongodb://localhost:27017")
	dbName := envOr("SCHOOLHUB_MONGO_DATABASE", "school")

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("open seed file", zap.Error(err))
	}
	entries, err := readSeedFile(f)
	f.Close()
	if err != nil {
		logger.Fatal("invalid seed file", zap.String("file", *file), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("schoolhub-seed"))
	if err != nil {
		logger.Fatal("connect mongo", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Fatal("ping mongo", zap.Error(err))
	}

	store := teacherstore.New(client.Database(dbName))
	created, replaced, err := seed(ctx, store, entries, passwords.DefaultParams, logger)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seeding complete",
		zap.String("database", dbName),
		zap.Int("created", created),
		zap.Int("replaced", replaced))
}
