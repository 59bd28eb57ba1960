package persistence

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corp-qr-hub/internal/config"
)

func TestMongoDB_Accessors(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	// mongo.Connect does not dial until the first operation.
	client, err := mongo.Connect(context.TODO(), options.Client().ApplyURI("mongodb://localhost:27017"))
	assert.NoError(t, err)
	db := client.Database("qrhub_test")

	mdb := &MongoDB{
		logger:   logger,
		client:   client,
		database: db,
	}
	assert.Equal(t, db, mdb.Database())
	assert.Equal(t, "kv_store", mdb.Collection("kv_store").Name())
	assert.Equal(t, "qrhub_test", mdb.Collection("kv_store").Database().Name())
}

func TestMongoClientOptions(t *testing.T) {
	cfg := &config.MongoDBConfig{
		URI:             "mongodb://localhost:27017",
		Timeout:         3 * time.Second,
		MaxPoolSize:     50,
		MinPoolSize:     2,
		MaxConnIdleTime: time.Minute,
	}

	opts := mongoClientOptions(cfg)
	require.NoError(t, opts.Validate())
	assert.Equal(t, []string{"localhost:27017"}, opts.Hosts)
	assert.Equal(t, uint64(50), *opts.MaxPoolSize)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	assert.Equal(t, 3*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, time.Minute, *opts.MaxConnIdleTime)
	require.NotNil(t, opts.WriteConcern)
	assert.Equal(t, "majority", opts.WriteConcern.W)
}
