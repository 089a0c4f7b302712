// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/outbox"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when no redis_addr is configured.
	Redis *redis.Client

	// Outbox buffers audit events until the consumer persists them.
	Outbox outbox.Queue

	// Docs stores uploaded application documents.
	Docs docstore.Backend

	// runtime holds workers started in Startup and stopped in Shutdown.
	runtime *runtimeState
}
