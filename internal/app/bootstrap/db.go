// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/system/docstore"
	"github.com/dalemusser/partnerportal/internal/app/system/indexes"
	"github.com/dalemusser/partnerportal/internal/app/system/outbox"
	"github.com/dalemusser/waffle/config"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// inlineOutboxCapacity bounds the in-process audit queue.
const inlineOutboxCapacity = 10000

// ConnectDB connects MongoDB, the optional Redis outbox and the document
// store. Anything opened before a failure is closed again.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(appCfg.MongoURI).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		runtime:       &runtimeState{},
	}

	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("redis ping: %w", err)
		}
		deps.Redis = rdb
		deps.Outbox = outbox.NewRedis(rdb, appCfg.OutboxKey)
		logger.Info("audit outbox on Redis", zap.String("addr", appCfg.RedisAddr), zap.String("key", appCfg.OutboxKey))
	} else {
		deps.Outbox = outbox.NewInline(inlineOutboxCapacity)
		logger.Info("audit outbox in process", zap.Int("capacity", inlineOutboxCapacity))
	}

	docs, err := newDocstore(ctx, appCfg, logger)
	if err != nil {
		if deps.Redis != nil {
			_ = deps.Redis.Close()
		}
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}
	deps.Docs = docs

	return deps, nil
}

func newDocstore(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (docstore.Backend, error) {
	switch appCfg.StorageType {
	case "s3":
		s3, err := docstore.NewS3(ctx, appCfg.StorageS3Region, appCfg.StorageBucket, appCfg.StorageS3Prefix)
		if err != nil {
			return nil, fmt.Errorf("s3 docstore: %w", err)
		}
		logger.Info("documents stored in S3", zap.String("bucket", appCfg.StorageBucket))
		return s3, nil
	default:
		logger.Info("documents stored on local disk", zap.String("path", appCfg.StorageLocalPath))
		return docstore.NewLocal(appCfg.StorageLocalPath, filesPrefix, appCfg.SessionKey, logger), nil
	}
}

// EnsureSchema creates the collection indexes the stores rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
