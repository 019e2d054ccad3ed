// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	commentstore "github.com/tewell/reelhub/internal/app/store/comments"
	loginstore "github.com/tewell/reelhub/internal/app/store/logins"
	"github.com/tewell/reelhub/internal/app/store/oauthstate"
	profilestore "github.com/tewell/reelhub/internal/app/store/profiles"
	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/app/system/timeouts"
)

// ConnectDB establishes the MongoDB connection and verifies it is reachable.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on. It runs at startup
// before the HTTP handler is built, so a failed index build aborts the app.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"auth", authsvc.NewProvider(db, logger).EnsureIndexes},
		{"profiles", profilestore.New(db, logger).EnsureIndexes},
		{"comments", commentstore.New(db, logger).EnsureIndexes},
		{"logins", loginstore.New(db).EnsureIndexes},
		{"oauth state", oauthstate.New(db).EnsureIndexes},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
