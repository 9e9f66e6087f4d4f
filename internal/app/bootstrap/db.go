// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/readstatus"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/cache"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/indexes"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/mailer"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/notify"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/seeding"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/unread"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// ConnectDB connects to databases and other backends.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. Clients created here are bundled into DBDeps for the later hooks.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	// Initialize file storage
	var store storage.Store
	switch appCfg.StorageType {
	case "s3":
		store, err = storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		logger.Info("initialized S3/CloudFront file storage",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
		)
	case "local", "":
		store, err = storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return DBDeps{}, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		logger.Info("initialized local file storage",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
	default:
		return DBDeps{}, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
	}

	// Initialize email mailer
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	logger.Info("initialized email mailer",
		zap.String("host", appCfg.MailSMTPHost),
		zap.Int("port", appCfg.MailSMTPPort),
	)

	// Back-office upload notifier (disabled when no base URL is set)
	notifier := notify.New(appCfg.NotifyBaseURL, logger)
	if notifier.Enabled() {
		logger.Info("back-office upload notifications enabled",
			zap.String("base_url", appCfg.NotifyBaseURL))
	}

	// Change-stream broker for live folder listings. Started in Startup.
	fileStore := filerecords.New(db)
	broker := filerecords.NewBroker(fileStore, logger)

	// Shared unread-count aggregator. The memo cache is swept by a
	// background task registered in Startup.
	unreadCache := cache.New[unread.Counts](appCfg.UnreadCacheTTL, appCfg.UnreadCacheCapacity)
	counter := unread.New(fileStore, readstatus.New(db), unreadCache)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		FileStorage:   store,
		Mailer:        mail,
		Notifier:      notifier,
		Broker:        broker,
		UnreadCache:   unreadCache,
		Unread:        counter,
	}, nil
}

// EnsureSchema sets up collections, validators, indexes and seed data.
//
// This runs after ConnectDB succeeds but before Startup and before the HTTP
// handler is built. The context has a timeout based on
// coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Ensure collections exist and attach JSON-Schema validators.
	// This runs first so indexes can be created on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	// Ensure database indexes for query performance.
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	// Seed default data (gallery content placeholders)
	logger.Info("seeding default data")
	if err := seeding.SeedAll(ctx, db, logger); err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
