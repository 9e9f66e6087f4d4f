// internal/app/bootstrap/startup.go
package bootstrap

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable string printed on the customer's paperwork

import (
	"context"
	"errors"
	"time"

	customerstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/customers"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/tasks"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// This is the place for one-time initialization that depends on having live
// database connections and fully loaded configuration:
//   - Seed the admin customer account if configured
//   - Start the background task runner (token cleanup jobs)
//   - Start the change-stream broker that feeds SSE folder listings
//
// Returning a non-nil error aborts startup and prevents the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed admin customer if configured
	if appCfg.SeedAdminEmail != "" {
		if err := ensureAdminCustomer(ctx, deps, appCfg, logger); err != nil {
			logger.Error("failed to seed admin customer", zap.Error(err))
			return err
		}
	}

	startTaskRunner(deps, appCfg, logger)
	startBroker(deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) {
	db := deps.MongoDatabase
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.PasswordResetCleanupJob(db, logger))
	taskRunner.Register(tasks.OAuthStateCleanupJob(db, logger))

	// Keep attempt counters around a little past the larger of the two
	// rate-limit windows so active lockouts are never removed.
	retain := appCfg.RateLimitLoginWindow
	if appCfg.RateLimitLoginLockout > retain {
		retain = appCfg.RateLimitLoginLockout
	}
	taskRunner.Register(tasks.RateLimitCleanupJob(db, logger, retain+time.Hour))

	taskRunner.Register(tasks.CacheSweepJob("unread-cache-sweep", deps.UnreadCache, logger))

	taskRunner.Start()
}

// brokerCancel stops the change-stream broker; set in startBroker, called
// from Shutdown.
var brokerCancel context.CancelFunc

// startBroker runs the change-stream broker for the process lifetime. The
// broker reconnects on stream errors by itself; cancelling the context is
// the only way it exits.
func startBroker(deps DBDeps, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	brokerCancel = cancel
	go deps.Broker.Run(ctx)
	logger.Info("started change-stream broker")
}

// ensureAdminCustomer ensures an admin customer exists with the configured
// email. An existing account is promoted to admin; otherwise a new one is
// created. The seeded account signs in via Google until a password is set.
func ensureAdminCustomer(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	store := customerstore.New(deps.MongoDatabase)

	existing, err := store.GetByEmail(ctx, appCfg.SeedAdminEmail)
	if err == nil {
		if existing.Role == models.RoleAdmin {
			logger.Debug("admin customer already configured",
				zap.String("customer_id", existing.ID.Hex()))
			return nil
		}
		if err := store.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing customer to admin",
			zap.String("customer_id", existing.ID.Hex()),
			zap.String("previous_role", existing.Role))
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	email := appCfg.SeedAdminEmail
	created, err := store.Create(ctx, models.Customer{
		FullName:       appCfg.SeedAdminName,
		Email:          &email,
		CustomerNumber: appCfg.SeedAdminNumber,
		AuthMethod:     "google",
		Role:           models.RoleAdmin,
	})
	if err != nil {
		return err
	}

	logger.Info("created admin customer",
		zap.String("customer_id", created.ID.Hex()))
	return nil
}
