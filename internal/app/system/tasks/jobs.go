// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PasswordResetCleanupJob creates a job that removes expired password reset tokens.
func PasswordResetCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "password-reset-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("password_resets")
			result, err := coll.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up expired password reset tokens",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
func OAuthStateCleanupJob(db *mongo.Database, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("oauth_states")
			result, err := coll.DeleteMany(ctx, bson.M{
				"expires_at": bson.M{"$lt": time.Now()},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up expired oauth states",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}

// CacheSweepJob creates a job that evicts expired entries from a memo cache.
func CacheSweepJob[V any](name string, c *cache.Cache[V], logger *zap.Logger) Job {
	return Job{
		Name:     name,
		Interval: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			if n := c.Sweep(); n > 0 {
				logger.Debug("swept expired cache entries",
					zap.String("cache", name),
					zap.Int("evicted", n))
			}
			return nil
		},
	}
}

// RateLimitCleanupJob creates a job that removes login-attempt counters
// whose last attempt is older than the retain window.
func RateLimitCleanupJob(db *mongo.Database, logger *zap.Logger, retain time.Duration) Job {
	return Job{
		Name:     "rate-limit-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			coll := db.Collection("rate_limits")
			result, err := coll.DeleteMany(ctx, bson.M{
				"last_attempt": bson.M{"$lt": time.Now().Add(-retain)},
			})
			if err != nil {
				return err
			}
			if result.DeletedCount > 0 {
				logger.Info("cleaned up stale login attempt counters",
					zap.Int64("deleted", result.DeletedCount))
			}
			return nil
		},
	}
}
