// internal/app/system/indexes/indexes.go
package indexes

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable string printed on the customer's paperwork

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureCustomers(ctx, db); err != nil {
		problems = append(problems, "customers: "+err.Error())
	}
	if err := ensureProjects(ctx, db); err != nil {
		problems = append(problems, "projects: "+err.Error())
	}
	if err := ensureFileRecords(ctx, db); err != nil {
		problems = append(problems, "file_records: "+err.Error())
	}
	if err := ensureReadReceipts(ctx, db); err != nil {
		problems = append(problems, "read_receipts: "+err.Error())
	}
	if err := ensureApprovals(ctx, db); err != nil {
		problems = append(problems, "approvals: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "messages: "+err.Error())
	}
	if err := ensureGallery(ctx, db); err != nil {
		problems = append(problems, "gallery: "+err.Error())
	}
	if err := ensureCatalogueEntries(ctx, db); err != nil {
		problems = append(problems, "catalogue_entries: "+err.Error())
	}
	if err := ensurePasswordResets(ctx, db); err != nil {
		problems = append(problems, "password_resets: "+err.Error())
	}
	if err := ensureOAuthStates(ctx, db); err != nil {
		problems = append(problems, "oauth_states: "+err.Error())
	}
	if err := ensureRateLimits(ctx, db); err != nil {
		problems = append(problems, "rate_limits: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		// 1) Load existing indexes
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			defer cur.Close(ctx)
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
		}

		if ex, ok := existing[desiredSig]; ok {
			// Same key pattern exists already.
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Names aligned (or we don't care) → reuse
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Bool("unique", ex.Unique != nil && *ex.Unique),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// 2) No existing index with the same keys: create it.
		if created, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				zap.L().Warn("index ensure failed (options conflict)",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				continue
			}

			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		} else {
			zap.L().Info("index ensured",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("created_name", created),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureCustomers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("customers")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Unique sign-in email. Partial because number-auth customers have no
		// email at all.
		{
			Keys: bson.D{
				{Key: "email_ci", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{
					{Key: "email_ci", Value: bson.D{{Key: "$type", Value: "string"}}},
				}).
				SetName("uniq_customers_email_ci"),
		},

		// Unique customer number (the paperwork identifier)
		{
			Keys: bson.D{
				{Key: "customer_number", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_customers_number"),
		},

		// Customer list queries: role + status + name sort
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_customers_role_status_nameci_id"),
		},
	})
}

func ensureProjects(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("projects")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Unique project number across all customers
		{
			Keys: bson.D{
				{Key: "project_number", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_projects_number"),
		},

		// Project list per customer, newest year first
		{
			Keys: bson.D{
				{Key: "customer_id", Value: 1},
				{Key: "year", Value: -1},
				{Key: "name_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_projects_customer_year_nameci"),
		},
	})
}

func ensureFileRecords(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("file_records")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Folder listings: newest upload first within a project folder
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "folder_key", Value: 1},
				{Key: "uploaded_at", Value: -1},
			},
			Options: options.Index().SetName("idx_filerecords_folder_uploaded"),
		},

		// Storage ids are the stable per-file handle inside a project; read
		// receipts and approvals reference them, so they must not collide.
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "storage_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_filerecords_storage"),
		},
	})
}

func ensureReadReceipts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("read_receipts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One receipt per (project, customer, file). Concurrent mark-read
		// upserts race to insert and this index settles the race.
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "customer_id", Value: 1},
				{Key: "storage_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_receipts_project_customer_storage"),
		},
	})
}

func ensureApprovals(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("approvals")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One approval document per (project, customer, file). Same racing
		// upsert pattern as read receipts.
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "customer_id", Value: 1},
				{Key: "storage_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_approvals_project_customer_storage"),
		},

		// Pending-approval queries for the back office
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_approvals_project_status"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("messages")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Message list per project and customer, newest first
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "customer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_messages_project_customer_created"),
		},

		// Back-office queue: open messages by status and age
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_messages_status_created"),
		},
	})
}

func ensureGallery(ctx context.Context, db *mongo.Database) error {
	albums := db.Collection("gallery_albums")
	if err := ensureIndexSet(ctx, albums, []mongo.IndexModel{
		// Public album list: published albums in display order
		{
			Keys: bson.D{
				{Key: "published", Value: 1},
				{Key: "sort_index", Value: 1},
				{Key: "title_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_albums_published_sort"),
		},
	}); err != nil {
		return err
	}

	images := db.Collection("gallery_images")
	return ensureIndexSet(ctx, images, []mongo.IndexModel{
		// Images of one album in display order
		{
			Keys: bson.D{
				{Key: "album_id", Value: 1},
				{Key: "sort_index", Value: 1},
			},
			Options: options.Index().SetName("idx_images_album_sort"),
		},
	})
}

func ensureCatalogueEntries(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("catalogue_entries")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Public catalogue list, optionally filtered by category
		{
			Keys: bson.D{
				{Key: "published", Value: 1},
				{Key: "category", Value: 1},
				{Key: "sort_index", Value: 1},
			},
			Options: options.Index().SetName("idx_catalogue_published_category_sort"),
		},
	})
}

func ensurePasswordResets(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("password_resets")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// TTL index for auto-cleanup of expired resets
		{
			Keys: bson.D{
				{Key: "expires_at", Value: 1},
			},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("idx_pwreset_expires_ttl"),
		},
		// Unique token for the reset link (prevents token reuse)
		{
			Keys: bson.D{
				{Key: "token", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_pwreset_token"),
		},
		// Lookup by customer_id (for invalidation on new requests)
		{
			Keys: bson.D{
				{Key: "customer_id", Value: 1},
			},
			Options: options.Index().
				SetName("idx_pwreset_customer"),
		},
	})
}

func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("oauth_states")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Unique state token
		{
			Keys: bson.D{
				{Key: "state", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_oauth_state"),
		},
		// TTL index for auto-cleanup of expired states
		{
			Keys: bson.D{
				{Key: "expires_at", Value: 1},
			},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("idx_oauth_expires_ttl"),
		},
	})
}

func ensureRateLimits(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("rate_limits")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Unique login_id for fast lookups
		{
			Keys: bson.D{
				{Key: "login_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_ratelimit_login_id"),
		},
		// TTL index on last_attempt - automatically clean up old records after 24 hours
		{
			Keys: bson.D{
				{Key: "last_attempt", Value: 1},
			},
			Options: options.Index().SetExpireAfterSeconds(86400).SetName("idx_ratelimit_ttl"),
		},
	})
}
