// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"

	gallerystore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/gallery"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if err := seedGallery(ctx, db, logger); err != nil {
		return err
	}
	return nil
}

// seedGallery creates a starter album so the public gallery endpoint has
// content on a fresh install. Real albums come from the back-office; the
// placeholder stays unpublished until an administrator fills it in.
func seedGallery(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	store := gallerystore.New(db)

	albums, err := store.ListAlbums(ctx)
	if err != nil {
		logger.Error("failed to check existing gallery albums", zap.Error(err))
		return err
	}
	if len(albums) > 0 {
		return nil
	}

	count, err := db.Collection("gallery_albums").CountDocuments(ctx, bson.M{})
	if err != nil {
		logger.Error("failed to count gallery albums", zap.Error(err))
		return err
	}
	if count > 0 {
		// Unpublished albums exist already, nothing to seed.
		return nil
	}

	album, err := store.CreateAlbum(ctx, "Reference Installations", "", 0, false)
	if err != nil {
		logger.Error("failed to seed gallery album", zap.Error(err))
		return err
	}
	logger.Info("seeded starter gallery album", zap.String("album_id", album.ID.Hex()))
	return nil
}
