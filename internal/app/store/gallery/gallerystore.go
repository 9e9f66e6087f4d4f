// Package gallery provides storage for the public gallery and catalogue.
package gallery

import (
	"context"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the gallery_albums, gallery_images and
// catalogue_entries collections.
type Store struct {
	albums    *mongo.Collection
	images    *mongo.Collection
	catalogue *mongo.Collection
}

// New creates a new gallery store.
func New(db *mongo.Database) *Store {
	return &Store{
		albums:    db.Collection("gallery_albums"),
		images:    db.Collection("gallery_images"),
		catalogue: db.Collection("catalogue_entries"),
	}
}

// ListAlbums returns the published albums in display order.
func (s *Store) ListAlbums(ctx context.Context) ([]models.GalleryAlbum, error) {
	findOpts := options.Find().SetSort(bson.D{
		{Key: "sort_index", Value: 1},
		{Key: "title_ci", Value: 1},
	})
	cursor, err := s.albums.Find(ctx, bson.M{"published": true}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var albums []models.GalleryAlbum
	if err := cursor.All(ctx, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// GetAlbum returns a published album by ID.
func (s *Store) GetAlbum(ctx context.Context, id primitive.ObjectID) (*models.GalleryAlbum, error) {
	var a models.GalleryAlbum
	if err := s.albums.FindOne(ctx, bson.M{"_id": id, "published": true}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListImages returns an album's images in display order.
func (s *Store) ListImages(ctx context.Context, albumID primitive.ObjectID) ([]models.GalleryImage, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "sort_index", Value: 1}})
	cursor, err := s.images.Find(ctx, bson.M{"album_id": albumID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []models.GalleryImage
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// ListCatalogue returns the published catalogue entries, optionally filtered
// by category, in display order.
func (s *Store) ListCatalogue(ctx context.Context, category string) ([]models.CatalogueEntry, error) {
	filter := bson.M{"published": true}
	if category != "" {
		filter["category"] = category
	}
	findOpts := options.Find().SetSort(bson.D{
		{Key: "sort_index", Value: 1},
		{Key: "title_ci", Value: 1},
	})
	cursor, err := s.catalogue.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CatalogueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateAlbum inserts an album. Used by seeding and tests; albums are
// otherwise maintained by the back office.
func (s *Store) CreateAlbum(ctx context.Context, title, coverURL string, sortIndex int, published bool) (*models.GalleryAlbum, error) {
	now := time.Now()
	a := models.GalleryAlbum{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		CoverURL:  coverURL,
		SortIndex: sortIndex,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.albums.InsertOne(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateImage inserts an image into an album.
func (s *Store) CreateImage(ctx context.Context, albumID primitive.ObjectID, title, url, storageID string, sortIndex int) (*models.GalleryImage, error) {
	img := models.GalleryImage{
		ID:        primitive.NewObjectID(),
		AlbumID:   albumID,
		Title:     title,
		URL:       url,
		StorageID: storageID,
		SortIndex: sortIndex,
		CreatedAt: time.Now(),
	}
	if _, err := s.images.InsertOne(ctx, img); err != nil {
		return nil, err
	}
	return &img, nil
}

// CreateCatalogueEntry inserts a catalogue entry.
func (s *Store) CreateCatalogueEntry(ctx context.Context, title, category, fileURL, storageID string, sortIndex int, published bool) (*models.CatalogueEntry, error) {
	now := time.Now()
	e := models.CatalogueEntry{
		ID:        primitive.NewObjectID(),
		Title:     title,
		TitleCI:   text.Fold(title),
		Category:  category,
		FileURL:   fileURL,
		StorageID: storageID,
		SortIndex: sortIndex,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.catalogue.InsertOne(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}
