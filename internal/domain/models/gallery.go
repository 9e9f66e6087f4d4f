package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GalleryAlbum is a public album of reference photos. Albums are maintained
// by the back office and served to anonymous visitors through the portal's
// read API, so visitors never need database credentials of their own.
type GalleryAlbum struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"-"`
	CoverURL  string             `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	SortIndex int                `bson:"sort_index" json:"sort_index"`
	Published bool               `bson:"published" json:"published"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// GalleryImage is one image within a public album.
type GalleryImage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AlbumID   primitive.ObjectID `bson:"album_id" json:"album_id"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	URL       string             `bson:"url" json:"url"`
	StorageID string             `bson:"storage_id" json:"storage_id"`
	SortIndex int                `bson:"sort_index" json:"sort_index"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// CatalogueEntry is one PDF in the public product catalogue.
type CatalogueEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"-"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	FileURL   string             `bson:"file_url" json:"file_url"`
	StorageID string             `bson:"storage_id" json:"storage_id"`
	SortIndex int                `bson:"sort_index" json:"sort_index"`
	Published bool               `bson:"published" json:"published"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
