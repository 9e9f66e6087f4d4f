// Package filerecords provides storage for file metadata records.
package filerecords

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sortMemoryCode is the server error for a sort that exceeds the in-memory
// sort budget without allowDiskUse. Listings fall back to an unsorted query
// plus a client-side sort when a folder grows past that budget.
const sortMemoryCode = 292

// Store provides access to the file_records collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file record store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("file_records"),
	}
}

// Collection returns the underlying collection, used by the change stream
// broker.
func (s *Store) Collection() *mongo.Collection {
	return s.c
}

// CreateInput contains the input for creating a file record.
type CreateInput struct {
	ProjectID    primitive.ObjectID
	FolderKey    string
	FolderPath   string
	FileName     string
	StorageURL   string
	StorageID    string
	Size         int64
	ContentType  string
	UploadedByID primitive.ObjectID
}

// Create creates a new file record with the upload timestamp committed.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.FileRecord, error) {
	now := time.Now()
	rec := models.FileRecord{
		ID:           primitive.NewObjectID(),
		ProjectID:    input.ProjectID,
		FolderKey:    input.FolderKey,
		FolderPath:   input.FolderPath,
		FileName:     input.FileName,
		FileNameCI:   text.Fold(input.FileName),
		StorageURL:   input.StorageURL,
		StorageID:    input.StorageID,
		Size:         input.Size,
		ContentType:  input.ContentType,
		UploadedAt:   &now,
		UploadedByID: input.UploadedByID,
	}

	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// GetByStorageID retrieves a file record by its storage identifier within a
// project.
func (s *Store) GetByStorageID(ctx context.Context, projectID primitive.ObjectID, storageID string) (*models.FileRecord, error) {
	var rec models.FileRecord
	err := s.c.FindOne(ctx, bson.M{
		"project_id": projectID,
		"storage_id": storageID,
	}).Decode(&rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListOptions contains options for listing file records.
type ListOptions struct {
	// OnlyUploaderID restricts the listing to records uploaded by the given
	// customer. Used in customer upload folders so customers only see their
	// own files.
	OnlyUploaderID *primitive.ObjectID
}

// ListByFolder returns the records of one project folder, newest upload
// first. Records with no upload timestamp yet are excluded. When the server
// refuses the sort for memory reasons the query is retried unsorted and
// sorted here instead.
func (s *Store) ListByFolder(ctx context.Context, projectID primitive.ObjectID, folderKey string, opts ListOptions) ([]models.FileRecord, error) {
	filter := bson.M{
		"project_id":  projectID,
		"folder_key":  folderKey,
		"uploaded_at": bson.M{"$ne": nil},
	}
	if opts.OnlyUploaderID != nil {
		filter["uploaded_by_id"] = *opts.OnlyUploaderID
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	recs, err := s.find(ctx, filter, findOpts)
	if err != nil {
		if !isSortMemoryError(err) {
			return nil, err
		}
		recs, err = s.find(ctx, filter, options.Find())
		if err != nil {
			return nil, err
		}
		sortByUploadedAtDesc(recs)
	}

	return recs, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.FileRecord, error) {
	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []models.FileRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteByStorageID deletes a file record. Returns mongo.ErrNoDocuments if
// no record matched.
func (s *Store) DeleteByStorageID(ctx context.Context, projectID primitive.ObjectID, storageID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"project_id": projectID,
		"storage_id": storageID,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountByFolder returns the number of committed records in a folder.
func (s *Store) CountByFolder(ctx context.Context, projectID primitive.ObjectID, folderKey string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"project_id":  projectID,
		"folder_key":  folderKey,
		"uploaded_at": bson.M{"$ne": nil},
	})
}

// CountUnread counts the committed records in a folder whose storage ids are
// not in the customer's read set. Customer-uploads folders pass
// OnlyUploaderID so a customer's badge only counts their own files.
func (s *Store) CountUnread(ctx context.Context, projectID primitive.ObjectID, folderKey string, readStorageIDs []string, opts ListOptions) (int64, error) {
	filter := bson.M{
		"project_id":  projectID,
		"folder_key":  folderKey,
		"uploaded_at": bson.M{"$ne": nil},
	}
	if len(readStorageIDs) > 0 {
		filter["storage_id"] = bson.M{"$nin": readStorageIDs}
	}
	if opts.OnlyUploaderID != nil {
		filter["uploaded_by_id"] = *opts.OnlyUploaderID
	}
	return s.c.CountDocuments(ctx, filter)
}

// isSortMemoryError reports whether err is the server rejecting an in-memory
// sort that exceeded its budget.
func isSortMemoryError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == sortMemoryCode
	}
	return false
}

// sortByUploadedAtDesc sorts records newest first, matching the server-side
// sort order.
func sortByUploadedAtDesc(recs []models.FileRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		ti, tj := recs[i].UploadedAt, recs[j].UploadedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}
