package models

import (
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileType categorizes a file for display purposes. It is derived from the
// filename extension on the way out and never persisted.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
	FileTypeOther FileType = "file"
)

// FileRecord is the metadata record for one stored object. The record is
// identified by StorageID, the final path segment of the storage backend's
// public identifier, which keys the one-to-one correspondence between the
// stored object and this record.
type FileRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID  primitive.ObjectID `bson:"project_id" json:"project_id"`
	FolderKey  string             `bson:"folder_key" json:"-"`           // docref folder key ("/" → "__")
	FolderPath string             `bson:"folder_path" json:"folder_path"`
	FileName   string             `bson:"file_name" json:"file_name"`
	FileNameCI string             `bson:"file_name_ci" json:"-"` // Case-insensitive for search
	StorageURL string             `bson:"storage_url" json:"storage_url"`
	StorageID  string             `bson:"storage_id" json:"storage_id"`
	Size       int64              `bson:"size" json:"size"`
	ContentType string            `bson:"content_type" json:"content_type"`

	UploadedAt   *time.Time         `bson:"uploaded_at" json:"uploaded_at"` // nil until committed
	UploadedByID primitive.ObjectID `bson:"uploaded_by_id" json:"uploaded_by_id"`
}

// Type derives the display file type from the record's filename extension.
func (f *FileRecord) Type() FileType {
	return FileTypeFromName(f.FileName)
}

// FileTypeFromName derives a FileType from a filename extension.
func FileTypeFromName(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FileTypePDF
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return FileTypeImage
	default:
		return FileTypeOther
	}
}
