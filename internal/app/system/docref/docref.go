// Package docref maps folder paths to document-database addresses.
//
// The database requires collection/document nesting to strictly alternate and
// to terminate on a collection, so an address always has an odd number of
// segments. A folder path may be one or two segments deep, which cannot be
// nested directly without breaking that rule; instead the whole folder path
// is flattened into a single synthetic document id, giving every folder the
// same fixed five-segment shape:
//
//	files / projects / {projectID} / {folderKey} / files
//
// The folder key is the folder path with "/" replaced by "__". The same
// package also owns filename sanitization and storage-path derivation so the
// portal and the back office derive identical storage ids for the same file.
package docref

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Separator replaces "/" inside a folder key. It cannot occur in taxonomy
// paths, so the replacement is reversible.
const Separator = "__"

// Fixed segments of every folder address.
const (
	RootCollection = "files"
	ProjectsDoc    = "projects"
	LeafCollection = "files"
)

// ErrEmptyPath is returned when a folder path has no segments.
var ErrEmptyPath = errors.New("docref: empty folder path")

// ErrNoProject is returned when the project id is unset.
var ErrNoProject = errors.New("docref: zero project id")

// Ref is a resolved folder address.
type Ref struct {
	segments [5]string
}

// ForFolder builds the address for a project folder. Both arguments are
// required; passing an empty path or zero project id is a programmer error
// and fails fast.
func ForFolder(projectID primitive.ObjectID, folderPath string) (Ref, error) {
	if projectID.IsZero() {
		return Ref{}, ErrNoProject
	}
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return Ref{}, ErrEmptyPath
	}
	for _, seg := range strings.Split(folderPath, "/") {
		if seg == "" {
			return Ref{}, ErrEmptyPath
		}
	}
	return Ref{segments: [5]string{
		RootCollection,
		ProjectsDoc,
		projectID.Hex(),
		FolderKey(folderPath),
		LeafCollection,
	}}, nil
}

// Segments returns the address segments, alternating collection/document and
// ending on a collection.
func (r Ref) Segments() []string {
	s := make([]string, len(r.segments))
	copy(s, r.segments[:])
	return s
}

// FolderKey returns the synthetic document id segment.
func (r Ref) FolderKey() string {
	return r.segments[3]
}

// String returns the address as a slash-joined path.
func (r Ref) String() string {
	return strings.Join(r.segments[:], "/")
}

// FolderKey flattens a folder path into a single document id.
func FolderKey(folderPath string) string {
	return strings.ReplaceAll(folderPath, "/", Separator)
}

// FolderPath reverses FolderKey.
func FolderPath(folderKey string) string {
	return strings.ReplaceAll(folderKey, Separator, "/")
}

// SanitizeFileName normalizes a user-supplied filename for storage:
// whitespace becomes "_" and everything outside [A-Za-z0-9._-] is dropped.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StoragePath derives the deterministic storage location for an uploaded
// file. Both the portal and the back office use this derivation, so the
// storage id (the final path segment) is identical on both sides.
func StoragePath(projectID primitive.ObjectID, folderPath, fileName string) string {
	return "projects/" + projectID.Hex() + "/" + strings.Trim(folderPath, "/") + "/" + SanitizeFileName(fileName)
}

// StorageID returns the record key for a storage path: its final segment.
func StorageID(storagePath string) string {
	if i := strings.LastIndexByte(storagePath, '/'); i >= 0 {
		return storagePath[i+1:]
	}
	return storagePath
}
