package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project represents one construction/installation project assigned to a
// customer. Projects are created and maintained by the back-office system;
// the portal treats them as read-only except for the custom-folder extension
// fields, which the owning customer may append to (never remove).
type Project struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	NameCI        string             `bson:"name_ci" json:"-"` // Case-insensitive for sorting/search
	ProjectNumber string             `bson:"project_number" json:"project_number"`
	Year          *int               `bson:"year,omitempty" json:"year,omitempty"`
	CustomerID    primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Enabled       *bool              `bson:"enabled,omitempty" json:"enabled,omitempty"` // nil = enabled

	// Per-project folder customization. Keys are taxonomy folder paths.
	FolderDisplayNames    map[string]string `bson:"folder_display_names,omitempty" json:"folder_display_names,omitempty"`
	CustomFolders         []string          `bson:"custom_folders,omitempty" json:"custom_folders,omitempty"`
	CustomFolderSubtitles map[string]string `bson:"custom_folder_subtitles,omitempty" json:"custom_folder_subtitles,omitempty"`
	CustomFolderImages    map[string]string `bson:"custom_folder_images,omitempty" json:"custom_folder_images,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsEnabled reports whether the project is visible to its customer.
// A nil Enabled field counts as enabled for records written before the
// flag existed.
func (p *Project) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// IsOwnedBy reports whether the given customer owns this project.
func (p *Project) IsOwnedBy(customerID primitive.ObjectID) bool {
	return p.CustomerID == customerID
}

// DisplayNameFor returns the customized display name for a folder path,
// falling back to the given default.
func (p *Project) DisplayNameFor(path, fallback string) string {
	if name, ok := p.FolderDisplayNames[path]; ok && name != "" {
		return name
	}
	return fallback
}

// HasCustomFolder reports whether the project already carries the given
// customer-created folder path.
func (p *Project) HasCustomFolder(path string) bool {
	for _, f := range p.CustomFolders {
		if f == path {
			return true
		}
	}
	return false
}
