// Package projectstore provides storage for projects.
package projectstore

import (
	"context"
	"errors"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/normalize"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

var (
	// ErrDuplicateProjectNumber is returned when the project number is already taken.
	ErrDuplicateProjectNumber = errors.New("a project with this project number already exists")
	// ErrInvalidCustomFolder is returned when a custom folder path does not
	// carry the customer-folder prefix or fails taxonomy validation.
	ErrInvalidCustomFolder = errors.New("invalid custom folder path")
)

// GetByID loads a project by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByProjectNumber looks up a project by its back-office project number.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByProjectNumber(ctx context.Context, projectNumber string) (*models.Project, error) {
	var p models.Project
	filter := bson.M{"project_number": normalize.QueryParam(projectNumber)}
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCustomer returns the enabled projects owned by a customer, newest
// year first, then by name.
func (s *Store) ListByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Project, error) {
	filter := bson.M{
		"customer_id": customerID,
		"enabled":     bson.M{"$ne": false},
	}
	findOpts := options.Find().SetSort(bson.D{
		{Key: "year", Value: -1},
		{Key: "name_ci", Value: 1},
	})

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateInput contains the input for creating a project.
type CreateInput struct {
	Name          string
	ProjectNumber string
	Year          *int
	CustomerID    primitive.ObjectID
}

// Create inserts a new project.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	now := time.Now()
	p := models.Project{
		ID:            primitive.NewObjectID(),
		Name:          normalize.Name(input.Name),
		NameCI:        text.Fold(input.Name),
		ProjectNumber: normalize.QueryParam(input.ProjectNumber),
		Year:          input.Year,
		CustomerID:    input.CustomerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateProjectNumber
		}
		return nil, err
	}
	return &p, nil
}

// AddCustomFolder appends a customer-created folder to the project. The
// path must carry the customer-folder prefix and validate against the
// taxonomy. Append-only: folders are never removed through the portal.
func (s *Store) AddCustomFolder(ctx context.Context, projectID primitive.ObjectID, path, subtitle, imageURL string) error {
	if !folders.IsCustom(path) || !folders.IsValid(path) {
		return ErrInvalidCustomFolder
	}

	set := bson.M{"updated_at": time.Now()}
	if subtitle != "" {
		set["custom_folder_subtitles."+path] = subtitle
	}
	if imageURL != "" {
		set["custom_folder_images."+path] = imageURL
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{
		"$addToSet": bson.M{"custom_folders": path},
		"$set":      set,
	})
	return err
}

// SetFolderDisplayName stores a per-project display name override for a
// taxonomy folder path. An empty name removes the override.
func (s *Store) SetFolderDisplayName(ctx context.Context, projectID primitive.ObjectID, path, name string) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now()}}
	if name == "" {
		update["$unset"] = bson.M{"folder_display_names." + path: ""}
	} else {
		update["$set"].(bson.M)["folder_display_names."+path] = name
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": projectID}, update)
	return err
}

// SetEnabled toggles project visibility.
func (s *Store) SetEnabled(ctx context.Context, projectID primitive.ObjectID, enabled bool) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{
		"$set": bson.M{
			"enabled":    enabled,
			"updated_at": time.Now(),
		},
	})
	return err
}
