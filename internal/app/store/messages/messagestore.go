// Package messages provides storage for customer messages.
package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/htmlsanitize"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyBody is returned when a message body is empty after sanitization.
	ErrEmptyBody = errors.New("message body is empty")
	// ErrBodyTooLong is returned when a message body exceeds the length limit.
	ErrBodyTooLong = fmt.Errorf("message body exceeds %d characters", models.MessageMaxLen)
	// ErrNotEditable is returned when editing or deleting a message that has
	// been resolved or belongs to someone else.
	ErrNotEditable = errors.New("message is resolved or not owned by this customer")
)

// Store provides access to the messages collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new message store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// cleanBody sanitizes and validates a message body.
func cleanBody(body string) (string, error) {
	body = htmlsanitize.Strip(norm.NFC.String(body))
	if body == "" {
		return "", ErrEmptyBody
	}
	if len([]rune(body)) > models.MessageMaxLen {
		return "", ErrBodyTooLong
	}
	return body, nil
}

// Create stores a new message from a customer. The body is sanitized to
// plain text and limited to the configured length.
func (s *Store) Create(ctx context.Context, projectID, customerID primitive.ObjectID, folderPath, body string) (*models.Message, error) {
	clean, err := cleanBody(body)
	if err != nil {
		return nil, err
	}

	m := models.Message{
		ID:         primitive.NewObjectID(),
		ProjectID:  projectID,
		CustomerID: customerID,
		FolderPath: folderPath,
		Body:       clean,
		Status:     models.MessageUnread,
		CreatedAt:  time.Now(),
	}

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID retrieves a message by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByProject returns a customer's messages for a project, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID, customerID primitive.ObjectID) ([]models.Message, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.c.Find(ctx, bson.M{
		"project_id":  projectID,
		"customer_id": customerID,
	}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Update replaces the body of an unread message. Only the author may edit,
// and only while the back office has not resolved it.
func (s *Store) Update(ctx context.Context, id, customerID primitive.ObjectID, body string) (*models.Message, error) {
	clean, err := cleanBody(body)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":         id,
			"customer_id": customerID,
			"status":      models.MessageUnread,
		},
		bson.M{"$set": bson.M{
			"body":       clean,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var m models.Message
	if err := res.Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotEditable
		}
		return nil, err
	}
	return &m, nil
}

// Delete removes an unread message. Only the author may delete, and only
// while the back office has not resolved it.
func (s *Store) Delete(ctx context.Context, id, customerID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"_id":         id,
		"customer_id": customerID,
		"status":      models.MessageUnread,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotEditable
	}
	return nil
}

// MarkResolved flips a message to resolved. Called on behalf of the back
// office; resolution is terminal.
func (s *Store) MarkResolved(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     models.MessageResolved,
			"updated_at": now,
		}})
	return err
}
