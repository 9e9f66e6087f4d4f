package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageMaxLen is the maximum length of a customer message body.
const MessageMaxLen = 500

// Message statuses. A message is editable by its author while unread and
// becomes read-only once the back office marks it resolved.
const (
	MessageUnread   = "unread"
	MessageResolved = "resolved"
)

// Message is a free-text note a customer leaves on a project folder.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID  primitive.ObjectID `bson:"project_id" json:"project_id"`
	CustomerID primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	FolderPath string             `bson:"folder_path" json:"folder_path"`
	Body       string             `bson:"body" json:"body"`
	Status     string             `bson:"status" json:"status"` // unread, resolved
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsResolved reports whether the message has been resolved by the back office.
func (m *Message) IsResolved() bool {
	return m.Status == MessageResolved
}
