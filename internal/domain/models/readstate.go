package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Derived file statuses, in monotonic order. A file moves
// unread → read → approved and never backward through portal action.
const (
	StatusUnread   = "unread"
	StatusRead     = "read"
	StatusApproved = "approved"
)

// Approval record statuses. Pending placeholders are written by the
// back-office system; the customer's approval finalizes them in place.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
)

// ReadReceipt records that a customer opened a file. At most one exists per
// (project, customer, storage id); the unique index on that triple makes the
// upsert in the read-status store idempotent.
type ReadReceipt struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID  primitive.ObjectID `bson:"project_id" json:"project_id"`
	CustomerID primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	StorageID  string             `bson:"storage_id" json:"storage_id"`
	ReadAt     time.Time          `bson:"read_at" json:"read_at"`
}

// Approval records the approval workflow state for a report file, keyed the
// same way as ReadReceipt.
type Approval struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID  primitive.ObjectID `bson:"project_id" json:"project_id"`
	CustomerID primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	StorageID  string             `bson:"storage_id" json:"storage_id"`
	Status     string             `bson:"status" json:"status"` // pending, approved
	ApprovedAt *time.Time         `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// DeriveStatus combines read and approval state into the displayed status.
// Approved takes precedence over read takes precedence over unread.
func DeriveStatus(read, approved bool) string {
	switch {
	case approved:
		return StatusApproved
	case read:
		return StatusRead
	default:
		return StatusUnread
	}
}
