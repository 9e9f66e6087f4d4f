// Package readstatus provides storage for per-customer read receipts and
// report approvals.
//
// Both collections carry a unique index on (project_id, customer_id,
// storage_id), so the upserts here are idempotent under concurrent requests
// without a separate existence check.
package readstatus

import (
	"context"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the read_receipts and approvals collections.
type Store struct {
	receipts  *mongo.Collection
	approvals *mongo.Collection
}

// New creates a new read status store.
func New(db *mongo.Database) *Store {
	return &Store{
		receipts:  db.Collection("read_receipts"),
		approvals: db.Collection("approvals"),
	}
}

// Key identifies one (project, customer, file) triple.
type Key struct {
	ProjectID  primitive.ObjectID
	CustomerID primitive.ObjectID
	StorageID  string
}

func (k Key) filter() bson.M {
	return bson.M{
		"project_id":  k.ProjectID,
		"customer_id": k.CustomerID,
		"storage_id":  k.StorageID,
	}
}

// MarkRead records that the customer opened the file. Repeated calls keep
// the original read time.
func (s *Store) MarkRead(ctx context.Context, key Key) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"project_id":  key.ProjectID,
			"customer_id": key.CustomerID,
			"storage_id":  key.StorageID,
			"read_at":     time.Now(),
		},
	}
	_, err := s.receipts.UpdateOne(ctx, key.filter(), update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Lost a concurrent upsert race; the receipt exists.
		return nil
	}
	return err
}

// IsRead reports whether a read receipt exists for the key.
func (s *Store) IsRead(ctx context.Context, key Key) (bool, error) {
	count, err := s.receipts.CountDocuments(ctx, key.filter())
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReadStorageIDs returns the storage ids the customer has read within a
// project. The result feeds the unread-count exclusion filter.
func (s *Store) ReadStorageIDs(ctx context.Context, projectID, customerID primitive.ObjectID) ([]string, error) {
	cursor, err := s.receipts.Find(ctx, bson.M{
		"project_id":  projectID,
		"customer_id": customerID,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var receipts []models.ReadReceipt
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(receipts))
	for _, r := range receipts {
		ids = append(ids, r.StorageID)
	}
	return ids, nil
}

// Approve records the customer's approval of a report file. If the back
// office wrote a pending placeholder it is finalized in place; otherwise a
// new approved record is created. Approval is terminal: repeated calls keep
// the original approval time.
func (s *Store) Approve(ctx context.Context, key Key) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":     models.ApprovalApproved,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"project_id":  key.ProjectID,
			"customer_id": key.CustomerID,
			"storage_id":  key.StorageID,
			"created_at":  now,
		},
	}
	filter := key.filter()
	filter["status"] = bson.M{"$ne": models.ApprovalApproved}

	_, err := s.approvals.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// An approved record already exists; nothing to change.
		return nil
	}
	if err != nil {
		return err
	}

	// approved_at is only stamped the first time the status flips.
	_, err = s.approvals.UpdateOne(ctx,
		bson.M{
			"project_id":  key.ProjectID,
			"customer_id": key.CustomerID,
			"storage_id":  key.StorageID,
			"approved_at": nil,
		},
		bson.M{"$set": bson.M{"approved_at": now}})
	return err
}

// IsApproved reports whether the key has an approved record.
func (s *Store) IsApproved(ctx context.Context, key Key) (bool, error) {
	filter := key.filter()
	filter["status"] = models.ApprovalApproved
	count, err := s.approvals.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetApproval returns the approval record for the key, or
// mongo.ErrNoDocuments if none exists.
func (s *Store) GetApproval(ctx context.Context, key Key) (*models.Approval, error) {
	var a models.Approval
	if err := s.approvals.FindOne(ctx, key.filter()).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreatePending writes a pending approval placeholder for a report that
// awaits customer sign-off. A later Approve finalizes it in place. If any
// record already exists for the key this is a no-op.
func (s *Store) CreatePending(ctx context.Context, key Key) error {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"project_id":  key.ProjectID,
			"customer_id": key.CustomerID,
			"storage_id":  key.StorageID,
			"status":      models.ApprovalPending,
			"created_at":  now,
			"updated_at":  now,
		},
	}
	_, err := s.approvals.UpdateOne(ctx, key.filter(), update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// Status derives the displayed status of a file for a customer.
func (s *Store) Status(ctx context.Context, key Key) (string, error) {
	read, err := s.IsRead(ctx, key)
	if err != nil {
		return "", err
	}
	approved, err := s.IsApproved(ctx, key)
	if err != nil {
		return "", err
	}
	return models.DeriveStatus(read, approved), nil
}

// ApprovedStorageIDs returns the storage ids the customer has approved
// within a project.
func (s *Store) ApprovedStorageIDs(ctx context.Context, projectID, customerID primitive.ObjectID) ([]string, error) {
	cursor, err := s.approvals.Find(ctx, bson.M{
		"project_id":  projectID,
		"customer_id": customerID,
		"status":      models.ApprovalApproved,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var approvals []models.Approval
	if err := cursor.All(ctx, &approvals); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(approvals))
	for _, a := range approvals {
		ids = append(ids, a.StorageID)
	}
	return ids, nil
}
