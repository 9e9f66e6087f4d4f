package readstatus

import (
	"sync"
	"testing"

	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/Green-Power-Project/window-app-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testKey() Key {
	return Key{
		ProjectID:  primitive.NewObjectID(),
		CustomerID: primitive.NewObjectID(),
		StorageID:  "daily_report.pdf",
	}
}

func TestStore_MarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()

	read, err := store.IsRead(ctx, key)
	if err != nil {
		t.Fatalf("IsRead() error = %v", err)
	}
	if read {
		t.Error("IsRead() = true before MarkRead")
	}

	if err := store.MarkRead(ctx, key); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	read, err = store.IsRead(ctx, key)
	if err != nil {
		t.Fatalf("IsRead() error = %v", err)
	}
	if !read {
		t.Error("IsRead() = false after MarkRead")
	}

	// Idempotent.
	if err := store.MarkRead(ctx, key); err != nil {
		t.Fatalf("MarkRead() second call error = %v", err)
	}
	ids, err := store.ReadStorageIDs(ctx, key.ProjectID, key.CustomerID)
	if err != nil {
		t.Fatalf("ReadStorageIDs() error = %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("ReadStorageIDs() returned %d ids, want 1", len(ids))
	}
}

func TestStore_MarkRead_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.MarkRead(ctx, key)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("MarkRead() concurrent error = %v", err)
		}
	}

	ids, err := store.ReadStorageIDs(ctx, key.ProjectID, key.CustomerID)
	if err != nil {
		t.Fatalf("ReadStorageIDs() error = %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("concurrent MarkRead produced %d receipts, want 1", len(ids))
	}
}

func TestStore_Approve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()

	if err := store.Approve(ctx, key); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	approved, err := store.IsApproved(ctx, key)
	if err != nil {
		t.Fatalf("IsApproved() error = %v", err)
	}
	if !approved {
		t.Error("IsApproved() = false after Approve")
	}

	a, err := store.GetApproval(ctx, key)
	if err != nil {
		t.Fatalf("GetApproval() error = %v", err)
	}
	if a.Status != models.ApprovalApproved {
		t.Errorf("Status = %q, want %q", a.Status, models.ApprovalApproved)
	}
	if a.ApprovedAt == nil {
		t.Fatal("ApprovedAt should be set")
	}

	// Terminal: a second Approve keeps the original approval time.
	first := *a.ApprovedAt
	if err := store.Approve(ctx, key); err != nil {
		t.Fatalf("Approve() second call error = %v", err)
	}
	a, err = store.GetApproval(ctx, key)
	if err != nil {
		t.Fatalf("GetApproval() error = %v", err)
	}
	if !a.ApprovedAt.Equal(first) {
		t.Errorf("ApprovedAt changed on repeat approval: %v vs %v", a.ApprovedAt, first)
	}
}

func TestStore_Approve_FinalizesPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()

	if err := store.CreatePending(ctx, key); err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	a, err := store.GetApproval(ctx, key)
	if err != nil {
		t.Fatalf("GetApproval() error = %v", err)
	}
	if a.Status != models.ApprovalPending {
		t.Fatalf("Status = %q, want %q", a.Status, models.ApprovalPending)
	}
	pendingID := a.ID

	if err := store.Approve(ctx, key); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	a, err = store.GetApproval(ctx, key)
	if err != nil {
		t.Fatalf("GetApproval() error = %v", err)
	}
	if a.ID != pendingID {
		t.Error("Approve() should finalize the pending record in place, not create a new one")
	}
	if a.Status != models.ApprovalApproved {
		t.Errorf("Status = %q, want %q", a.Status, models.ApprovalApproved)
	}
}

func TestStore_CreatePending_DoesNotDowngrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()

	if err := store.Approve(ctx, key); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if err := store.CreatePending(ctx, key); err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}

	approved, err := store.IsApproved(ctx, key)
	if err != nil {
		t.Fatalf("IsApproved() error = %v", err)
	}
	if !approved {
		t.Error("CreatePending() must not downgrade an approved record")
	}
}

func TestStore_Status(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()

	status, err := store.Status(ctx, key)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status != models.StatusUnread {
		t.Errorf("Status() = %q, want %q", status, models.StatusUnread)
	}

	if err := store.MarkRead(ctx, key); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	status, _ = store.Status(ctx, key)
	if status != models.StatusRead {
		t.Errorf("Status() = %q, want %q", status, models.StatusRead)
	}

	if err := store.Approve(ctx, key); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	status, _ = store.Status(ctx, key)
	if status != models.StatusApproved {
		t.Errorf("Status() = %q, want %q", status, models.StatusApproved)
	}
}

func TestStore_ScopedToCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := testKey()
	if err := store.MarkRead(ctx, key); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	other := key
	other.CustomerID = primitive.NewObjectID()
	read, err := store.IsRead(ctx, other)
	if err != nil {
		t.Fatalf("IsRead() error = %v", err)
	}
	if read {
		t.Error("read receipt leaked across customers")
	}
}
