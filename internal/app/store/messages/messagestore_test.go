package messages

import (
	"strings"
	"testing"

	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/Green-Power-Project/window-app-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	m, err := store.Create(ctx, projectID, customerID, "03_Reports", "When will the final report arrive?")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.Status != models.MessageUnread {
		t.Errorf("Status = %q, want %q", m.Status, models.MessageUnread)
	}
	if m.UpdatedAt != nil {
		t.Error("UpdatedAt should be nil on create")
	}
}

func TestStore_Create_Sanitizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "03_Reports",
		`Please check <script>alert(1)</script> the window seals`)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if strings.Contains(m.Body, "<") || strings.Contains(m.Body, "script") {
		t.Errorf("Body = %q, markup should be stripped", m.Body)
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	if _, err := store.Create(ctx, projectID, customerID, "03_Reports", "   "); err != ErrEmptyBody {
		t.Errorf("Create(blank) error = %v, want %v", err, ErrEmptyBody)
	}
	// Markup-only body sanitizes to nothing.
	if _, err := store.Create(ctx, projectID, customerID, "03_Reports", "<p></p>"); err != ErrEmptyBody {
		t.Errorf("Create(markup only) error = %v, want %v", err, ErrEmptyBody)
	}

	long := strings.Repeat("a", models.MessageMaxLen+1)
	if _, err := store.Create(ctx, projectID, customerID, "03_Reports", long); err != ErrBodyTooLong {
		t.Errorf("Create(too long) error = %v, want %v", err, ErrBodyTooLong)
	}

	// Exactly at the limit is fine.
	exact := strings.Repeat("a", models.MessageMaxLen)
	if _, err := store.Create(ctx, projectID, customerID, "03_Reports", exact); err != nil {
		t.Errorf("Create(exact limit) error = %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	m, err := store.Create(ctx, projectID, customerID, "03_Reports", "original")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := store.Update(ctx, m.ID, customerID, "edited")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Body != "edited" {
		t.Errorf("Body = %q, want edited", updated.Body)
	}
	if updated.UpdatedAt == nil {
		t.Error("UpdatedAt should be set after edit")
	}

	// Another customer may not edit.
	if _, err := store.Update(ctx, m.ID, primitive.NewObjectID(), "hijack"); err != ErrNotEditable {
		t.Errorf("Update(other customer) error = %v, want %v", err, ErrNotEditable)
	}

	// Resolved messages are read-only.
	if err := store.MarkResolved(ctx, m.ID); err != nil {
		t.Fatalf("MarkResolved() error = %v", err)
	}
	if _, err := store.Update(ctx, m.ID, customerID, "too late"); err != ErrNotEditable {
		t.Errorf("Update(resolved) error = %v, want %v", err, ErrNotEditable)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	m, err := store.Create(ctx, projectID, customerID, "03_Reports", "delete me")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Another customer may not delete.
	if err := store.Delete(ctx, m.ID, primitive.NewObjectID()); err != ErrNotEditable {
		t.Errorf("Delete(other customer) error = %v, want %v", err, ErrNotEditable)
	}

	if err := store.Delete(ctx, m.ID, customerID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	msgs, err := store.ListByProject(ctx, projectID, customerID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("ListByProject() returned %d messages after delete, want 0", len(msgs))
	}
}

func TestStore_Delete_ResolvedIsReadOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	customerID := primitive.NewObjectID()
	m, err := store.Create(ctx, primitive.NewObjectID(), customerID, "03_Reports", "resolved soon")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.MarkResolved(ctx, m.ID); err != nil {
		t.Fatalf("MarkResolved() error = %v", err)
	}
	if err := store.Delete(ctx, m.ID, customerID); err != ErrNotEditable {
		t.Errorf("Delete(resolved) error = %v, want %v", err, ErrNotEditable)
	}
}

func TestStore_ListByProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	customerID := primitive.NewObjectID()

	for _, body := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, projectID, customerID, "03_Reports", body); err != nil {
			t.Fatalf("Create(%s) error = %v", body, err)
		}
	}

	msgs, err := store.ListByProject(ctx, projectID, customerID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("ListByProject() returned %d messages, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.After(msgs[i-1].CreatedAt) {
			t.Error("ListByProject() not sorted newest first")
		}
	}
}
