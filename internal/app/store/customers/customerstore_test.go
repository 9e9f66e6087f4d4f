package customerstore

import (
	"context"
	"testing"

	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/Green-Power-Project/window-app-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func strptr(s string) *string { return &s }

func testCustomer(email, number string) models.Customer {
	return models.Customer{
		FullName:       "Test Customer",
		Email:          strptr(email),
		CustomerNumber: number,
		AuthMethod:     "password",
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Create(ctx, testCustomer("Kunde@Example.COM", "K-1001"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if c.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if c.Email == nil || *c.Email != "kunde@example.com" {
		t.Errorf("Email = %v, want lowercased", c.Email)
	}
	if c.EmailCI == nil || *c.EmailCI == "" {
		t.Error("EmailCI should be set")
	}
	if c.Role != models.RoleCustomer {
		t.Errorf("Role = %q, want default %q", c.Role, models.RoleCustomer)
	}
	if c.Status != "active" {
		t.Errorf("Status = %q, want active", c.Status)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, testCustomer("dup@example.com", "K-1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, testCustomer("DUP@example.com", "K-2"))
	if err != ErrDuplicateEmail {
		t.Errorf("Create() duplicate email error = %v, want %v", err, ErrDuplicateEmail)
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := testCustomer("role@example.com", "K-3")
	c.Role = "superuser"
	if _, err := store.Create(ctx, c); err == nil {
		t.Error("Create() with invalid role should fail")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testCustomer("lookup@example.com", "K-4"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Case-insensitive lookup
	c, err := store.GetByEmail(ctx, "LOOKUP@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if c.ID != created.ID {
		t.Errorf("ID = %v, want %v", c.ID, created.ID)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByEmail() missing error = %v, want %v", err, mongo.ErrNoDocuments)
	}
}

func TestStore_GetByCustomerNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testCustomer("number@example.com", "K-5005"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	c, err := store.GetByCustomerNumber(ctx, " K-5005 ")
	if err != nil {
		t.Fatalf("GetByCustomerNumber() error = %v", err)
	}
	if c.ID != created.ID {
		t.Errorf("ID = %v, want %v", c.ID, created.ID)
	}
}

func TestStore_SetPasswordHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testCustomer("pw@example.com", "K-6"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.SetPasswordHash(ctx, created.ID, "$2a$10$fakehash"); err != nil {
		t.Fatalf("SetPasswordHash() error = %v", err)
	}
	c, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if c.PasswordHash == nil || *c.PasswordHash != "$2a$10$fakehash" {
		t.Errorf("PasswordHash = %v, want set", c.PasswordHash)
	}
}

func TestFetcher_FetchCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	fetcher := NewFetcher(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testCustomer("fetch@example.com", "K-7"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sc := fetcher.FetchCustomer(ctx, created.ID.Hex())
	if sc == nil {
		t.Fatal("FetchCustomer() returned nil for active customer")
	}
	if sc.Email != "fetch@example.com" {
		t.Errorf("Email = %q", sc.Email)
	}
	if sc.CustomerNumber != "K-7" {
		t.Errorf("CustomerNumber = %q", sc.CustomerNumber)
	}

	// Disabled customers invalidate the session
	if err := store.SetStatus(ctx, created.ID, "disabled"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if sc := fetcher.FetchCustomer(ctx, created.ID.Hex()); sc != nil {
		t.Error("FetchCustomer() should return nil for disabled customer")
	}

	// Bad inputs
	if sc := fetcher.FetchCustomer(context.Background(), "not-an-oid"); sc != nil {
		t.Error("FetchCustomer() should return nil for malformed id")
	}
	if sc := fetcher.FetchCustomer(ctx, primitive.NewObjectID().Hex()); sc != nil {
		t.Error("FetchCustomer() should return nil for unknown id")
	}
}
