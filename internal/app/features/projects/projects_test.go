package projects

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	projectstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/projects"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/readstatus"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/cache"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/docref"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/unread"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/Green-Power-Project/window-app-sub001/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, db *mongo.Database) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	counter := unread.New(
		filerecords.New(db),
		readstatus.New(db),
		cache.New[unread.Counts](time.Minute, 64),
	)
	h := NewHandler(db, counter, errorsfeature.NewErrorLogger(logger), logger)
	return Routes(h)
}

func createProject(t *testing.T, db *mongo.Database, customerID primitive.ObjectID, name, number string) *models.Project {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := projectstore.New(db).Create(ctx, projectstore.CreateInput{
		Name:          name,
		ProjectNumber: number,
		CustomerID:    customerID,
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return p
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestList_AllProjects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)

	createProject(t, db, customerID, "Roof North", "P-1001")
	createProject(t, db, customerID, "Roof South", "P-1002")
	createProject(t, db, primitive.NewObjectID(), "Other Roof", "P-1003")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", customer)
	rec := serve(router, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var out []projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(projects) = %d, want 2", len(out))
	}
}

func TestList_ExcludesDisabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)

	p := createProject(t, db, customerID, "Hidden", "P-1100")
	if err := projectstore.New(db).SetEnabled(ctx, p.ID, false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", customer)
	rec := serve(router, req)

	var out []projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len(projects) = %d, want 0", len(out))
	}
}

func TestList_ProjectScopedSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)

	pinned := createProject(t, db, customerID, "Pinned", "P-1200")
	createProject(t, db, customerID, "Other", "P-1201")

	scoped := testutil.ProjectCustomer(pinned.ID)
	scoped.ID = customer.ID

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", scoped)
	rec := serve(router, req)

	var out []projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(projects) = %d, want 1", len(out))
	}
	if out[0].ID != pinned.ID.Hex() {
		t.Errorf("project id = %q, want the pinned project", out[0].ID)
	}
}

func TestGet_OwnershipEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)

	customer := testutil.Customer()
	other := createProject(t, db, primitive.NewObjectID(), "Not Yours", "P-1300")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+other.ID.Hex(), customer)
	rec := serve(router, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGet_ScopeEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)

	pinned := createProject(t, db, customerID, "Pinned", "P-1400")
	otherOwned := createProject(t, db, customerID, "Also Mine", "P-1401")

	scoped := testutil.ProjectCustomer(pinned.ID)
	scoped.ID = customer.ID

	// A pinned session cannot reach the customer's other projects.
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+otherOwned.ID.Hex(), scoped)
	rec := serve(router, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/"+pinned.ID.Hex(), scoped)
	rec = serve(router, req)
	if rec.Code != http.StatusOK {
		t.Errorf("pinned project status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGet_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)

	req := httptest.NewRequest(http.MethodGet, "/"+primitive.NewObjectID().Hex(), nil)
	rec := serve(router, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestFolders_TreeShape(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)
	project := createProject(t, db, customerID, "Tree", "P-1500")

	store := projectstore.New(db)
	if err := store.SetFolderDisplayName(ctx, project.ID, "03_Reports", "Berichte"); err != nil {
		t.Fatalf("SetFolderDisplayName() error = %v", err)
	}
	if err := store.AddCustomFolder(ctx, project.ID, "99_Garden_Photos", "Summer shots", ""); err != nil {
		t.Fatalf("AddCustomFolder() error = %v", err)
	}

	// Seed an unread file in a report subfolder.
	ref, err := docref.ForFolder(project.ID, "03_Reports/Daily_Reports")
	if err != nil {
		t.Fatalf("docref.ForFolder() error = %v", err)
	}
	if _, err := filerecords.New(db).Create(ctx, filerecords.CreateInput{
		ProjectID:    project.ID,
		FolderKey:    ref.FolderKey(),
		FolderPath:   "03_Reports/Daily_Reports",
		FileName:     "report-1.pdf",
		StorageID:    "report-1.pdf",
		ContentType:  "application/pdf",
		UploadedByID: primitive.NewObjectID(),
	}); err != nil {
		t.Fatalf("failed to create file record: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+project.ID.Hex()+"/folders", customer)
	rec := serve(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var out struct {
		Folders     []folderView `json:"folders"`
		UnreadTotal int64        `json:"unread_total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	byPath := map[string]folderView{}
	for _, f := range out.Folders {
		byPath[f.Path] = f
	}

	reports, ok := byPath["03_Reports"]
	if !ok {
		t.Fatal("tree is missing 03_Reports")
	}
	if reports.Name != "Berichte" {
		t.Errorf("display name = %q, want Berichte", reports.Name)
	}
	if !reports.IsReport {
		t.Error("03_Reports should be flagged as a report folder")
	}
	if reports.Unread != 1 {
		t.Errorf("03_Reports unread = %d, want 1", reports.Unread)
	}

	custom, ok := byPath["99_Garden_Photos"]
	if !ok {
		t.Fatal("tree is missing the custom folder")
	}
	if !custom.AllowsUploads {
		t.Error("custom folders must allow uploads")
	}
	if custom.Subtitle != "Summer shots" {
		t.Errorf("subtitle = %q, want Summer shots", custom.Subtitle)
	}

	if out.UnreadTotal != 1 {
		t.Errorf("unread_total = %d, want 1", out.UnreadTotal)
	}

	// Admin-only folders never appear.
	for _, f := range out.Folders {
		if strings.HasPrefix(f.Path, "90_") {
			t.Errorf("tree contains admin-only folder %q", f.Path)
		}
	}
}

func TestAddFolder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)
	project := createProject(t, db, customerID, "Custom", "P-1600")

	body := `{"name":"My Balcony Photos","subtitle":"July"}`
	req := httptest.NewRequest(http.MethodPost, "/"+project.ID.Hex()+"/folders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithCustomer(req, customer)
	rec := serve(router, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var out folderView
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Path != "99_My_Balcony_Photos" {
		t.Errorf("path = %q, want 99_My_Balcony_Photos", out.Path)
	}

	updated, err := projectstore.New(db).GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !updated.HasCustomFolder("99_My_Balcony_Photos") {
		t.Error("custom folder was not persisted")
	}
	if updated.DisplayNameFor("99_My_Balcony_Photos", "") != "My Balcony Photos" {
		t.Error("original name should be kept as the display name")
	}
}

func TestAddFolder_EmptyName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := newTestRouter(t, db)

	customer := testutil.Customer()
	customerID, _ := primitive.ObjectIDFromHex(customer.ID)
	project := createProject(t, db, customerID, "Custom", "P-1700")

	req := httptest.NewRequest(http.MethodPost, "/"+project.ID.Hex()+"/folders", strings.NewReader(`{"name":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	req = testutil.WithCustomer(req, customer)
	rec := serve(router, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSanitizeFolderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Photos", "My_Photos"},
		{"a  b\tc", "a_b_c"},
		{"Ünïcode!", "ncode"},
		{"already_clean-1.2", "already_clean-1.2"},
	}
	for _, tt := range tests {
		if got := sanitizeFolderName(tt.in); got != tt.want {
			t.Errorf("sanitizeFolderName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCustomFolderName(t *testing.T) {
	if got := customFolderName("99_Garden_Photos"); got != "Garden Photos" {
		t.Errorf("customFolderName() = %q, want Garden Photos", got)
	}
}
