package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestCustomer represents customer data for testing HTTP handlers.
type TestCustomer struct {
	ID                 string
	Name               string
	Email              string
	CustomerNumber     string
	Role               string
	CanViewAllProjects bool
	LoggedInProjectID  string
}

// AdminCustomer returns a TestCustomer with admin role and full project
// visibility.
func AdminCustomer() TestCustomer {
	return TestCustomer{
		ID:                 primitive.NewObjectID().Hex(),
		Name:               "Test Admin",
		Email:              "admin@test.com",
		CustomerNumber:     "K-0001",
		Role:               "admin",
		CanViewAllProjects: true,
	}
}

// Customer returns a TestCustomer with the customer role signed in by email,
// so every owned project is visible.
func Customer() TestCustomer {
	return TestCustomer{
		ID:                 primitive.NewObjectID().Hex(),
		Name:               "Test Customer",
		Email:              "customer@test.com",
		CustomerNumber:     "K-1001",
		Role:               "customer",
		CanViewAllProjects: true,
	}
}

// ProjectCustomer returns a TestCustomer signed in with customer number and
// project number, pinned to the given project.
func ProjectCustomer(projectID primitive.ObjectID) TestCustomer {
	c := Customer()
	c.CanViewAllProjects = false
	c.LoggedInProjectID = projectID.Hex()
	return c
}

// WithCustomer adds a customer to the request context for testing
// authenticated handlers. This bypasses the session middleware and injects
// the customer directly.
func WithCustomer(r *http.Request, customer TestCustomer) *http.Request {
	sessionCustomer := &auth.SessionCustomer{
		ID:                 customer.ID,
		Name:               customer.Name,
		Email:              customer.Email,
		CustomerNumber:     customer.CustomerNumber,
		Role:               customer.Role,
		CanViewAllProjects: customer.CanViewAllProjects,
		LoggedInProjectID:  customer.LoggedInProjectID,
	}
	return auth.WithTestCustomer(r, sessionCustomer)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a customer in context.
func NewAuthenticatedRequest(method, target string, customer TestCustomer) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithCustomer(req, customer)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
