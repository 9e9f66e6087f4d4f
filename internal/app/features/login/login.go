// internal/app/features/login/login.go

// Package login provides the sign-in API.
//
// Two sign-in paths exist. Email+password grants a session that can see every
// project the customer owns. Customer-number+project-number grants a session
// pinned to that single project, for customers who never registered an email
// account. Password resets are dispatched by email.
package login

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable string printed on the customer's paperwork

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	customerstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/customers"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/passwordreset"
	projectstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/projects"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/ratelimit"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/mailer"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/status"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost used when customer passwords are first hashed.
const bcryptCost = 12

// Handler provides login handlers.
type Handler struct {
	customerStore      *customerstore.Store
	projectStore       *projectstore.Store
	passwordResetStore *passwordreset.Store
	rateLimitStore     *ratelimit.Store // nil if rate limiting disabled
	sessionMgr         *auth.SessionManager
	errLog             *errorsfeature.ErrorLogger
	mailer             *mailer.Mailer
	baseURL            string
	resetExpiry        time.Duration
	logger             *zap.Logger
}

// NewHandler creates a new login Handler.
// rateLimitStore can be nil to disable rate limiting.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	m *mailer.Mailer,
	rateLimitStore *ratelimit.Store,
	baseURL string,
	resetExpiry time.Duration,
	logger *zap.Logger,
) *Handler {
	if resetExpiry == 0 {
		resetExpiry = 30 * time.Minute
	}

	return &Handler{
		customerStore:      customerstore.New(db),
		projectStore:       projectstore.New(db),
		passwordResetStore: passwordreset.New(db, resetExpiry),
		rateLimitStore:     rateLimitStore,
		sessionMgr:         sessionMgr,
		errLog:             errLog,
		mailer:             m,
		baseURL:            baseURL,
		resetExpiry:        resetExpiry,
		logger:             logger,
	}
}

// Routes returns a chi.Router with login routes mounted.
//
// When mounted at /api/login:
//   - POST /api/login                 - email + password sign-in
//   - POST /api/login/project         - customer number + project number sign-in
//   - POST /api/login/forgot-password - dispatch a reset email
//   - POST /api/login/reset-password  - redeem a reset token
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.handlePasswordLogin)
	r.Post("/project", h.handleProjectLogin)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Post("/reset-password", h.handleResetPassword)

	return r
}

// customerResponse is the sign-in response body.
type customerResponse struct {
	ID                 string `json:"id"`
	FullName           string `json:"full_name"`
	Email              string `json:"email,omitempty"`
	CustomerNumber     string `json:"customer_number"`
	Role               string `json:"role"`
	CanViewAllProjects bool   `json:"can_view_all_projects"`
	ProjectID          string `json:"project_id,omitempty"`
}

// checkRateLimit returns false and writes the response when loginID is
// currently locked out.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request, loginID string) bool {
	if h.rateLimitStore == nil {
		return true
	}
	allowed, _, lockedUntil := h.rateLimitStore.CheckAllowed(r.Context(), loginID)
	if allowed {
		return true
	}

	msg := "Too many failed login attempts. Please try again later."
	if lockedUntil != nil {
		remaining := time.Until(*lockedUntil)
		if remaining > time.Minute {
			msg = fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
		} else {
			msg = fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
		}
	}
	jsonutil.Error(w, http.StatusTooManyRequests, msg)
	return false
}

func (h *Handler) recordFailure(r *http.Request, loginID string) {
	if h.rateLimitStore != nil {
		h.rateLimitStore.RecordFailure(r.Context(), loginID)
	}
}

func (h *Handler) clearFailures(r *http.Request, loginID string) {
	if h.rateLimitStore != nil {
		_ = h.rateLimitStore.ClearOnSuccess(r.Context(), loginID)
	}
}

// handlePasswordLogin processes email + password sign-in. A successful login
// yields a session that can see all of the customer's projects.
func (h *Handler) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Email == "" || in.Password == "" {
		jsonutil.BadRequest(w, "Email and password are required")
		return
	}

	if !h.checkRateLimit(w, r, in.Email) {
		return
	}

	customer, err := h.customerStore.GetByEmail(r.Context(), in.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Record failure for rate limiting (even though the account
			// doesn't exist) so probing is throttled the same way.
			h.recordFailure(r, in.Email)
			jsonutil.Unauthorized(w, "Invalid credentials")
			return
		}
		h.errLog.Log(r, "database error during login lookup", err)
		jsonutil.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		return
	}

	if customer.Status == status.Disabled {
		jsonutil.Forbidden(w, "Account is disabled")
		return
	}
	if customer.PasswordHash == nil {
		// Number-auth or Google accounts have no password.
		h.recordFailure(r, in.Email)
		jsonutil.Unauthorized(w, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*customer.PasswordHash), []byte(in.Password)); err != nil {
		h.recordFailure(r, in.Email)
		jsonutil.Unauthorized(w, "Invalid credentials")
		return
	}

	h.clearFailures(r, in.Email)

	if err := h.sessionMgr.CreateSession(w, r, customer.ID, customer.Role, "", auth.AllProjects()); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	h.logger.Info("customer signed in",
		zap.String("customer_id", customer.ID.Hex()),
		zap.String("method", "password"))

	jsonutil.OK(w, customerResponse{
		ID:                 customer.ID.Hex(),
		FullName:           customer.FullName,
		Email:              emailOrEmpty(customer),
		CustomerNumber:     customer.CustomerNumber,
		Role:               customer.Role,
		CanViewAllProjects: true,
	})
}

// handleProjectLogin processes customer-number + project-number sign-in. The
// pair must match: the project must belong to the customer. The session is
// pinned to the one project.
func (h *Handler) handleProjectLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CustomerNumber string `json:"customer_number"`
		ProjectNumber  string `json:"project_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.CustomerNumber == "" || in.ProjectNumber == "" {
		jsonutil.BadRequest(w, "Customer number and project number are required")
		return
	}

	if !h.checkRateLimit(w, r, in.CustomerNumber) {
		return
	}

	customer, err := h.customerStore.GetByCustomerNumber(r.Context(), in.CustomerNumber)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.recordFailure(r, in.CustomerNumber)
			jsonutil.Unauthorized(w, "Invalid customer or project number")
			return
		}
		h.errLog.Log(r, "database error during number login lookup", err)
		jsonutil.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		return
	}

	if customer.Status == status.Disabled {
		jsonutil.Forbidden(w, "Account is disabled")
		return
	}

	project, err := h.projectStore.GetByProjectNumber(r.Context(), in.ProjectNumber)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.recordFailure(r, in.CustomerNumber)
			jsonutil.Unauthorized(w, "Invalid customer or project number")
			return
		}
		h.errLog.Log(r, "database error during project lookup", err)
		jsonutil.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		return
	}

	// The pair is only valid when the project belongs to this customer.
	if project.CustomerID != customer.ID {
		h.recordFailure(r, in.CustomerNumber)
		jsonutil.Unauthorized(w, "Invalid customer or project number")
		return
	}
	if project.Enabled != nil && !*project.Enabled {
		jsonutil.Forbidden(w, "Project is not available")
		return
	}

	h.clearFailures(r, in.CustomerNumber)

	if err := h.sessionMgr.CreateSession(w, r, customer.ID, customer.Role, "", auth.SingleProject(project.ID)); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	h.logger.Info("customer signed in",
		zap.String("customer_id", customer.ID.Hex()),
		zap.String("project_id", project.ID.Hex()),
		zap.String("method", "number"))

	jsonutil.OK(w, customerResponse{
		ID:                 customer.ID.Hex(),
		FullName:           customer.FullName,
		CustomerNumber:     customer.CustomerNumber,
		Role:               customer.Role,
		CanViewAllProjects: false,
		ProjectID:          project.ID.Hex(),
	})
}

// handleForgotPassword dispatches a reset email. The response never reveals
// whether the address has an account.
func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Email == "" {
		jsonutil.BadRequest(w, "Email is required")
		return
	}

	accepted := map[string]string{"status": "If the address has an account, a reset email is on the way."}

	customer, err := h.customerStore.GetByEmail(r.Context(), in.Email)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			h.errLog.Log(r, "database error during password reset lookup", err)
		}
		jsonutil.OK(w, accepted)
		return
	}
	if customer.Status == status.Disabled || customer.Email == nil {
		jsonutil.OK(w, accepted)
		return
	}

	reset, err := h.passwordResetStore.Create(r.Context(), customer.ID, *customer.Email)
	if err != nil {
		h.errLog.Log(r, "failed to create password reset", err)
		jsonutil.OK(w, accepted)
		return
	}

	textBody, htmlBody := mailer.PasswordResetEmail(mailer.PasswordResetEmailData{
		AppName:   h.mailer.FromName(),
		ResetURL:  h.baseURL + "/reset-password?token=" + reset.Token,
		ExpiryMin: int(h.resetExpiry.Minutes()),
	})
	if err := h.mailer.Send(mailer.Email{
		To:       *customer.Email,
		Subject:  "Reset your password",
		TextBody: textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		h.errLog.Log(r, "failed to send password reset email", err)
	}

	jsonutil.OK(w, accepted)
}

// handleResetPassword redeems a reset token and sets the new password.
func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Token == "" || in.Password == "" {
		jsonutil.BadRequest(w, "Token and password are required")
		return
	}
	if len(in.Password) < 8 {
		jsonutil.BadRequest(w, "Password must be at least 8 characters")
		return
	}

	reset, err := h.passwordResetStore.VerifyToken(r.Context(), in.Token)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid or expired reset link")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		h.errLog.Log(r, "failed to hash password", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	if err := h.customerStore.SetPasswordHash(r.Context(), reset.CustomerID, string(hash)); err != nil {
		h.errLog.Log(r, "failed to store new password", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	if err := h.passwordResetStore.MarkUsed(r.Context(), reset.ID); err != nil {
		h.errLog.Log(r, "failed to mark reset token used", err)
	}

	textBody, htmlBody := mailer.PasswordChangedEmail(mailer.PasswordChangedEmailData{
		AppName:  h.mailer.FromName(),
		LoginURL: h.baseURL + "/login",
	})
	if err := h.mailer.Send(mailer.Email{
		To:       reset.Email,
		Subject:  "Your password was changed",
		TextBody: textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		h.errLog.Log(r, "failed to send password changed email", err)
	}

	h.logger.Info("password reset completed",
		zap.String("customer_id", reset.CustomerID.Hex()))

	jsonutil.OK(w, map[string]string{"status": "Password updated."})
}

func emailOrEmpty(c *models.Customer) string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}
