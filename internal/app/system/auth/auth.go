package auth

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable number used together with a
//     project number for number-based sign-in

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/normalize"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Session error classification for logging and monitoring.
type sessionErrorType int

const (
	sessionErrUnknown sessionErrorType = iota
	sessionErrExpired                  // timestamp expired - normal
	sessionErrTampered                 // MAC invalid - potential attack
	sessionErrCorrupted                // decode/decrypt failed - corruption or key rotation
	sessionErrBackend                  // store/backend failure
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey          = "is_authenticated"
	customerIDKey      = "customer_id"
	customerRoleKey    = "customer_role"
	sessionTokenKey    = "session_token"
	viewAllProjectsKey = "can_view_all_projects"
	loggedInProjectKey = "logged_in_project_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager - injectable session management                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager encapsulates session store and configuration.
// It provides middleware and utilities for session-based authentication.
// Use NewSessionManager to create an instance.
type SessionManager struct {
	store           *sessions.CookieStore
	logger          *zap.Logger
	name            string
	customerFetcher CustomerFetcher
}

// NewSessionManager creates a new SessionManager with the provided configuration.
//
// Parameters:
//   - sessionKey: signing key for cookies (must be ≥32 chars in production)
//   - name: session cookie name (defaults to "portal-session" if empty)
//   - domain: cookie domain (empty means current host)
//   - maxAge: session cookie lifetime (e.g., 24*time.Hour)
//   - secure: if true, cookies are Secure (for HTTPS production)
//   - logger: zap logger for session error logging
//
// Returns an error if sessionKey is empty or too weak for production mode.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}

	// Check for weak/default keys
	isWeak := len(sessionKey) < 32 || isDefaultKey(sessionKey)

	if secure {
		// In production mode, require a strong key - fail startup if weak
		if isWeak {
			return nil, &SessionConfigError{
				Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
			}
		}
	} else if isWeak {
		// In dev mode, warn but allow weak keys
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)),
			zap.Bool("is_default", isDefaultKey(sessionKey)))
	}

	// Set session name (use default if empty)
	if name == "" {
		name = "portal-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite=Lax is the recommended setting for first-party session cookies.
	// It allows cookies on same-site requests and top-level navigations (like
	// clicking a link from an email), while blocking cross-site POST requests.
	opts.SameSite = http.SameSiteLaxMode

	store.Options = opts

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain))

	return &SessionManager{
		store:  store,
		logger: logger,
		name:   name,
	}, nil
}

// SessionConfigError is returned when session configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string {
	return e.Message
}

// SessionName returns the configured session cookie name.
func (sm *SessionManager) SessionName() string {
	return sm.name
}

// Store returns the underlying session store.
func (sm *SessionManager) Store() *sessions.CookieStore {
	return sm.store
}

// GetSession retrieves the session for the request.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SetCustomerFetcher sets the CustomerFetcher used by LoadSessionCustomer to
// fetch fresh customer data on each request. This must be called after
// database initialization.
func (sm *SessionManager) SetCustomerFetcher(cf CustomerFetcher) {
	sm.customerFetcher = cf
}

/*─────────────────────────────────────────────────────────────────────────────*
| CustomerFetcher interface                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// CustomerFetcher fetches fresh customer data from the database.
// Implementations should return nil if the customer is not found or disabled.
type CustomerFetcher interface {
	// FetchCustomer retrieves a customer by ID. Returns nil if the customer is
	// not found, disabled, or any other condition that should invalidate the
	// session.
	FetchCustomer(ctx context.Context, customerID string) *SessionCustomer
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Customer helper                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionCustomer represents the authenticated customer in the request
// context. Identity fields are fetched fresh from the database on each
// request so disabled accounts and profile updates take effect immediately.
// The project scope fields are set at sign-in time and live in the session:
// an email or Google sign-in grants access to all of the customer's projects,
// a number-based sign-in pins the session to the single project whose number
// was presented.
type SessionCustomer struct {
	ID             string
	Name           string
	Email          string
	CustomerNumber string
	Role           string
	Token          string // Session token for session management

	CanViewAllProjects bool
	LoggedInProjectID  string // hex ObjectID, set for number-based sign-ins
}

// CustomerID returns the customer's ID as an ObjectID.
// If the ID is invalid, returns a zero ObjectID.
func (c *SessionCustomer) CustomerID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessProject reports whether this session may touch the given project.
// Ownership is checked separately; this only enforces the session's scope.
func (c *SessionCustomer) CanAccessProject(projectID primitive.ObjectID) bool {
	if c.CanViewAllProjects {
		return true
	}
	return c.LoggedInProjectID == projectID.Hex()
}

// SessionToken returns the session token for this customer's current session.
func (c *SessionCustomer) SessionToken() string {
	return c.Token
}

type ctxKey string

const currentCustomerKey ctxKey = "currentCustomer"

// CurrentCustomer returns the customer & "found?" flag from the request context.
func CurrentCustomer(r *http.Request) (*SessionCustomer, bool) {
	c, ok := r.Context().Value(currentCustomerKey).(*SessionCustomer)
	return c, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionCustomer returns middleware that injects the customer into
// context if signed in. Fresh identity data comes from the CustomerFetcher;
// the project scope comes from the session itself.
func (sm *SessionManager) LoadSessionCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// Classify the session error for appropriate logging.
			errType, errCategory := classifySessionError(err)
			switch errType {
			case sessionErrExpired:
				sm.logger.Debug("session expired, starting fresh session",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			case sessionErrTampered:
				sm.logger.Warn("session MAC validation failed (possible tampering)",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("user_agent", r.UserAgent()))
			case sessionErrCorrupted:
				sm.logger.Info("session decode failed, starting fresh session",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			case sessionErrBackend:
				sm.logger.Error("session store error, starting fresh session",
					zap.Error(err),
					zap.String("path", r.URL.Path))
			default:
				sm.logger.Warn("session error, starting fresh session",
					zap.Error(err),
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			}
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			customerID := getString(sess, customerIDKey)
			sessionToken := getString(sess, sessionTokenKey)

			if sm.customerFetcher != nil && customerID != "" {
				c := sm.customerFetcher.FetchCustomer(r.Context(), customerID)
				if c != nil {
					// Customer exists and is active - attach the session scope
					// and inject into context
					c.Token = sessionToken
					c.CanViewAllProjects, _ = sess.Values[viewAllProjectsKey].(bool)
					c.LoggedInProjectID = getString(sess, loggedInProjectKey)
					r = withCustomer(r, c)
				} else {
					// Customer not found, disabled, or deleted - clear session
					sm.logger.Info("session invalidated: customer not found or disabled",
						zap.String("customer_id", customerID),
						zap.String("path", r.URL.Path))
					sess.Values[isAuthKey] = false
					delete(sess.Values, customerIDKey)
					_ = sess.Save(r, w) // Best effort to clear
				}
			} else if customerID != "" {
				// Fallback: no CustomerFetcher configured, use session data
				c := &SessionCustomer{
					ID:    customerID,
					Role:  getString(sess, customerRoleKey),
					Token: sessionToken,
				}
				c.CanViewAllProjects, _ = sess.Values[viewAllProjectsKey].(bool)
				c.LoggedInProjectID = getString(sess, loggedInProjectKey)
				r = withCustomer(r, c)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn returns middleware that ensures there is a customer in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentCustomer(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(currentURI(r))

		// Browser/HTML: go to login and preserve return
		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		// Non-HTML (API) callers: plain 401
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// RequireRole returns middleware that ensures there is a customer with the required role.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[normalize.Role(role)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := CurrentCustomer(r)

			// 1) Not signed in → 401 semantics
			if !ok {
				ret := url.QueryEscape(currentURI(r))

				if wantsHTML(r) {
					http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
					return
				}

				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2) Signed in but wrong role → 403 semantics
			role := normalize.Role(c.Role)
			if _, has := set[role]; !has {
				if wantsHTML(r) {
					http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
					return
				}

				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			// Authorized → carry on
			next.ServeHTTP(w, r)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func withCustomer(r *http.Request, c *SessionCustomer) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentCustomerKey, c))
}

// WithTestCustomer injects a SessionCustomer into the request context for testing.
func WithTestCustomer(r *http.Request, c *SessionCustomer) *http.Request {
	return withCustomer(r, c)
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}

// isDefaultKey checks if the session key appears to be a default/placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	patterns := []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// classifySessionError categorizes a session/cookie error for appropriate logging.
func classifySessionError(err error) (sessionErrorType, string) {
	if err == nil {
		return sessionErrUnknown, "none"
	}

	errStr := strings.ToLower(err.Error())

	if scErr, ok := err.(securecookie.Error); ok {
		if !scErr.IsDecode() {
			return sessionErrBackend, "backend"
		}

		switch {
		case strings.Contains(errStr, "expired timestamp"):
			return sessionErrExpired, "expired"
		case strings.Contains(errStr, "mac") || strings.Contains(errStr, "hash"):
			return sessionErrTampered, "mac_invalid"
		case strings.Contains(errStr, "decrypt"):
			return sessionErrCorrupted, "decrypt_failed"
		case strings.Contains(errStr, "base64") || strings.Contains(errStr, "decode"):
			return sessionErrCorrupted, "decode_failed"
		default:
			return sessionErrCorrupted, "decode_other"
		}
	}

	return sessionErrBackend, "unknown"
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session Management                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// Scope describes which projects a new session may touch.
type Scope struct {
	// CanViewAllProjects is true for email and Google sign-ins.
	CanViewAllProjects bool
	// LoggedInProjectID pins a number-based sign-in to one project.
	LoggedInProjectID primitive.ObjectID
}

// AllProjects returns the scope for email and Google sign-ins.
func AllProjects() Scope {
	return Scope{CanViewAllProjects: true}
}

// SingleProject returns the scope for a number-based sign-in.
func SingleProject(projectID primitive.ObjectID) Scope {
	return Scope{LoggedInProjectID: projectID}
}

// CreateSession establishes a session for the customer.
// If token is empty, a new token will be generated.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, customerID primitive.ObjectID, role, token string, scope Scope) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// Create new session if can't get existing
		sess, _ = sm.store.New(r, sm.name)
	}

	// Use provided token or generate a new one
	if token == "" {
		token, err = GenerateSessionToken()
		if err != nil {
			return err
		}
	}

	sess.Values[isAuthKey] = true
	sess.Values[customerIDKey] = customerID.Hex()
	sess.Values[customerRoleKey] = role
	sess.Values[sessionTokenKey] = token
	sess.Values[viewAllProjectsKey] = scope.CanViewAllProjects
	if scope.LoggedInProjectID.IsZero() {
		delete(sess.Values, loggedInProjectKey)
	} else {
		sess.Values[loggedInProjectKey] = scope.LoggedInProjectID.Hex()
	}

	return sess.Save(r, w)
}

// GetSessionToken returns the session token from the current request.
func (sm *SessionManager) GetSessionToken(r *http.Request) string {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return ""
	}
	return getString(sess, sessionTokenKey)
}

// GenerateSessionToken generates a random URL-safe token for session tracking.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// DestroySession terminates the customer's session.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}

	sess.Values[isAuthKey] = false
	delete(sess.Values, customerIDKey)
	delete(sess.Values, customerRoleKey)
	delete(sess.Values, viewAllProjectsKey)
	delete(sess.Values, loggedInProjectKey)

	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// RequireAuth is an alias for RequireSignedIn for convenience.
func (sm *SessionManager) RequireAuth(next http.Handler) http.Handler {
	return sm.RequireSignedIn(next)
}
