// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	authgooglefeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/authgoogle"
	backofficefeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/backoffice"
	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	filesfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/files"
	galleryfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/gallery"
	healthfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/health"
	loginfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/login"
	logoutfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/logout"
	messagesfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/messages"
	projectsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/projects"
	customerstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/customers"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/oauthstate"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/ratelimit"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/apicors"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The surface splits into three authentication zones:
//   - Public JSON: /api/gallery and /health, no session required
//   - Customer JSON: /api/projects, /api/files, /api/messages behind a
//     session cookie (sign-in at /api/login or /auth/google)
//   - Back-office JSON: /api/backoffice behind a bearer API key
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the CustomerFetcher so LoadSessionCustomer fetches fresh customer
	// data on each request. Disabled accounts and role changes take effect
	// immediately instead of at next sign-in.
	sessionMgr.SetCustomerFetcher(customerstore.NewFetcher(deps.MongoDatabase, logger))

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Shared unread-count aggregator from ConnectDB. Projects (folder tree
	// badges) and files (invalidation on upload/read/approve) use the same
	// cached counter.
	counter := deps.Unread

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	// SSE folder streams are exempt; they stay open until the client goes away.
	timeout := chimw.Timeout(30 * time.Second)
	r.Use(func(next http.Handler) http.Handler {
		withTimeout := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/api/files/") && strings.HasSuffix(req.URL.Path, "/events") {
				next.ServeHTTP(w, req)
				return
			}
			withTimeout.ServeHTTP(w, req)
		})
	})

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionCustomer into context if signed in.
	// API-key routes simply have no session, which is fine.
	r.Use(sessionMgr.LoadSessionCustomer)

	// CSRF protection middleware with path-based exemption for JSON API routes.
	// The portal frontend sends session-authenticated JSON requests and the
	// back-office calls in with a bearer key, so /api/* and /auth/* skip CSRF.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("portal_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	csrfMiddleware := func(next http.Handler) http.Handler {
		csrfHandler := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path := req.URL.Path
			if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/auth/") {
				next.ServeHTTP(w, req)
				return
			}
			csrfHandler.ServeHTTP(w, req)
		})
	}
	r.Use(csrfMiddleware)

	// ─────────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Public gallery and catalogue, consumed by the marketing site.
	// Permissive CORS so any origin can read it.
	galleryHandler := galleryfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Route("/api/gallery", func(sr chi.Router) {
		sr.Use(apicors.Middleware())
		sr.Mount("/", galleryfeature.Routes(galleryHandler))
	})

	// Uploaded files (local storage only)
	// When using local storage, serve files from the configured path
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Authentication
	// ─────────────────────────────────────────────────────────────────────────────

	// Rate limiting for login attempts (nil if disabled)
	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	loginHandler := loginfeature.NewHandler(
		deps.MongoDatabase,
		sessionMgr,
		errLog,
		deps.Mailer,
		rateLimitStore,
		appCfg.BaseURL,
		appCfg.PasswordResetExpiry,
		logger,
	)
	r.Mount("/api/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Route("/api/logout", func(sr chi.Router) {
		sr.Use(sessionMgr.RequireSignedIn)
		sr.Mount("/", logoutfeature.Routes(logoutHandler))
	})

	// Google OAuth (only mount if configured)
	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""
	if googleEnabled {
		oauthStateStore := oauthstate.New(deps.MongoDatabase)
		googleHandler := authgooglefeature.NewHandler(
			deps.MongoDatabase,
			sessionMgr,
			errLog,
			oauthStateStore,
			appCfg.GoogleClientID,
			appCfg.GoogleClientSecret,
			appCfg.BaseURL,
			logger,
		)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		logger.Info("Google OAuth enabled", zap.String("redirect_url", appCfg.BaseURL+"/auth/google/callback"))
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// Customer JSON API (session required)
	// ─────────────────────────────────────────────────────────────────────────────

	projectsHandler := projectsfeature.NewHandler(deps.MongoDatabase, counter, errLog, logger)
	r.Route("/api/projects", func(sr chi.Router) {
		sr.Use(sessionMgr.RequireSignedIn)
		sr.Mount("/", projectsfeature.Routes(projectsHandler))
	})

	filesHandler := filesfeature.NewHandler(
		deps.MongoDatabase,
		deps.FileStorage,
		deps.Broker,
		deps.Notifier,
		counter,
		errLog,
		appCfg.UploadMaxBytes,
		logger,
	)
	r.Route("/api/files", func(sr chi.Router) {
		sr.Use(sessionMgr.RequireSignedIn)
		sr.Mount("/", filesfeature.Routes(filesHandler))
	})

	messagesHandler := messagesfeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Route("/api/messages", func(sr chi.Router) {
		sr.Use(sessionMgr.RequireSignedIn)
		sr.Mount("/", messagesfeature.Routes(messagesHandler))
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// Back-office JSON API (bearer key required)
	// ─────────────────────────────────────────────────────────────────────────────

	backofficeHandler := backofficefeature.NewHandler(deps.MongoDatabase, errLog, logger)
	r.Route("/api/backoffice", func(sr chi.Router) {
		sr.Use(apicors.Middleware())
		sr.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
		sr.Mount("/", backofficefeature.Routes(backofficeHandler))
	})

	// 404 catch-all for unmatched routes
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
