// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, CORS, and request timeouts. AppConfig is where
// everything specific to the portal lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: portal-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// Rate limiting configuration for sign-in attempts
	RateLimitEnabled       bool          // Enable rate limiting for login attempts (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// API key for the back-office system's inbound calls.
	// When empty, /api/backoffice rejects every request.
	APIKey string

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/files")

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string // AWS region
	StorageS3Bucket    string // S3 bucket name
	StorageS3Prefix    string // Key prefix (e.g., "uploads/")
	StorageCFURL       string // CloudFront distribution URL
	StorageCFKeyPairID string // CloudFront key pair ID
	StorageCFKeyPath   string // Path to CloudFront private key file

	// Upload limits
	UploadMaxBytes int64 // Per-file upload ceiling in bytes (default: 20MB)

	// Email/SMTP configuration for password reset mail
	MailSMTPHost string // SMTP server host
	MailSMTPPort int    // SMTP server port
	MailSMTPUser string // SMTP username (empty for a local catcher like Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@example.com)
	MailFromName string // From display name

	// Base URL for links in email and OAuth redirects
	BaseURL string // e.g., "https://portal.example.com"

	// Password reset settings
	PasswordResetExpiry time.Duration // How long reset tokens stay valid (default: 30m)

	// Back-office notification endpoint. When empty, upload notifications
	// are disabled.
	NotifyBaseURL string

	// Unread-count cache
	UnreadCacheTTL      time.Duration // How long aggregated counts are reused (default: 30s)
	UnreadCacheCapacity int           // Max cached (project, customer) entries (default: 1024)

	// Google OAuth configuration
	GoogleClientID     string // Google OAuth2 client ID
	GoogleClientSecret string // Google OAuth2 client secret

	// Admin seeding configuration
	SeedAdminEmail  string // Email of the admin customer to create on startup (if set)
	SeedAdminName   string // Name of the admin customer to create on startup
	SeedAdminNumber string // Customer number of the seeded admin
}
