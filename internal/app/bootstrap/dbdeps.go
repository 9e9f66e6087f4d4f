// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/cache"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/mailer"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/notify"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/unread"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. It is the
// central place for database clients and backend connections.
//
// The Shutdown hook is responsible for closing these connections gracefully
// when the application terminates.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage for customer uploads and back-office documents
	FileStorage storage.Store

	// Mailer for password reset mail
	Mailer *mailer.Mailer

	// Notifier posts upload events to the back-office system. Always
	// non-nil; disabled when no base URL is configured.
	Notifier *notify.Client

	// Broker fans change-stream signals out to SSE folder subscribers.
	// Started in Startup, stopped in Shutdown.
	Broker *filerecords.Broker

	// UnreadCache memoizes aggregated unread counts; swept by a background
	// task. Unread is the counter built over it, shared by the projects and
	// files features.
	UnreadCache *cache.Cache[unread.Counts]
	Unread      *unread.Counter
}
