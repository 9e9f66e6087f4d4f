// internal/app/features/logout/logout.go
package logout

import (
	"net/http"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler provides logout handlers.
type Handler struct {
	sessionMgr *auth.SessionManager
	logger     *zap.Logger
}

// NewHandler creates a new logout Handler.
func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		sessionMgr: sessionMgr,
		logger:     logger,
	}
}

// Routes returns a chi.Router with logout routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogout)
	return r
}

// handleLogout terminates the session.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if customer, ok := auth.CurrentCustomer(r); ok {
		h.logger.Info("customer signed out",
			zap.String("customer_id", customer.ID))
	}

	h.sessionMgr.DestroySession(w, r)

	jsonutil.OK(w, map[string]string{"status": "Signed out."})
}
