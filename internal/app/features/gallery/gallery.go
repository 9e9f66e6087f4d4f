// internal/app/features/gallery/gallery.go

// Package gallery serves the public reference gallery and product catalogue.
// Every route here is unauthenticated; only published content is returned.
package gallery

import (
	"net/http"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	gallerystore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/gallery"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides public gallery and catalogue handlers.
type Handler struct {
	store  *gallerystore.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new gallery Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		store:  gallerystore.New(db),
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns a chi.Router with gallery routes mounted.
//
// When mounted at /api/gallery:
//   - GET /api/gallery/albums            - published albums
//   - GET /api/gallery/albums/{albumID}  - one album with its images
//   - GET /api/gallery/catalogue         - published catalogue entries (?category= filters)
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/albums", h.handleAlbums)
	r.Get("/albums/{albumID}", h.handleAlbum)
	r.Get("/catalogue", h.handleCatalogue)

	return r
}

// handleAlbums returns the published albums in display order.
func (h *Handler) handleAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.store.ListAlbums(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list gallery albums", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	if albums == nil {
		albums = []models.GalleryAlbum{}
	}
	jsonutil.OK(w, map[string]any{"albums": albums})
}

// handleAlbum returns one published album together with its images.
func (h *Handler) handleAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "albumID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid album id")
		return
	}

	album, err := h.store.GetAlbum(r.Context(), albumID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Album not found")
			return
		}
		h.errLog.Log(r, "failed to load gallery album", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	images, err := h.store.ListImages(r.Context(), album.ID)
	if err != nil {
		h.errLog.Log(r, "failed to list album images", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.OK(w, map[string]any{
		"album":  album,
		"images": images,
	})
}

// handleCatalogue returns the published catalogue entries, optionally
// filtered to one category.
func (h *Handler) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListCatalogue(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.errLog.Log(r, "failed to list catalogue", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	jsonutil.OK(w, map[string]any{"entries": entries})
}
