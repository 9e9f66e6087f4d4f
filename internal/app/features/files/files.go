// internal/app/features/files/files.go

// Package files serves project folder listings, file read/approval actions,
// uploads, downloads and the live SSE folder streams.
package files

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable string printed on the customer's paperwork

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	projectstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/projects"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/readstatus"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/docref"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/notify"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/sse"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/unread"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler provides file listing, mutation and streaming handlers.
type Handler struct {
	fileStore    *filerecords.Store
	projectStore *projectstore.Store
	readStore    *readstatus.Store
	broker       *filerecords.Broker
	fileStorage  storage.Store
	notifier     *notify.Client
	counter      *unread.Counter
	errLog       *errorsfeature.ErrorLogger
	logger       *zap.Logger

	maxUploadBytes int64
}

// NewHandler creates a new files Handler. broker may be nil when live
// streaming is disabled (the events endpoint then reports unavailable).
func NewHandler(
	db *mongo.Database,
	fileStorage storage.Store,
	broker *filerecords.Broker,
	notifier *notify.Client,
	counter *unread.Counter,
	errLog *errorsfeature.ErrorLogger,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		fileStore:      filerecords.New(db),
		projectStore:   projectstore.New(db),
		readStore:      readstatus.New(db),
		broker:         broker,
		fileStorage:    fileStorage,
		notifier:       notifier,
		counter:        counter,
		errLog:         errLog,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns a chi.Router with file routes mounted. Folder keys are the
// docref form of a folder path ("/" replaced by "__"), so they are single
// URL segments.
//
// When mounted at /api/files:
//   - GET    /api/files/{projectID}/{folderKey}                        - folder listing
//   - GET    /api/files/{projectID}/{folderKey}/events                 - SSE live listing
//   - POST   /api/files/{projectID}/{folderKey}                        - upload (multipart)
//   - POST   /api/files/{projectID}/{folderKey}/{storageID}/read       - mark read
//   - POST   /api/files/{projectID}/{folderKey}/{storageID}/approve    - approve a report
//   - GET    /api/files/{projectID}/{folderKey}/{storageID}/download   - download
//   - DELETE /api/files/{projectID}/{folderKey}/{storageID}            - delete own upload
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/{projectID}/{folderKey}", h.handleList)
	r.Get("/{projectID}/{folderKey}/events", h.handleEvents)
	r.Post("/{projectID}/{folderKey}", h.handleUpload)
	r.Post("/{projectID}/{folderKey}/{storageID}/read", h.handleMarkRead)
	r.Post("/{projectID}/{folderKey}/{storageID}/approve", h.handleApprove)
	r.Get("/{projectID}/{folderKey}/{storageID}/download", h.handleDownload)
	r.Delete("/{projectID}/{folderKey}/{storageID}", h.handleDelete)

	return r
}

// fileView is one enriched file record in listings and mutation responses.
type fileView struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name"`
	FolderPath  string     `json:"folder_path"`
	StorageID   string     `json:"storage_id"`
	StorageURL  string     `json:"storage_url,omitempty"`
	Size        int64      `json:"size"`
	SizeLabel   string     `json:"size_label"`
	ContentType string     `json:"content_type"`
	FileType    string     `json:"file_type"`
	UploadedAt  *time.Time `json:"uploaded_at"`
	Mine        bool       `json:"mine"`
	Read        bool       `json:"read"`
	Approved    bool       `json:"approved"`
	Status      string     `json:"status"`
}

// folderCtx carries the resolved pieces of a /{projectID}/{folderKey} URL.
type folderCtx struct {
	project    *models.Project
	customer   *auth.SessionCustomer
	folderPath string
	folderKey  string
}

// resolve checks session, project ownership/scope and folder validity. It
// writes the error response itself on failure.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (folderCtx, bool) {
	customer, ok := auth.CurrentCustomer(r)
	if !ok {
		jsonutil.Unauthorized(w, "Sign in required")
		return folderCtx{}, false
	}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid project id")
		return folderCtx{}, false
	}
	if !customer.CanAccessProject(projectID) {
		jsonutil.Forbidden(w, "Access denied")
		return folderCtx{}, false
	}

	project, err := h.projectStore.GetByID(r.Context(), projectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Project not found")
			return folderCtx{}, false
		}
		h.errLog.Log(r, "failed to load project", err)
		jsonutil.InternalError(w, "Internal server error")
		return folderCtx{}, false
	}
	if !project.IsOwnedBy(customer.CustomerID()) {
		jsonutil.Forbidden(w, "Access denied")
		return folderCtx{}, false
	}
	if !project.IsEnabled() {
		jsonutil.Forbidden(w, "Project is not available")
		return folderCtx{}, false
	}

	folderKey := chi.URLParam(r, "folderKey")
	folderPath := docref.FolderPath(folderKey)
	if !folders.IsValid(folderPath) || folders.IsAdminOnly(folderPath) {
		jsonutil.NotFound(w, "Folder not found")
		return folderCtx{}, false
	}
	if folders.IsCustom(folderPath) && !project.HasCustomFolder(folderPath) {
		jsonutil.NotFound(w, "Folder not found")
		return folderCtx{}, false
	}

	return folderCtx{
		project:    project,
		customer:   customer,
		folderPath: folderPath,
		folderKey:  docref.FolderKey(folderPath),
	}, true
}

// listFolder loads and enriches the records of one folder. The read and
// approval sets are fetched concurrently, then applied per record.
func (h *Handler) listFolder(r *http.Request, fc folderCtx) ([]fileView, error) {
	ctx := r.Context()
	customerID := fc.customer.CustomerID()

	opts := filerecords.ListOptions{}
	if folders.AllowsUploads(fc.folderPath) {
		// Customers only ever see their own files in upload folders.
		id := customerID
		opts.OnlyUploaderID = &id
	}

	var (
		recs        []models.FileRecord
		readSet     []string
		approvedSet []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recs, err = h.fileStore.ListByFolder(gctx, fc.project.ID, fc.folderKey, opts)
		return err
	})
	g.Go(func() error {
		var err error
		readSet, err = h.readStore.ReadStorageIDs(gctx, fc.project.ID, customerID)
		return err
	})
	g.Go(func() error {
		var err error
		approvedSet, err = h.readStore.ApprovedStorageIDs(gctx, fc.project.ID, customerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	read := make(map[string]bool, len(readSet))
	for _, id := range readSet {
		read[id] = true
	}
	approved := make(map[string]bool, len(approvedSet))
	for _, id := range approvedSet {
		approved[id] = true
	}

	views := make([]fileView, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		views = append(views, h.toView(rec, customerID, read[rec.StorageID], approved[rec.StorageID]))
	}
	return views, nil
}

func (h *Handler) toView(rec *models.FileRecord, customerID primitive.ObjectID, read, approved bool) fileView {
	return fileView{
		ID:          rec.ID.Hex(),
		FileName:    rec.FileName,
		FolderPath:  rec.FolderPath,
		StorageID:   rec.StorageID,
		StorageURL:  rec.StorageURL,
		Size:        rec.Size,
		SizeLabel:   FormatFileSize(rec.Size),
		ContentType: rec.ContentType,
		FileType:    string(rec.Type()),
		UploadedAt:  rec.UploadedAt,
		Mine:        rec.UploadedByID == customerID,
		Read:        read,
		Approved:    approved,
		Status:      models.DeriveStatus(read, approved),
	}
}

// handleList returns the enriched listing of one folder.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}

	views, err := h.listFolder(r, fc)
	if err != nil {
		h.errLog.Log(r, "failed to list folder", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.OK(w, map[string]any{
		"project_id":  fc.project.ID.Hex(),
		"folder_path": fc.folderPath,
		"files":       views,
	})
}

// handleEvents streams the folder listing over SSE. The first event carries
// the current snapshot; every change-stream signal re-lists the folder and
// sends a fresh snapshot, so delivery is idempotent.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if h.broker == nil {
		jsonutil.Error(w, http.StatusServiceUnavailable, "Live updates are not available")
		return
	}

	signals, cancel := h.broker.Subscribe(fc.project.ID, fc.folderKey)
	defer cancel()

	sw, err := sse.NewWriter(w)
	if err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	send := func() bool {
		views, err := h.listFolder(r, fc)
		if err != nil {
			h.errLog.Log(r, "failed to list folder for stream", err)
			return true // transient; keep the stream open
		}
		data, err := json.Marshal(map[string]any{
			"folder_path": fc.folderPath,
			"files":       views,
		})
		if err != nil {
			h.errLog.Log(r, "failed to encode folder snapshot", err)
			return true
		}
		return sw.Send("folder", string(data)) == nil
	}

	if !send() {
		return
	}

	keepalive := time.NewTicker(sse.KeepAliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-signals:
			if !send() {
				return
			}
		case <-keepalive.C:
			if sw.KeepAlive() != nil {
				return
			}
		}
	}
}

// loadRecord resolves the {storageID} of a mutation route within the folder
// context, writing the error response on failure.
func (h *Handler) loadRecord(w http.ResponseWriter, r *http.Request, fc folderCtx) (*models.FileRecord, bool) {
	storageID := chi.URLParam(r, "storageID")

	rec, err := h.fileStore.GetByStorageID(r.Context(), fc.project.ID, storageID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "File not found")
			return nil, false
		}
		h.errLog.Log(r, "failed to load file record", err)
		jsonutil.InternalError(w, "Internal server error")
		return nil, false
	}
	if rec.FolderKey != fc.folderKey {
		jsonutil.NotFound(w, "File not found")
		return nil, false
	}
	// Upload folders only ever expose the customer's own files.
	if folders.AllowsUploads(rec.FolderPath) && rec.UploadedByID != fc.customer.CustomerID() {
		jsonutil.NotFound(w, "File not found")
		return nil, false
	}
	return rec, true
}

// respondWithRecord re-derives the record's state and writes it, so mutation
// responses always reflect persisted state.
func (h *Handler) respondWithRecord(w http.ResponseWriter, r *http.Request, fc folderCtx, rec *models.FileRecord, status int) {
	key := readstatus.Key{
		ProjectID:  fc.project.ID,
		CustomerID: fc.customer.CustomerID(),
		StorageID:  rec.StorageID,
	}
	read, err := h.readStore.IsRead(r.Context(), key)
	if err != nil {
		h.errLog.Log(r, "failed to derive read state", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	approved, err := h.readStore.IsApproved(r.Context(), key)
	if err != nil {
		h.errLog.Log(r, "failed to derive approval state", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	jsonutil.JSON(w, status, h.toView(rec, fc.customer.CustomerID(), read, approved))
}

// handleMarkRead records a read receipt for the file. Idempotent.
func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	rec, ok := h.loadRecord(w, r, fc)
	if !ok {
		return
	}

	key := readstatus.Key{
		ProjectID:  fc.project.ID,
		CustomerID: fc.customer.CustomerID(),
		StorageID:  rec.StorageID,
	}
	if err := h.readStore.MarkRead(r.Context(), key); err != nil {
		h.errLog.Log(r, "failed to mark file read", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	h.counter.Invalidate(fc.project.ID, fc.customer.CustomerID())

	h.respondWithRecord(w, r, fc, rec, http.StatusOK)
}

// handleApprove records the customer's approval of a report file. Only files
// in the reports tree carry the approval workflow. Approval implies read.
func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !folders.IsReportFolder(fc.folderPath) {
		jsonutil.BadRequest(w, "Only report files can be approved")
		return
	}
	rec, ok := h.loadRecord(w, r, fc)
	if !ok {
		return
	}

	key := readstatus.Key{
		ProjectID:  fc.project.ID,
		CustomerID: fc.customer.CustomerID(),
		StorageID:  rec.StorageID,
	}
	if err := h.readStore.Approve(r.Context(), key); err != nil {
		h.errLog.Log(r, "failed to approve file", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	if err := h.readStore.MarkRead(r.Context(), key); err != nil {
		h.errLog.Log(r, "failed to mark approved file read", err)
	}
	h.counter.Invalidate(fc.project.ID, fc.customer.CustomerID())

	h.logger.Info("report approved",
		zap.String("project_id", fc.project.ID.Hex()),
		zap.String("storage_id", rec.StorageID))

	h.respondWithRecord(w, r, fc, rec, http.StatusOK)
}

// handleDownload streams the stored object.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	rec, ok := h.loadRecord(w, r, fc)
	if !ok {
		return
	}

	reader, err := h.fileStorage.Get(r.Context(), storagePathFor(fc.project.ID, rec))
	if err != nil {
		h.errLog.Log(r, "failed to get file from storage", err)
		jsonutil.NotFound(w, "File not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.FileName))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream file",
			zap.String("storage_id", rec.StorageID),
			zap.Error(err))
	}
}

// handleDelete removes a file the customer uploaded. Deletion is only
// allowed in upload-capable folders and only for the uploader's own files.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !folders.AllowsUploads(fc.folderPath) {
		jsonutil.Forbidden(w, "Files in this folder cannot be deleted")
		return
	}
	rec, ok := h.loadRecord(w, r, fc)
	if !ok {
		return
	}
	if rec.UploadedByID != fc.customer.CustomerID() {
		jsonutil.Forbidden(w, "Only your own uploads can be deleted")
		return
	}

	if err := h.fileStorage.Delete(r.Context(), storagePathFor(fc.project.ID, rec)); err != nil {
		h.logger.Warn("failed to delete file from storage",
			zap.String("storage_id", rec.StorageID),
			zap.Error(err))
		// The metadata record is removed regardless so the listing is honest.
	}

	if err := h.fileStore.DeleteByStorageID(r.Context(), fc.project.ID, rec.StorageID); err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "File not found")
			return
		}
		h.errLog.Log(r, "failed to delete file record", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	h.counter.Invalidate(fc.project.ID, fc.customer.CustomerID())

	h.logger.Info("file deleted",
		zap.String("project_id", fc.project.ID.Hex()),
		zap.String("storage_id", rec.StorageID))

	jsonutil.NoContent(w)
}

// storagePathFor rebuilds the storage location of a record. The storage id
// is already the sanitized final path segment.
func storagePathFor(projectID primitive.ObjectID, rec *models.FileRecord) string {
	return docref.StoragePath(projectID, rec.FolderPath, rec.StorageID)
}
