// internal/app/features/backoffice/backoffice.go

// Package backoffice receives calls from the admin system: report files it
// publishes, the pending-approval placeholders that go with them, and message
// resolutions. Routes are guarded by the shared API key, not a session.
package backoffice

import (
	"net/http"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	messagestore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/messages"
	projectstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/projects"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/readstatus"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/docref"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides the inbound admin-system handlers.
type Handler struct {
	fileStore    *filerecords.Store
	projectStore *projectstore.Store
	readStore    *readstatus.Store
	messageStore *messagestore.Store
	errLog       *errorsfeature.ErrorLogger
	logger       *zap.Logger
}

// NewHandler creates a new backoffice Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		fileStore:    filerecords.New(db),
		projectStore: projectstore.New(db),
		readStore:    readstatus.New(db),
		messageStore: messagestore.New(db),
		errLog:       errLog,
		logger:       logger,
	}
}

// Routes returns a chi.Router with the admin-system routes mounted. Mount
// behind auth.APIKeyAuth.
//
// When mounted at /api/backoffice:
//   - POST /api/backoffice/files                          - register a published file
//   - POST /api/backoffice/approvals                      - write a pending-approval placeholder
//   - POST /api/backoffice/messages/{messageID}/resolve   - resolve a customer message
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/files", h.handleRegisterFile)
	r.Post("/approvals", h.handleCreatePending)
	r.Post("/messages/{messageID}/resolve", h.handleResolveMessage)

	return r
}

// loadProject resolves a project id from a request payload. Admin-system
// calls are not scoped to a session, so only existence is checked.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request, projectIDHex string) (*models.Project, bool) {
	projectID, err := primitive.ObjectIDFromHex(projectIDHex)
	if err != nil {
		jsonutil.BadRequest(w, "Invalid project id")
		return nil, false
	}
	project, err := h.projectStore.GetByID(r.Context(), projectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Project not found")
			return nil, false
		}
		h.errLog.Log(r, "failed to load project", err)
		jsonutil.InternalError(w, "Internal server error")
		return nil, false
	}
	return project, true
}

// handleRegisterFile records the metadata of a file the admin system placed
// in storage. Reports additionally get a pending-approval placeholder for
// the project's customer, so the approval shows up before the customer ever
// opens the folder.
func (h *Handler) handleRegisterFile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProjectID   string `json:"project_id"`
		FolderPath  string `json:"folder_path"`
		FileName    string `json:"file_name"`
		StorageURL  string `json:"storage_url"`
		Size        int64  `json:"size"`
		ContentType string `json:"content_type"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	project, ok := h.loadProject(w, r, in.ProjectID)
	if !ok {
		return
	}
	if !folders.IsValid(in.FolderPath) {
		jsonutil.BadRequest(w, "Unknown folder")
		return
	}
	if folders.IsCustom(in.FolderPath) && !project.HasCustomFolder(in.FolderPath) {
		jsonutil.BadRequest(w, "Unknown folder")
		return
	}

	name := docref.SanitizeFileName(in.FileName)
	if name == "" || name == "." {
		jsonutil.BadRequest(w, "File name is required")
		return
	}

	ref, err := docref.ForFolder(project.ID, in.FolderPath)
	if err != nil {
		jsonutil.BadRequest(w, "Unknown folder")
		return
	}
	storagePath := docref.StoragePath(project.ID, in.FolderPath, name)

	rec, err := h.fileStore.Create(r.Context(), filerecords.CreateInput{
		ProjectID:   project.ID,
		FolderKey:   ref.FolderKey(),
		FolderPath:  in.FolderPath,
		FileName:    name,
		StorageURL:  in.StorageURL,
		StorageID:   docref.StorageID(storagePath),
		Size:        in.Size,
		ContentType: in.ContentType,
	})
	if err != nil {
		h.errLog.Log(r, "failed to create file record", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	if folders.IsReportFolder(in.FolderPath) {
		key := readstatus.Key{
			ProjectID:  project.ID,
			CustomerID: project.CustomerID,
			StorageID:  rec.StorageID,
		}
		if err := h.readStore.CreatePending(r.Context(), key); err != nil {
			h.errLog.Log(r, "failed to create pending approval", err)
			jsonutil.InternalError(w, "Internal server error")
			return
		}
	}

	h.logger.Info("file registered",
		zap.String("project_id", project.ID.Hex()),
		zap.String("folder_path", in.FolderPath),
		zap.String("storage_id", rec.StorageID))

	jsonutil.Created(w, map[string]any{
		"id":         rec.ID.Hex(),
		"storage_id": rec.StorageID,
		"folder_key": rec.FolderKey,
	})
}

// handleCreatePending writes a pending-approval placeholder for one
// file+customer pair. Idempotent; repeating the call is harmless.
func (h *Handler) handleCreatePending(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProjectID  string `json:"project_id"`
		CustomerID string `json:"customer_id"`
		StorageID  string `json:"storage_id"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	project, ok := h.loadProject(w, r, in.ProjectID)
	if !ok {
		return
	}

	customerID := project.CustomerID
	if in.CustomerID != "" {
		var err error
		customerID, err = primitive.ObjectIDFromHex(in.CustomerID)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid customer id")
			return
		}
	}
	if in.StorageID == "" {
		jsonutil.BadRequest(w, "Storage id is required")
		return
	}

	key := readstatus.Key{
		ProjectID:  project.ID,
		CustomerID: customerID,
		StorageID:  in.StorageID,
	}
	if err := h.readStore.CreatePending(r.Context(), key); err != nil {
		h.errLog.Log(r, "failed to create pending approval", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.Created(w, map[string]string{"status": models.ApprovalPending})
}

// handleResolveMessage flips a customer message to resolved, locking it
// against further edits.
func (h *Handler) handleResolveMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "messageID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid message id")
		return
	}

	if _, err := h.messageStore.GetByID(r.Context(), messageID); err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Message not found")
			return
		}
		h.errLog.Log(r, "failed to load message", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	if err := h.messageStore.MarkResolved(r.Context(), messageID); err != nil {
		h.errLog.Log(r, "failed to resolve message", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	h.logger.Info("message resolved", zap.String("message_id", messageID.Hex()))

	jsonutil.OK(w, map[string]string{"status": models.MessageResolved})
}
