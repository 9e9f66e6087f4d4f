// internal/app/features/files/upload.go
package files

import (
	"context"
	"net/http"
	"time"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/docref"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/notify"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes is the upload ceiling when none is configured.
const DefaultMaxUploadBytes = 20 << 20 // 20MB

// notifyTimeout bounds the best-effort notification call after an upload.
const notifyTimeout = 15 * time.Second

// allowedUploadTypes is the content-type allow-list for customer uploads.
var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// handleUpload accepts one multipart file into an upload-capable folder. All
// validation happens before the first storage call; a metadata failure after
// the storage put removes the stored object again.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !folders.AllowsUploads(fc.folderPath) {
		jsonutil.Forbidden(w, "Uploads are not allowed in this folder")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		jsonutil.Error(w, http.StatusRequestEntityTooLarge,
			"File is too large (max "+FormatFileSize(h.maxUploadBytes)+")")
		return
	}

	uploadedFile, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.BadRequest(w, "Please select a file to upload")
		return
	}
	defer uploadedFile.Close()

	if header.Size > h.maxUploadBytes {
		jsonutil.Error(w, http.StatusRequestEntityTooLarge,
			"File is too large (max "+FormatFileSize(h.maxUploadBytes)+")")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		jsonutil.BadRequest(w, "Only PDF, JPEG and PNG files can be uploaded")
		return
	}

	name := docref.SanitizeFileName(header.Filename)
	if name == "" || name == "." {
		// Nothing usable survived sanitization; keep the extension-free
		// upload under a generated name.
		name = uuid.New().String()
	}

	storagePath := docref.StoragePath(fc.project.ID, fc.folderPath, name)
	storageID := docref.StorageID(storagePath)

	// Reject duplicates before touching storage. A put at an occupied path
	// would overwrite the existing record's object, and the unique
	// (project_id, storage_id) index only refuses the record afterwards.
	if _, err := h.fileStore.GetByStorageID(r.Context(), fc.project.ID, storageID); err == nil {
		jsonutil.Error(w, http.StatusConflict, "A file named "+name+" already exists in this folder")
		return
	} else if err != mongo.ErrNoDocuments {
		h.errLog.Log(r, "failed to check for existing file", err)
		jsonutil.InternalError(w, "Upload failed")
		return
	}

	putOpts := &storage.PutOptions{ContentType: contentType}
	if err := h.fileStorage.Put(r.Context(), storagePath, uploadedFile, putOpts); err != nil {
		h.errLog.Log(r, "failed to store uploaded file", err)
		jsonutil.InternalError(w, "Upload failed")
		return
	}

	rec, err := h.fileStore.Create(r.Context(), filerecords.CreateInput{
		ProjectID:    fc.project.ID,
		FolderKey:    fc.folderKey,
		FolderPath:   fc.folderPath,
		FileName:     name,
		StorageURL:   h.fileStorage.URL(storagePath),
		StorageID:    storageID,
		Size:         header.Size,
		ContentType:  contentType,
		UploadedByID: fc.customer.CustomerID(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent upload of the same name committed its record
			// first; the object at this path now belongs to that record
			// and must stay.
			jsonutil.Error(w, http.StatusConflict, "A file named "+name+" already exists in this folder")
			return
		}
		// Roll the object back so storage and metadata stay in step.
		if delErr := h.fileStorage.Delete(r.Context(), storagePath); delErr != nil {
			h.logger.Warn("failed to remove orphaned upload",
				zap.String("path", storagePath),
				zap.Error(delErr))
		}
		h.errLog.Log(r, "failed to create file record", err)
		jsonutil.InternalError(w, "Upload failed")
		return
	}

	h.counter.Invalidate(fc.project.ID, fc.customer.CustomerID())

	// The back office is told about the upload after the fact; its
	// availability never affects the response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		h.notifier.UploadCompleted(ctx, notify.UploadEvent{
			ProjectID:  fc.project.ID.Hex(),
			FilePath:   storagePath,
			FolderPath: fc.folderPath,
			FileName:   name,
			IsReport:   folders.IsReportFolder(fc.folderPath),
		})
	}()

	h.logger.Info("file uploaded",
		zap.String("project_id", fc.project.ID.Hex()),
		zap.String("folder_path", fc.folderPath),
		zap.String("storage_id", storageID),
		zap.Int64("size", header.Size))

	// An upload is the uploader's own file; it starts unread for them.
	jsonutil.JSON(w, http.StatusCreated, h.toView(rec, fc.customer.CustomerID(), false, false))
}

// formOverheadBytes leaves room for multipart boundaries and form fields on
// top of the file ceiling.
const formOverheadBytes = 64 << 10
