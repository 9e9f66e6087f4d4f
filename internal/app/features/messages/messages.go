// internal/app/features/messages/messages.go

// Package messages serves the customer message box: short notes a customer
// leaves on a project, editable until the back office resolves them.
package messages

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable string printed on the customer's paperwork

import (
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	messagestore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/messages"
	projectstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/projects"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides customer message handlers.
type Handler struct {
	messageStore *messagestore.Store
	projectStore *projectstore.Store
	errLog       *errorsfeature.ErrorLogger
	logger       *zap.Logger
}

// NewHandler creates a new messages Handler.
func NewHandler(
	db *mongo.Database,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		messageStore: messagestore.New(db),
		projectStore: projectstore.New(db),
		errLog:       errLog,
		logger:       logger,
	}
}

// Routes returns a chi.Router with message routes mounted.
//
// When mounted at /api/messages:
//   - GET    /api/messages/{projectID}              - the customer's messages
//   - POST   /api/messages/{projectID}              - leave a message
//   - PUT    /api/messages/{projectID}/{messageID}  - edit an unresolved message
//   - DELETE /api/messages/{projectID}/{messageID}  - remove an unresolved message
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/{projectID}", h.handleList)
	r.Post("/{projectID}", h.handleCreate)
	r.Put("/{projectID}/{messageID}", h.handleUpdate)
	r.Delete("/{projectID}/{messageID}", h.handleDelete)

	return r
}

// messageView is one message in list and mutation responses.
type messageView struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	FolderPath string     `json:"folder_path,omitempty"`
	Body       string     `json:"body"`
	Status     string     `json:"status"`
	Editable   bool       `json:"editable"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func toView(m *models.Message) messageView {
	return messageView{
		ID:         m.ID.Hex(),
		ProjectID:  m.ProjectID.Hex(),
		FolderPath: m.FolderPath,
		Body:       m.Body,
		Status:     m.Status,
		Editable:   !m.IsResolved(),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// loadProject resolves {projectID}, checks the session scope and ownership,
// and writes the error response itself when access is denied.
func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, *auth.SessionCustomer, bool) {
	customer, ok := auth.CurrentCustomer(r)
	if !ok {
		jsonutil.Unauthorized(w, "Sign in required")
		return nil, nil, false
	}

	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid project id")
		return nil, nil, false
	}
	if !customer.CanAccessProject(projectID) {
		jsonutil.Forbidden(w, "Access denied")
		return nil, nil, false
	}

	project, err := h.projectStore.GetByID(r.Context(), projectID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Project not found")
			return nil, nil, false
		}
		h.errLog.Log(r, "failed to load project", err)
		jsonutil.InternalError(w, "Internal server error")
		return nil, nil, false
	}
	if !project.IsOwnedBy(customer.CustomerID()) {
		jsonutil.Forbidden(w, "Access denied")
		return nil, nil, false
	}
	if !project.IsEnabled() {
		jsonutil.Forbidden(w, "Project is not available")
		return nil, nil, false
	}

	return project, customer, true
}

// handleList returns the customer's messages for the project, newest first.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	project, customer, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	msgs, err := h.messageStore.ListByProject(r.Context(), project.ID, customer.CustomerID())
	if err != nil {
		h.errLog.Log(r, "failed to list messages", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	out := make([]messageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, toView(&msgs[i]))
	}
	jsonutil.OK(w, map[string]any{
		"project_id": project.ID.Hex(),
		"messages":   out,
	})
}

// handleCreate stores a new message. The optional folder path anchors the
// message to a folder the customer can see.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	project, customer, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var in struct {
		Body       string `json:"body"`
		FolderPath string `json:"folder_path"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	if in.FolderPath != "" {
		if !folders.IsValid(in.FolderPath) || folders.IsAdminOnly(in.FolderPath) {
			jsonutil.BadRequest(w, "Unknown folder")
			return
		}
		if folders.IsCustom(in.FolderPath) && !project.HasCustomFolder(in.FolderPath) {
			jsonutil.BadRequest(w, "Unknown folder")
			return
		}
	}

	m, err := h.messageStore.Create(r.Context(), project.ID, customer.CustomerID(), in.FolderPath, in.Body)
	if err != nil {
		if bodyError(w, err) {
			return
		}
		h.errLog.Log(r, "failed to create message", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	h.logger.Info("message created",
		zap.String("project_id", project.ID.Hex()),
		zap.String("message_id", m.ID.Hex()))

	jsonutil.Created(w, toView(m))
}

// handleUpdate replaces the body of one of the customer's unresolved messages.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	project, customer, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	messageID, ok := h.messageID(w, r, project, customer)
	if !ok {
		return
	}

	var in struct {
		Body string `json:"body"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	m, err := h.messageStore.Update(r.Context(), messageID, customer.CustomerID(), in.Body)
	if err != nil {
		if bodyError(w, err) {
			return
		}
		if errors.Is(err, messagestore.ErrNotEditable) {
			jsonutil.Forbidden(w, "Message can no longer be edited")
			return
		}
		h.errLog.Log(r, "failed to update message", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.OK(w, toView(m))
}

// handleDelete removes one of the customer's unresolved messages.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	project, customer, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	messageID, ok := h.messageID(w, r, project, customer)
	if !ok {
		return
	}

	if err := h.messageStore.Delete(r.Context(), messageID, customer.CustomerID()); err != nil {
		if errors.Is(err, messagestore.ErrNotEditable) {
			jsonutil.Forbidden(w, "Message can no longer be deleted")
			return
		}
		h.errLog.Log(r, "failed to delete message", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	h.logger.Info("message deleted",
		zap.String("project_id", project.ID.Hex()),
		zap.String("message_id", messageID.Hex()))

	jsonutil.NoContent(w)
}

// messageID resolves {messageID} and verifies the message belongs to this
// project and customer before any mutation touches it.
func (h *Handler) messageID(w http.ResponseWriter, r *http.Request, project *models.Project, customer *auth.SessionCustomer) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "messageID"))
	if err != nil {
		jsonutil.BadRequest(w, "Invalid message id")
		return primitive.NilObjectID, false
	}

	m, err := h.messageStore.GetByID(r.Context(), id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "Message not found")
			return primitive.NilObjectID, false
		}
		h.errLog.Log(r, "failed to load message", err)
		jsonutil.InternalError(w, "Internal server error")
		return primitive.NilObjectID, false
	}
	if m.ProjectID != project.ID || m.CustomerID != customer.CustomerID() {
		jsonutil.NotFound(w, "Message not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// bodyError maps the store's body validation errors to responses. Returns
// true when it wrote one.
func bodyError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, messagestore.ErrEmptyBody):
		jsonutil.BadRequest(w, "Message text is required")
	case errors.Is(err, messagestore.ErrBodyTooLong):
		jsonutil.BadRequest(w, "Message text is too long (max 500 characters)")
	default:
		return false
	}
	return true
}
