// internal/app/features/projects/projects.go

// Package projects serves the customer's project list and the per-project
// folder tree with display-name overrides, custom folders and unread badges.
package projects

// Terminology: Customer Identifiers
//   - CustomerID / customerID / customer_id: The MongoDB ObjectID (_id) that uniquely identifies a customer record
//   - CustomerNumber / customer_number: The human-readable string printed on the customer's paperwork

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	errorsfeature "github.com/Green-Power-Project/window-app-sub001/internal/app/features/errors"
	projectstore "github.com/Green-Power-Project/window-app-sub001/internal/app/store/projects"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/auth"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/jsonutil"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/unread"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides project and folder-tree handlers.
type Handler struct {
	projectStore *projectstore.Store
	counter      *unread.Counter
	errLog       *errorsfeature.ErrorLogger
	logger       *zap.Logger
}

// NewHandler creates a new projects Handler.
func NewHandler(
	db *mongo.Database,
	counter *unread.Counter,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		projectStore: projectstore.New(db),
		counter:      counter,
		errLog:       errLog,
		logger:       logger,
	}
}

// Routes returns a chi.Router with project routes mounted.
//
// When mounted at /api/projects:
//   - GET  /api/projects                      - projects visible to the session
//   - GET  /api/projects/{projectID}          - one project
//   - GET  /api/projects/{projectID}/folders  - folder tree with unread badges
//   - POST /api/projects/{projectID}/folders  - append a custom folder
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.handleList)
	r.Get("/{projectID}", h.handleGet)
	r.Get("/{projectID}/folders", h.handleFolders)
	r.Post("/{projectID}/folders", h.handleAddFolder)

	return r
}

// projectResponse is the project summary in list and detail responses.
type projectResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ProjectNumber string    `json:"project_number"`
	Year          *int      `json:"year,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toProjectResponse(p *models.Project) projectResponse {
	return projectResponse{
		ID:            p.ID.Hex(),
		Name:          p.Name,
		ProjectNumber: p.ProjectNumber,
		Year:          p.Year,
		CreatedAt:     p.CreatedAt,
	}
}

// folderView is one node of the folder tree response.
type folderView struct {
	Name          string       `json:"name"`
	Path          string       `json:"path"`
	Unread        int64        `json:"unread"`
	AllowsUploads bool         `json:"allows_uploads"`
	IsReport      bool         `json:"is_report"`
	Subtitle      string       `json:"subtitle,omitempty"`
	ImageURL      string       `json:"image_url,omitempty"`
	Children      []folderView `json:"children,omitempty"`
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

// handleList returns the projects the session may see: all owned projects for
// an email sign-in, the single pinned project for a number sign-in.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	customer, ok := auth.CurrentCustomer(r)
	if !ok {
		jsonutil.Unauthorized(w, "Sign in required")
		return
	}

	var projects []models.Project
	if customer.CanViewAllProjects {
		var err error
		projects, err = h.projectStore.ListByCustomer(r.Context(), customer.CustomerID())
		if err != nil {
			h.errLog.Log(r, "failed to list projects", err)
			jsonutil.InternalError(w, "Internal server error")
			return
		}
	} else {
		projectID, err := primitive.ObjectIDFromHex(customer.LoggedInProjectID)
		if err != nil {
			jsonutil.Forbidden(w, "Access denied")
			return
		}
		project, err := h.projectStore.GetByID(r.Context(), projectID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				jsonutil.OK(w, []projectResponse{})
				return
			}
			h.errLog.Log(r, "failed to load project", err)
			jsonutil.InternalError(w, "Internal server error")
			return
		}
		if project.IsOwnedBy(customer.CustomerID()) && project.IsEnabled() {
			projects = []models.Project{*project}
		}
	}

	out := make([]projectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}
	jsonutil.OK(w, out)
}

// handleGet returns one project.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	project, _, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, toProjectResponse(project))
}

// handleFolders returns the folder tree for a project: the built-in taxonomy
// with per-project display names applied, the project's custom folders, and
// per-folder unread counts.
func (h *Handler) handleFolders(w http.ResponseWriter, r *http.Request) {
	project, customer, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	counts, err := h.counter.ForProject(r.Context(), project, customer.CustomerID())
	if err != nil {
		h.errLog.Log(r, "failed to aggregate unread counts", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	tree := make([]folderView, 0, len(folders.Builtin())+len(project.CustomFolders))
	for _, f := range folders.Builtin() {
		node := folderView{
			Name:          project.DisplayNameFor(f.Path, f.Name),
			Path:          f.Path,
			Unread:        counts.TopLevel[f.Path],
			AllowsUploads: folders.AllowsUploads(f.Path),
			IsReport:      folders.IsReportFolder(f.Path),
		}
		for _, c := range f.Children {
			node.Children = append(node.Children, folderView{
				Name:          project.DisplayNameFor(c.Path, c.Name),
				Path:          c.Path,
				Unread:        counts.Folders[c.Path],
				AllowsUploads: folders.AllowsUploads(c.Path),
				IsReport:      folders.IsReportFolder(c.Path),
			})
		}
		tree = append(tree, node)
	}

	for _, path := range project.CustomFolders {
		if !folders.IsCustom(path) {
			continue
		}
		tree = append(tree, folderView{
			Name:          project.DisplayNameFor(path, customFolderName(path)),
			Path:          path,
			Unread:        counts.Folders[path],
			AllowsUploads: true,
			Subtitle:      project.CustomFolderSubtitles[path],
			ImageURL:      project.CustomFolderImages[path],
		})
	}

	jsonutil.OK(w, map[string]any{
		"project_id":   project.ID.Hex(),
		"folders":      tree,
		"unread_total": counts.Total,
	})
}

// handleAddFolder appends a customer-created folder to the project. Folders
// are append-only: the portal never removes them.
func (h *Handler) handleAddFolder(w http.ResponseWriter, r *http.Request) {
	project, _, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var in struct {
		Name     string `json:"name"`
		Subtitle string `json:"subtitle"`
		ImageURL string `json:"image_url"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		jsonutil.BadRequest(w, "Folder name is required")
		return
	}

	path := folders.CustomPrefix + sanitizeFolderName(in.Name)
	if err := h.projectStore.AddCustomFolder(r.Context(), project.ID, path, in.Subtitle, in.ImageURL); err != nil {
		if errors.Is(err, projectstore.ErrInvalidCustomFolder) {
			jsonutil.BadRequest(w, "Folder name is not usable")
			return
		}
		h.errLog.Log(r, "failed to add custom folder", err)
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	// Keep the name the customer typed as the display name; the path is the
	// sanitized form.
	if err := h.projectStore.SetFolderDisplayName(r.Context(), project.ID, path, in.Name); err != nil {
		h.errLog.Log(r, "failed to store folder display name", err)
	}

	h.logger.Info("custom folder added",
		zap.String("project_id", project.ID.Hex()),
		zap.String("path", path))

	jsonutil.Created(w, folderView{
		Name:          in.Name,
		Path:          path,
		AllowsUploads: true,
		Subtitle:      in.Subtitle,
		ImageURL:      in.ImageURL,
	})
}

var folderNameStrip = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// sanitizeFolderName turns a display name into a path segment: whitespace
// becomes underscores, everything outside alphanumerics/./_/- is dropped.
func sanitizeFolderName(name string) string {
	s := strings.Join(strings.Fields(name), "_")
	return folderNameStrip.ReplaceAllString(s, "")
}

// customFolderName derives a display fallback from a custom folder path.
func customFolderName(path string) string {
	name := strings.TrimPrefix(folders.TopLevel(path), folders.CustomPrefix)
	return strings.ReplaceAll(name, "_", " ")
}
