package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/storage"
)

type ProjectHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewProjectHandler(log *slog.Logger, storage storage.Storage) *ProjectHandler {
	return &ProjectHandler{
		log:     log,
		storage: storage,
	}
}

// List handles GET /v1/projects and maps project titles to filenames.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.storage.ListProjects(r.Context())
	if err != nil {
		h.log.Error("Failed to list projects", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	writeJSON(w, h.log, http.StatusOK, projects)
}

// Get handles GET /v1/projects/{file} and returns the normalized project.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimSpace(r.PathValue("file"))
	if filename == "" {
		writeError(w, h.log, http.StatusBadRequest, "filename is required in URL path (e.g., /v1/projects/lighthouse.json)")
		return
	}
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid filename")
		return
	}

	p, err := h.storage.GetProject(r.Context(), filename)
	if err != nil {
		h.log.Debug("Failed to get project", "error", err, "filename", filename)
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, p)
}
