package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/scene-engine/pkg/normalize"
	"github.com/jwebster45206/scene-engine/pkg/project"
	"github.com/jwebster45206/scene-engine/pkg/storage"
)

// Project operations (filesystem-backed)

func (r *RedisStorage) projectsDir() string {
	return filepath.Join(r.dataDir, "projects")
}

func (r *RedisStorage) ListProjects(ctx context.Context) (map[string]string, error) {
	projects := make(map[string]string)

	err := filepath.WalkDir(r.projectsDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isProjectFile(path) {
			return nil
		}

		p, err := loadProjectFile(path)
		if err != nil {
			r.logger.Warn("Failed to load project file", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(r.projectsDir(), path)
		if err != nil {
			rel = filepath.Base(path)
		}
		title := p.Title
		if title == "" {
			title = rel
		}
		projects[title] = filepath.ToSlash(rel)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk projects directory", "error", err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (r *RedisStorage) GetProject(ctx context.Context, filename string) (*project.Project, error) {
	if !isProjectFile(filename) || !filepath.IsLocal(filename) {
		return nil, fmt.Errorf("%w: %s", storage.ErrProjectNotFound, filename)
	}
	path := filepath.Join(r.projectsDir(), filename)
	r.logger.Debug("Loading project", "filename", filename, "full_path", path, "data_dir", r.dataDir)

	p, err := loadProjectFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrProjectNotFound, filename)
		}
		return nil, err
	}
	return p, nil
}

func isProjectFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// loadProjectFile reads and normalizes a project document, picking the
// decoder from the file extension.
func loadProjectFile(path string) (*project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return normalize.Decode(data)
	}
	return normalize.DecodeYAML(data)
}
