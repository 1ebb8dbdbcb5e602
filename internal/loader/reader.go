// Package loader discovers GTS entities in JSON and YAML files on
// disk and feeds them into the store.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gts-labs/gts/pkg/entity"
)

// Directories skipped during discovery.
var excludeDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

var validExtensions = map[string]bool{
	".json":  true,
	".jsonc": true,
	".gts":   true,
	".yaml":  true,
	".yml":   true,
}

// FileReader reads entities from JSON and YAML files under one or
// more paths. It satisfies store.Reader; ReadByID always misses since
// files give no random access.
type FileReader struct {
	paths  []string
	config *entity.Config
	logger *slog.Logger
}

// NewFileReader builds a reader over files or directories. A nil
// config falls back to the default identifier fields.
func NewFileReader(paths []string, cfg *entity.Config, logger *slog.Logger) *FileReader {
	if cfg == nil {
		cfg = entity.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	expanded := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded = append(expanded, expandHome(p))
	}
	return &FileReader{paths: expanded, config: cfg, logger: logger}
}

// Paths returns the configured root paths.
func (r *FileReader) Paths() []string { return r.paths }

// Entities walks every configured path and parses all discovered
// files. Unparseable files are skipped, not fatal.
func (r *FileReader) Entities() ([]*entity.Entity, error) {
	files, err := r.collectFiles()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("processing discovered files", "count", len(files))

	var out []*entity.Entity
	for _, path := range files {
		out = append(out, r.processFile(path)...)
	}
	return out, nil
}

// ReadByID always reports a miss.
func (r *FileReader) ReadByID(string) (*entity.Entity, bool) {
	return nil, false
}

// collectFiles gathers candidate files from all paths, following
// symlinks and deduplicating by resolved path.
func (r *FileReader) collectFiles() ([]string, error) {
	seen := map[string]bool{}
	var collected []string

	add := func(path string) {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		r.logger.Debug("discovered file", "path", path)
		collected = append(collected, resolved)
	}

	for _, root := range r.paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("read path %s: %w", root, err)
		}
		if !info.IsDir() {
			if validExtensions[strings.ToLower(filepath.Ext(root))] {
				add(root)
			}
			continue
		}
		if err := walkFollowingSymlinks(root, seen, func(path string) {
			if validExtensions[strings.ToLower(filepath.Ext(path))] {
				add(path)
			}
		}); err != nil {
			return nil, err
		}
	}
	return collected, nil
}

// walkFollowingSymlinks walks dir recursively. Unlike filepath.WalkDir
// it descends into directory symlinks; visited keeps it from looping.
func walkFollowingSymlinks(dir string, visited map[string]bool, fn func(path string)) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err == nil {
		if visited["dir:"+resolved] {
			return nil
		}
		visited["dir:"+resolved] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			// Broken symlink or the file went away mid-walk.
			continue
		}
		if info.IsDir() {
			if excludeDirs[name] {
				continue
			}
			if err := walkFollowingSymlinks(path, visited, fn); err != nil {
				return err
			}
			continue
		}
		fn(path)
	}
	return nil
}

// processFile parses one file and turns its content into entities.
// Top-level arrays yield one entity per element, tracked by sequence.
func (r *FileReader) processFile(path string) []*entity.Entity {
	content, err := loadFile(path)
	if err != nil {
		r.logger.Debug("skipping unparseable file", "path", path, "error", err)
		return nil
	}

	f := entity.NewFile(path, filepath.Base(path), content)

	var out []*entity.Entity
	if list, ok := content.([]any); ok {
		for i, item := range list {
			seq := i
			e := entity.New(entity.Params{
				File:         f,
				ListSequence: &seq,
				Content:      item,
				Config:       r.config,
			})
			if e.ID != nil {
				r.logger.Debug("discovered entity", "id", e.ID.String())
				out = append(out, e)
			}
		}
		return out
	}

	e := entity.New(entity.Params{File: f, Content: content, Config: r.config})
	if e.ID != nil {
		r.logger.Debug("discovered entity", "id", e.ID.String())
		out = append(out, e)
	}
	return out
}

func loadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var content any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, err
		}
	}
	return normalizeYAML(content), nil
}

// normalizeYAML rewrites map[any]any trees from the YAML decoder into
// map[string]any so entity and schema code sees one shape.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
