package route

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// YAMLRepository loads route definitions from YAML files in a directory at
// construction time and serves them from memory. Files are never re-read;
// route authoring changes require a restart.
type YAMLRepository struct {
	mu     sync.RWMutex
	routes map[string]*Definition
}

// routeFile is the on-disk document shape. A file may hold one route or a
// list of routes under a top-level key.
type routeFile struct {
	Routes []Definition `yaml:"routes"`
}

// NewYAMLRepository loads all .yaml and .yml files under dir.
func NewYAMLRepository(dir string) (*YAMLRepository, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading route directory: %w", err)
	}

	routes := make(map[string]*Definition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		defs, err := loadRouteFile(path)
		if err != nil {
			return nil, err
		}

		for _, def := range defs {
			if _, exists := routes[def.ID]; exists {
				return nil, fmt.Errorf("duplicate route id %q in %s", def.ID, path)
			}
			routes[def.ID] = def
		}
	}

	return &YAMLRepository{routes: routes}, nil
}

func loadRouteFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading route file %s: %w", path, err)
	}

	var file routeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing route file %s: %w", path, err)
	}

	defs := make([]*Definition, 0, len(file.Routes))
	for i := range file.Routes {
		def := file.Routes[i]
		if err := validateDefinition(&def); err != nil {
			return nil, fmt.Errorf("route file %s: %w", path, err)
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

func validateDefinition(def *Definition) error {
	if def.ID == "" {
		return fmt.Errorf("route is missing an id")
	}
	if def.Name == "" {
		return fmt.Errorf("route %q is missing a name", def.ID)
	}
	if len(def.PandalSequence) == 0 {
		return fmt.Errorf("route %q has an empty pandal sequence", def.ID)
	}
	if len(def.Segments) > 0 && len(def.Segments) != len(def.PandalSequence) {
		return fmt.Errorf("route %q has %d segments for %d stops; want one leg per stop",
			def.ID, len(def.Segments), len(def.PandalSequence))
	}
	return nil
}

// Get retrieves a route definition by ID.
func (r *YAMLRepository) Get(_ context.Context, id string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.routes[id]
	if !ok {
		return nil, ErrRouteNotFound
	}

	cpy := *def
	return &cpy, nil
}

// List retrieves all route definitions, ordered by ID.
func (r *YAMLRepository) List(_ context.Context) ([]*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, 0, len(r.routes))
	for _, def := range r.routes {
		cpy := *def
		out = append(out, &cpy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Ensure YAMLRepository implements Repository interface.
var _ Repository = (*YAMLRepository)(nil)
