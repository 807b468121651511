package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"docwindow/internal/cache"
	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/model"
	"docwindow/internal/window/sqlbind"
)

const (
	descriptorCacheSize = 256
	descriptorCacheTTL  = 1 * time.Hour
)

// Provider serves compiled entity descriptors for windows. Definitions live
// as one YAML file per window (<window_id>.yaml) in a directory; compiled
// descriptors are cached until invalidated or expired.
type Provider struct {
	dir         string
	access      sqlbind.AccessSQLWrapper
	descriptors *cache.LoadingCache[datatypes.WindowID, *model.EntityDescriptor]
}

func NewProvider(dir string, access sqlbind.AccessSQLWrapper) *Provider {
	p := &Provider{dir: dir, access: access}
	p.descriptors = cache.NewLoadingCache(descriptorCacheSize, descriptorCacheTTL, p.load)
	return p
}

// WindowDescriptor returns the compiled root entity descriptor of a window.
func (p *Provider) WindowDescriptor(windowID datatypes.WindowID) (*model.EntityDescriptor, error) {
	if windowID.IsEmpty() {
		return nil, fmt.Errorf("%w: empty window id", domain.ErrValidation)
	}
	return p.descriptors.Get(windowID)
}

func (p *Provider) load(windowID datatypes.WindowID) (*model.EntityDescriptor, error) {
	path := filepath.Join(p.dir, windowID.String()+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no definition for window %s", domain.ErrNotFound, windowID)
		}
		return nil, fmt.Errorf("reading window definition %s: %w", path, err)
	}

	var def WindowDef
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parsing window definition %s: %w", path, err)
	}
	if def.WindowID != windowID.String() {
		return nil, fmt.Errorf("%w: file %s declares window_id %q", domain.ErrValidation, path, def.WindowID)
	}

	return Compile(def, p.access)
}

// ListWindowIDs returns the ids of all defined windows, sorted.
func (p *Provider) ListWindowIDs() ([]datatypes.WindowID, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("listing window definitions in %s: %w", p.dir, err)
	}
	var ids []datatypes.WindowID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		ids = append(ids, datatypes.WindowID(strings.TrimSuffix(entry.Name(), ".yaml")))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// InvalidateWindow drops one window's compiled descriptor so the next access
// recompiles from the definition file.
func (p *Provider) InvalidateWindow(windowID datatypes.WindowID) {
	p.descriptors.Invalidate(windowID)
}

// InvalidateAll drops every compiled descriptor.
func (p *Provider) InvalidateAll() {
	p.descriptors.InvalidateAll()
}
