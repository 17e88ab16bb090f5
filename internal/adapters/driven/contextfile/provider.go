// Package contextfile provides a ContextProvider that reads project
// snapshots exported by the tracker synchronisation job.
//
// Snapshots live under a root directory, one file per project and period:
//
//	<root>/<projectID>/<YYYY-MM>.yaml   (also .yml or .json)
//
// YAML and JSON share one decoder, so either format may be used.
package contextfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.ContextProvider = (*Provider)(nil)

// extensions are tried in order.
var extensions = []string{".yaml", ".yml", ".json"}

// Provider reads snapshots from a directory tree.
type Provider struct {
	root string
}

// New creates a provider rooted at dir.
func New(dir string) *Provider {
	return &Provider{root: dir}
}

// Root returns the snapshot directory.
func (p *Provider) Root() string {
	return p.root
}

// BuildContext loads the snapshot of projectID for periodKey.
//
// Identity fields missing from the file are filled from the arguments;
// identity fields that disagree with them make the snapshot invalid.
func (p *Provider) BuildContext(ctx context.Context, projectID, periodKey string) (*domain.GenerationContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkProjectID(projectID); err != nil {
		return nil, err
	}
	if !domain.ValidPeriodKey(periodKey) {
		return nil, fmt.Errorf("%w: period key %q is not YYYY-MM", domain.ErrInvalidInput, periodKey)
	}

	path, err := p.find(projectID, periodKey)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var gctx domain.GenerationContext
	if err := yaml.Unmarshal(data, &gctx); err != nil {
		return nil, &domain.ContextError{Problems: []string{
			fmt.Sprintf("%s: %s", filepath.Base(path), strings.TrimSpace(err.Error())),
		}}
	}

	var problems []string
	if gctx.ProjectID == "" {
		gctx.ProjectID = projectID
	} else if gctx.ProjectID != projectID {
		problems = append(problems, fmt.Sprintf("snapshot is for project %q, not %q", gctx.ProjectID, projectID))
	}
	if gctx.PeriodKey == "" {
		gctx.PeriodKey = periodKey
	} else if gctx.PeriodKey != periodKey {
		problems = append(problems, fmt.Sprintf("snapshot is for period %q, not %q", gctx.PeriodKey, periodKey))
	}
	if len(problems) > 0 {
		return nil, &domain.ContextError{Problems: problems}
	}

	logger.Debug("contextfile: loaded %s (%d work items, %d sprints)", path, len(gctx.WorkItems), len(gctx.Sprints))
	return &gctx, nil
}

// Periods lists the period keys with a snapshot for projectID, oldest first.
func (p *Provider) Periods(projectID string) ([]string, error) {
	if err := checkProjectID(projectID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(p.root, projectID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	seen := make(map[string]bool)
	var periods []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		key := strings.TrimSuffix(e.Name(), ext)
		if !isSnapshotExt(ext) || !domain.ValidPeriodKey(key) || seen[key] {
			continue
		}
		seen[key] = true
		periods = append(periods, key)
	}
	sort.Strings(periods)
	return periods, nil
}

// Write stores gctx as YAML at its canonical path, replacing any snapshot
// of the same project and period in another format.
func (p *Provider) Write(gctx *domain.GenerationContext) (string, error) {
	if err := gctx.Validate(); err != nil {
		return "", err
	}
	if err := checkProjectID(gctx.ProjectID); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(gctx)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Join(p.root, gctx.ProjectID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	for _, ext := range extensions[1:] {
		_ = os.Remove(filepath.Join(dir, gctx.PeriodKey+ext))
	}

	path := filepath.Join(dir, gctx.PeriodKey+extensions[0])
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

func (p *Provider) find(projectID, periodKey string) (string, error) {
	for _, ext := range extensions {
		path := filepath.Join(p.root, projectID, periodKey+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("snapshot %s/%s: %w", projectID, periodKey, domain.ErrNotFound)
}

// checkProjectID rejects ids that would escape the snapshot root.
func checkProjectID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: project id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

func isSnapshotExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
