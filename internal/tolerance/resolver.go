// Package tolerance loads the ISO tolerance-fit table and resolves fit
// classes to deviation bands.
//
// The table is a side-car JSON file (tolerances.json) with one object per
// fit-class/size-range row. The tool is unusable without it, so a missing or
// malformed table at startup is fatal to the caller; a lookup that matches no
// row is a normal "no data" result, not an error.
package tolerance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"messprotokoll/internal/domain"
)

// TableFile is the expected file name inside the data directory.
const TableFile = "tolerances.json"

// Deviations is a resolved tolerance band in millimeters.
type Deviations struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// Resolver answers fit-class lookups against the loaded tolerance table.
// It is safe for concurrent use; Reload swaps the table atomically.
type Resolver struct {
	path string

	mu      sync.RWMutex
	entries []domain.ToleranceEntry
}

// Load reads the tolerance table from dataDir and returns a ready resolver.
func Load(dataDir string) (*Resolver, error) {
	r := &Resolver{path: filepath.Join(dataDir, TableFile)}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the table from disk. On failure the previous table stays
// in effect.
func (r *Resolver) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read tolerance table: %w", err)
	}

	var entries []domain.ToleranceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse tolerance table %s: %w", r.path, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("tolerance table %s contains no entries", r.path)
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return nil
}

// Path returns the table file location, for watching.
func (r *Resolver) Path() string {
	return r.path
}

// Len returns the number of loaded table rows.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Resolve looks up the deviation band for a nominal size and fit label.
// Rows are scanned in table order and the first match wins; the label match
// is case-insensitive and the size range test is lower < size <= upper.
// The second return value is false when no row matches.
func (r *Resolver) Resolve(nominal float64, fit string) (Deviations, bool) {
	if fit == "" || nominal <= 0 {
		return Deviations{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.Matches(nominal, fit) {
			upper, lower := entry.Deviations()
			return Deviations{Upper: upper, Lower: lower}, true
		}
	}
	return Deviations{}, false
}
