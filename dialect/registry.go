package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"

	"github.com/getpup/pupmigrate"
)

// Registry holds the dialects known to a migration run.
// It is not safe for concurrent mutation.
type Registry struct {
	dialects map[string]Dialect
}

// NewRegistry creates a registry holding the given dialects.
func NewRegistry(dialects ...Dialect) *Registry {
	r := &Registry{dialects: make(map[string]Dialect)}
	for _, d := range dialects {
		r.Register(d)
	}
	return r
}

// Register adds d unless a dialect with the same short name is already present.
// It reports whether d was added.
func (r *Registry) Register(d Dialect) bool {
	if d == nil {
		return false
	}
	if _, ok := r.dialects[d.ShortName()]; ok {
		return false
	}
	r.dialects[d.ShortName()] = d
	return true
}

// Get returns the dialect registered under shortName, or nil.
func (r *Registry) Get(shortName string) Dialect {
	return r.dialects[shortName]
}

// Lookup is like Get but returns ErrDialectNotFound for unknown names.
func (r *Registry) Lookup(shortName string) (Dialect, error) {
	d := r.Get(shortName)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", pupmigrate.ErrDialectNotFound, shortName)
	}
	return d, nil
}

// Implemented returns every registered dialect, highest priority first,
// ties broken by short name.
func (r *Registry) Implemented() []Dialect {
	out := make([]Dialect, 0, len(r.dialects))
	for _, d := range r.dialects {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() > out[j].Priority()
		}
		return out[i].ShortName() < out[j].ShortName()
	})
	return out
}

// Packages returns the sorted Go package paths that provide the registered dialects.
func (r *Registry) Packages() []string {
	var pkgs []string
	for _, d := range r.dialects {
		pkgs = append(pkgs, pupmigrate.PackageOf(d))
	}
	slices.Sort(pkgs)
	return slices.Compact(pkgs)
}

// FindCorrect verifies the connection and resolves the dialect for it.
// Connections no registered dialect supports resolve to Unsupported.
func (r *Registry) FindCorrect(ctx context.Context, db *sql.DB) (*Database, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	drv := db.Driver()
	for _, d := range r.Implemented() {
		if d.Supports(drv) {
			return &Database{Dialect: d, DB: db}, nil
		}
	}

	return &Database{Dialect: Unsupported{Driver: drv}, DB: db}, nil
}
