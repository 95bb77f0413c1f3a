package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/friluft/booking-server/internal/model"
)

// Ledger table names are interpolated into SQL, so the registry refuses
// anything that is not a plain lower-case identifier.
var ledgerTablePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry is the validated, immutable set of bookable resources.  It is
// loaded once at startup from the resources table and shared read-only by
// every request handler; request input never selects a ledger table name
// directly.
type Registry struct {
	bySlug map[string]*model.Resource
	byID   map[uint64]*model.Resource
	order  []*model.Resource
}

// LoadRegistry reads all resources, validates them and returns the
// registry.  A resource with a non-positive maximum or an unsafe ledger
// table name fails the load; the server should not start with a broken
// configuration.
func LoadRegistry(ctx context.Context, db *sql.DB) (*Registry, error) {
	const q = `SELECT id, slug, name, max_quantity, ledger_table FROM resources ORDER BY id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reg := &Registry{
		bySlug: make(map[string]*model.Resource),
		byID:   make(map[uint64]*model.Resource),
	}
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.Slug, &res.Name, &res.MaxQuantity, &res.LedgerTable); err != nil {
			return nil, err
		}
		if res.MaxQuantity <= 0 {
			return nil, fmt.Errorf("resource %q has non-positive max_quantity %d", res.Slug, res.MaxQuantity)
		}
		if !ledgerTablePattern.MatchString(res.LedgerTable) {
			return nil, fmt.Errorf("resource %q has unsafe ledger table name %q", res.Slug, res.LedgerTable)
		}
		if _, dup := reg.bySlug[res.Slug]; dup {
			return nil, fmt.Errorf("duplicate resource slug %q", res.Slug)
		}
		r := res
		reg.bySlug[r.Slug] = &r
		reg.byID[r.ID] = &r
		reg.order = append(reg.order, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reg, nil
}

// BySlug returns the resource with the given slug, or ErrNotFound.
func (r *Registry) BySlug(slug string) (*model.Resource, error) {
	res, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

// ByID returns the resource with the given id, or ErrNotFound.
func (r *Registry) ByID(id uint64) (*model.Resource, error) {
	res, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

// All returns the resources in configuration order.  The returned slice
// must not be mutated.
func (r *Registry) All() []*model.Resource {
	return r.order
}

// NewRegistry builds a registry from in-memory resources.  It applies the
// same validation as LoadRegistry and exists so tests and tools can build
// a registry without a database.
func NewRegistry(resources []model.Resource) (*Registry, error) {
	reg := &Registry{
		bySlug: make(map[string]*model.Resource),
		byID:   make(map[uint64]*model.Resource),
	}
	for i := range resources {
		res := resources[i]
		if res.MaxQuantity <= 0 {
			return nil, fmt.Errorf("resource %q has non-positive max_quantity %d", res.Slug, res.MaxQuantity)
		}
		if !ledgerTablePattern.MatchString(res.LedgerTable) {
			return nil, fmt.Errorf("resource %q has unsafe ledger table name %q", res.Slug, res.LedgerTable)
		}
		if _, dup := reg.bySlug[res.Slug]; dup {
			return nil, fmt.Errorf("duplicate resource slug %q", res.Slug)
		}
		reg.bySlug[res.Slug] = &res
		reg.byID[res.ID] = &res
		reg.order = append(reg.order, &res)
	}
	return reg, nil
}
