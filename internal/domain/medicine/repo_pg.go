package medicine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/rxengine/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepoPG{pool: pool}
}

func (r *catalogRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// Free-text clinical columns are nullable in the catalog; the engine treats
// NULL and empty text the same way.
const medicineCols = `id, name, generic_name, brand_name, category, type,
	dosage_form, route, strength,
	COALESCE(description, ''), COALESCE(indications, ''), COALESCE(contraindications, ''),
	COALESCE(side_effects, ''), COALESCE(interactions, ''), COALESCE(dosage, ''),
	storage, is_prescription, is_controlled, is_active, updated_at`

func (r *catalogRepoPG) scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.BrandName, &m.Category, &m.Type,
		&m.DosageForm, &m.Route, &m.Strength,
		&m.Description, &m.Indications, &m.Contraindications,
		&m.SideEffects, &m.Interactions, &m.Dosage,
		&m.Storage, &m.IsPrescription, &m.IsControlled, &m.IsActive, &m.UpdatedAt)
	return &m, err
}

func (r *catalogRepoPG) ListActive(ctx context.Context) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medicineCols+` FROM medicine WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query active medicines: %w", err)
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := r.scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medicines: %w", err)
	}
	return items, nil
}
