package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PGStorage stores sales in the PostgreSQL "sales" table.
type PGStorage struct {
	DB *sqlx.DB
}

// NewPGStorage creates a PostgreSQL-backed Storage.
func NewPGStorage(db *sqlx.DB) *PGStorage {
	return &PGStorage{DB: db}
}

const saleColumns = `id, owner_id, product_name, quantity, unit_value, occurred_at, updated_at, version`

// Set inserts the sale or updates its editable columns. owner_id and
// occurred_at are left out of the conflict update so they never change.
func (r *PGStorage) Set(ctx context.Context, sale *Sale) error {
	if sale.ID == "" {
		return ErrEmptyID
	}
	query := `
        INSERT INTO sales (` + saleColumns + `)
        VALUES (:id, :owner_id, :product_name, :quantity, :unit_value, :occurred_at, :updated_at, :version)
        ON CONFLICT (id) DO UPDATE SET
            product_name = EXCLUDED.product_name,
            quantity = EXCLUDED.quantity,
            unit_value = EXCLUDED.unit_value,
            updated_at = EXCLUDED.updated_at,
            version = EXCLUDED.version
    `
	if _, err := r.DB.NamedExecContext(ctx, query, sale); err != nil {
		return fmt.Errorf("upsert sale %s: %w", sale.ID, err)
	}
	return nil
}

func (r *PGStorage) Read(ctx context.Context, ownerID, id string) (*Sale, error) {
	var sale Sale
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 AND owner_id = $2 LIMIT 1`
	if err := r.DB.GetContext(ctx, &sale, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read sale %s: %w", id, err)
	}
	return &sale, nil
}

func (r *PGStorage) List(ctx context.Context, ownerID string, rng Range) ([]*Sale, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	if rng.From != nil {
		args = append(args, *rng.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY occurred_at ASC, id ASC`

	sales := []*Sale{}
	if err := r.DB.SelectContext(ctx, &sales, query, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

func (r *PGStorage) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM sales WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete sale %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sale %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGStorage) ClaimUnowned(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE sales SET owner_id = $1 WHERE owner_id IS NULL OR owner_id = ''`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("claim unowned sales: %w", err)
	}
	return res.RowsAffected()
}
