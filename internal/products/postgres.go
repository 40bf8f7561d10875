package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PGStorage stores products in the PostgreSQL "products" table.
type PGStorage struct {
	DB *sqlx.DB
}

func NewPGStorage(db *sqlx.DB) *PGStorage {
	return &PGStorage{DB: db}
}

const productColumns = `id, owner_id, name, price, stock, barcode, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PGStorage) Set(ctx context.Context, p *Product) error {
	if p.ID == "" {
		return ErrEmptyID
	}
	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (:id, :owner_id, :name, :price, :stock, :barcode, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            price = EXCLUDED.price,
            stock = EXCLUDED.stock,
            barcode = EXCLUDED.barcode,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *PGStorage) Read(ctx context.Context, ownerID, id string) (*Product, error) {
	var p Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND owner_id = $2 LIMIT 1`
	if err := r.DB.GetContext(ctx, &p, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read product %s: %w", id, err)
	}
	return &p, nil
}

func (r *PGStorage) List(ctx context.Context, ownerID, query string) ([]*Product, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}
	if query != "" {
		args = append(args, "%"+likeEscaper.Replace(query)+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	stmt := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY name ASC, id ASC`

	products := []*Product{}
	if err := r.DB.SelectContext(ctx, &products, stmt, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *PGStorage) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGStorage) ClaimUnowned(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE products SET owner_id = $1 WHERE owner_id IS NULL OR owner_id = ''`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("claim unowned products: %w", err)
	}
	return res.RowsAffected()
}
