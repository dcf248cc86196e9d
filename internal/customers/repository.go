package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Customer is the slice of the ERP customer record this service consumes.
type Customer struct {
	ID      string
	Name    string
	Address string
}

// OrderSummary is one line of a customer's recent order history.
type OrderSummary struct {
	ID     string
	Total  float64
	Status string
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads the externally-owned customer base.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("customers: db required")
	}
	return &Repository{db: db}
}

// FindByPhoneSuffix looks up a customer whose stored phone contains either
// digit suffix. Stored phones are loosely formatted ("+55 (11) 91234-5678"),
// so the column is stripped to digits before the suffix match. Multiple
// matches are possible; the first one wins — there is no disambiguation.
// A miss returns (nil, nil): the conversation simply continues unlinked.
func (r *Repository) FindByPhoneSuffix(ctx context.Context, suffix11, suffix10 string) (*Customer, error) {
	if suffix11 == "" && suffix10 == "" {
		return nil, nil
	}

	row := r.db.QueryRow(ctx, `
		SELECT id, nome, COALESCE(endereco, ''), COALESCE(numero, ''), COALESCE(bairro, '')
		FROM clientes
		WHERE regexp_replace(telefone, '[^0-9]', '', 'g') LIKE '%' || $1 || '%'
		   OR regexp_replace(telefone, '[^0-9]', '', 'g') LIKE '%' || $2 || '%'
		LIMIT 1
	`, suffix11, suffix10)

	var c Customer
	var street, number, neighborhood string
	if err := row.Scan(&c.ID, &c.Name, &street, &number, &neighborhood); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("customers: lookup failed: %w", err)
	}
	c.Address = FormatAddress(street, number, neighborhood)
	return &c, nil
}

// RecentOrders fetches the customer's latest orders, newest first.
func (r *Repository) RecentOrders(ctx context.Context, customerID string, limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, valor_total, status
		FROM pedidos
		WHERE cliente_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("customers: recent orders failed: %w", err)
	}
	defer rows.Close()

	var orders []OrderSummary
	for rows.Next() {
		var o OrderSummary
		if err := rows.Scan(&o.ID, &o.Total, &o.Status); err != nil {
			continue
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customers: recent orders scan failed: %w", err)
	}
	return orders, nil
}

// FormatAddress joins street, number and neighborhood with commas, omitting
// empty components.
func FormatAddress(street, number, neighborhood string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{street, number, neighborhood} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
