package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Product is the slice of the ERP product record this service consumes.
type Product struct {
	ID    string
	Name  string
	Price float64
	Stock int
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the externally-owned product catalog.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("catalog: db required")
	}
	return &Repository{db: db}
}

// ListAvailable returns active, in-stock products ordered by name. Only these
// are eligible for the model's grounding context and for order resolution.
func (r *Repository) ListAvailable(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 15
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, nome, preco, estoque
		FROM produtos
		WHERE ativo = true AND estoque > 0
		ORDER BY nome
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list failed: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			continue
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list scan failed: %w", err)
	}
	return products, nil
}

// Resolve matches an extracted product name against the catalog with a
// case- and accent-insensitive substring check in both directions; first
// match wins. "gas p13" and "P13" both resolve a product named "Gás P13".
func Resolve(products []Product, name string) (*Product, bool) {
	needle := normalizeName(name)
	if needle == "" {
		return nil, false
	}
	for i := range products {
		candidate := normalizeName(products[i].Name)
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return &products[i], true
		}
	}
	return nil, false
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "õ", "o", "ô", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

func normalizeName(name string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(name)))
}
