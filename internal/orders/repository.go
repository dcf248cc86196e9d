package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Order is a row this service writes into the ERP's pedidos table.
type Order struct {
	ID              uuid.UUID
	CustomerID      *string
	Total           float64
	PaymentMethod   string
	Status          string
	SalesChannel    string
	DeliveryAddress string
	Notes           string
}

// Item is the order's single line item, created atomically with its parent.
type Item struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   float64
}

// ContactEvent logs an inbound WhatsApp contact for the caller-ID screen.
// It is written for every processed message, independent of order extraction.
type ContactEvent struct {
	Phone        string
	CustomerID   *string
	CustomerName string
	Channel      string
	Status       string
}

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository writes orders, line items and contact events.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("orders: db required")
	}
	return &Repository{db: db}
}

// CreateOrder inserts the order and its line item in one transaction, so a
// failure of either leaves no orphaned order behind.
func (r *Repository) CreateOrder(ctx context.Context, order Order, item Item) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("orders: begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()

	_, err = tx.Exec(ctx, `
		INSERT INTO pedidos (
			id, cliente_id, valor_total, forma_pagamento, status,
			canal_venda, endereco_entrega, observacoes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.ID, order.CustomerID, order.Total, order.PaymentMethod, order.Status,
		order.SalesChannel, order.DeliveryAddress, order.Notes, now)
	if err != nil {
		return fmt.Errorf("orders: insert order failed: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pedido_itens (
			id, pedido_id, produto_id, produto_nome, quantidade, preco_unitario, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, now)
	if err != nil {
		return fmt.Errorf("orders: insert item failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("orders: commit failed: %w", err)
	}
	return nil
}

// LogContactEvent records the inbound contact. Best-effort: callers log the
// error and move on, this write never gates the reply.
func (r *Repository) LogContactEvent(ctx context.Context, event ContactEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contatos_recebidos (
			id, telefone, cliente_id, cliente_nome, canal, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), event.Phone, event.CustomerID, event.CustomerName, event.Channel, event.Status, time.Now())
	if err != nil {
		return fmt.Errorf("orders: insert contact event failed: %w", err)
	}
	return nil
}
