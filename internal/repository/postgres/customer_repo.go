// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"fmt"

	"aquaflow-service/internal/domain/customer"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, full_name, phone, email, address, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("customer: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return &c, nil
}

// Create registers a customer.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (full_name, phone, email, address, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, c.FullName, c.Phone, c.Email, c.Address, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("customer phone %s: %w", c.Phone, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// FindByID retrieves a customer by ID.
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)
	return scanCustomer(r.db.QueryRow(ctx, query, id))
}

// FindByPhone retrieves a customer by phone.
func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE phone = $1`, customerColumns)
	return scanCustomer(r.db.QueryRow(ctx, query, phone))
}
