// internal/repository/postgres/staff_repo.go
package postgres

import (
	"context"
	"fmt"

	"aquaflow-service/internal/domain/staff"
	xerrors "aquaflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type StaffRepository struct {
	db *pgxpool.Pool
}

func NewStaffRepository(db *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, email, password_hash, full_name, phone, roles, is_active, created_at, updated_at`

func scanStaff(row pgx.Row) (*staff.Account, error) {
	var a staff.Account
	var roles []string
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Phone,
		pq.Array(&roles), &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("staff account: %w", xerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff account: %w", err)
	}
	a.Roles = roles
	return &a, nil
}

// Create inserts a new staff account.
func (r *StaffRepository) Create(ctx context.Context, a *staff.Account) error {
	query := `
		INSERT INTO staff_accounts (email, password_hash, full_name, phone, roles, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		a.Email, a.PasswordHash, a.FullName, a.Phone, pq.Array(a.Roles), a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("staff email %s: %w", a.Email, xerrors.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create staff account: %w", err)
	}
	return nil
}

// FindByEmail retrieves an account by email.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*staff.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_accounts WHERE email = $1`, staffColumns)
	return scanStaff(r.db.QueryRow(ctx, query, email))
}

// FindByID retrieves an account by ID.
func (r *StaffRepository) FindByID(ctx context.Context, id int64) (*staff.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_accounts WHERE id = $1`, staffColumns)
	return scanStaff(r.db.QueryRow(ctx, query, id))
}

// FindIDsByRole returns the ids of every active account holding a role.
// Notification fan-out queries this fresh per event so membership changes
// take effect immediately.
func (r *StaffRepository) FindIDsByRole(ctx context.Context, role string) ([]int64, error) {
	query := `
		SELECT id FROM staff_accounts
		WHERE is_active = true AND $1 = ANY(roles)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to find staff by role: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan staff id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
