// internal/service/customer/service.go
package customer

import (
	"context"
	"database/sql"

	"aquaflow-service/internal/domain/customer"

	"go.uber.org/zap"
)

type CustomerRepo interface {
	Create(ctx context.Context, c *customer.Customer) error
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*customer.Customer, error)
}

// Service manages the registered customer directory.
type Service struct {
	customers CustomerRepo
	logger    *zap.Logger
}

func NewService(customers CustomerRepo, logger *zap.Logger) *Service {
	return &Service{customers: customers, logger: logger}
}

func (s *Service) Create(ctx context.Context, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	c := &customer.Customer{
		FullName: req.FullName,
		Phone:    req.Phone,
		IsActive: true,
	}
	if req.Email != "" {
		c.Email = sql.NullString{String: req.Email, Valid: true}
	}
	if req.Address != "" {
		c.Address = sql.NullString{String: req.Address, Valid: true}
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("customer registered", zap.Int64("customer_id", c.ID))
	return c, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*customer.Customer, error) {
	return s.customers.FindByID(ctx, id)
}

func (s *Service) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	return s.customers.FindByPhone(ctx, phone)
}
