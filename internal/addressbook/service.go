package addressbook

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

// Service applies actions to stored customers.
type Service struct {
	customers store.Customers
	now       func() time.Time
	newID     func() string
}

func NewService(customers store.Customers) *Service {
	return &Service{
		customers: customers,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// List returns the book and its default for the customer with phone.
func (s *Service) List(ctx context.Context, phone string) ([]models.Address, *models.Address, error) {
	customer, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, nil, err
	}
	book := customer.Addresses
	if book == nil {
		book = []models.Address{}
	}
	return book, Default(book), nil
}

// Apply loads the customer, applies a and writes addresses and
// defaultAddress together. A concurrent writer surfaces as
// store.ErrConflict.
func (s *Service) Apply(ctx context.Context, phone string, a Action) (*models.Customer, error) {
	customer, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	book, err := Apply(customer.Addresses, a, s.newID)
	if err != nil {
		return nil, err
	}

	updated, err := s.customers.SaveAddresses(ctx, customer.ID, book, Default(book), customer.Version, s.now())
	if err != nil {
		return nil, err
	}
	log.Printf("[ADDRESS] [INFO] %s applied for customer %s (%d addresses)", Name(a), customer.ID, len(book))
	return updated, nil
}
