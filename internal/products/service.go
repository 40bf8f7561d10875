package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service manages an owner's catalogue.
type Service struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{storage: storage, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateProduct validates in and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, ownerID string, in ProductInput) (*Product, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	name, err := validateProduct(in.Name, in.Price, in.Stock)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Product{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Price:     in.Price,
		Stock:     in.Stock,
		Barcode:   normalizeBarcode(in.Barcode),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storage.Set(ctx, p); err != nil {
		s.logger.Error("failed to save product", zap.String("product_id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	s.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, ownerID, id string) (*Product, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	return s.storage.Read(ctx, ownerID, id)
}

// ListProducts returns the catalogue ordered by name, filtered by a
// case-insensitive name search when query is not blank.
func (s *Service) ListProducts(ctx context.Context, ownerID, query string) ([]*Product, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	products, err := s.storage.List(ctx, ownerID, strings.TrimSpace(query))
	if err != nil {
		s.logger.Error("failed to list products", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

func (s *Service) UpdateProduct(ctx context.Context, ownerID, id string, patch ProductPatch) (*Product, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	p, err := s.storage.Read(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Barcode != nil {
		p.Barcode = normalizeBarcode(*patch.Barcode)
	}
	if p.Name, err = validateProduct(p.Name, p.Price, p.Stock); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()

	if err := s.storage.Set(ctx, p); err != nil {
		s.logger.Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.logger.Info("product updated", zap.String("product_id", id))
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, ownerID, id string) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// ClaimUnowned assigns products created before ownership existed to ownerID.
func (s *Service) ClaimUnowned(ctx context.Context, ownerID string) (int64, error) {
	if err := validateOwner(ownerID); err != nil {
		return 0, err
	}
	n, err := s.storage.ClaimUnowned(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to claim products: %w", err)
	}
	if n > 0 {
		s.logger.Info("unowned products claimed", zap.String("owner_id", ownerID), zap.Int64("count", n))
	}
	return n, nil
}

// maxPrice is the exclusive upper bound of a NUMERIC(12, 2) column.
var maxPrice = decimal.New(1, 10)

func validateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalid("owner_id", "must not be empty")
	}
	return nil
}

func validateProduct(name string, price decimal.Decimal, stock int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "must not be empty")
	}
	if price.IsNegative() {
		return "", invalid("price", "must not be negative")
	}
	if !price.Equal(price.Truncate(2)) {
		return "", invalid("price", "must have at most 2 decimal places")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return "", invalid("price", "must be less than 10000000000")
	}
	if stock < 0 {
		return "", invalid("stock", "must not be negative")
	}
	return name, nil
}

func normalizeBarcode(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}
