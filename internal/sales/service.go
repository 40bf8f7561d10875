package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service provides high-level sales management operations on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to stamp new and edited sales.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateSale validates the input and records a new sale for ownerID.
// The id and occurrence time are assigned here, never by the client.
func (s *Service) CreateSale(ctx context.Context, ownerID string, in SaleInput) (*Sale, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	name, err := validateSale(in.ProductName, in.Quantity, in.UnitValue)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sale := &Sale{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		ProductName: name,
		Quantity:    in.Quantity,
		UnitValue:   in.UnitValue,
		OccurredAt:  now,
		UpdatedAt:   now,
		Version:     1,
	}

	if err := s.storage.Set(ctx, sale); err != nil {
		s.logger.Error("failed to save sale", zap.String("sale_id", sale.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("owner_id", ownerID),
		zap.String("product", sale.ProductName),
		zap.Int("quantity", sale.Quantity),
		zap.String("unit_value", sale.UnitValue.StringFixed(2)),
	)
	return sale, nil
}

// GetSale returns one of the owner's sales.
func (s *Service) GetSale(ctx context.Context, ownerID, id string) (*Sale, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	return s.storage.Read(ctx, ownerID, id)
}

// UpdateSale applies an edit to product name, quantity or unit value.
// OccurredAt is preserved; Version is incremented.
func (s *Service) UpdateSale(ctx context.Context, ownerID, id string, patch SalePatch) (*Sale, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	sale, err := s.storage.Read(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	name, qty, value := sale.ProductName, sale.Quantity, sale.UnitValue
	if patch.ProductName != nil {
		name = *patch.ProductName
	}
	if patch.Quantity != nil {
		qty = *patch.Quantity
	}
	if patch.UnitValue != nil {
		value = *patch.UnitValue
	}
	name, err = validateSale(name, qty, value)
	if err != nil {
		return nil, err
	}

	sale.ProductName = name
	sale.Quantity = qty
	sale.UnitValue = value
	sale.UpdatedAt = s.now()
	sale.Version++

	if err := s.storage.Set(ctx, sale); err != nil {
		s.logger.Error("failed to update sale", zap.String("sale_id", sale.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}

	s.logger.Info("sale updated", zap.String("sale_id", sale.ID), zap.Int("version", sale.Version))
	return sale, nil
}

// DeleteSale removes one of the owner's sales.
func (s *Service) DeleteSale(ctx context.Context, ownerID, id string) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("sale deleted", zap.String("sale_id", id), zap.String("owner_id", ownerID))
	return nil
}

// ListSales returns the owner's sales within r ordered by occurrence time.
func (s *Service) ListSales(ctx context.Context, ownerID string, r Range) ([]*Sale, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return nil, NewValidationError("range", "start is after end")
	}
	sales, err := s.storage.List(ctx, ownerID, r)
	if err != nil {
		s.logger.Error("failed to list sales", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve sales: %w", err)
	}
	return sales, nil
}

// SearchSales lists sales and computes listing metadata.
func (s *Service) SearchSales(ctx context.Context, ownerID string, r Range) ([]*Sale, SalesMetadata, error) {
	sales, err := s.ListSales(ctx, ownerID, r)
	if err != nil {
		return nil, SalesMetadata{}, err
	}

	metadata := SalesMetadata{TotalAmount: decimal.Zero}
	for _, sale := range sales {
		metadata.Quantity++
		metadata.Items += sale.Quantity
		metadata.TotalAmount = metadata.TotalAmount.Add(sale.LineTotal())
	}

	s.logger.Debug("sales search completed",
		zap.String("owner_id", ownerID),
		zap.Int("results_count", len(sales)),
		zap.String("total_amount", metadata.TotalAmount.StringFixed(2)),
	)
	return sales, metadata, nil
}

// ClaimUnowned assigns sales recorded before ownership existed to ownerID.
func (s *Service) ClaimUnowned(ctx context.Context, ownerID string) (int64, error) {
	if err := validateOwner(ownerID); err != nil {
		return 0, err
	}
	n, err := s.storage.ClaimUnowned(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to claim sales: %w", err)
	}
	if n > 0 {
		s.logger.Info("unowned sales claimed", zap.String("owner_id", ownerID), zap.Int64("count", n))
	}
	return n, nil
}

// maxUnitValue is the exclusive upper bound of a NUMERIC(12, 2) column.
var maxUnitValue = decimal.New(1, 10)

func validateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return NewValidationError("owner_id", "must not be empty")
	}
	return nil
}

// validateSale checks the sale invariants and returns the trimmed product name.
func validateSale(productName string, quantity int, unitValue decimal.Decimal) (string, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return "", NewValidationError("product_name", "must not be empty")
	}
	if quantity < 1 {
		return "", NewValidationError("quantity", "must be at least 1")
	}
	if !unitValue.IsPositive() {
		return "", NewValidationError("unit_value", "must be greater than zero")
	}
	if !unitValue.Equal(unitValue.Truncate(2)) {
		return "", NewValidationError("unit_value", "must have at most 2 decimal places")
	}
	if unitValue.GreaterThanOrEqual(maxUnitValue) {
		return "", NewValidationError("unit_value", "must be less than 10000000000")
	}
	return name, nil
}
