package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/database"
	"github.com/Additional-Code/medichain/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All runs every seeder in dependency order.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Parties(ctx); err != nil {
		return err
	}
	if err := s.Products(ctx); err != nil {
		return err
	}
	return s.Orders(ctx)
}

// Parties seeds a sample manufacturer and wholesaler if they are missing.
func (s *Seeder) Parties(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Party{
		{ID: 1, Role: entity.PartyManufacturer, CompanyName: "Sunrise Pharma Labs", ContactEmail: "orders@sunrisepharma.test", CreatedAt: now},
		{ID: 2, Role: entity.PartyWholesaler, CompanyName: "Metro Medical Supplies", ContactEmail: "purchasing@metromedical.test", CreatedAt: now},
	}

	for _, sample := range samples {
		party := sample
		_, err := s.db.NewInsert().Model(&party).
			Ignore().
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded parties", zap.Int("count", len(samples)))
	}
	return nil
}

// Products seeds example products if they are missing.
func (s *Seeder) Products(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Product{
		{ID: 1, ManufacturerID: 1, Name: "Paracetamol 500mg (1000 tabs)", UnitPrice: 450, StockQty: 500, CreatedAt: now},
		{ID: 2, ManufacturerID: 1, Name: "Amoxicillin 250mg (500 caps)", UnitPrice: 1200, StockQty: 200, CreatedAt: now},
	}

	for _, sample := range samples {
		product := sample
		_, err := s.db.NewInsert().Model(&product).
			Ignore().
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("count", len(samples)))
	}
	return nil
}

// Orders seeds example orders if they are missing.
func (s *Seeder) Orders(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Order{
		{
			OrderID:        "ORD-SEED-1000",
			ManufacturerID: 1,
			WholesalerID:   2,
			ProductID:      1,
			Quantity:       10,
			UnitPrice:      450,
			TotalAmount:    5310,
			GSTPercentage:  18,
			GSTAmount:      810,
			Status:         entity.OrderStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	for _, sample := range samples {
		order := sample
		_, err := s.db.NewInsert().Model(&order).
			Ignore().
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}
