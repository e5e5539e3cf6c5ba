package invoice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/medichain/internal/database"
	"github.com/Additional-Code/medichain/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/medichain/repository/invoice")

// ErrNotFound is returned when an invoice is missing.
var ErrNotFound = errors.New("invoice not found")

// Repository persists invoice records alongside their file artifacts.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new invoice record.
func (r *Repository) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv == nil {
		return errors.New("nil invoice")
	}
	ctx, span := repoTracer.Start(ctx, "InvoiceRepository.Create", trace.WithAttributes(attribute.String("invoice.number", inv.InvoiceNumber)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(inv).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByOrderID fetches the invoice generated for an order.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*entity.Invoice, error) {
	ctx, span := repoTracer.Start(ctx, "InvoiceRepository.GetByOrderID", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	inv := new(entity.Invoice)
	err := r.reader.NewSelect().Model(inv).Where("order_id = ?", orderID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return inv, nil
}

// ListByManufacturer returns a manufacturer's invoices, newest first.
func (r *Repository) ListByManufacturer(ctx context.Context, manufacturerID int64) ([]entity.Invoice, error) {
	ctx, span := repoTracer.Start(ctx, "InvoiceRepository.ListByManufacturer", trace.WithAttributes(attribute.Int64("manufacturer.id", manufacturerID)))
	defer span.End()

	var invoices []entity.Invoice
	err := r.reader.NewSelect().
		Model(&invoices).
		Where("manufacturer_id = ?", manufacturerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return invoices, nil
}
