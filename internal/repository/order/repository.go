package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/medichain/internal/database"
	"github.com/Additional-Code/medichain/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/medichain/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ErrStale is returned when a conditional transition matched no row with the
// expected current status. Callers disambiguate missing vs. raced orders.
var ErrStale = errors.New("order status changed concurrently")

// Repository encapsulates read/write access for orders.
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

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.id", order.OrderID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByOrderID fetches an order by its public identifier using the read
// replica when available.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByOrderID", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("order_id = ?", orderID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ListByManufacturer returns a manufacturer's orders, newest first.
func (r *Repository) ListByManufacturer(ctx context.Context, manufacturerID int64) ([]entity.Order, error) {
	return r.listByParty(ctx, "manufacturer_id", manufacturerID)
}

// ListByWholesaler returns a wholesaler's orders, newest first.
func (r *Repository) ListByWholesaler(ctx context.Context, wholesalerID int64) ([]entity.Order, error) {
	return r.listByParty(ctx, "wholesaler_id", wholesalerID)
}

func (r *Repository) listByParty(ctx context.Context, column string, id int64) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByParty", trace.WithAttributes(
		attribute.String("party.column", column),
		attribute.Int64("party.id", id),
	))
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().
		Model(&orders).
		Where("? = ?", bun.Ident(column), id).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// Transition atomically moves an order from an expected status to a new one.
// The WHERE clause on the current status is the race guard: of two concurrent
// transitions only one matches the row, the other gets ErrStale (or
// ErrNotFound when the order never existed).
func (r *Repository) Transition(ctx context.Context, orderID string, from, to entity.OrderStatus, rejectionReason *string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status.from", string(from)),
		attribute.String("order.status.to", string(to)),
	))
	defer span.End()

	q := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("order_id = ?", orderID).
		Where("status = ?", from)
	if rejectionReason != nil {
		q = q.Set("rejection_reason = ?", *rejectionReason)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := r.GetByOrderID(ctx, orderID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		span.SetStatus(codes.Error, "stale transition")
		return ErrStale
	}
	return nil
}

// UpdateStatus performs an unconditional status write. Legality is the
// coordinator's concern; this path backs the generic status override.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, status entity.OrderStatus, notes *string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	q := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("order_id = ?", orderID)
	if notes != nil {
		q = q.Set("notes = ?", *notes)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
