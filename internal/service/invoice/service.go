package invoice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
	"github.com/Additional-Code/medichain/internal/entity"
	repo "github.com/Additional-Code/medichain/internal/repository/invoice"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/medichain/service/invoice")

// Store persists invoice records.
type Store interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByOrderID(ctx context.Context, orderID string) (*entity.Invoice, error)
	ListByManufacturer(ctx context.Context, manufacturerID int64) ([]entity.Invoice, error)
}

// PartyDirectory resolves company details for the invoice header.
type PartyDirectory interface {
	GetByID(ctx context.Context, id int64) (*entity.Party, error)
}

// Service generates invoice PDF artifacts and tracks them durably.
type Service struct {
	store   Store
	parties PartyDirectory
	cfg     config.Invoice
	logger  *zap.Logger
}

// NewService wires an invoice Service.
func NewService(store Store, parties PartyDirectory, cfg config.Invoice, logger *zap.Logger) *Service {
	return &Service{store: store, parties: parties, cfg: cfg, logger: logger}
}

// newInvoiceNumber mints a human-readable invoice identifier.
func newInvoiceNumber() string {
	return fmt.Sprintf("INV-%d-%d", time.Now().UnixMilli(), rand.IntN(1000))
}

// Generate renders the PDF for an approved order, writes it under the
// configured directory, and persists the invoice record. Generating twice
// for the same order returns the existing invoice.
func (s *Service) Generate(ctx context.Context, order *entity.Order) (*entity.Invoice, error) {
	ctx, span := serviceTracer.Start(ctx, "InvoiceService.Generate", trace.WithAttributes(attribute.String("order.id", order.OrderID)))
	defer span.End()

	if existing, err := s.store.GetByOrderID(ctx, order.OrderID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to look up invoice", errorbank.WithCause(err))
	}

	manufacturer, err := s.parties.GetByID(ctx, order.ManufacturerID)
	if err != nil {
		s.logger.Warn("manufacturer lookup failed for invoice header",
			zap.String("order_id", order.OrderID), zap.Error(err))
		manufacturer = &entity.Party{ID: order.ManufacturerID, CompanyName: fmt.Sprintf("Manufacturer #%d", order.ManufacturerID)}
	}
	wholesaler, err := s.parties.GetByID(ctx, order.WholesalerID)
	if err != nil {
		s.logger.Warn("wholesaler lookup failed for invoice header",
			zap.String("order_id", order.OrderID), zap.Error(err))
		wholesaler = &entity.Party{ID: order.WholesalerID, CompanyName: fmt.Sprintf("Wholesaler #%d", order.WholesalerID)}
	}

	number := newInvoiceNumber()
	fileName := number + ".pdf"

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, errorbank.Internal("failed to prepare invoice directory", errorbank.WithCause(err))
	}

	path := filepath.Join(s.cfg.Dir, fileName)
	if err := renderPDF(path, number, order, manufacturer, wholesaler); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pdf render failed")
		return nil, errorbank.Internal("failed to render invoice", errorbank.WithCause(err))
	}

	inv := &entity.Invoice{
		InvoiceNumber:  number,
		OrderID:        order.OrderID,
		ManufacturerID: order.ManufacturerID,
		WholesalerID:   order.WholesalerID,
		FileName:       fileName,
		DownloadURL:    s.cfg.DownloadBaseURL + "/" + fileName,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Create(ctx, inv); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to save invoice", errorbank.WithCause(err))
	}

	return inv, nil
}

// GetByOrderID returns the invoice generated for an order.
func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*entity.Invoice, error) {
	inv, err := s.store.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("invoice not found")
		}
		return nil, errorbank.Internal("failed to load invoice", errorbank.WithCause(err))
	}
	return inv, nil
}

// ListByManufacturer returns a manufacturer's invoices, newest first.
func (s *Service) ListByManufacturer(ctx context.Context, manufacturerID int64) ([]entity.Invoice, error) {
	invoices, err := s.store.ListByManufacturer(ctx, manufacturerID)
	if err != nil {
		return nil, errorbank.Internal("failed to list invoices", errorbank.WithCause(err))
	}
	return invoices, nil
}

// ResolveFile maps a requested file name to its on-disk path. Names that
// could escape the invoice directory are rejected.
func (s *Service) ResolveFile(fileName string) (string, error) {
	if fileName == "" ||
		strings.Contains(fileName, "..") ||
		strings.ContainsAny(fileName, `/\`) {
		return "", errorbank.BadRequest("invalid file name")
	}
	path := filepath.Join(s.cfg.Dir, fileName)
	if _, err := os.Stat(path); err != nil {
		return "", errorbank.NotFound("invoice file not found")
	}
	return path, nil
}

func renderPDF(path, number string, order *entity.Order, manufacturer, wholesaler *entity.Party) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "TAX INVOICE")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Invoice Number: "+number)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Order ID: "+order.OrderID)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Date: "+time.Now().UTC().Format("2006-01-02"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(95, 6, "From")
	pdf.Cell(95, 6, "Bill To")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(95, 6, manufacturer.CompanyName)
	pdf.Cell(95, 6, wholesaler.CompanyName)
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 8, "Product", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, "Amount", "1", 1, "R", false, 0, "")

	base := float64(order.Quantity) * order.UnitPrice
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(70, 8, fmt.Sprintf("Product #%d", order.ProductID), "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, fmt.Sprintf("%d", order.Quantity), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", order.UnitPrice), "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, fmt.Sprintf("%.2f", base), "1", 1, "R", false, 0, "")

	pdf.CellFormat(130, 8, fmt.Sprintf("GST (%.0f%%)", order.GSTPercentage), "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, fmt.Sprintf("%.2f", order.GSTAmount), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, fmt.Sprintf("%.2f", order.TotalAmount), "1", 1, "R", false, 0, "")

	if order.DeliveryAddress != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 6, "Delivery Address")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, order.DeliveryAddress, "", "L", false)
	}

	return pdf.OutputFileAndClose(path)
}
