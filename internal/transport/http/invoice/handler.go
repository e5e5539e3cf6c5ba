package invoice

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/medichain/internal/dto"
	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/presentation/http/response"
	service "github.com/Additional-Code/medichain/internal/service/invoice"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/medichain/transport/http/invoice")

// Handler exposes invoice lookup and download endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an invoice Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/invoices")
	g.GET("/order/:orderId", h.getByOrder)
	g.GET("/manufacturer/:id", h.listByManufacturer)
	g.GET("/download/:fileName", h.download)
}

func (h *Handler) getByOrder(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("orderId")

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.getByOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	inv, err := h.svc.GetByOrderID(ctx, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(inv)).Build()
}

func (h *Handler) listByManufacturer(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.listByManufacturer", trace.WithAttributes(attribute.Int64("manufacturer.id", id)))
	defer span.End()

	invoices, err := h.svc.ListByManufacturer(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, toDTO(&invoices[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) download(c echo.Context) error {
	path, err := h.svc.ResolveFile(c.Param("fileName"))
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return c.Attachment(path, c.Param("fileName"))
}

func toDTO(inv *entity.Invoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		OrderID:        inv.OrderID,
		ManufacturerID: inv.ManufacturerID,
		WholesalerID:   inv.WholesalerID,
		FileName:       inv.FileName,
		DownloadURL:    inv.DownloadURL,
		CreatedAt:      inv.CreatedAt,
	}
}
