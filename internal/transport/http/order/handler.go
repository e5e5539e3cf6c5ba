package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/medichain/internal/dto"
	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/presentation/http/response"
	partyrepo "github.com/Additional-Code/medichain/internal/repository/party"
	productrepo "github.com/Additional-Code/medichain/internal/repository/product"
	service "github.com/Additional-Code/medichain/internal/service/order"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/medichain/transport/http/order")

// Handler exposes order lifecycle endpoints over HTTP.
type Handler struct {
	svc      *service.Service
	products *productrepo.Repository
	parties  *partyrepo.Repository
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, products *productrepo.Repository, parties *partyrepo.Repository) *Handler {
	return &Handler{svc: svc, products: products, parties: parties}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/orders")
	g.POST("", h.place)
	g.GET("/:orderId", h.get)
	g.POST("/:orderId/accept", h.accept)
	g.POST("/:orderId/reject", h.reject)
	g.POST("/:orderId/update-status", h.updateStatus)
	g.GET("/manufacturer/:id", h.listByManufacturer)
	g.GET("/wholesaler/:id", h.listByWholesaler)
}

func (h *Handler) place(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		OrderID               string  `json:"order_id"`
		ManufacturerID        int64   `json:"manufacturer_id"`
		WholesalerID          int64   `json:"wholesaler_id"`
		ProductID             int64   `json:"product_id"`
		Quantity              int     `json:"quantity"`
		UnitPrice             float64 `json:"unit_price"`
		TotalAmount           float64 `json:"total_amount"`
		GSTPercentage         float64 `json:"gst_percentage"`
		GSTAmount             float64 `json:"gst_amount"`
		PaymentMode           string  `json:"payment_mode"`
		DeliveryAddress       string  `json:"delivery_address"`
		PreferredDeliveryDate string  `json:"preferred_delivery_date"`
		Notes                 string  `json:"notes"`
		ProductName           string  `json:"product_name"`
		WholesalerName        string  `json:"wholesaler_name"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.place", trace.WithAttributes(
		attribute.Int64("manufacturer.id", payload.ManufacturerID),
		attribute.Int64("wholesaler.id", payload.WholesalerID),
	))
	defer span.End()

	orderID, err := h.svc.PlaceOrder(ctx, service.PlaceOrderInput{
		OrderID:               payload.OrderID,
		ManufacturerID:        payload.ManufacturerID,
		WholesalerID:          payload.WholesalerID,
		ProductID:             payload.ProductID,
		Quantity:              payload.Quantity,
		UnitPrice:             payload.UnitPrice,
		TotalAmount:           payload.TotalAmount,
		GSTPercentage:         payload.GSTPercentage,
		GSTAmount:             payload.GSTAmount,
		PaymentMode:           payload.PaymentMode,
		DeliveryAddress:       payload.DeliveryAddress,
		PreferredDeliveryDate: payload.PreferredDeliveryDate,
		Notes:                 payload.Notes,
		ProductName:           payload.ProductName,
		WholesalerName:        payload.WholesalerName,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(map[string]string{"order_id": orderID}).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("orderId")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.get", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := h.svc.Get(ctx, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}

	resp := toDTO(order)
	// Name lookups are best-effort; a miss leaves the field empty.
	if product, err := h.products.GetByID(ctx, order.ProductID); err == nil {
		resp.ProductName = product.Name
	}
	if party, err := h.parties.GetByID(ctx, order.ManufacturerID); err == nil {
		resp.ManufacturerName = party.CompanyName
	}
	if party, err := h.parties.GetByID(ctx, order.WholesalerID); err == nil {
		resp.WholesalerName = party.CompanyName
	}

	return b.WithData(resp).Build()
}

func (h *Handler) accept(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("orderId")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.accept", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if err := h.svc.Approve(ctx, orderID); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]string{"order_id": orderID, "status": string(entity.OrderStatusApproved)}).Build()
}

func (h *Handler) reject(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("orderId")

	var payload struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.reject", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if err := h.svc.Reject(ctx, orderID, payload.Reason); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]string{"order_id": orderID, "status": string(entity.OrderStatusRejected)}).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("orderId")

	var payload struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	if err := h.svc.UpdateStatus(ctx, orderID, entity.OrderStatus(payload.Status), payload.Notes); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]string{"order_id": orderID, "status": payload.Status}).Build()
}

func (h *Handler) listByManufacturer(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listByManufacturer", trace.WithAttributes(attribute.Int64("manufacturer.id", id)))
	defer span.End()

	orders, err := h.svc.ListByManufacturer(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) listByWholesaler(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listByWholesaler", trace.WithAttributes(attribute.Int64("wholesaler.id", id)))
	defer span.End()

	orders, err := h.svc.ListByWholesaler(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).Build()
}

func toDTO(order *entity.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:                    order.ID,
		OrderID:               order.OrderID,
		ManufacturerID:        order.ManufacturerID,
		WholesalerID:          order.WholesalerID,
		ProductID:             order.ProductID,
		Quantity:              order.Quantity,
		UnitPrice:             order.UnitPrice,
		TotalAmount:           order.TotalAmount,
		GSTPercentage:         order.GSTPercentage,
		GSTAmount:             order.GSTAmount,
		PaymentMode:           order.PaymentMode,
		DeliveryAddress:       order.DeliveryAddress,
		PreferredDeliveryDate: order.PreferredDeliveryDate,
		Notes:                 order.Notes,
		Status:                string(order.Status),
		RejectionReason:       order.RejectionReason,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
}

func toDTOs(orders []entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toDTO(&orders[i]))
	}
	return out
}
