package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/messaging"
	"github.com/Additional-Code/medichain/internal/realtime"
	notificationrepo "github.com/Additional-Code/medichain/internal/repository/notification"
	orderrepo "github.com/Additional-Code/medichain/internal/repository/order"
	partyrepo "github.com/Additional-Code/medichain/internal/repository/party"
	"github.com/Additional-Code/medichain/internal/service/email"
	invoicesvc "github.com/Additional-Code/medichain/internal/service/invoice"
	ordersvc "github.com/Additional-Code/medichain/internal/service/order"
	"github.com/Additional-Code/medichain/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/medichain/worker/order")

// Module registers the order lifecycle worker handler.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// HandlerParams collects the lifecycle handler's collaborators.
type HandlerParams struct {
	fx.In

	Orders        *orderrepo.Repository
	Parties       *partyrepo.Repository
	Notifications *notificationrepo.Repository
	Invoices      *invoicesvc.Service
	Mailer        email.Dispatcher
	Broadcaster   realtime.Broadcaster
	Logger        *zap.Logger
	Config        config.Config
}

// NewLifecycleHandler builds the handler that processes order lifecycle
// events off the bus. Approved orders get an invoice, an acceptance email,
// and a durable invoice notification; rejected orders get a rejection email.
// All work here is retried on the bus's terms, so steps must be idempotent.
func NewLifecycleHandler(p HandlerParams) worker.HandlerRegistration {
	h := &lifecycleHandler{
		orders:        p.Orders,
		parties:       p.Parties,
		notifications: p.Notifications,
		invoices:      p.Invoices,
		mailer:        p.Mailer,
		broadcaster:   p.Broadcaster,
		invoiceDir:    p.Config.Invoice.Dir,
		logger:        p.Logger,
	}

	return worker.HandlerRegistration{
		Topic:   p.Config.Messaging.Kafka.Topic,
		Handler: h.handle,
	}
}

type lifecycleHandler struct {
	orders        *orderrepo.Repository
	parties       *partyrepo.Repository
	notifications *notificationrepo.Repository
	invoices      *invoicesvc.Service
	mailer        email.Dispatcher
	broadcaster   realtime.Broadcaster
	invoiceDir    string
	logger        *zap.Logger
}

func (h *lifecycleHandler) handle(ctx context.Context, msg messaging.Message) error {
	ctx, span := workerTracer.Start(ctx, "worker.orders.lifecycle", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
	))
	defer span.End()

	var event ordersvc.LifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("failed to decode lifecycle event", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return err
	}

	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("order.status", string(event.Status)),
	)

	switch event.Status {
	case entity.OrderStatusApproved:
		return h.handleApproved(ctx, event)
	case entity.OrderStatusRejected:
		h.handleRejected(ctx, event)
		return nil
	default:
		h.logger.Debug("lifecycle event ignored",
			zap.String("order_id", event.OrderID),
			zap.String("status", string(event.Status)))
		return nil
	}
}

func (h *lifecycleHandler) handleApproved(ctx context.Context, event ordersvc.LifecycleEvent) error {
	order, err := h.orders.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			h.logger.Warn("lifecycle event for unknown order", zap.String("order_id", event.OrderID))
			return nil
		}
		return err
	}

	// Generate is idempotent per order, so bus redelivery is safe.
	inv, err := h.invoices.Generate(ctx, order)
	if err != nil {
		h.logger.Error("invoice generation failed", zap.String("order_id", order.OrderID), zap.Error(err))
		return err
	}

	h.logger.Info("invoice generated",
		zap.String("order_id", order.OrderID),
		zap.String("invoice_number", inv.InvoiceNumber))

	orderID := order.OrderID
	n := &entity.Notification{
		UserID:         order.WholesalerID,
		Type:           entity.NotificationInvoiceSent,
		Title:          "Invoice Sent",
		Message:        fmt.Sprintf("Invoice for order #%s has been generated and sent.", orderID),
		RelatedOrderID: &orderID,
	}
	if err := h.notifications.Create(ctx, n); err != nil {
		h.logger.Error("invoice notification write failed", zap.String("order_id", orderID), zap.Error(err))
	}

	if err := h.broadcaster.Publish(ctx, realtime.WholesalerChannel(order.WholesalerID), realtime.EventInvoiceReady, map[string]string{
		"orderId":       orderID,
		"invoiceNumber": inv.InvoiceNumber,
		"downloadUrl":   inv.DownloadURL,
	}); err != nil {
		h.logger.Error("invoice broadcast failed", zap.String("order_id", orderID), zap.Error(err))
	}

	h.sendEmail(ctx, order.WholesalerID,
		fmt.Sprintf("Order %s approved", orderID),
		fmt.Sprintf("Your order %s has been approved. Invoice %s is attached.", orderID, inv.InvoiceNumber),
		filepath.Join(h.invoiceDir, inv.FileName))

	return nil
}

func (h *lifecycleHandler) handleRejected(ctx context.Context, event ordersvc.LifecycleEvent) {
	reason := event.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	h.sendEmail(ctx, event.WholesalerID,
		fmt.Sprintf("Order %s rejected", event.OrderID),
		fmt.Sprintf("Your order %s was rejected. Reason: %s", event.OrderID, reason),
		"")
}

func (h *lifecycleHandler) sendEmail(ctx context.Context, partyID int64, subject, body, attachment string) {
	party, err := h.parties.GetByID(ctx, partyID)
	if err != nil {
		h.logger.Warn("party lookup failed for email", zap.Int64("party_id", partyID), zap.Error(err))
		return
	}
	if party.ContactEmail == "" {
		return
	}

	msg := email.Message{To: party.ContactEmail, Subject: subject, Body: body}
	if attachment != "" {
		msg.Attachments = []string{attachment}
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("email dispatch failed",
			zap.String("to", party.ContactEmail),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
