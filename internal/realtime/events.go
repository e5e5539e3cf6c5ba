package realtime

// Event names pushed to connected clients.
const (
	EventNewOrder          = "newOrder"
	EventOrderStatusUpdate = "orderStatusUpdate"
	EventUnreadCountUpdate = "unreadCountUpdate"
	EventInvoiceReady      = "invoiceReady"
)
