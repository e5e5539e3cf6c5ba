package email

import (
	"context"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
)

// Message is an outbound email, optionally carrying file attachments.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []string
}

// Dispatcher sends transactional email. Delivery is best-effort; callers
// never fail their own operation on a send error.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// NewDispatcher selects the SMTP or noop dispatcher from configuration.
func NewDispatcher(cfg config.Config, logger *zap.Logger) (Dispatcher, error) {
	if !cfg.Email.Enabled {
		logger.Info("email dispatcher disabled")
		return noopDispatcher{}, nil
	}

	client, err := mail.NewClient(cfg.Email.Host,
		mail.WithPort(cfg.Email.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Email.Username),
		mail.WithPassword(cfg.Email.Password),
	)
	if err != nil {
		return nil, err
	}

	return &smtpDispatcher{client: client, from: cfg.Email.From, logger: logger}, nil
}

type noopDispatcher struct{}

func (noopDispatcher) Send(ctx context.Context, msg Message) error { return nil }

type smtpDispatcher struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

func (d *smtpDispatcher) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(d.from); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, path := range msg.Attachments {
		m.AttachFile(path)
	}

	if err := d.client.DialAndSendWithContext(ctx, m); err != nil {
		return err
	}

	d.logger.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
