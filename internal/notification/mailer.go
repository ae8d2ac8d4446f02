// Package notification emails order confirmations after a checkout.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	orderResponse "github.com/Alturino/storefront/order/pkg/response"
)

type Notifier interface {
	OrderPlaced(c context.Context, recipient string, order orderResponse.Order) error
}

var orderTemplate = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Thank you for your order</h2>
<p>Order {{ .ID }} will be shipped to {{ .ShippingAddress }}.</p>
<table>
<tr><th>Product</th><th>Quantity</th><th>Price</th></tr>
{{ range .OrderDetails }}<tr><td>{{ .ProductID }}</td><td>{{ .Quantity }}</td><td>{{ .Price.StringFixed 2 }}</td></tr>
{{ end }}</table>
<p>Total: {{ .TotalPrice.StringFixed 2 }}</p>
</body>
</html>
`))

// NewOrderMessage renders the confirmation mail of order.
func NewOrderMessage(from string, recipient string, order orderResponse.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("failed setting mail sender with error=%w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("failed setting mail recipient with error=%w", err)
	}
	msg.Subject(fmt.Sprintf("Order %s confirmed", order.ID))

	var body bytes.Buffer
	if err := orderTemplate.Execute(&body, order); err != nil {
		return nil, fmt.Errorf("failed rendering order mail with error=%w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}

type Mailer struct {
	config config.Mail
}

// NewNotifier returns a Mailer, or a Noop when no smtp host is configured.
func NewNotifier(cfg config.Mail) Notifier {
	if cfg.Host == "" {
		return Noop{}
	}
	return &Mailer{config: cfg}
}

func (m *Mailer) OrderPlaced(c context.Context, recipient string, order orderResponse.Order) error {
	c, span := otel.Tracer.Start(c, "Mailer OrderPlaced")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Mailer OrderPlaced").
		Str(log.KeyOrderID, order.ID.String()).
		Str(log.KeyEmail, recipient).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "rendering order mail").Logger()
	logger.Trace().Msg("rendering order mail")
	msg, err := NewOrderMessage(m.config.From, recipient, order)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("rendered order mail")

	logger = logger.With().Str(log.KeyProcess, "sending order mail").Logger()
	logger.Trace().Msg("sending order mail")
	client, err := mail.NewClient(m.config.Host,
		mail.WithPort(m.config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.config.Username),
		mail.WithPassword(m.config.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		err = fmt.Errorf("failed creating mail client with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	err = client.DialAndSendWithContext(c, msg)
	if err != nil {
		err = fmt.Errorf("failed sending order mail with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("sent order mail")

	return nil
}

type Noop struct{}

func (Noop) OrderPlaced(c context.Context, recipient string, order orderResponse.Order) error {
	zerolog.Ctx(c).Debug().Str(log.KeyOrderID, order.ID.String()).Msg("mail disabled, skipping order mail")
	return nil
}
