package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// StripeGateway confirms a PaymentIntent server side with a preconfigured
// payment method.
type StripeGateway struct {
	currency      string
	paymentMethod string
}

func NewStripeGateway(cfg config.Payment) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{currency: cfg.Currency, paymentMethod: cfg.PaymentMethod}
}

func (g *StripeGateway) Charge(c context.Context, charge Charge) (Receipt, error) {
	c, span := otel.Tracer.Start(c, "StripeGateway Charge")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "StripeGateway Charge").
		Str(log.KeyCartID, charge.CartID.String()).
		Str(log.KeyCartTotal, charge.Amount.StringFixed(2)).
		Str(log.KeyPaymentProvider, ProviderStripe).
		Logger()

	currency := charge.Currency
	if currency == "" {
		currency = g.currency
	}

	logger = logger.With().Str(log.KeyProcess, "creating payment intent").Logger()
	logger.Info().Msg("creating payment intent")
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(charge.Amount.Shift(2).Round(0).IntPart()),
		Currency:      stripe.String(currency),
		Confirm:       stripe.Bool(true),
		PaymentMethod: stripe.String(g.paymentMethod),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Metadata: map[string]string{
			"user_id": charge.UserID.String(),
			"cart_id": charge.CartID.String(),
		},
	}
	intent, err := paymentintent.New(params)
	if err != nil {
		err = fmt.Errorf("failed creating payment intent with error=%w", inErrors.New(inErrors.ErrValidation, err.Error()))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger = logger.With().Str(log.KeyTransactionID, intent.ID).Logger()

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		err = fmt.Errorf("payment intent status=%s with error=%w", intent.Status, inErrors.ErrPaymentFailed)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Receipt{}, err
	}
	logger.Info().Msg("created payment intent")

	return Receipt{TransactionID: intent.ID, Provider: ProviderStripe}, nil
}
