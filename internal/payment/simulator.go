package payment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const SimulatedTransactionID = "123456789"

// Simulator approves every charge with a fixed transaction id.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) Charge(c context.Context, charge Charge) (Receipt, error) {
	c, span := otel.Tracer.Start(c, "Simulator Charge")
	defer span.End()

	zerolog.Ctx(c).
		Info().
		Str(log.KeyTag, "Simulator Charge").
		Str(log.KeyCartID, charge.CartID.String()).
		Str(log.KeyCartTotal, charge.Amount.StringFixed(2)).
		Str(log.KeyTransactionID, SimulatedTransactionID).
		Msg("simulated payment")

	return Receipt{TransactionID: SimulatedTransactionID, Provider: ProviderSimulator}, nil
}
