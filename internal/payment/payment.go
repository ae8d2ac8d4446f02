// Package payment charges the total of a cart during checkout.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/config"
)

const (
	ProviderSimulator = "simulator"
	ProviderStripe    = "stripe"
)

type Charge struct {
	UserID   uuid.UUID
	CartID   uuid.UUID
	Amount   decimal.Decimal
	Currency string
}

type Receipt struct {
	TransactionID string `json:"transactionId"`
	Provider      string `json:"provider"`
}

// Gateway charges a requester. Any returned error aborts the checkout.
type Gateway interface {
	Charge(c context.Context, charge Charge) (Receipt, error)
}

func NewGateway(cfg config.Payment) (Gateway, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderSimulator:
		return NewSimulator(), nil
	case ProviderStripe:
		return NewStripeGateway(cfg), nil
	default:
		return nil, fmt.Errorf("unknown payment provider=%s", cfg.Provider)
	}
}
