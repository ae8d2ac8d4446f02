package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/config"
)

func TestNewGateway(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     interface{}
		wantErr  bool
	}{
		{name: "default is simulator", provider: "", want: &Simulator{}},
		{name: "simulator", provider: "simulator", want: &Simulator{}},
		{name: "stripe", provider: "Stripe", want: &StripeGateway{}},
		{name: "unknown", provider: "paypal", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gateway, err := NewGateway(config.Payment{Provider: test.provider, Currency: "eur"})
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, test.want, gateway)
		})
	}
}

func TestSimulatorCharge(t *testing.T) {
	receipt, err := NewSimulator().Charge(context.Background(), Charge{
		UserID: uuid.New(),
		CartID: uuid.New(),
		Amount: decimal.RequireFromString("49.98"),
	})
	require.NoError(t, err)
	assert.Equal(t, SimulatedTransactionID, receipt.TransactionID)
	assert.Equal(t, ProviderSimulator, receipt.Provider)
}
