package billing

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// PaymentIntentCreator abstracts payment intent creation for testability.
type PaymentIntentCreator interface {
	Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error)
}

type PaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// StripeCreator uses the Stripe Go SDK to create PaymentIntents.
type StripeCreator struct {
	SecretKey string
}

func (r *StripeCreator) Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// MockCreator issues fake payment intents that always succeed. Used in
// development and whenever no provider secret key is configured.
type MockCreator struct{}

func (MockCreator) Create(amountCents int64, currency string, metadata map[string]string) (*PaymentIntentResult, error) {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	id := hex.EncodeToString(buf)
	return &PaymentIntentResult{
		ID:           "pi_mock_" + id,
		ClientSecret: "pi_mock_" + id + "_secret",
	}, nil
}

// NewCreator picks the Stripe creator when a secret key is configured and the
// mock otherwise.
func NewCreator(secretKey string) PaymentIntentCreator {
	if secretKey != "" {
		return &StripeCreator{SecretKey: secretKey}
	}
	return MockCreator{}
}
