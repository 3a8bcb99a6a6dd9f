// internal/domain/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
)

// Gateway abstracts the payment provider so the service can be tested
// without network access
type Gateway interface {
	CreateAndConfirmIntent(ctx context.Context, amount int64, currency, paymentMethodID string, metadata map[string]string) (*IntentResult, error)
	Refund(ctx context.Context, transactionID string, amount int64) (*RefundResult, error)
}

// IntentResult is the outcome of a confirmed payment intent
type IntentResult struct {
	TransactionID string
	Status        string
}

// RefundResult is the outcome of a refund call
type RefundResult struct {
	RefundID string
	Status   string
}

// GatewayError carries the provider's decline information
type GatewayError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error %s: %s", e.Code, e.Message)
}

// StripeGateway talks to the Stripe REST API directly. Requests are
// form-encoded per Stripe's API conventions.
type StripeGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewStripeGateway creates a Stripe gateway from config
func NewStripeGateway(cfg *config.Config) *StripeGateway {
	baseURL := cfg.External.Stripe.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	return &StripeGateway{
		secretKey: cfg.External.Stripe.SecretKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type stripeIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stripeRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateAndConfirmIntent creates a payment intent and confirms it in
// one call
func (g *StripeGateway) CreateAndConfirmIntent(ctx context.Context, amount int64, currency, paymentMethodID string, metadata map[string]string) (*IntentResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("payment_method", paymentMethodID)
	form.Set("confirm", "true")
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent stripeIntent
	if err := g.call(ctx, "/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	if intent.Status != "succeeded" {
		return nil, &GatewayError{Code: "intent_" + intent.Status, Message: "payment intent was not confirmed"}
	}
	return &IntentResult{TransactionID: intent.ID, Status: intent.Status}, nil
}

// Refund refunds part or all of a confirmed payment intent
func (g *StripeGateway) Refund(ctx context.Context, transactionID string, amount int64) (*RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", transactionID)
	if amount > 0 {
		form.Set("amount", strconv.FormatInt(amount, 10))
	}

	var refund stripeRefund
	if err := g.call(ctx, "/refunds", form, &refund); err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: refund.ID, Status: refund.Status}, nil
}

// call posts a form to the Stripe API and decodes the JSON response
func (g *StripeGateway) call(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &errBody) == nil && errBody.Error.Message != "" {
			return &GatewayError{Code: errBody.Error.Code, Message: errBody.Error.Message}
		}
		return &GatewayError{Code: strconv.Itoa(resp.StatusCode), Message: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	return nil
}
