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
)

const (
	IntentStatusSucceeded      = "succeeded"
	IntentStatusRequiresAction = "requires_action"
)

// PaymentIntent 支付處理商回傳的intent快照, 金額單位為最小幣值單位(分)
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ReceiptEmail string            `json:"receipt_email"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeAPIError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type stripeErrorResp struct {
	Error stripeAPIError `json:"error"`
}

// ProcessorError 支付處理商回傳的錯誤, 保留狀態碼供上層對應至502或400
type ProcessorError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("stripe error: status %d type %s: %s", e.StatusCode, e.Type, e.Message)
}

type IStripeClient interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) (*PaymentIntent, error)
}

/*
StripeClient 以form-encoded呼叫payment intent API
metadata用 metadata[key]=value 的展開格式傳遞
*/
type StripeClient struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 20 * time.Second},
	}
}

var _ IStripeClient = (*StripeClient)(nil)

func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(amountMinor, 10))
	values.Set("currency", strings.ToLower(currency))
	values.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		values.Set("metadata["+k+"]", v)
	}

	var out PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StripeClient) GetPaymentIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	var out PaymentIntent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIntentMetadata 下單後把order id寫回intent, 方便金流後台對帳
func (c *StripeClient) UpdateIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) (*PaymentIntent, error) {
	values := url.Values{}
	for k, v := range metadata {
		values.Set("metadata["+k+"]", v)
	}

	var out PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(intentID), values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StripeClient) do(ctx context.Context, method, path string, values url.Values, out any) error {
	base := c.BaseURL
	if base == "" {
		base = "https://api.stripe.com"
	}

	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var errResp stripeErrorResp
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return &ProcessorError{StatusCode: resp.StatusCode, Type: errResp.Error.Type, Message: errResp.Error.Message}
		}
		return &ProcessorError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	return json.Unmarshal(raw, out)
}
