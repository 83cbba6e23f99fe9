package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PaymentProvider is the external payment gateway the settlement engine
// talks to. Paystack-shaped; faked in tests.
type PaymentProvider interface {
	// InitializeCharge creates a charge intent and returns the client-side
	// continuation (authorization URL + access code).
	InitializeCharge(ctx context.Context, email string, amount float64, reference string, metadata map[string]string) (*ChargeAuthorization, error)
	// CreateTransferRecipient registers a payout account and returns its
	// recipient code.
	CreateTransferRecipient(ctx context.Context, accountName, accountNumber, bankCode string) (string, error)
	// InitiateTransfer pays out to a recipient and returns the transfer code.
	InitiateTransfer(ctx context.Context, recipientCode string, amount float64, reason, reference string) (string, error)
	// CreateRefund refunds a completed charge (amount in major units; 0
	// refunds the full charge) and returns the refund reference.
	CreateRefund(ctx context.Context, chargeReference string, amount float64, reason string) (string, error)
}

type ChargeAuthorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// PaystackClient implements PaymentProvider against the Paystack REST API.
type PaystackClient struct {
	SecretKey string
	BaseURL   string
	client    *http.Client
}

func NewPaystackClient(secretKey, baseURL string, timeout time.Duration) *PaystackClient {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &PaystackClient{
		SecretKey: secretKey,
		BaseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// makeRequest makes an HTTP request to the Paystack API and decodes the
// response envelope, failing on status=false.
func (ps *PaystackClient) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, ps.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+ps.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ps.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !envelope.Status {
		return fmt.Errorf("paystack error: %s", envelope.Message)
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (ps *PaystackClient) InitializeCharge(ctx context.Context, email string, amount float64, reference string, metadata map[string]string) (*ChargeAuthorization, error) {
	payload := map[string]interface{}{
		"email":     email,
		"amount":    toKobo(amount),
		"reference": reference,
		"currency":  "NGN",
		"metadata":  metadata,
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := ps.makeRequest(ctx, "POST", "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}

	return &ChargeAuthorization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (ps *PaystackClient) CreateTransferRecipient(ctx context.Context, accountName, accountNumber, bankCode string) (string, error) {
	payload := map[string]interface{}{
		"type":           "nuban",
		"name":           accountName,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}

	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := ps.makeRequest(ctx, "POST", "/transferrecipient", payload, &data); err != nil {
		return "", err
	}
	return data.RecipientCode, nil
}

func (ps *PaystackClient) InitiateTransfer(ctx context.Context, recipientCode string, amount float64, reason, reference string) (string, error) {
	payload := map[string]interface{}{
		"source":    "balance",
		"reason":    reason,
		"amount":    toKobo(amount),
		"recipient": recipientCode,
		"reference": reference,
	}

	var data struct {
		TransferCode string `json:"transfer_code"`
	}
	if err := ps.makeRequest(ctx, "POST", "/transfer", payload, &data); err != nil {
		return "", err
	}
	return data.TransferCode, nil
}

func (ps *PaystackClient) CreateRefund(ctx context.Context, chargeReference string, amount float64, reason string) (string, error) {
	payload := map[string]interface{}{
		"transaction":   chargeReference,
		"merchant_note": reason,
	}
	if amount > 0 {
		payload["amount"] = toKobo(amount)
	}

	var data struct {
		ID int64 `json:"id"`
	}
	if err := ps.makeRequest(ctx, "POST", "/refund", payload, &data); err != nil {
		return "", err
	}
	return fmt.Sprintf("RF-%d", data.ID), nil
}

// VerifyWebhookSignature checks the x-paystack-signature header: an
// HMAC-SHA512 digest of the raw body keyed with the secret.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// toKobo converts a major-unit amount to kobo (₦1 = 100 kobo).
func toKobo(amount float64) int {
	return int(amount*100 + 0.5)
}
