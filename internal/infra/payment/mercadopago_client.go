package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
)

const mercadoPagoBaseURL = "https://api.mercadopago.com"

// MercadoPagoClient implements adapter.MercadoPagoAPI with direct HTTP calls.
// No internal retries: the gateway retries webhooks on its own, and the
// checkout init path surfaces errors to the caller.
type MercadoPagoClient struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewMercadoPagoClient(accessToken string) *MercadoPagoClient {
	return &MercadoPagoClient{
		accessToken: accessToken,
		baseURL:     mercadoPagoBaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

var _ adapter.MercadoPagoAPI = (*MercadoPagoClient)(nil)

type mpPreferenceItem struct {
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type mpBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type mpPreferenceRequest struct {
	Items             []mpPreferenceItem     `json:"items"`
	Metadata          model.PurchaseMetadata `json:"metadata"`
	BackURLs          mpBackURLs             `json:"back_urls"`
	AutoReturn        string                 `json:"auto_return"`
	NotificationURL   string                 `json:"notification_url"`
	ExternalReference string                 `json:"external_reference"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, pref *adapter.CheckoutPreference) (string, string, error) {
	reqBody := mpPreferenceRequest{
		Items: []mpPreferenceItem{{
			Title:      pref.Title,
			Quantity:   pref.Quantity,
			UnitPrice:  pref.UnitPrice,
			CurrencyID: pref.Currency,
		}},
		Metadata: pref.Metadata,
		BackURLs: mpBackURLs{
			Success: pref.SuccessURL,
			Failure: pref.FailureURL,
			Pending: pref.PendingURL,
		},
		AutoReturn:        "approved",
		NotificationURL:   pref.NotifyURL,
		ExternalReference: pref.ExternalRef,
	}

	var resp mpPreferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", reqBody, &resp); err != nil {
		return "", "", err
	}
	if resp.ID == "" || resp.InitPoint == "" {
		return "", "", fmt.Errorf("mercadopago: preference response missing id or init_point")
	}
	return resp.ID, resp.InitPoint, nil
}

type mpPaymentResponse struct {
	ID           json.Number `json:"id"`
	Status       string      `json:"status"`
	StatusDetail string      `json:"status_detail"`
	Amount       float64     `json:"transaction_amount"`
	CurrencyID   string      `json:"currency_id"`
	MethodID     string      `json:"payment_method_id"`
	Payer        struct {
		Email string `json:"email"`
	} `json:"payer"`
	Metadata model.PurchaseMetadata `json:"metadata"`
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*adapter.GatewayPayment, error) {
	var resp mpPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &resp); err != nil {
		return nil, err
	}
	return &adapter.GatewayPayment{
		ID:            resp.ID.String(),
		Status:        resp.Status,
		StatusDetail:  resp.StatusDetail,
		Amount:        int64(resp.Amount),
		Currency:      resp.CurrencyID,
		PaymentMethod: resp.MethodID,
		PayerEmail:    resp.Payer.Email,
		Metadata:      resp.Metadata,
	}, nil
}

func (c *MercadoPagoClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mercadopago: marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("mercadopago: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mercadopago: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("mercadopago: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mercadopago: %s %s returned %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("mercadopago: unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}
