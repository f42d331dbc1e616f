package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"course-payments/internal/domain/ports/adapter"
)

const (
	webpayBaseURLProduction  = "https://webpay3g.transbank.cl"
	webpayBaseURLIntegration = "https://webpay3gint.transbank.cl"

	webpayTransactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"
)

// WebpayClient implements adapter.WebpayAPI with direct HTTP calls against
// Transbank's REST API. Commit is never retried here: the token is
// single-shot and a second commit is meaningless.
type WebpayClient struct {
	commerceCode string
	apiKey       string
	baseURL      string
	client       *http.Client
}

func NewWebpayClient(commerceCode, apiKey string, sandbox bool) *WebpayClient {
	baseURL := webpayBaseURLProduction
	if sandbox {
		baseURL = webpayBaseURLIntegration
	}
	return &WebpayClient{
		commerceCode: commerceCode,
		apiKey:       apiKey,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

var _ adapter.WebpayAPI = (*WebpayClient)(nil)

type wpCreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

type wpCreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

func (c *WebpayClient) CreateTransaction(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (string, string, error) {
	reqBody := wpCreateRequest{
		BuyOrder:  buyOrder,
		SessionID: sessionID,
		Amount:    amount,
		ReturnURL: returnURL,
	}
	var resp wpCreateResponse
	if err := c.do(ctx, http.MethodPost, webpayTransactionsPath, reqBody, &resp); err != nil {
		return "", "", err
	}
	if resp.Token == "" || resp.URL == "" {
		return "", "", fmt.Errorf("webpay: create response missing token or url")
	}
	return resp.Token, resp.URL, nil
}

type wpCommitResponse struct {
	BuyOrder   string `json:"buy_order"`
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	CardDetail struct {
		CardNumber string `json:"card_number"`
	} `json:"card_detail"`
	AuthorizationCode string `json:"authorization_code"`
	PaymentTypeCode   string `json:"payment_type_code"`
	ResponseCode      int    `json:"response_code"`
}

func (c *WebpayClient) CommitTransaction(ctx context.Context, token string) (*adapter.WebpayCommitResult, error) {
	var resp wpCommitResponse
	if err := c.do(ctx, http.MethodPut, webpayTransactionsPath+"/"+token, nil, &resp); err != nil {
		return nil, err
	}
	return &adapter.WebpayCommitResult{
		BuyOrder:          resp.BuyOrder,
		SessionID:         resp.SessionID,
		Status:            resp.Status,
		ResponseCode:      resp.ResponseCode,
		Amount:            resp.Amount,
		AuthorizationCode: resp.AuthorizationCode,
		PaymentTypeCode:   resp.PaymentTypeCode,
		CardLastFour:      resp.CardDetail.CardNumber,
	}, nil
}

func (c *WebpayClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("webpay: marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("webpay: create request: %w", err)
	}
	req.Header.Set("Tbk-Api-Key-Id", c.commerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webpay: send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("webpay: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webpay: %s %s returned %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("webpay: unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}
