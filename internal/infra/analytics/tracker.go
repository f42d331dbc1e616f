package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"course-payments/internal/config"
	"course-payments/internal/domain/ports/adapter"
)

// HTTPTracker posts funnel events to the configured collector. Failures are
// logged and swallowed so tracking can never affect a checkout.
type HTTPTracker struct {
	endpoint string
	token    string
	client   *http.Client
	log      zerolog.Logger
}

func NewHTTPTracker(cfg *config.AnalyticsConfig, logger zerolog.Logger) *HTTPTracker {
	return &HTTPTracker{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logger.With().Str("component", "Analytics").Logger(),
	}
}

var _ adapter.Analytics = (*HTTPTracker)(nil)

type event struct {
	Name      string `json:"event_name"`
	UserID    string `json:"user_id,omitempty"`
	ContentID string `json:"content_id"`
	Value     int64  `json:"value"`
	Currency  string `json:"currency"`
	Timestamp int64  `json:"event_time"`
}

func (t *HTTPTracker) TrackInitiateCheckout(ctx context.Context, userID, courseID string, value int64, currency string) {
	if t.endpoint == "" {
		return
	}
	ev := event{
		Name:      "InitiateCheckout",
		UserID:    userID,
		ContentID: courseID,
		Value:     value,
		Currency:  currency,
		Timestamp: time.Now().Unix(),
	}
	jsonData, err := json.Marshal(ev)
	if err != nil {
		t.log.Warn().Err(err).Msg("marshal analytics event")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		t.log.Warn().Err(err).Msg("create analytics request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Warn().Err(err).Msg("send analytics event")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.log.Warn().Int("status", resp.StatusCode).Msg("analytics collector rejected event")
	}
}
