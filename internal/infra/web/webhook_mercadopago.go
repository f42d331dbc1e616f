package web

import (
	"encoding/json"
	"net/http"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/infra/metrics"
)

type mpWebhookBody struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Topic  string `json:"topic"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// handleMercadoPagoWebhook ingests MercadoPago notifications. The body is
// treated as untrusted: only the payment id is taken from it, and the verdict
// comes from re-fetching the payment from the API.
//
// The gateway retries aggressively on anything but 200, so every outcome past
// basic request validation is acknowledged with 200; idempotency makes the
// redeliveries harmless.
func (s *Server) handleMercadoPagoWebhook(w http.ResponseWriter, r *http.Request) {
	var body mpWebhookBody
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	kind := body.Type
	if kind == "" {
		kind = body.Topic
	}
	if kind == "" {
		kind = r.URL.Query().Get("type")
	}
	if kind == "" {
		kind = r.URL.Query().Get("topic")
	}

	// Order-level notifications duplicate the payment-level ones and carry no
	// verdict of their own.
	if kind != "" && kind != "payment" {
		metrics.IncWebhookOutcome("mercadopago", "noop")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	// MercadoPago pings the URL with a plain GET when the webhook is saved;
	// a GET carrying neither a topic nor an id is that probe, not a delivery.
	if r.Method == http.MethodGet && kind == "" &&
		r.URL.Query().Get("data.id") == "" && r.URL.Query().Get("id") == "" {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	paymentID := body.Data.ID.String()
	if paymentID == "" || paymentID == "0" {
		paymentID = r.URL.Query().Get("data.id")
	}
	if paymentID == "" {
		paymentID = r.URL.Query().Get("id")
	}
	if paymentID == "" || paymentID == "0" {
		metrics.IncWebhookOutcome("mercadopago", "invalid")
		s.writeError(w, http.StatusBadRequest, "missing payment id")
		return
	}

	ctx := r.Context()

	// Cheap exit for redelivered notifications, before any gateway call.
	if done, err := s.checkoutUC.AlreadyProcessed(ctx, paymentID); err == nil && done {
		metrics.IncWebhookOutcome("mercadopago", "duplicate")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_processed"})
		return
	}

	gp, err := s.mp.GetPayment(ctx, paymentID)
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", paymentID).Msg("payment re-fetch failed")
		metrics.IncWebhookOutcome("mercadopago", "error")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "error", "warning": "payment lookup failed"})
		return
	}

	if gp.Metadata.CourseID == "" || gp.Metadata.UserID == "" {
		s.log.Error().Err(domain.ErrMissingMetadata).Str("payment_id", paymentID).Msg("payment cannot be linked to a purchase")
		metrics.IncWebhookOutcome("mercadopago", "invalid")
		s.writeError(w, http.StatusBadRequest, domain.ErrMissingMetadata.Error())
		return
	}

	cmd := &model.AppliedPurchase{
		ExternalID:     gp.ID,
		Gateway:        model.GatewayMercadoPago,
		Status:         mapMercadoPagoStatus(gp.Status),
		UserID:         gp.Metadata.UserID,
		CourseID:       gp.Metadata.CourseID,
		PlanID:         gp.Metadata.PlanID,
		Months:         model.ParseMonths(gp.Metadata.Months),
		AddonCourseIDs: gp.Metadata.AddonCourseIDs,
		Amount:         gp.Amount,
		Currency:       gp.Currency,
		Method:         gp.PaymentMethod,
	}

	res, err := s.checkoutUC.Apply(ctx, cmd)
	if err != nil {
		s.log.Error().Err(err).Str("payment_id", paymentID).Msg("verdict application failed")
		metrics.IncWebhookOutcome("mercadopago", "error")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "error", "warning": "processing failed, will rely on redelivery"})
		return
	}
	if res.Duplicate {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_processed"})
		return
	}

	metrics.IncWebhookOutcome("mercadopago", "applied")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mapMercadoPagoStatus folds the gateway's status vocabulary into the ledger's.
func mapMercadoPagoStatus(status string) model.PaymentStatus {
	switch status {
	case "approved":
		return model.PaymentStatusApproved
	case "pending", "in_process", "authorized", "in_mediation":
		return model.PaymentStatusPending
	case "rejected":
		return model.PaymentStatusRejected
	case "cancelled", "refunded", "charged_back":
		return model.PaymentStatusCancelled
	default:
		return model.PaymentStatusPending
	}
}
