package web

import (
	"errors"
	"net/http"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/infra/metrics"
)

// handleWebpayReturn is the landing point for the buyer's browser coming back
// from the Webpay form. Which parameters arrive encodes what happened:
//
//	token_ws            the buyer finished the form; the verdict must be
//	                    fetched by committing the transaction
//	TBK_TOKEN           the buyer pressed "anular" on the form
//	TBK_ORDEN_COMPRA    (alone) the form timed out after ~10 minutes
//	nothing             malformed or forged request
//
// The handler always answers with a 303 redirect; the browser is mid-purchase
// and a JSON error body would strand the buyer.
func (s *Server) handleWebpayReturn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectFailure(w, r, "error")
		return
	}
	// Webpay posts form fields on success and appends query params on the
	// failure flows; Form covers both.
	tokenWS := r.Form.Get("token_ws")
	tbkToken := r.Form.Get("TBK_TOKEN")
	tbkOrder := r.Form.Get("TBK_ORDEN_COMPRA")

	switch {
	case tbkToken != "":
		// Buyer aborted. The intent is left to expire via TTL.
		s.log.Info().Str("buy_order", tbkOrder).Msg("webpay purchase aborted by buyer")
		metrics.IncWebhookOutcome("webpay", "aborted")
		s.redirectFailure(w, r, "aborted")
		return
	case tokenWS == "" && tbkOrder != "":
		s.log.Info().Str("buy_order", tbkOrder).Msg("webpay form timed out")
		metrics.IncWebhookOutcome("webpay", "timeout")
		s.redirectFailure(w, r, "timeout")
		return
	case tokenWS == "":
		s.log.Warn().Msg("webpay return without any token")
		metrics.IncWebhookOutcome("webpay", "no_token")
		s.redirectFailure(w, r, "no_token")
		return
	}

	ctx := r.Context()

	res, err := s.wp.CommitTransaction(ctx, tokenWS)
	if err != nil {
		s.log.Error().Err(err).Msg("webpay commit failed")
		metrics.IncWebhookOutcome("webpay", "error")
		s.redirectFailure(w, r, "error")
		return
	}

	intent, err := s.intents.Consume(ctx, res.BuyOrder)
	if err != nil {
		if errors.Is(err, domain.ErrIntentNotFound) {
			// Either the TTL ran out mid-payment or this is a replayed return
			// URL. Both resolve to the same user-facing message; a genuinely
			// captured charge is still visible in the gateway backoffice.
			s.log.Warn().Str("buy_order", res.BuyOrder).Msg("no pending intent for committed transaction")
			metrics.IncWebhookOutcome("webpay", "session_expired")
			s.redirectFailure(w, r, "session_expired")
			return
		}
		s.log.Error().Err(err).Str("buy_order", res.BuyOrder).Msg("intent lookup failed")
		metrics.IncWebhookOutcome("webpay", "error")
		s.redirectFailure(w, r, "error")
		return
	}

	status := model.PaymentStatusApproved
	if !res.Approved() {
		status = model.PaymentStatusRejected
	}

	cmd := &model.AppliedPurchase{
		// The commit token is the only stable per-payment id Webpay exposes.
		ExternalID:     tokenWS,
		Gateway:        model.GatewayWebpay,
		Status:         status,
		UserID:         intent.UserID,
		CourseID:       intent.CourseID,
		PlanID:         intent.PlanID,
		Months:         intent.Months,
		AddonCourseIDs: intent.AddonCourseIDs,
		Amount:         res.Amount,
		Currency:       "CLP",
		Method:         res.PaymentTypeCode,
	}

	if status == model.PaymentStatusRejected {
		// Ledger the decline for audit; a failure here only loses the audit
		// row, never an entitlement.
		if _, err := s.checkoutUC.Apply(ctx, cmd); err != nil {
			s.log.Warn().Err(err).Str("buy_order", res.BuyOrder).Msg("declined payment not ledgered")
		}
		metrics.IncWebhookOutcome("webpay", "rejected")
		s.redirectFailure(w, r, "rejected")
		return
	}

	if _, err := s.checkoutUC.Apply(ctx, cmd); err != nil {
		s.log.Error().Err(err).Str("buy_order", res.BuyOrder).Msg("verdict application failed after capture")
		metrics.IncWebhookOutcome("webpay", "error")
		s.redirectFailure(w, r, "error")
		return
	}

	metrics.IncWebhookOutcome("webpay", "applied")
	http.Redirect(w, r, "/payment/success", http.StatusSeeOther)
}

func (s *Server) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/payment/failure?reason="+reason, http.StatusSeeOther)
}
