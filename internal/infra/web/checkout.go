package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"course-payments/internal/domain"
	"course-payments/internal/usecase"
)

type initCheckoutRequest struct {
	UserID         string   `json:"user_id"`
	GuestEmail     string   `json:"guest_email"`
	GuestFirstName string   `json:"guest_first_name"`
	GuestLastName  string   `json:"guest_last_name"`
	CourseID       string   `json:"course_id"`
	PlanID         string   `json:"plan_id"`
	Price          int64    `json:"price"`
	Months         string   `json:"months"`
	AddonCourseIDs []string `json:"addon_course_ids"`
	AddonsTotal    int64    `json:"addons_total"`
	TotalPrice     int64    `json:"total_price"`
}

type initCheckoutResponse struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (s *Server) handleMercadoPagoInit(w http.ResponseWriter, r *http.Request) {
	s.handleInit(w, r, s.paymentUC.InitiateMercadoPago)
}

func (s *Server) handleWebpayInit(w http.ResponseWriter, r *http.Request) {
	s.handleInit(w, r, s.paymentUC.InitiateWebpay)
}

func (s *Server) handleInit(
	w http.ResponseWriter,
	r *http.Request,
	initiate func(context.Context, *usecase.CheckoutRequest) (*usecase.InitResult, error),
) {
	var body initCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// An active session wins over whatever the form claims.
	if uid := s.sessions.ParseFromRequest(r); uid != "" {
		body.UserID = uid
	}

	res, err := initiate(r.Context(), &usecase.CheckoutRequest{
		UserID:         body.UserID,
		GuestEmail:     strings.TrimSpace(strings.ToLower(body.GuestEmail)),
		GuestFirstName: body.GuestFirstName,
		GuestLastName:  body.GuestLastName,
		CourseID:       body.CourseID,
		PlanID:         body.PlanID,
		Price:          body.Price,
		Months:         body.Months,
		AddonCourseIDs: body.AddonCourseIDs,
		AddonsTotal:    body.AddonsTotal,
		TotalPrice:     body.TotalPrice,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("course_id", body.CourseID).Msg("checkout init failed")
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			s.writeError(w, http.StatusBadRequest, "missing or invalid checkout fields")
		case errors.Is(err, domain.ErrGatewayNotConfigured):
			s.writeError(w, http.StatusServiceUnavailable, "payment gateway not available")
		case errors.Is(err, domain.ErrGuestResolution):
			s.writeError(w, http.StatusInternalServerError, "could not resolve buyer account")
		case strings.Contains(err.Error(), "payment service error"):
			s.writeError(w, http.StatusBadGateway, "payment gateway error")
		default:
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	// A guest that just got an account leaves with a logged-in session so the
	// post-payment redirect lands them inside the platform.
	if res.Session != nil {
		if _, err := s.sessions.Mint(w, res.UserID); err != nil {
			s.log.Warn().Err(err).Msg("session mint failed")
		}
	}

	s.writeJSON(w, http.StatusOK, initCheckoutResponse{
		URL:    res.URL,
		Token:  res.Token,
		UserID: res.UserID,
	})
}

func (s *Server) handleSuccessPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<html><body><h1>¡Pago exitoso!</h1><p>Tu acceso ya está activo.</p></body></html>"))
}

func (s *Server) handleFailurePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	reason := r.URL.Query().Get("reason")
	msg := failureMessage(reason)
	_, _ = w.Write([]byte("<html><body><h1>Pago no completado</h1><p>" + msg + "</p></body></html>"))
}

func failureMessage(reason string) string {
	switch reason {
	case "aborted":
		return "La compra fue cancelada desde el formulario de pago."
	case "timeout":
		return "El formulario de pago expiró. Intenta nuevamente."
	case "rejected":
		return "El pago fue rechazado por el medio de pago."
	case "session_expired":
		return "La sesión de compra expiró. Si el cargo aparece en tu tarjeta, contáctanos."
	case "no_token":
		return "No recibimos la información del pago."
	default:
		return "Ocurrió un error procesando el pago."
	}
}
