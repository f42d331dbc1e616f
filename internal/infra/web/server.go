package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/usecase"
)

// Server exposes the two checkout entry points, the two gateway ingestion
// endpoints and the operational endpoints.
type Server struct {
	paymentUC  usecase.PaymentUseCase
	checkoutUC usecase.CheckoutUseCase
	mp         adapter.MercadoPagoAPI
	wp         adapter.WebpayAPI
	intents    repository.IntentRepository
	sessions   *SessionManager
	log        *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	checkoutUC usecase.CheckoutUseCase,
	mp adapter.MercadoPagoAPI,
	wp adapter.WebpayAPI,
	intents repository.IntentRepository,
	sessions *SessionManager,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymentUC:  paymentUC,
		checkoutUC: checkoutUC,
		mp:         mp,
		wp:         wp,
		intents:    intents,
		sessions:   sessions,
		log:        &srvLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/payment/mercadopago/init", s.handleMercadoPagoInit)
	r.Post("/payment/webpay/init", s.handleWebpayInit)

	// MercadoPago sends webhooks as POST but the older topic-style pings as GET.
	r.Post("/webhook/mercadopago", s.handleMercadoPagoWebhook)
	r.Get("/webhook/mercadopago", s.handleMercadoPagoWebhook)

	// Webpay delivers the buyer back as POST form on success and GET on most
	// failure flows.
	r.Post("/payment/webpay/return", s.handleWebpayReturn)
	r.Get("/payment/webpay/return", s.handleWebpayReturn)

	r.Get("/payment/success", s.handleSuccessPage)
	r.Get("/payment/failure", s.handleFailurePage)
	r.Get("/payment/pending", s.handleSuccessPage)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("write json response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
