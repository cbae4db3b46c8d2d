package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"realty-payments/internal/usecase"
)

type Server struct {
	cardUC   usecase.CardWebhookUseCase
	momoUC   usecase.MobileMoneyUseCase
	manualUC usecase.ManualTransferUseCase
	auth     *AuthManager
	dev      bool
	log      *zerolog.Logger
}

func NewServer(
	cardUC usecase.CardWebhookUseCase,
	momoUC usecase.MobileMoneyUseCase,
	manualUC usecase.ManualTransferUseCase,
	auth *AuthManager,
	dev bool,
	logger *zerolog.Logger,
) *Server {
	return &Server{cardUC: cardUC, momoUC: momoUC, manualUC: manualUC, auth: auth, dev: dev, log: logger}
}

// Router builds the payment API. The webhook and the provider callback are
// unauthenticated by design (they carry their own trust model); everything
// else requires a session, and manual review requires the admin role.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/card/webhook", s.handleCardWebhook)
		r.Post("/momo/callback", s.handleMomoCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/momo/initiate", s.handleMomoInitiate)
			r.Get("/momo/status/{reference}", s.handleMomoStatus)
			r.Post("/manual/initiate", s.handleManualInitiate)
			r.Post("/manual/submit", s.handleManualSubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware, s.adminOnly)
			r.Post("/manual/confirm", s.handleManualConfirm)
			r.Get("/manual", s.handleManualList)
		})
	})

	return r
}

// authMiddleware validates the session token and stashes the verified claims.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// adminOnly rejects non-admin sessions; this is a security-relevant event.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || claims.Role != "admin" {
			s.log.Warn().Str("path", r.URL.Path).Msg("non-admin attempted privileged payment operation")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
