package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jarviz-io/jarviz-api/internal/auth"
	"github.com/jarviz-io/jarviz-api/internal/controller"
	"github.com/jarviz-io/jarviz-api/internal/logging"
	"github.com/jarviz-io/jarviz-api/internal/metrics"
	"github.com/jarviz-io/jarviz-api/internal/middleware"
)

// NewRouter creates the HTTP router. Every /api route runs behind authn.
func (h *Handler) NewRouter(authn *auth.Authenticator, maxBodyBytes int64) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(middleware.HTTPLogging(h.logger, logging.SecretFields))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Get("/whoami", h.HandleWhoAmI)
		r.Post("/loglevel", h.HandleSetLogLevel)
		r.With(h.gate("account.issue_token")).Post("/tokens", h.HandleIssueToken)

		r.Route("/account", func(r chi.Router) {
			r.Post("/register", h.HandleRegister)
			r.Post("/login", h.HandleLogin)
			r.Post("/forgot-password", h.HandleForgotPassword)
			r.Post("/restore-password", h.HandleRestorePassword)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/", h.HandleBillingListOwn)
			r.With(h.gate("billing.create")).Post("/", h.HandleBillingCreate)
			r.Get("/all", h.HandleBillingListAll)
			r.With(h.gate("billing.list_by_client")).Get("/client/{id}", h.HandleBillingListByClient)
			r.With(h.gate("billing.filter")).Get("/filter", h.HandleBillingFilter)
			r.With(h.gate("billing.update")).Put("/{id}", h.HandleBillingUpdate)
		})

		r.Route("/call-sessions", func(r chi.Router) {
			r.Get("/", h.HandleSessionListOwn)
			r.With(h.gate("call_session.create")).Post("/", h.HandleSessionCreate)
			r.Get("/all", h.HandleSessionListAll)
			r.With(h.gate("call_session.list_by_client")).Get("/client/{id}", h.HandleSessionListByClient)
			r.With(h.gate("call_session.list_by_widget")).Get("/widget/{id}", h.HandleSessionListByWidget)
			r.With(h.gate("call_session.filter")).Get("/filter", h.HandleSessionFilter)
			r.With(h.gate("call_session.call_info")).Get("/{id}/call-info", h.HandleSessionCallInfo)
			r.With(h.gate("call_session.update")).Put("/{id}", h.HandleSessionUpdate)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.HandleClientListAll)
			r.With(h.gate("client.create")).Post("/", h.HandleClientCreate)
			r.Get("/referred", h.HandleClientListReferred)
			r.With(h.gate("client.list_by_referer")).Get("/referer/{id}", h.HandleClientListByReferer)
			r.Get("/names", h.HandleClientNames)
			r.Get("/widgets", h.HandleClientWidgets)
			r.Get("/me", h.HandleClientCurrent)
			r.With(h.gate("client.select")).Get("/select", h.HandleClientSelect)
			r.With(h.gate("client.get")).Get("/{id}", h.HandleClientGet)
			r.With(h.gate("client.info")).Get("/{id}/info", h.HandleClientInfo)
			r.With(h.gate("client.update")).Put("/{id}", h.HandleClientUpdate)
		})
	})

	return r
}

// gate rejects callers below the level of the named operation before the
// handler reads any path parameter or body.
func (h *Handler) gate(op string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := controller.Authorize(r.Context(), op); err != nil {
				h.fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
