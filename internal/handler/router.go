package handler

import (
	"net/http"
	"time"

	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/metrics"
	"bitebuddy-be/internal/middleware"
	"bitebuddy-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	AdminLoginPath string
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	HTTPMetrics    *metrics.HTTPMetrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.AdminLoginPath == "" {
		opts.AdminLoginPath = "/admin-login"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/health"))
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(opts.HTTPMetrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Device-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}
	r.Use(chimw.Timeout(30 * time.Second))

	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get(opts.AdminLoginPath, h.AdminLoginPage)
	r.Post(opts.AdminLoginPath, h.AdminLogin)

	authn := middleware.AuthMiddleware(h.tokens)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Get("/services/{id}/menu", h.ServiceMenu)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/orders/{id}", h.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(user.RoleCustomer))
				r.Post("/orders", h.Checkout)
				r.Get("/orders", h.MyOrders)
				r.Post("/orders/{id}/cancel", h.CancelOrder)
			})

			r.Route("/staff", func(r chi.Router) {
				r.Use(middleware.RequireRole(user.RoleStaff))
				r.Get("/orders", h.StaffQueue)
				r.Post("/orders/{id}/dispatch", h.Dispatch)
				r.Post("/orders/{id}/verify-otp", h.VerifyOTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(user.RoleAdmin))
				r.Get("/orders", h.AdminOrders)
				r.Get("/orders/stats", h.AdminStats)
				r.Get("/staff", h.ListStaff)
				r.Post("/staff", h.CreateStaff)
				r.Post("/staff/{id}/active", h.SetStaffActive)
				r.Post("/orders/{id}/assign", h.Assign)
				r.Post("/orders/{id}/cancel", h.CancelOrder)
				r.Post("/orders/{id}/reissue-otp", h.ReissueOTP)
			})
		})
	})

	return r
}
