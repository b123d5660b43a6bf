package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/qrpay-backend/internal/api/handlers"
	"github.com/baharkarakas/qrpay-backend/internal/auth"
	"github.com/baharkarakas/qrpay-backend/internal/config"
	"github.com/baharkarakas/qrpay-backend/internal/metrics"
	"github.com/baharkarakas/qrpay-backend/internal/middleware"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/notify"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

type RouterDeps struct {
	Cfg      config.Config
	Log      *slog.Logger
	TM       *auth.TokenManager
	Hub      *notify.Hub
	Profiles *services.ProfileService
	TxnSvc   *services.TransactionService
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	profiles := handlers.NewProfileHandler(d.Profiles, d.Log)
	txns := handlers.NewTransactionHandler(d.TxnSvc, d.Log)
	stream := handlers.NewStreamHandler(d.Hub, d.Cfg.StreamKeepalive, d.Log)
	authH := handlers.NewAuthHandler(d.TM, d.Profiles, d.Log)
	authMW := middleware.NewAuthMiddleware(d.TM, d.Cfg.Env)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RequestLogger(d.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// the stream is long lived and stays outside the rate limiter
		r.Get("/transactions/stream", stream.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.Cfg.RateRPS))

			// ---------- auth ----------
			r.Post("/auth/login", authH.Login)
			r.Post("/auth/refresh", authH.Refresh)

			// ---------- profiles ----------
			r.Get("/consumers", profiles.GetConsumer)
			r.Post("/consumers", profiles.CreateConsumer)
			r.Put("/consumers", profiles.UpdateConsumer)

			r.Get("/stores", profiles.GetStore)
			r.Post("/stores", profiles.CreateStore)
			r.Put("/stores", profiles.UpdateStore)
			r.Get("/stores/{uniqueId}", profiles.GetStoreByUniqueID)

			r.Get("/identity", profiles.Identity)

			// ---------- transactions ----------
			r.Get("/transactions", txns.List)
			r.Post("/transactions", txns.Create)
			r.Get("/transactions/{id}", txns.Get)

			r.Group(func(r chi.Router) {
				r.Use(authMW.Auth, middleware.RequireRole(string(models.RoleStore)))
				r.Patch("/transactions/{id}", txns.UpdateStatus)
				r.Post("/transactions/refund", txns.Refund)
			})
		})
	})

	return r
}
