package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/handler"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/payment"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/ws"
)

// New wires the full API. Customer-facing routes (menu browsing, order
// submission, location check, payments) are public; everything that mutates
// the restaurant's state is behind the admin session cookie.
func New(cfg *config.Config, pool *pgxpool.Pool, hub *ws.Hub, provider payment.Provider, log *logger.Logger) http.Handler {
	queries := database.New(pool)

	activeSet := []string(nil)
	if cfg.OccupancyCountsReady {
		activeSet = enum.ActiveStatusesWithReady
	}
	occupancy := service.NewOccupancy(queries, log, activeSet)

	orderSvc := service.NewOrderService(
		pool,
		queries,
		func(db database.DBTX) service.OrderStore { return database.New(db) },
		occupancy,
		hub,
	)

	orders := handler.NewOrderHandler(orderSvc, queries)
	tables := handler.NewTableHandler(queries, occupancy)
	menu := handler.NewMenuHandler(queries)
	categories := handler.NewCategoryHandler(queries)
	settings := handler.NewSettingsHandler(queries)
	location := handler.NewLocationHandler(queries)
	statistics := handler.NewStatisticsHandler(queries)
	payments := handler.NewPaymentHandler(queries, provider, cfg.WebhookSecret, hub)
	authHandler := handler.NewAuthHandler(cfg.JWTSecret, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Webhook-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", authHandler.RegisterRoutes)

		// Customer-facing.
		r.Post("/orders", orders.Create)
		r.Get("/orders", orders.List)
		r.Get("/orders/{id}", orders.Get)
		r.Post("/verify-location", location.Verify)
		r.Get("/menu-items", menu.List)
		r.Get("/menu-items/{id}", menu.Get)
		r.Get("/categories", categories.List)
		r.Route("/payments", payments.RegisterRoutes)

		// Staff only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.JWTSecret))

			r.Delete("/orders/completed", orders.PurgeCompleted)
			r.Patch("/orders/{id}/status", orders.UpdateStatus)
			r.Delete("/orders/{id}", orders.Delete)

			r.Route("/tables", tables.RegisterRoutes)

			r.Post("/menu-items", menu.Create)
			r.Put("/menu-items/{id}", menu.Update)
			r.Delete("/menu-items/{id}", menu.Delete)

			r.Post("/categories", categories.Create)
			r.Put("/categories/{id}", categories.Update)
			r.Delete("/categories/{id}", categories.Delete)

			r.Route("/settings", settings.RegisterRoutes)
			r.Route("/statistics", statistics.RegisterRoutes)
		})
	})

	r.Get("/ws/orders", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, req)
	})

	return r
}
