package router

import (
	"net/http"

	"github.com/bobabar/api/internal/config"
	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/enum"
	"github.com/bobabar/api/internal/handler"
	mw "github.com/bobabar/api/internal/middleware"
	"github.com/bobabar/api/internal/notify"
	"github.com/bobabar/api/internal/service"
	"github.com/bobabar/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Deps are the long-lived collaborators the routes are built from.
type Deps struct {
	Config    *config.Config
	Queries   *database.Queries
	Pool      *pgxpool.Pool
	Hub       *ws.Hub
	Publisher notify.Publisher
}

// New creates a Chi router with all application routes wired up.
// Public routes live under /api, admin routes under /api/admin behind JWT
// authentication and role checks.
func New(d Deps) chi.Router {
	cfg := d.Config
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log.StandardLogger()))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// WebSocket routes (admin feed authenticates via ?token=)
	r.Get("/ws/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeAdminWS(d.Hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/orders/{orderNumber}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrderWS(d.Hub, w, r)
	})

	orderService := service.NewOrderService(
		d.Pool,
		d.Queries,
		func(db database.DBTX) service.OrderStore {
			return database.New(db)
		},
		service.Policy{
			RequirePaymentClaim: cfg.RequirePaymentClaim,
			OrderNumberPrefix:   cfg.OrderNumberPrefix,
			WhatsAppNumber:      cfg.WhatsAppNumber,
		},
		d.Publisher,
	)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		handler.NewMenuHandler(d.Queries).RegisterRoutes(r)
		handler.NewOrderHandler(orderService).RegisterRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			authHandler := handler.NewAuthHandler(d.Queries, cfg.JWTSecret)
			authHandler.RegisterRoutes(r)

			// Protected routes (require authentication)
			r.Group(func(r chi.Router) {
				r.Use(mw.Authenticate(cfg.JWTSecret))
				authHandler.RegisterProtectedRoutes(r)

				// Order desk: owners and staff
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.AdminRoleOwner, enum.AdminRoleStaff))
					handler.NewAdminOrderHandler(d.Queries, orderService, d.Publisher).RegisterRoutes(r)
				})

				// Catalog and reports: owners only
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.AdminRoleOwner))
					handler.NewCatalogHandler(d.Queries, d.Pool, func(db database.DBTX) handler.MappingStore {
						return database.New(db)
					}).RegisterRoutes(r)
					handler.NewReportsHandler(d.Queries).RegisterRoutes(r)
				})
			})
		})
	})

	log.Debug("router initialized")
	return r
}
