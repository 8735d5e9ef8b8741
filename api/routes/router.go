package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eliasfjaere/utlaan-backend/api/controllers"
	"github.com/eliasfjaere/utlaan-backend/api/middleware"
	authsvc "github.com/eliasfjaere/utlaan-backend/internal/auth"
	"github.com/eliasfjaere/utlaan-backend/internal/ledger"
	"github.com/eliasfjaere/utlaan-backend/internal/registry"
	"github.com/eliasfjaere/utlaan-backend/internal/reports"
	"github.com/eliasfjaere/utlaan-backend/internal/users"
	"github.com/eliasfjaere/utlaan-backend/pkg/auth/session"
	"github.com/eliasfjaere/utlaan-backend/pkg/config"
	"github.com/eliasfjaere/utlaan-backend/pkg/db"
	"github.com/eliasfjaere/utlaan-backend/pkg/logger"
	"github.com/eliasfjaere/utlaan-backend/pkg/metrics"
	"github.com/eliasfjaere/utlaan-backend/pkg/redis"
)

// Services bundles the domain services mounted on the router.
type Services struct {
	Auth     authsvc.Service
	Ledger   ledger.Service
	Registry registry.Service
	Reports  reports.Service
	Users    users.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	promRegistry *prometheus.Registry,
	ledgerMetrics *metrics.LedgerMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, ledgerMetrics, logg))

		r.Route("/loans", func(r chi.Router) {
			r.Get("/", controllers.LoanList(svcs.Ledger, logg))
			r.Post("/", controllers.LoanCreate(svcs.Ledger, logg))
			r.Get("/{loanId}", controllers.LoanDetail(svcs.Ledger, logg))
			r.Put("/{loanId}", controllers.LoanUpdate(svcs.Ledger, logg))
			r.Post("/{loanId}/return", controllers.LoanReturn(svcs.Ledger, logg))
			r.Delete("/{loanId}", controllers.LoanDelete(svcs.Ledger, logg))
		})
		r.Get("/borrowers/last", controllers.BorrowerLast(svcs.Ledger, logg))

		r.Route("/pcs", func(r chi.Router) {
			r.Get("/", controllers.PCList(svcs.Registry, logg))
			r.Post("/", controllers.PCCreate(svcs.Registry, logg))
			r.Put("/{pcId}", controllers.PCUpdate(svcs.Registry, logg))
			r.Delete("/{pcId}", controllers.PCDelete(svcs.Registry, logg))
		})
		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemList(svcs.Registry, logg))
			r.Post("/", controllers.ItemCreate(svcs.Registry, logg))
			r.Put("/{itemId}", controllers.ItemUpdate(svcs.Registry, logg))
			r.Delete("/{itemId}", controllers.ItemDelete(svcs.Registry, logg))
		})

		r.Get("/dashboard", controllers.DashboardFetch(svcs.Reports, logg))
		r.Get("/stats", controllers.StatisticsFetch(svcs.Reports, logg))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileFetch(svcs.Users, logg))
			r.Put("/", controllers.ProfileUpdate(svcs.Users, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(ledgerMetrics, logg))
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Post("/", controllers.UserCreate(svcs.Users, logg))
			r.Post("/{userId}/toggle-admin", controllers.UserToggleAdmin(svcs.Users, logg))
			r.Delete("/{userId}", controllers.UserDelete(svcs.Users, logg))
		})
	})

	return r
}
