package handler

import (
	"net/http"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the AdotaQui mobile and web apps.
func NewRouter(
	accountSvc *service.AccountService,
	donationSvc *service.DonationService,
	deviceSvc *service.DeviceService,
	catalogSvc *service.CatalogService,
	notifier *service.Notifier,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	logger *zap.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(catalogSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Métricas da aplicação (admin)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(AdminMiddleware(authSvc, logger))
			r.Get("/metrics/app", appMetricsHandler(metrics))
		})

		// =============================================
		// Catálogo público
		// =============================================
		r.Get("/pets", listPetsHandler(catalogSvc, logger))
		r.Get("/pets/{petId}", getPetHandler(catalogSvc, logger))
		r.Get("/ongs", listONGsHandler(catalogSvc, logger))
		r.Get("/ongs/{ongId}", getONGHandler(catalogSvc, logger))
		r.Get("/clinics", listClinicsHandler(catalogSvc, logger))
		r.Get("/clinics/{clinicId}", getClinicHandler(catalogSvc, logger))
		r.Get("/blog", listPostsHandler(catalogSvc, logger))
		r.Get("/blog/{postId}", getPostHandler(catalogSvc, logger))

		// =============================================
		// Rotas autenticadas
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			// Contas e perfis
			r.Get("/accounts/resolve", resolveAccountsHandler(accountSvc, logger))
			r.Post("/accounts/select", selectProfileHandler(accountSvc, logger))
			r.Delete("/accounts", deleteAccountHandler(accountSvc, authSvc, logger))
			r.Post("/auth/reauthenticate", reauthenticateHandler(authSvc, logger))

			// Catálogo (escrita)
			r.Post("/pets", createPetHandler(catalogSvc, logger))
			r.Put("/pets/{petId}", updatePetHandler(catalogSvc, logger))
			r.Delete("/pets/{petId}", deletePetHandler(catalogSvc, logger))
			r.Post("/ongs", createONGHandler(catalogSvc, logger))
			r.Put("/ongs/{ongId}", updateONGHandler(catalogSvc, logger))
			r.Post("/clinics", createClinicHandler(catalogSvc, logger))
			r.Put("/clinics/{clinicId}", updateClinicHandler(catalogSvc, logger))
			r.Post("/blog", createPostHandler(catalogSvc, logger))
			r.Put("/blog/{postId}", updatePostHandler(catalogSvc, logger))
			r.Delete("/blog/{postId}", deletePostHandler(catalogSvc, logger))

			// Doações
			r.Post("/donations", createDonationHandler(donationSvc, logger))
			r.Get("/ongs/{ongId}/donations", listDonationsHandler(donationSvc, logger))
			r.Post("/donations/{donationId}/sync", syncDonationHandler(donationSvc, logger))

			// Dispositivos
			r.Post("/devices/register", registerDeviceHandler(deviceSvc, logger))
			r.Post("/devices/unregister", unregisterDeviceHandler(deviceSvc, logger))
			r.Post("/devices/heartbeat", deviceHeartbeatHandler(deviceSvc, logger))
			r.Get("/devices", listDevicesHandler(deviceSvc, logger))

			// Uploads
			r.Post("/uploads", uploadImageHandler(catalogSvc, logger))
			r.Delete("/uploads", deleteUploadHandler(catalogSvc, logger))

			// Notificações
			r.Get("/notifications", listNotificationsHandler(notifier, logger))
			r.Post("/notifications/{notifId}/read", markNotificationReadHandler(notifier, logger))
		})

		// =============================================
		// Rotas administrativas
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(AdminMiddleware(authSvc, logger))
			r.Delete("/ongs/{ongId}", deleteONGHandler(catalogSvc, logger))
			r.Delete("/clinics/{clinicId}", deleteClinicHandler(catalogSvc, logger))
			r.Post("/donations/{donationId}/transfer", transferDonationHandler(donationSvc, logger))
		})
	})

	return r
}

// ============================================================
// Health & metrics
// ============================================================

func healthzHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "adotaqui-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if catalogSvc != nil {
			start := time.Now()
			_, err := catalogSvc.ListONGs(ctx, "", "")
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func appMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAppSnapshot())
	}
}
