package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-registrar-portal/internal/application/audit"
	"github.com/go-registrar-portal/internal/application/doctype"
	"github.com/go-registrar-portal/internal/application/gate"
	"github.com/go-registrar-portal/internal/application/notify"
	"github.com/go-registrar-portal/internal/application/otp"
	"github.com/go-registrar-portal/internal/application/request"
	"github.com/go-registrar-portal/internal/application/session"
	"github.com/go-registrar-portal/internal/application/user"
	"github.com/go-registrar-portal/internal/config"
	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-registrar-portal/internal/infrastructure/jwt"
	s3infra "github.com/go-registrar-portal/internal/infrastructure/s3"
	"github.com/go-registrar-portal/internal/infrastructure/smtp"
	"github.com/go-registrar-portal/internal/transport/http/handler"
	appmiddleware "github.com/go-registrar-portal/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OtpRepo           *dynamo.OtpRepo
	RequestRepo       *dynamo.RequestRepo
	RequestLogRepo    *dynamo.RequestLogRepo
	AuditLogRepo      *dynamo.AuditLogRepo
	EmailLogRepo      *dynamo.EmailLogRepo
	VerifySessionRepo *dynamo.VerifySessionRepo
	DocTypeRepo       *dynamo.DocTypeRepo
	UserRepo          *dynamo.UserRepo
	SessionRepo       *dynamo.SessionRepo
	S3Store           *s3infra.Store
	Mailer            smtp.Mailer
	JWTProvider       *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestMeta)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.VerificationTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second with a burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	recorder := audit.NewRecorder(deps.AuditLogRepo)
	notifySvc := notify.NewService(notify.ServiceDeps{Mailer: deps.Mailer, Logs: deps.EmailLogRepo})
	otpSvc := otp.NewService(otp.ServiceDeps{Repo: deps.OtpRepo, TTL: cfg.OtpTTL})
	gateSvc := gate.NewService(gate.ServiceDeps{Repo: deps.VerifySessionRepo, Window: cfg.GateWindow})
	docTypeSvc := doctype.NewService(doctype.ServiceDeps{Repo: deps.DocTypeRepo, Audit: recorder})
	requestSvc := request.NewService(request.ServiceDeps{
		Repo:               deps.RequestRepo,
		Logs:               deps.RequestLogRepo,
		DocTypes:           deps.DocTypeRepo,
		Files:              deps.S3Store,
		Audit:              recorder,
		Notify:             notifySvc,
		DuplicateWindow:    cfg.DuplicateWindow,
		TrackingPrefix:     cfg.TrackingPrefix,
		TrackingMaxRetries: cfg.TrackingMaxRetries,
	})
	userSvc := user.NewService(user.ServiceDeps{Repo: deps.UserRepo, Sessions: deps.SessionRepo, Audit: recorder})
	sessionSvc := session.NewService(session.ServiceDeps{
		Repo:            deps.SessionRepo,
		Users:           deps.UserRepo,
		JWTProvider:     deps.JWTProvider,
		Audit:           recorder,
		RefreshTokenDur: time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour,
	})

	healthH := handler.NewHealthHandler()
	requestOtpH := handler.NewOtpFlowHandler(otpSvc, gateSvc, notifySvc, domain.OtpPurposeRequest, cfg.OtpTTL)
	trackingOtpH := handler.NewOtpFlowHandler(otpSvc, gateSvc, notifySvc, domain.OtpPurposeTracking, cfg.OtpTTL)
	dashboardOtpH := handler.NewOtpFlowHandler(otpSvc, gateSvc, notifySvc, domain.OtpPurposeDashboard, cfg.OtpTTL)
	publicH := handler.NewPublicRequestHandler(requestSvc, gateSvc)
	adminH := handler.NewAdminRequestHandler(requestSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	docTypeH := handler.NewDocTypeHandler(docTypeSvc)
	auditH := handler.NewAuditLogHandler(deps.AuditLogRepo, deps.EmailLogRepo)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.Get("/document-types", docTypeH.ListActive)

		r.With(sensitiveRL.Limit).Post("/requests/send-otp", requestOtpH.SendOtp)
		r.With(sensitiveRL.Limit).Post("/requests/verify-otp", requestOtpH.VerifyOtp)
		r.With(sensitiveRL.Limit).Post("/requests", publicH.Submit)
		r.Get("/requests/track/{trackingID}", publicH.Track)

		r.With(sensitiveRL.Limit).Post("/tracking/send-otp", trackingOtpH.SendOtp)
		r.With(sensitiveRL.Limit).Post("/tracking/verify-otp", trackingOtpH.VerifyOtp)
		r.Get("/tracking/{trackingID}", publicH.TrackingDetail)

		r.With(sensitiveRL.Limit).Post("/dashboard/send-otp", dashboardOtpH.SendOtp)
		r.With(sensitiveRL.Limit).Post("/dashboard/verify-otp", dashboardOtpH.VerifyOtp)
		r.Get("/dashboard/requests", publicH.Dashboard)

		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)

		// ── Staff routes ─────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any staff role
			r.Get("/requests", adminH.List)
			r.Get("/requests/{id}", adminH.Get)
			r.Put("/requests/{id}/status", adminH.UpdateStatus)
			r.Put("/requests/{id}/notes", adminH.UpdateNotes)
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			// Admin and superadmin
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleSuperadmin))

				r.Post("/requests/bulk", adminH.Bulk)
				r.Get("/requests/trash", adminH.ListTrash)
				r.Delete("/requests/{id}", adminH.Delete)
				r.Post("/requests/{id}/restore", adminH.Restore)

				r.Get("/users", userH.List)
				r.Post("/users", userH.Create)
				r.Delete("/users/{id}", userH.Delete)
				r.Get("/roles", handler.ListRoles)
			})

			// Superadmin only
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleSuperadmin))

				r.Get("/document-types/all", docTypeH.List)
				r.Get("/document-types/{id}", docTypeH.Get)
				r.Post("/document-types", docTypeH.Create)
				r.Put("/document-types/{id}", docTypeH.Update)
				r.Delete("/document-types/{id}", docTypeH.Delete)

				r.Get("/audit-logs", auditH.ListAuditLogs)
				r.Get("/email-logs", auditH.ListEmailLogs)
			})
		})
	})

	return r
}
