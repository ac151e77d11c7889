package main

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/periop/internal/config"
	"github.com/ehr/periop/internal/domain/auditlog"
	"github.com/ehr/periop/internal/domain/identity"
	"github.com/ehr/periop/internal/domain/patient"
	"github.com/ehr/periop/internal/platform/auth"
	"github.com/ehr/periop/internal/platform/db"
	"github.com/ehr/periop/internal/platform/middleware"
	"github.com/ehr/periop/internal/platform/telemetry"
)

type routerDeps struct {
	cfg        *config.Config
	logger     zerolog.Logger
	pool       *pgxpool.Pool
	telemetry  *telemetry.TelemetryProvider
	tokens     *auth.TokenIssuer
	signingKey []byte
}

func newRouter(d routerDeps) *echo.Echo {
	cfg, logger := d.cfg, d.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{HSTS: cfg.TLSEnabled}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID", "traceparent", "tracestate"},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(d.telemetry.TracingMiddleware())
	e.Use(d.telemetry.MetricsMiddleware())

	// Auth middleware
	jwtMW := auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     tokenIssuer,
		SigningKey: d.signingKey,
		Skipper:    auth.AuthSkipper,
	})
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		e.Use(auth.DevAuthMiddleware(jwtMW))
	} else {
		e.Use(jwtMW)
	}

	// Audit middleware
	e.Use(middleware.Audit(logger, d.telemetry))

	// API group
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(d.pool))
	e.GET("/metrics", d.telemetry.PrometheusHandler())

	// Identity domain
	identitySvc := identity.NewService(identity.NewUserRepo(d.pool), d.tokens, logger)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	// Patient and audit trail domains
	auditSvc := auditlog.NewService(auditlog.NewRepo(d.pool))
	patientSvc := patient.NewService(patient.NewRepo(d.pool), logger)
	patientSvc.SetRecorder(auditSvc)
	patientSvc.SetObserver(d.telemetry)
	auditSvc.SetPatientChecker(patientSvc)

	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	auditlog.NewHandler(auditSvc).RegisterRoutes(apiV1)

	return e
}
