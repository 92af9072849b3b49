package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/config"
	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/handlers"
	authmw "github.com/dimitrije/aiden-dashboard/internal/middleware"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"github.com/dimitrije/aiden-dashboard/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	credentialService := services.NewCredentialService(db, bcrypt.DefaultCost)
	profileService := services.NewProfileService(db)
	tokenService := services.NewTokenService(db)
	dashboardService := services.NewDashboardService(db)
	reportService := services.NewReportService(dashboardService)
	exportService := services.NewExportService(dashboardService)

	if cfg.SeedDemoUsers {
		if cfg.IsProduction() {
			log.Println("Warning: seeding demo accounts in production")
		}
		hash, err := credentialService.HashPassword(cfg.DemoPassword)
		if err != nil {
			log.Fatalf("Failed to hash demo password: %v", err)
		}
		if err := db.SeedDemo(ctx, hash); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		log.Println("Demo accounts seeded")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := authmw.NewMetrics(registry)

	limiter := authmw.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	limiter.OnReject = func() { metrics.LoginAttempt(authmw.LoginRateLimited) }
	trusted, err := authmw.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("Failed to parse TRUSTED_PROXIES: %v", err)
	}
	limiter.TrustProxies(trusted)
	go limiter.Run(ctx)

	hub := sse.NewHub()
	go hub.Run(ctx)

	authHandler := handlers.NewAuthHandler(credentialService, profileService, tokenService, jwtService, metrics).
		WithEvents(hub)
	userHandler := handlers.NewUserHandler(profileService, cfg.DefaultPhoneRegion).WithEvents(hub)
	eventsHandler := handlers.NewEventsHandler(hub)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, reportService)
	exportHandler := handlers.NewExportHandler(exportService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))

	api := app.Group("/api/v1")

	// The token endpoint reads its own form body.
	token := api.Group("")
	token.Use(limiter.Middleware())
	token.Post("/auth/token", authHandler.Token)

	auth := api.Group("/auth")
	auth.Use(middleware.BodyParser())
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(middleware.BodyParser())

	protected.Get("/auth/session", authHandler.Session)
	protected.Post("/auth/logout-all", authHandler.LogoutAll)
	protected.Get("/events", eventsHandler.Connect)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)
	protected.Get("/profiles/:id", userHandler.GetProfile)
	protected.Patch("/profiles/:id", userHandler.UpdateProfile)

	protected.Get("/dashboard/stats", dashboardHandler.Stats)
	protected.Get("/projects", dashboardHandler.Projects)
	protected.Get("/certifications", dashboardHandler.Certifications)
	protected.Get("/certifications/progress", dashboardHandler.CertificationProgress)
	protected.Get("/portfolio", dashboardHandler.Portfolio)

	team := api.Group("")
	team.Use(authmw.Auth(jwtService))
	team.Use(authmw.RequireArea("team"))
	team.Get("/team", dashboardHandler.Team)

	reports := api.Group("")
	reports.Use(authmw.Auth(jwtService))
	reports.Use(authmw.RequireArea("reports"))
	reports.Get("/reports", dashboardHandler.Reports)

	export := api.Group("")
	export.Use(authmw.Auth(jwtService))
	export.Use(authmw.RequireArea("export"))
	export.Get("/export/:dataset", exportHandler.Export)

	api.Get("/health", func(c *drift.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Pool.Ping(pingCtx); err != nil {
			_ = c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := tokenService.CleanupExpired(ctx)
				if err != nil {
					log.Printf("Refresh token cleanup failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("Removed %d expired refresh tokens", n)
				}
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", metrics.Instrument(app))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
