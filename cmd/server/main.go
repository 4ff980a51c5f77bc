package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"active-session-gateway/internal/arbiter"
	"active-session-gateway/internal/audit"
	auditrepo "active-session-gateway/internal/audit/repository"
	"active-session-gateway/internal/config"
	"active-session-gateway/internal/db"
	"active-session-gateway/internal/db/migrate"
	"active-session-gateway/internal/gateway"
	"active-session-gateway/internal/registry"
	"active-session-gateway/internal/security"
	sessionrepo "active-session-gateway/internal/session/repository"
	"active-session-gateway/internal/telemetry"
	telemetryotel "active-session-gateway/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	loggerProvider, shutdownOtel, err := telemetryotel.NewLoggerProvider(ctx, cfg.OTLPEndpoint, "active-session-gateway", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	reporter := telemetryotel.NewReporter(loggerProvider)

	var sessions sessionrepo.Repository
	var auditLogs auditrepo.Repository
	if cfg.DatabaseURL != "" {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate: %v", err)
		}
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer sqlDB.Close()
		sessions = sessionrepo.NewPostgresRepository(sqlDB)
		auditLogs = auditrepo.NewPostgresRepository(sqlDB)
	} else {
		log.Println("DATABASE_URL not set; using in-memory stores")
		sessions = sessionrepo.NewMemoryRepository()
		auditLogs = auditrepo.NewMemoryRepository()
	}

	var verifier gateway.Verifier
	if cfg.JWTPublicKey != "" {
		v, err := security.NewVerifier(cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience)
		if err != nil {
			log.Fatalf("security: %v", err)
		}
		verifier = v
	}

	reg := registry.New()
	arb := arbiter.New(reg, sessions, reporter, audit.NewLogger(auditLogs), cfg.ArbitrationTimeoutDuration())
	gw := gateway.NewServer(gateway.Config{
		Registry:     reg,
		Arbiter:      arb,
		Verifier:     verifier,
		AllowOrigins: cfg.AllowOriginsList(),
	})

	srv := &http.Server{
		Addr:    cfg.WSAddr,
		Handler: gw.Handler(),
	}

	go func() {
		log.Printf("gateway listening on %s", cfg.WSAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gateway...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async reports time to complete before the provider goes away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := shutdownOtel(ctx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("gateway stopped")
}
