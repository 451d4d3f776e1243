package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "auth-session-service/internal/account/repository"
	"auth-session-service/internal/auth/service"
	"auth-session-service/internal/config"
	"auth-session-service/internal/db"
	"auth-session-service/internal/events"
	"auth-session-service/internal/logging"
	"auth-session-service/internal/security"
	"auth-session-service/internal/server"
	sessionrepo "auth-session-service/internal/session/repository"
	"auth-session-service/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("auth-session-service").Error("config", "error", err)
		os.Exit(1)
	}
	log := logging.New("auth-session-service")

	// A missing key pair is a fatal startup error, not a runtime failure.
	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Error("JWT_PRIVATE_KEY is missing or invalid", "error", err)
		os.Exit(1)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Error("JWT_PUBLIC_KEY is missing or invalid", "error", err)
		os.Exit(1)
	}
	codec := security.NewTokenCodec(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	log.Info("token codec ready", "alg", security.KeyAlg(publicKey), "ttl", cfg.TokenTTL().String())

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "auth-session-service", cfg.OTLPInsecure)
	if err != nil {
		log.Error("telemetry init", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()

	var accounts service.AccountRepo
	var sessions service.SessionRepo
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("database connect", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		accounts = accountrepo.NewPostgresRepository(conn)
		sessions = sessionrepo.NewPostgresRepository(conn)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores (development only)")
		accounts = accountrepo.NewMemoryRepository()
		sessions = sessionrepo.NewMemoryRepository()
	}

	var emitter events.Emitter = events.NopEmitter{}
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		kafkaEmitter, err := events.NewKafkaEmitter(brokers)
		if err != nil {
			log.Error("kafka init", "error", err)
			os.Exit(1)
		}
		defer func() { _ = kafkaEmitter.Close() }()
		emitter = kafkaEmitter
		log.Info("lifecycle events enabled", "brokers", brokers,
			"login_topic", cfg.LoginTopic, "logout_topic", cfg.LogoutTopic)
	} else {
		log.Warn("KAFKA_BROKERS not set; lifecycle events disabled")
	}

	manager := service.NewSessionManager(
		accounts, sessions, codec, security.NewHasher(cfg.BcryptCost),
		emitter, log, cfg.MaxSessions, cfg.LoginTopic, cfg.LogoutTopic,
	)

	srv := server.New(cfg.HTTPAddr, server.NewRouter(manager, log))
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "max_sessions", cfg.MaxSessions)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown", "error", err)
	}
	log.Info("stopped")
}
