// Command bookhub runs the Book Exchange Hub server.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth/oidc"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/chat"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/config"
	httpapi "github.com/gaurav05-coder/Book-Exchange-Hub/internal/http"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
)

func main() {
	logger := observability.NewLogger(observability.ConfigFromEnv())

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      envOr("SENTRY_ENVIRONMENT", "production"),
			Release:          envOr("APP_VERSION", "dev"),
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Warn("sentry initialization failed", "error", err)
		} else {
			logger.Info("sentry initialized")
			sentryEnabled = true
		}
	}

	// Select storage based on build tags (see store_*.go in this package).
	st := selectStores(logger, cfg)

	metricsCfg := observability.MetricsConfigFromEnv()
	var metrics *observability.Metrics
	if metricsCfg.Enabled {
		metrics = observability.NewMetrics(metricsCfg)
		logger.Info("metrics enabled", "namespace", metricsCfg.Namespace)
	} else {
		logger.Info("metrics disabled")
	}

	chatStore := chat.NewStore(st.kv, chat.NewBus(), logger, metrics)

	mux := http.NewServeMux()
	srv := httpapi.NewServer(mux, httpapi.Options{
		Logger:      logger,
		Metrics:     metrics,
		Books:       st.books,
		Users:       st.users,
		Sessions:    st.sessions,
		Chat:        chatStore,
		EmailDomain: cfg.EmailDomain,
		SessionTTL:  cfg.SessionTTL,
	})

	if cfg.OIDC.Enabled() {
		if err := enableOIDC(srv, logger, cfg); err != nil {
			logger.Error("sso initialization failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sso enabled", "issuer", cfg.OIDC.IssuerURL)
	}

	srv.RegisterRoutes()
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	// Background session cleanup every 15 minutes.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			n, err := st.sessions.Cleanup(context.Background())
			if err != nil {
				logger.Warn("session cleanup error", "error", err)
			} else if n > 0 {
				logger.Info("cleaned up expired sessions", "count", n)
			}
		}
	}()

	rateCfg := httpapi.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}
	if rateCfg.Enabled() {
		logger.Info("rate limiting configured",
			"requests_per_second", rateCfg.RequestsPerSecond,
			"burst", rateCfg.Burst,
		)
	} else {
		logger.Info("rate limiting disabled")
	}

	// Order: metrics (outermost) -> requestID -> logging -> rate limit -> session
	handler := httpapi.ApplyMiddlewares(
		mux,
		observability.MetricsMiddleware(metrics),
		httpapi.RequestIDMiddleware(),
		httpapi.LoggingMiddleware(logger),
		httpapi.RateLimitMiddleware(rateCfg, logger, metrics),
		httpapi.SessionMiddleware(st.sessions, st.users),
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: the chat stream holds connections open.
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("bookhub listening", "addr", cfg.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	}

	logger.Info("shutting down server", "timeout", "15s")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}

	if err := st.close(); err != nil {
		logger.Error("error closing storage", "error", err)
	}

	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	logger.Info("shutdown complete")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// enableOIDC wires single sign-on onto the server.
func enableOIDC(srv *httpapi.Server, logger observability.Logger, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		IssuerURL:    cfg.OIDC.IssuerURL,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
		HostedDomain: cfg.EmailDomain,
	})
	if err != nil {
		return err
	}

	var key []byte
	if cfg.OIDC.EncryptionKey != "" {
		key, err = hex.DecodeString(cfg.OIDC.EncryptionKey)
		if err != nil || len(key) != 32 {
			logger.Warn("invalid oidc encryption key, generating an ephemeral one")
			key = nil
		}
	}
	if key == nil {
		key, err = oidc.GenerateEncryptionKey()
		if err != nil {
			return err
		}
		// Logins started before a restart will not survive it.
		logger.Info("using ephemeral sso state key; set oidc.encryption_key to persist")
	}

	srv.EnableOIDC(provider, key)
	return nil
}
