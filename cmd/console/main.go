// Package main is the entry point for the live chat console service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atendai/livechat-console/internal/bus"
	"github.com/atendai/livechat-console/internal/config"
	"github.com/atendai/livechat-console/internal/handler"
	"github.com/atendai/livechat-console/internal/middleware"
	"github.com/atendai/livechat-console/internal/realtime"
	"github.com/atendai/livechat-console/internal/session"
	"github.com/atendai/livechat-console/internal/store"
	"github.com/atendai/livechat-console/internal/suggest"
	"github.com/atendai/livechat-console/pkg/logger"
	"github.com/atendai/livechat-console/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting live chat console")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "livechat-console", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	busClient, err := bus.Connect(bus.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer busClient.Close()

	// Store client and realtime source share the connection
	storeClient := store.NewClient(busClient, cfg.StoreRequestTimeout)
	source := realtime.NewNATSSource(busClient, log)

	// Optional LLM client for reply suggestions
	var suggester *suggest.Suggester
	if cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "" {
		provider := suggest.Provider(cfg.DefaultLLM)
		apiKey := cfg.AnthropicAPIKey
		if provider == suggest.ProviderOpenAI {
			apiKey = cfg.OpenAIAPIKey
		}
		llmClient, err := suggest.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("failed to create LLM client, suggestions disabled", zap.Error(err))
		} else {
			suggester = suggest.NewSuggester(llmClient)
		}
	}

	// Session manager
	manager := session.NewManager(storeClient, source, log)
	defer manager.Close()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(busClient)
	sessionHandler := handler.NewSessionHandler(manager, log)
	streamHandler := handler.NewStreamHandler(manager, log)
	contactHandler := handler.NewContactHandler(storeClient, log)
	templateHandler := handler.NewTemplateHandler(storeClient, manager, log)
	suggestionHandler := handler.NewSuggestionHandler(suggester, manager, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/contacts", contactHandler.List)
		r.Get("/templates", templateHandler.List)
		r.Post("/templates/{id}/use", templateHandler.Use)
		r.Get("/suggestions", suggestionHandler.Suggest)

		r.Route("/session", func(r chi.Router) {
			r.Delete("/", sessionHandler.Release)
			r.Get("/state", sessionHandler.State)
			r.Get("/stream", streamHandler.Stream)

			r.Post("/contact/{id}", sessionHandler.SelectContact)
			r.Post("/conversation/{id}", sessionHandler.SelectConversation)

			r.Post("/messages", sessionHandler.SendMessage)
			r.Post("/messages/{id}/feedback", sessionHandler.MessageFeedback)
			r.Post("/ai/toggle", sessionHandler.ToggleAI)
			r.Post("/end", sessionHandler.EndConversation)
			r.Post("/feedback", sessionHandler.ConversationFeedback)

			r.Post("/search", sessionHandler.Search)
			r.Delete("/search", sessionHandler.ClearSearch)
			r.Post("/search/next", sessionHandler.NextMatch)
			r.Post("/search/previous", sessionHandler.PreviousMatch)

			r.Post("/scroll", sessionHandler.ReportScroll)
			r.Post("/scroll/latest", sessionHandler.ScrollToLatest)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
