package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/psl-draft/internal/auth"
	"github.com/Billy-Davies-2/psl-draft/internal/clickhouse"
	"github.com/Billy-Davies-2/psl-draft/internal/config"
	"github.com/Billy-Davies-2/psl-draft/internal/dal"
	"github.com/Billy-Davies-2/psl-draft/internal/draft"
	grpcserver "github.com/Billy-Davies-2/psl-draft/internal/grpc"
	"github.com/Billy-Davies-2/psl-draft/internal/handlers"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/mocks"
	"github.com/Billy-Davies-2/psl-draft/internal/models"
	"github.com/Billy-Davies-2/psl-draft/internal/pubsub"
)

// upstreamBus is a pub/sub backend that can be bridged to local subscribers.
type upstreamBus interface {
	pubsub.Upstream
	Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

var (
	cfg          *config.Config
	dataStore    dal.Store
	engine       *draft.Engine
	authProvider auth.Provider
	upstream     upstreamBus
	ps           *pubsub.PubSub
	ratingFeed   clickhouse.RatingFeed
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	logger.Info("Starting PSL draft service", "environment", cfg.Environment)

	dataStore, err = openStore()
	if err != nil {
		logger.Error("Failed to open data store", "driver", cfg.DBDriver, "error", err)
		log.Fatalf("Failed to open data store: %v", err)
	}

	engine, err = draft.New(dataStore, draft.Options{DefaultRounds: cfg.DraftRounds})
	if err != nil {
		logger.Error("Failed to load draft state", "error", err)
		log.Fatalf("Failed to load draft state: %v", err)
	}

	upstream, err = openEventBus()
	if err != nil {
		logger.Error("Failed to initialize NATS", "error", err)
		log.Fatalf("Failed to initialize NATS: %v", err)
	}
	ps = pubsub.NewWithUpstream(upstream)

	ratingFeed, err = openRatingFeed()
	if err != nil {
		logger.Error("Failed to initialize ClickHouse", "error", err, "address", cfg.ClickHouse.Addr)
		log.Fatalf("Failed to initialize ClickHouse: %v", err)
	}

	authProvider = newAuthProvider()
	gate := auth.NewGate(engine, cfg.AdminPassword)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go clickhouse.RunSync(ctx, ratingFeed, cfg.RatingSyncInterval, applyRating)

	// gRPC
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor))
	grpcserver.Register(grpcServer, grpcserver.NewServer(engine, gate, ps))

	grpcAddr := "0.0.0.0:" + cfg.GRPCPort
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}
	go func() {
		logger.Info("gRPC server starting", "address", grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", "error", err)
		}
	}()

	// HTTP
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)
	mux.HandleFunc("/api/me", authProvider.Middleware(meHandler))

	handlers.NewAPIHandlers(engine, gate, ps).Register(mux)

	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/healthz", livenessHandler) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", readinessHandler) // Kubernetes readiness probe

	addr := "0.0.0.0:" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           authProvider.Identify(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdown(httpServer, grpcServer)
}

func shutdown(httpServer *http.Server, grpcServer *grpc.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// SSE streams end when the local pub/sub closes their channels.
	ps.Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()

	upstream.Close()
	if err := ratingFeed.Close(); err != nil {
		logger.Warn("Failed to close rating feed", "error", err)
	}
	if err := engine.Close(); err != nil {
		logger.Error("Failed to close data store", "error", err)
	}
	logger.Info("Shutdown complete")
}

func openStore() (dal.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		logger.Info("Using SQLite data store", "file", cfg.SQLiteFile)
		return dal.NewSQLiteStore(cfg.SQLiteFile)
	case "postgres":
		if cfg.DatabaseURL == "" {
			// Only reachable in development; Validate rejects it elsewhere.
			return mocks.NewMockPostgresStore(cfg.SQLiteFile)
		}
		logger.Info("Using Postgres data store")
		return dal.NewPostgresStore(cfg.DatabaseURL)
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryStore(), nil
	}
}

// openEventBus uses embedded NATS in development, real NATS JetStream
// otherwise.
func openEventBus() (upstreamBus, error) {
	if !cfg.IsDevelopment() {
		logger.Info("Using NATS JetStream", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
		return pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
	}

	opts := pubsub.DefaultEmbeddedNATSOptions()
	opts.Subject = cfg.NATSSubject
	opts.StoreDir = cfg.NATSStoreDir
	embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
	if err != nil {
		logger.Warn("Embedded NATS unavailable, events stay in-process", "error", err)
		return mocks.NewMockNATS(), nil
	}
	logger.Info("Embedded NATS server ready", "url", embedded.GetServerURL())
	return embedded, nil
}

func openRatingFeed() (clickhouse.RatingFeed, error) {
	if cfg.IsDevelopment() {
		return mocks.NewMockRatingFeed(), nil
	}
	return clickhouse.NewClient(cfg.ClickHouse.Addr, cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password)
}

func newAuthProvider() auth.Provider {
	if cfg.IsDevelopment() {
		logger.Info("Using mock authentication for local development (no Authentik server required)")
		return auth.NewMockAuth()
	}
	logger.Info("Using Authentik authentication", "url", cfg.Authentik.BaseURL)
	return auth.NewAuthentikAuth(&auth.AuthentikConfig{
		BaseURL:      cfg.Authentik.BaseURL,
		ClientID:     cfg.Authentik.ClientID,
		ClientSecret: cfg.Authentik.ClientSecret,
		RedirectURL:  cfg.Authentik.RedirectURL,
		Slug:         cfg.Authentik.Slug,
	})
}

// applyRating feeds one external rating into the engine. Picked players
// keep their rating, so those domain rejections are expected and quiet.
func applyRating(playerID string, rating int) error {
	current, err := engine.Player(playerID)
	if err != nil {
		return err
	}
	if current.Rating == rating {
		return nil
	}

	p, err := engine.SetRating(playerID, rating)
	if err != nil {
		var derr *models.DomainError
		if errors.As(err, &derr) {
			return nil
		}
		return err
	}
	ps.Publish(pubsub.NewEvent(pubsub.EventPlayerRating, p))
	return nil
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"isAdmin": auth.IsAdmin(user),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	check := func(name string, err error) {
		if err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			return
		}
		checks[name] = map[string]interface{}{"status": "healthy"}
	}

	if p, ok := dataStore.(pinger); ok {
		check("database", p.Ping(ctx))
	} else {
		checks["database"] = map[string]interface{}{"status": "in_memory"}
	}

	check("clickhouse", ratingFeed.Ping(ctx))

	if nc, ok := upstream.(*pubsub.NATSPubSub); ok && !nc.Healthy() {
		check("nats", errors.New("not connected"))
	} else {
		check("nats", nil)
	}

	checks["draft"] = map[string]interface{}{"status": engine.Status()}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// livenessHandler handles Kubernetes liveness probes
// Returns 200 if the application is running (doesn't check dependencies)
func livenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// readinessHandler handles Kubernetes readiness probes
// Returns 200 once the data store answers
func readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if p, ok := dataStore.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":    "not_ready",
				"reason":    "database_unavailable",
				"timestamp": time.Now().Unix(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
