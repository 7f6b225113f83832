package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"diamondhost/admin-console/internal/backend"
	"diamondhost/admin-console/internal/config"
	"diamondhost/admin-console/internal/console"
	"diamondhost/admin-console/internal/db"
	internalhttp "diamondhost/admin-console/internal/http"
	"diamondhost/admin-console/internal/identity"
	"diamondhost/admin-console/internal/jobs"
	"diamondhost/admin-console/internal/logx"
	"diamondhost/admin-console/internal/metrics"
	"diamondhost/admin-console/internal/notify"
	"diamondhost/admin-console/internal/profile"
	"diamondhost/admin-console/internal/session"
	"diamondhost/admin-console/internal/telemetry"
)

// memoryDatabase selects the in-process profile store instead of Postgres.
const memoryDatabase = "memory"

func serve(_ *cli.Context) error {
	cfg := config.Load()
	log := logx.Setup(cfg.LogLevel, cfg.LogColor)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.ServiceName)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown", "err", err)
		}
	}()

	var store profile.Store
	if cfg.DatabaseURL == memoryDatabase {
		log.Warn("using in-memory profile store")
		store = profile.NewMemoryStore()
	} else {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connection failed: %w", err)
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("db schema: %w", err)
		}
		store = profile.NewPostgresStore(pool)
	}
	profiles := profile.NewCachedStore(store, cfg.ProfileCacheSize, cfg.ProfileCacheTTL)

	var redisClient *redis.Client
	var persister session.Persister = session.NewMemoryPersister()
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("redis close error", "err", err)
			}
		}()
		persister = session.NewRedisPersister(redisClient)
	}

	m := metrics.New()
	hub := notify.NewHub(log)

	tracedTransport := otelhttp.NewTransport(http.DefaultTransport)
	provider := identity.NewRESTClient(cfg.IdentityURL, cfg.IdentityAPIKey, &http.Client{
		Transport: tracedTransport,
		Timeout:   15 * time.Second,
	})
	provider.TokenURL = cfg.IdentityTokenURL
	provider.RevokePath = cfg.IdentityRevokePath
	api := backend.New(cfg.BackendURL, &http.Client{
		Transport: tracedTransport,
		Timeout:   cfg.BackendTimeout,
	}, m)

	sessions := session.NewManager(provider, profiles,
		session.WithTTL(cfg.SessionTTL),
		session.WithPersister(persister),
		session.WithMetrics(m),
		session.WithLogger(log),
		session.WithEndHook(hub.SessionEnded),
	)
	svc := console.NewService(api, profiles, console.Options{
		SMSSender: cfg.SMSSender,
		Metrics:   m,
		Logger:    log,
		Events:    hub,
	})

	server, err := internalhttp.NewServer(cfg, sessions, svc, hub, m, redisClient, log)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(server.Router(), cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	go func() {
		if err := sessions.Restore(ctx); err != nil {
			log.Error("session restore", "err", err)
		}
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}()

	jobs.StartSessionExpiryJob(ctx, cfg.SessionExpiryCheck, sessions, m, log)
	jobs.NewEstatePoller(svc.LoadEstates, cfg.EstatePollInterval, hub, m, log).Start(ctx)
	jobs.NewPostPoller(svc.LoadPosts, cfg.PostPollInterval, hub, m, log).Start(ctx)

	errs := make(chan error, 2)
	go func() {
		log.Info("admin console http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		listener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			errs <- fmt.Errorf("grpc listen error: %w", err)
			return
		}
		log.Info("admin console grpc listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(listener); err != nil {
			errs <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", "err", err)
	}
	grpcServer.GracefulStop()
	return runErr
}
