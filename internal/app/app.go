package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/config"
	"github.com/brandcart/storefront/internal/event"
	handler "github.com/brandcart/storefront/internal/handler/http"
	"github.com/brandcart/storefront/internal/repository"
	"github.com/brandcart/storefront/internal/repository/memory"
	redisrepo "github.com/brandcart/storefront/internal/repository/redis"
	"github.com/brandcart/storefront/internal/service"
	"github.com/brandcart/storefront/internal/store"
	"github.com/brandcart/storefront/pkg/database"
	"github.com/brandcart/storefront/pkg/health"
	pkgkafka "github.com/brandcart/storefront/pkg/kafka"
	pkgmiddleware "github.com/brandcart/storefront/pkg/middleware"
	"github.com/brandcart/storefront/pkg/tracing"
)

// memorySweepInterval is how often the in-process store drops expired keys.
const memorySweepInterval = time.Minute

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	rdb            *redis.Client
	memKV          *memory.KV
	producer       *pkgkafka.Producer
	sessions       *service.SessionManager
	limiter        *pkgmiddleware.RateLimiter
	otpLimiter     *pkgmiddleware.RateLimiter
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance: tracing, the key-value store,
// the event producer, the marketplace API client, the services and the HTTP
// router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}
	healthHandler := health.NewHandler()

	// Key-value store for the cart/wishlist mirror and the response cache.
	var kv repository.KV
	if cfg.RedisEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		a.rdb, err = database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			_ = tracerShutdown(context.Background())
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to redis", slog.String("addr", redisCfg.Addr()))
		kv = redisrepo.NewKV(a.rdb)
		healthHandler.Register("redis", database.RedisPing(a.rdb))
	} else {
		a.memKV = memory.NewKV()
		kv = a.memKV
		logger.Info("redis disabled, using in-process store")
	}

	// Storefront events.
	var publisher event.Publisher = event.Noop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	api := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, logger)
	healthHandler.RegisterNonCritical("marketplace-api", dialCheck(cfg.APIBaseURL))

	catalog := service.NewCatalog(api, kv, logger)
	a.sessions = service.NewSessionManager(service.SessionDeps{
		Catalog: catalog,
		Source:  api,
		Store:   store.New(kv, cfg.SessionTTL, logger),
		Events:  publisher,
		Logger:  logger,
		SiteURL: cfg.SiteURL,
	}, cfg.SessionIdle)

	a.limiter = pkgmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, logger)
	a.otpLimiter = pkgmiddleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.OTPPerMinute)), cfg.OTPPerMinute, logger)

	render, err := handler.NewRenderer(logger)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := handler.NewRouter(cfg, handler.Handlers{
		Storefront: handler.NewStorefrontHandler(a.sessions, catalog, render, cfg.SiteURL, handler.DefaultRenderWait, logger),
		Pages:      handler.NewPageHandler(catalog, render, cfg.SiteURL, logger),
		Account:    handler.NewAccountHandler(service.NewAuthService(api, logger), a.otpLimiter, render, cfg.CookieSecure, logger),
		Seller:     handler.NewSellerHandler(service.NewUploadService(api, logger), render, logger),
		Revalidate: handler.NewRevalidateHandler(catalog, cfg.RevalidateKey, logger),
		Health:     healthHandler,
		Limiter:    a.limiter,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.memKV != nil {
		go a.sweep(ctx)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(memorySweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.memKV.Sweep(); n > 0 {
				a.logger.Debug("expired keys swept", slog.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops the application in order:
// 1. HTTP server (drain in-flight requests)
// 2. Sessions (cancel pending loads)
// 3. Rate limiters, Kafka producer and Redis
// 4. Tracer (flush spans from drained requests)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release stops everything but the HTTP server.
func (a *App) release() []error {
	var errs []error

	if a.sessions != nil {
		a.sessions.Stop()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.otpLimiter != nil {
		a.otpLimiter.Stop()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errs
}

// dialCheck reports whether a TCP connection to the host of rawURL opens.
func dialCheck(rawURL string) health.Checker {
	return func(ctx context.Context) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parse API base URL: %w", err)
		}
		host := u.Host
		if u.Port() == "" {
			port := "80"
			if u.Scheme == "https" {
				port = "443"
			}
			host = net.JoinHostPort(u.Hostname(), port)
		}
		d := net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return fmt.Errorf("marketplace API unreachable: %w", err)
		}
		_ = conn.Close()
		return nil
	}
}
