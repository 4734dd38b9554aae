package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/coupon"
	"github.com/varahajewels/storefront-api/internal/domain/order"
	"github.com/varahajewels/storefront-api/internal/domain/product"
	"github.com/varahajewels/storefront-api/internal/events"
	"github.com/varahajewels/storefront-api/internal/handler"
	"github.com/varahajewels/storefront-api/internal/invoice"
	"github.com/varahajewels/storefront-api/internal/payment"
	"github.com/varahajewels/storefront-api/internal/storage/jsonfile"
	"github.com/varahajewels/storefront-api/internal/storage/postgres"
	"github.com/varahajewels/storefront-api/pkg/health"
	"github.com/varahajewels/storefront-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Storage.
	var (
		orderStore  order.Store
		couponRepo  coupon.Repository
		productRepo product.Repository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})

		orderStore = postgres.NewOrderStore(pool)
		// Coupon and product collections stay file backed; only the order
		// ledger moves to row-level updates under the postgres driver.
		couponRepo = jsonfile.NewCouponStore(cfg.Storage.DataDir, lg)
		productRepo = jsonfile.NewProductStore(cfg.Storage.DataDir, lg)
	case "jsonfile":
		orderStore = jsonfile.NewOrderStore(cfg.Storage.DataDir, lg)
		couponRepo = jsonfile.NewCouponStore(cfg.Storage.DataDir, lg)
		productRepo = jsonfile.NewProductStore(cfg.Storage.DataDir, lg)
	default:
		return errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Order event stream (optional).
	var publisher order.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg)
		if err != nil {
			return errors.Wrap(err, "create kafka publisher")
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(closeCtx); err != nil {
				lg.Warn("Kafka close", zap.Error(err))
			}
		}()
		publisher = kafka
	}

	// Payment gateway.
	gateway := payment.NewClient(payment.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Timeout:   cfg.Razorpay.Timeout,
	})

	// Domain services.
	couponValidator := coupon.NewRepoValidator(couponRepo)
	checkout := order.NewService(orderStore, couponValidator, gateway, publisher, cfg.SiteURL, lg)

	// HTTP handlers.
	h := handler.NewHandler(
		checkout,
		orderStore,
		couponRepo,
		productRepo,
		invoice.NewRenderer(cfg.Invoice.Dir),
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	apiHandler := otelhttp.NewHandler(mux, "storefront-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(apiHandler,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
