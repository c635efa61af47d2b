package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/otp"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	}

	var index service.ProductIndex
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ix, err := search.Connect(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		cancel()
		if err != nil {
			logger.Error("search_unavailable", "fallback", "sql", "error", err)
		} else {
			index = ix
		}
	}

	runCtx, stopRun := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer stopRun()

	store := otp.New(otp.WithTTL(cfg.OTPTTL))
	go store.Run(runCtx, cfg.OTPSweepInterval)

	email, sms := notify.Select(cfg.OTPTestMode, cfg.NotifyWebhookURL, publisher, logger)
	dispatcher := &notify.Dispatcher{
		Store:       store,
		Email:       email,
		SMS:         sms,
		CountryCode: cfg.PhoneCountryCode,
	}

	r := &repo.GormRepo{DB: db}
	cart := &service.CartService{Repo: r, Events: publisher}
	orders := &service.OrderService{Repo: r, Events: publisher, Strict: cfg.StrictOrderTransitions}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Secure())
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.DefaultConfig()))
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:                &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret, Welcome: dispatcher},
			VerificationSecret: cfg.VerificationSecret,
		},
		OTP: &httpserver.OTPHTTP{
			Svc:    &service.VerificationService{Repo: r, Store: store, Dispatcher: dispatcher},
			Secret: cfg.VerificationSecret,
		},
		Catalog:  &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Index: index, Events: publisher}},
		Cart:     &httpserver.CartHTTP{Svc: cart},
		Wishlist: &httpserver.WishlistHTTP{Svc: &service.WishlistService{Repo: r}},
		Orders: &httpserver.OrderHTTP{
			Orders:   orders,
			Checkout: &service.CheckoutService{Repo: r, Cart: cart, Orders: orders},
		},
		JWTSecret: cfg.JWTAccessSecret,
		Ready:     func(ctx context.Context) error { return ping(ctx, db) },
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	stopRun()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("storefront stopped")
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
