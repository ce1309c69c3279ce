package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	_ "github.com/umalmyha/intake/docs"
	"github.com/umalmyha/intake/internal/cache"
	"github.com/umalmyha/intake/internal/config"
	"github.com/umalmyha/intake/internal/csrf"
	"github.com/umalmyha/intake/internal/handlers"
	"github.com/umalmyha/intake/internal/infra"
	"github.com/umalmyha/intake/internal/middleware"
	"github.com/umalmyha/intake/internal/repository"
	"github.com/umalmyha/intake/internal/service"
	"github.com/umalmyha/intake/internal/upload"
	"github.com/umalmyha/intake/internal/validation"
	"github.com/umalmyha/intake/pkg/db/transactor"
)

// backends holds connections app is built on, close releases them in reverse order
type backends struct {
	customerRepo  repository.CustomerRepository
	trx           transactor.Transactor
	tokenStore    csrf.Store
	customerCache cache.CustomerCache
	uploads       upload.Storage
	closers       []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// @title       Customer intake API
// @version     1.0
// @description Collects customer contact details and optional photo through anti-forgery protected form.
// @BasePath    /
func main() {
	logger := logrus.New()

	cfg, err := config.Build()
	if err != nil {
		logger.WithError(err).Fatal("failed to build configuration")
	}
	configureLogger(logger, cfg.LogCfg)

	b, err := connect(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to backends")
	}
	defer b.close()

	app, err := app(cfg, b, logger)
	if err != nil {
		logger.WithError(err).Error("failed to build application")
		return
	}

	start(app, cfg.HTTPCfg, logger)
}

func configureLogger(logger *logrus.Logger, cfg config.LogCfg) {
	// level is validated by config.Build
	lvl, _ := logrus.ParseLevel(cfg.Level)
	logger.SetLevel(lvl)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func connect(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*backends, error) {
	b := &backends{}

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := infra.Postgresql(ctx, cfg.PostgresCfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.customerRepo = repository.NewPostgresCustomerRepository(transactor.NewPgxWithinTransactionExecutor(pool))
		b.trx = transactor.NewPgxTransactor(pool)
	case config.StoreDriverMongo:
		client, err := infra.Mongodb(ctx, cfg.MongoCfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.WithError(err).Error("failed to disconnect from mongodb")
			}
		})

		repo, err := repository.NewMongoCustomerRepository(ctx, client.Database(cfg.MongoCfg.Database))
		if err != nil {
			b.close()
			return nil, err
		}
		b.customerRepo = repo
		b.trx = transactor.NewNoopTransactor()
	default:
		logger.Warn("customers are kept in memory and will be lost on restart")
		b.customerRepo = repository.NewMemoryCustomerRepository()
		b.trx = transactor.NewNoopTransactor()
	}

	if cfg.RedisCfg.Enabled() {
		client, err := infra.Redis(ctx, cfg.RedisCfg)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := client.Close(); err != nil {
				logger.WithError(err).Error("failed to close redis client")
			}
		})
		b.tokenStore = csrf.NewRedisStore(client, cfg.SessionCfg.TimeToLive)
		b.customerCache = cache.NewRedisCustomerCache(client, cfg.RedisCfg.CacheTTL)
	} else {
		b.tokenStore = csrf.NewMemoryStore(cfg.SessionCfg.TimeToLive)
		b.customerCache = cache.NewNoopCustomerCache()
	}

	uploads, err := infra.UploadStorage(ctx, cfg.StorageCfg)
	if err != nil {
		b.close()
		return nil, err
	}
	b.uploads = uploads

	return b, nil
}

func app(cfg config.Config, b *backends, logger logrus.FieldLogger) (*echo.Echo, error) {
	v, trans, err := validation.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build validator - %w", err)
	}

	// Extra functionality
	tokenGuard := csrf.NewGuard(b.tokenStore)
	fieldValidator := validation.NewFieldValidator(v, trans)
	uploadGuard := upload.NewGuard(b.uploads)

	// Services
	intakeSvc := service.NewIntakeService(tokenGuard, fieldValidator, uploadGuard, b.customerRepo, b.customerCache, b.trx, logger)
	customerSvc := service.NewCustomerService(b.customerRepo, b.customerCache, uploadGuard, logger)

	// Handlers
	h := infra.Handlers{
		Intake:   handlers.NewIntakeHTTPHandler(intakeSvc),
		Customer: handlers.NewCustomerHTTPHandler(customerSvc),
		Image:    handlers.NewImageHTTPHandler(customerSvc),
	}

	sessionCfg := middleware.SessionCfg{
		CookieName: cfg.SessionCfg.CookieName,
		Secure:     cfg.SessionCfg.CookieSecure,
		TimeToLive: cfg.SessionCfg.TimeToLive,
	}

	return infra.Router(h, validation.Echo(v, trans), sessionCfg, logger), nil
}

func start(app *echo.Echo, cfg config.HTTPCfg, logger logrus.FieldLogger) {
	app.Server.ReadTimeout = cfg.ReadTimeout
	app.Server.WriteTimeout = cfg.WriteTimeout

	shutdownCh := make(chan os.Signal, 1)
	errorCh := make(chan error, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Infof("starting server on port %d", cfg.Port)
		errorCh <- app.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case <-shutdownCh:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutdown signal has been sent, stopping the server...")
		if err := app.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("failed to stop server gracefully")
		}
	case err := <-errorCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("shutting down the server, unexpected error occurred")
		}
	}
}
