// @title AllConnect storefront API
// @version 1.0
// @description Cart, checkout and orders for the AllConnect marketplace.
// @host localhost:9091
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"allconnect/internal/auth"
	"allconnect/internal/backend"
	"allconnect/internal/config"
	"allconnect/internal/domain"
	"allconnect/internal/events"
	httpapi "allconnect/internal/http"
	"allconnect/internal/logger"
	"allconnect/internal/repository"
	"allconnect/internal/service"
	"allconnect/internal/session"

	_ "allconnect/docs"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "storefront",
		Usage:  "AllConnect cart, checkout and orders API",
		Flags:  flags(),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "YAML or TOML config file", EnvVars: []string{"STOREFRONT_CONFIG"}},
		&cli.StringFlag{Name: "mode", Usage: "mock or remote", EnvVars: []string{"STOREFRONT_MODE"}},
		&cli.StringFlag{Name: "env", Usage: "environment name for logs", EnvVars: []string{"APP_ENV"}},
		&cli.StringFlag{Name: "http-addr", Usage: "listen address", EnvVars: []string{"HTTP_ADDR"}},
		&cli.DurationFlag{Name: "shutdown-timeout", Usage: "graceful shutdown budget", EnvVars: []string{"SHUTDOWN_TIMEOUT"}},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", EnvVars: []string{"LOG_LEVEL"}},
		&cli.BoolFlag{Name: "log-pretty", Usage: "human readable logs", EnvVars: []string{"LOG_PRETTY"}},
		&cli.StringFlag{Name: "backend-url", Usage: "backend base URL", EnvVars: []string{"BACKEND_URL"}},
		&cli.DurationFlag{Name: "backend-timeout", Usage: "backend request timeout", EnvVars: []string{"BACKEND_TIMEOUT"}},
		&cli.StringFlag{Name: "jwt-secret", Usage: "HS256 signing secret", EnvVars: []string{"JWT_SECRET"}},
		&cli.DurationFlag{Name: "token-ttl", Usage: "token lifetime", EnvVars: []string{"TOKEN_TTL"}},
		&cli.StringFlag{Name: "admin-email", Usage: "bootstrap admin (mock mode)", EnvVars: []string{"ADMIN_EMAIL"}},
		&cli.StringFlag{Name: "admin-password", Usage: "bootstrap admin password", EnvVars: []string{"ADMIN_PASSWORD"}},
		&cli.StringFlag{Name: "storage", Usage: "memory, sqlite or redis", EnvVars: []string{"STORAGE_DRIVER"}},
		&cli.StringFlag{Name: "sqlite-path", Usage: "sqlite database file", EnvVars: []string{"SQLITE_PATH"}},
		&cli.StringFlag{Name: "redis-addr", Usage: "redis address", EnvVars: []string{"REDIS_ADDR"}},
		&cli.DurationFlag{Name: "storage-ttl", Usage: "redis key ttl, 0 keeps forever", EnvVars: []string{"STORAGE_TTL"}},
		&cli.StringSliceFlag{Name: "kafka-brokers", Usage: "kafka brokers, empty disables events", EnvVars: []string{"KAFKA_BROKERS"}},
		&cli.StringFlag{Name: "kafka-topic", Usage: "order events topic", EnvVars: []string{"KAFKA_TOPIC"}},
		&cli.DurationFlag{Name: "session-idle", Usage: "idle time before a customer session stops", EnvVars: []string{"SESSION_IDLE_TIMEOUT"}},
		&cli.Float64Flag{Name: "place-order-rps", Usage: "order placements per second per customer", EnvVars: []string{"PLACE_ORDER_RPS"}},
		&cli.IntFlag{Name: "place-order-burst", Usage: "order placement burst", EnvVars: []string{"PLACE_ORDER_BURST"}},
		&cli.StringFlag{Name: "catalog", Usage: "catalog seed file (mock mode)", EnvVars: []string{"CATALOG_SEED"}},
	}
}

// loadConfig layers defaults, the optional file and then flags or env.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		if err := config.LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	str := map[string]*string{
		"mode":           &cfg.Mode,
		"env":            &cfg.Env,
		"http-addr":      &cfg.HTTP.Addr,
		"log-level":      &cfg.Log.Level,
		"backend-url":    &cfg.Backend.BaseURL,
		"jwt-secret":     &cfg.Auth.JWTSecret,
		"admin-email":    &cfg.Auth.AdminEmail,
		"admin-password": &cfg.Auth.AdminPassword,
		"storage":        &cfg.Storage.Driver,
		"sqlite-path":    &cfg.Storage.SQLitePath,
		"redis-addr":     &cfg.Storage.RedisAddr,
		"kafka-topic":    &cfg.Kafka.Topic,
		"catalog":        &cfg.Catalog.SeedFile,
	}
	for name, dst := range str {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	dur := map[string]*config.Duration{
		"shutdown-timeout": &cfg.HTTP.ShutdownTimeout,
		"backend-timeout":  &cfg.Backend.Timeout,
		"token-ttl":        &cfg.Auth.TokenTTL,
		"storage-ttl":      &cfg.Storage.TTL,
		"session-idle":     &cfg.Session.IdleTimeout,
	}
	for name, dst := range dur {
		if c.IsSet(name) {
			*dst = config.Duration(c.Duration(name))
		}
	}
	if c.IsSet("log-pretty") {
		cfg.Log.Pretty = c.Bool("log-pretty")
	}
	if c.IsSet("kafka-brokers") {
		cfg.Kafka.Brokers = c.StringSlice("kafka-brokers")
	}
	if c.IsSet("place-order-rps") {
		cfg.Checkout.PlaceOrderRPS = c.Float64("place-order-rps")
	}
	if c.IsSet("place-order-burst") {
		cfg.Checkout.PlaceOrderBurst = c.Int("place-order-burst")
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(logger.Options{Service: "storefront", Env: cfg.Env, Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	ctx := context.Background()

	storage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer storage.Close()

	publisher := events.Publisher(events.NopPublisher{})
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Buffer, log)
	}
	defer publisher.Close()

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.D())
	deps := httpapi.Deps{
		Storage:         storage,
		Log:             log,
		PlaceOrderRPS:   cfg.Checkout.PlaceOrderRPS,
		PlaceOrderBurst: cfg.Checkout.PlaceOrderBurst,
	}

	switch cfg.Mode {
	case config.ModeRemote:
		client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout.D())
		remoteCatalog := backend.NewRemoteCatalog(client)
		orders := backend.NewRemoteOrders(client)
		deps.Backend = client
		deps.Catalog = service.NewCatalogService(remoteCatalog, orders).WithRecommender(remoteCatalog)
		deps.Orders = service.NewOrderService(orders, repository.NoTx{}, publisher, log)
		deps.Customers = service.NewCustomerService(backend.NewRemoteAddresses(client), backend.NewRemoteProfiles(client), repository.NoTx{})
		deps.Auth = auth.NewService(nil, storage, issuer, log).WithBackend(client)
		log.Info().Str("backend", cfg.Backend.BaseURL).Msg("remote mode")
	default:
		store := repository.NewMemoryStore()
		if err := seedCatalog(store, cfg.Catalog.SeedFile); err != nil {
			return err
		}
		orders := repository.NewMemoryOrders(store)
		tx := repository.NewMemoryTx(store)
		deps.Catalog = service.NewCatalogService(store, orders)
		deps.Orders = service.NewOrderService(orders, tx, publisher, log)
		users := repository.NewMemoryUsers(store)
		deps.Customers = service.NewCustomerService(repository.NewMemoryAddresses(store), users, tx)
		deps.Auth = auth.NewService(users, storage, issuer, log)
		if cfg.Auth.AdminEmail != "" {
			in := auth.RegisterInput{Email: cfg.Auth.AdminEmail, Password: cfg.Auth.AdminPassword, FirstName: "Admin", LastName: "AllConnect"}
			if _, err := deps.Auth.SeedUser(ctx, in, domain.RoleAdminNegocio); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
		}
		log.Info().Str("catalog", cfg.Catalog.SeedFile).Msg("mock mode")
	}

	deps.Sessions = session.NewRegistry(storage, deps.Orders, deps.Customers, cfg.Session.IdleTimeout.D(), log)
	srv := httpapi.NewServer(deps)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.D())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if err := deps.Sessions.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("sessions did not drain")
	}
	log.Info().Msg("stopped")
	return nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (repository.Storage, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "redis":
		r := repository.NewRedisStorage(cfg.RedisAddr, "allconnect:", cfg.TTL.D())
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		return r, nil
	default:
		return repository.NewMemoryStorage(repository.NewMemoryStore()), nil
	}
}

func seedCatalog(store *repository.MemoryStore, path string) error {
	if path == "" {
		return nil
	}
	seed, err := config.LoadCatalog(path)
	if err != nil {
		return err
	}
	store.Seed(seed.Products, seed.Categories)
	return nil
}
