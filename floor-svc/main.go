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

	"floor-manager/config"
	httpapi "floor-manager/floor-svc/internal/api/http"
	"floor-manager/floor-svc/internal/service"
	"floor-manager/floor-svc/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "floor-svc:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("floor-svc", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "path to a .env file to load before reading the environment")
	addr := flags.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	migrateOnly := flags.Bool("migrate-only", false, "apply database migrations and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.LoadEnvFile(*envFile); err != nil {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	log := config.NewLogger(cfg)

	var store service.Store
	switch cfg.Store {
	case config.StoreMemory:
		store = storage.NewMemoryStore()
		log.Warn("using in-memory store, state is lost on exit")
	default:
		db := config.MustInitPostgres(cfg, log)
		defer db.Close()
		if err := storage.Migrate(db); err != nil {
			return err
		}
		log.Info("database migrations applied")
		if *migrateOnly {
			return nil
		}
		store = storage.NewPostgresStore(db)
	}

	var cache service.PriceCache
	if cfg.RedisEnabled() {
		client := config.MustInitRedis(cfg, log)
		defer client.Close()
		cache = storage.NewRedisPriceCache(client, cfg.MenuPriceTTL)
	}

	gateway, closeGateway, err := newGateway(cfg, log)
	if err != nil {
		return err
	}
	defer closeGateway()

	runner := service.NewTxRunner(store, cfg.TxMaxRetries, log)
	tables := service.NewTableRegistry(runner,
		service.AvailabilityPolicy{AllowUnavailableWhileOccupied: cfg.AllowUnavailableWhileOccupied},
		service.DefaultQRGenerator{BaseURL: cfg.QRBaseURL}, gateway, log)
	bills := service.NewBillAggregator(log)
	menu := service.NewCachedMenu(cache, log)
	orders := service.NewOrderLifecycleManager(runner, tables, bills, menu, gateway, log)
	statuses := service.NewItemStatusStateMachine(runner, tables, bills, gateway, log)

	handler := httpapi.NewHandler(tables, orders, statuses, log)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("floor service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("floor service shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newGateway(cfg *config.Config, log logrus.FieldLogger) (service.NotificationGateway, func(), error) {
	var (
		gateways service.MultiGateway
		closers  []func() error
	)
	if cfg.UsesKafka() {
		writer := config.NewKafkaWriter(cfg)
		gateways = append(gateways, storage.NewKafkaPublisher(writer))
		closers = append(closers, writer.Close)
		log.WithField("topic", cfg.KafkaTopic).Info("publishing events to kafka")
	}
	if cfg.UsesRabbitMQ() {
		publisher, err := storage.DialRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			for _, closeFn := range closers {
				closeFn()
			}
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		gateways = append(gateways, publisher)
		closers = append(closers, publisher.Close)
		log.WithField("exchange", cfg.RabbitMQExchange).Info("publishing events to rabbitmq")
	}

	closeAll := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.WithError(err).Warn("closing event publisher")
			}
		}
	}
	if len(gateways) == 0 {
		return service.NopGateway{}, closeAll, nil
	}
	return gateways, closeAll, nil
}
