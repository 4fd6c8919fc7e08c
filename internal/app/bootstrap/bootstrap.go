package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	signoffservice "signoff/contexts/editorial-workflow/signoff-service"
	busadapter "signoff/contexts/editorial-workflow/signoff-service/adapters/bus"
	mailadapter "signoff/contexts/editorial-workflow/signoff-service/adapters/mail"
	postgresadapter "signoff/contexts/editorial-workflow/signoff-service/adapters/postgres"
	tokenadapter "signoff/contexts/editorial-workflow/signoff-service/adapters/token"
	workerapp "signoff/contexts/editorial-workflow/signoff-service/application/workers"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
	"signoff/internal/platform/config"
	"signoff/internal/platform/db"
	"signoff/internal/platform/httpserver"
	"signoff/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	delivery workerapp.DeliveryConsumer
	enabled  bool
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewBus(cfg.BusBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := signoffservice.NewModule(signoffservice.Dependencies{
		Directory: repo,
		Allowlist: repo,
		Votes:     repo,
		Content:   repo,
		Authz:     repo,
		Notifier: busadapter.Notifier{
			Publisher: bus,
			Topic:     busadapter.DefaultTopic,
			Clock:     postgresadapter.SystemClock{},
			Logger:    logger,
		},
		Tokens: tokenadapter.Service{
			Secret: []byte(cfg.TokenSecret),
			Clock:  postgresadapter.SystemClock{},
		},
		Clock:          postgresadapter.SystemClock{},
		ModeratorRoles: cfg.ModeratorRoles,
		Logger:         logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	bus, err := messaging.NewBus(cfg.BusBrokers, logger)
	if err != nil {
		return nil, err
	}

	var mailer ports.MailSender
	if cfg.SMTPAddr != "" {
		mailer = mailadapter.SMTPSender{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, Logger: logger}
	} else {
		mailer = mailadapter.LogSender{Logger: logger}
	}

	return &WorkerApp{
		delivery: workerapp.DeliveryConsumer{
			Subscriber:    bus,
			Mailer:        mailer,
			Topic:         busadapter.DefaultTopic,
			ConsumerGroup: "signoff-delivery-cg",
			Logger:        logger,
		},
		enabled: cfg.EnableChangesDoneDelivery,
		logger:  logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if !w.enabled {
		w.logger.Info("changes-done delivery disabled; worker idle",
			"event", "bootstrap_worker_disabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return nil
	}

	if err := w.delivery.Start(ctx); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	<-ctx.Done()
	return nil
}

func (w *WorkerApp) Close() error {
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
