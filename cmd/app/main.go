package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/store-credit-checkout/pkg/alerts"
	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/config"
	"github.com/chris/store-credit-checkout/pkg/handlers"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/locktoken"
	"github.com/chris/store-credit-checkout/pkg/middleware"
	"github.com/chris/store-credit-checkout/pkg/notify"
	"github.com/chris/store-credit-checkout/pkg/payments/square"
	"github.com/chris/store-credit-checkout/pkg/settlement"
	"github.com/chris/store-credit-checkout/pkg/storage"
	dydbstore "github.com/chris/store-credit-checkout/pkg/storage/dynamodb"
	"github.com/chris/store-credit-checkout/pkg/storage/memory"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("unable to load config, %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	// AWS clients are only built when something needs them.
	var clients *awsClients
	aws := func() *awsClients {
		if clients == nil {
			c, err := awsconfig.LoadDefaultConfig(context.TODO())
			if err != nil {
				log.Fatalf("unable to load SDK config, %v", err)
			}
			clients = &awsClients{
				dynamo: dynamodb.NewFromConfig(c),
				ses:    sesv2.NewFromConfig(c),
				sqs:    sqs.NewFromConfig(c),
			}
		}
		return clients
	}

	var store storage.Storage
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		store = memory.New()
	default:
		store = dydbstore.New(aws().dynamo, dydbstore.Tables{
			Credits:        cfg.CreditsTable,
			CreditActivity: cfg.CreditActivityTable,
			Sagas:          cfg.SagasTable,
			Calendar:       cfg.CalendarTable,
		})
	}

	sealer, err := locktoken.NewSealer(cfg.LockTokenSecret, cfg.LockTokenTTL)
	if err != nil {
		log.Fatalf("unable to build lock token sealer: %v", err)
	}
	credits := ledger.New(store, sealer)

	gateway, err := square.New(square.Config{
		BaseURL:     cfg.Square.BaseURL,
		AccessToken: cfg.Square.AccessToken,
		LocationID:  cfg.Square.LocationID,
		APIVersion:  cfg.Square.APIVersion,
		Timeout:     cfg.Square.Timeout,
	})
	if err != nil {
		log.Fatalf("unable to build payment gateway: %v", err)
	}

	var mailer notify.Mailer = notify.NoOpMailer{}
	if cfg.NotifyFromAddress != "" {
		mailer = notify.NewSESMailer(aws().ses, cfg.NotifyFromAddress)
	} else {
		logger.Warn("NOTIFY_FROM_ADDRESS not set, emails are disabled")
	}

	notifiers := []notify.Notifier{
		&notify.CustomerNotifier{Mailer: mailer},
		&notify.CalendarNotifier{Store: store},
	}
	if len(cfg.OpsEmailAddresses) > 0 {
		notifiers = append(notifiers, &notify.OpsNotifier{Mailer: mailer, To: cfg.OpsEmailAddresses})
	}
	dispatcher := notify.NewDispatcher(cfg.NotifyTimeout, notifiers...)

	var alerter alerts.Alerter = alerts.LogAlerter{}
	if cfg.AlertsQueueURL != "" {
		alerter = alerts.NewSQSAlerter(aws().sqs, cfg.AlertsQueueURL)
	}

	coordinator := settlement.New(credits, gateway, store, dispatcher, alerter, settlement.WithLogger(logger))

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Handle("/metrics", promhttp.Handler())

	// Use the generated function to mount our handler on the router
	api.HandlerFromMux(handlers.NewApiHandler(coordinator, credits, cfg.Currency), router)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.HTTPPort, "storage", cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

type awsClients struct {
	dynamo *dynamodb.Client
	ses    *sesv2.Client
	sqs    *sqs.Client
}
