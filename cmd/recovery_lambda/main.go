package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/chris/store-credit-checkout/pkg/alerts"
	"github.com/chris/store-credit-checkout/pkg/config"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/notify"
	"github.com/chris/store-credit-checkout/pkg/payments/square"
	"github.com/chris/store-credit-checkout/pkg/settlement"
	dydbstore "github.com/chris/store-credit-checkout/pkg/storage/dynamodb"
)

var (
	coordinator *settlement.Coordinator
	cfg         *config.Config
	logger      *slog.Logger
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("unable to load config, %v", err)
	}
	if err := cfg.ValidateRecovery(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger = cfg.Logger()
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.Tables{
		Credits:        cfg.CreditsTable,
		CreditActivity: cfg.CreditActivityTable,
		Sagas:          cfg.SagasTable,
		Calendar:       cfg.CalendarTable,
	})

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

	var alerter alerts.Alerter = alerts.LogAlerter{}
	if cfg.AlertsQueueURL != "" {
		alerter = alerts.NewSQSAlerter(sqs.NewFromConfig(awsCfg), cfg.AlertsQueueURL)
	}

	// Recovery only refunds, so the ledger never seals or opens a lock
	// and no notifiers are registered.
	coordinator = settlement.New(ledger.New(store, nil), gateway, store, notify.NewDispatcher(0), alerter,
		settlement.WithLogger(logger))
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	logger.Info("starting recovery sweep for stale settlements", "older_than", cfg.RecoveryThreshold)

	report, err := coordinator.Recover(ctx, cfg.RecoveryThreshold)
	if err != nil {
		logger.Error("recovery sweep failed", "error", err)
		return err
	}

	if len(report.Failed) > 0 {
		// Each failure has already paged; the sweep retries them next run.
		logger.Error("some settlements could not be compensated", "reference_ids", report.Failed)
	}
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
