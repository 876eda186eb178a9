package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/chris/store-credit-checkout/pkg/alerts"
	"github.com/chris/store-credit-checkout/pkg/config"
	"github.com/chris/store-credit-checkout/pkg/notify"
)

var forwarder *alerts.Forwarder

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("unable to load config, %v", err)
	}
	if err := cfg.ValidateAlerts(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(cfg.Logger())

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	mailer := notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.NotifyFromAddress)
	forwarder = alerts.NewForwarder(mailer, cfg.OpsEmailAddresses)
}

// HandleRequest emails every queued alert to the operations mailbox.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		slog.Info("forwarding alert", "message_id", message.MessageId)

		if err := forwarder.Forward(ctx, []byte(message.Body)); err != nil {
			// Returning the error makes SQS redeliver the batch.
			slog.Error("failed to forward alert", "message_id", message.MessageId, "error", err)
			return err
		}
	}
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
