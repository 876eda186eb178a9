package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/chris/store-credit-checkout/pkg/metrics"
)

// SQSAPI is the subset of the SQS client used by SQSAlerter.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSAlerter implements the Alerter interface by queueing alerts on AWS SQS.
// The alerts lambda consumes the queue and emails operations.
type SQSAlerter struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSAlerter creates a new SQSAlerter.
func NewSQSAlerter(client SQSAPI, queueURL string) *SQSAlerter {
	return &SQSAlerter{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Alerter = (*SQSAlerter)(nil)

// Alert sends the alert to the SQS queue, tagged with its severity.
func (s *SQSAlerter) Alert(ctx context.Context, alert Alert) error {
	if alert.At.IsZero() {
		alert.At = time.Now().UTC()
	}
	metrics.Alerts.WithLabelValues(string(alert.Severity)).Inc()

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert for SQS: %w", err)
	}

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(alert.Severity)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send alert to SQS: %w", err)
	}

	return nil
}
