package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Mailer sends plain-text email.
type Mailer interface {
	Send(ctx context.Context, to []string, subject string, body string) error
}

// SESAPI is the subset of the SES v2 client used by SESMailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer implements Mailer with Amazon SES.
type SESMailer struct {
	Client SESAPI
	From   string
}

// NewSESMailer creates a new SESMailer.
func NewSESMailer(client SESAPI, from string) *SESMailer {
	return &SESMailer{Client: client, From: from}
}

var _ Mailer = (*SESMailer)(nil)

func (m *SESMailer) Send(ctx context.Context, to []string, subject string, body string) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	_, err := m.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.From),
		Destination:      &types.Destination{ToAddresses: to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}

// NoOpMailer drops every message.
type NoOpMailer struct{}

func (NoOpMailer) Send(ctx context.Context, to []string, subject string, body string) error {
	return nil
}
