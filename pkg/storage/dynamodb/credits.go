package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

// CreateCredit stores a new credit entry. Codes are never overwritten.
func (s *Store) CreateCredit(ctx context.Context, entry *models.CreditEntry) error {
	if entry.AssociatedOrders == nil {
		entry.AssociatedOrders = []string{}
	}
	if entry.Names == nil {
		entry.Names = []string{}
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal credit: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.CreditsTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(code)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("credit %s: %w", entry.Code, storage.ErrCreditExists)
		}
		return fmt.Errorf("failed to create credit in DynamoDB: %w", err)
	}

	return nil
}

// GetCredit retrieves a credit entry by its code using a strongly consistent read.
func (s *Store) GetCredit(ctx context.Context, code string) (*models.CreditEntry, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"code": code})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credit code: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.CreditsTableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get credit from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("credit %s: %w", code, storage.ErrCreditNotFound)
	}

	var entry models.CreditEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credit: %w", err)
	}

	return &entry, nil
}
