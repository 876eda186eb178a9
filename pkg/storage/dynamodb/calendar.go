package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/store-credit-checkout/pkg/models"
)

// PutCalendarEvent records the fulfilment event for an order. A second write
// for the same reference is ignored.
func (s *Store) PutCalendarEvent(ctx context.Context, event *models.CalendarEvent) error {
	item, err := attributevalue.MarshalMap(event)
	if err != nil {
		return fmt.Errorf("failed to marshal calendar event: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.CalendarTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(reference_id)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		return fmt.Errorf("failed to put calendar event: %w", err)
	}

	return nil
}
