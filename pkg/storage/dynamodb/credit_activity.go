package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/store-credit-checkout/pkg/models"
)

const creditActivityGSI = "code-timestamp-index"

// ListCreditActivity returns the most recent activity rows for a credit, newest first.
func (s *Store) ListCreditActivity(ctx context.Context, code string, limit int32) ([]models.CreditActivity, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.CreditActivityTableName),
		IndexName:              aws.String(creditActivityGSI),
		KeyConditionExpression: aws.String("code = :code"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for credit activity: %w", err)
	}

	entries := []models.CreditActivity{}
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credit activity: %w", err)
	}

	return entries, nil
}
