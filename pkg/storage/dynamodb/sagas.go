package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

const (
	staleSagaGSI = "state-updated_at-index"
	sagaTTL      = 30 * 24 * time.Hour
)

// BeginSaga stores the first record of a settlement.
func (s *Store) BeginSaga(ctx context.Context, rec *models.SagaRecord) error {
	rec.TTL = rec.CreatedAt.Add(sagaTTL).Unix()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal saga: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.SagasTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(reference_id)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("saga %s already exists: %w", rec.ReferenceID, storage.ErrSagaStateConflict)
		}
		return fmt.Errorf("failed to create saga in DynamoDB: %w", err)
	}

	return nil
}

// SaveSaga replaces a saga record, provided nobody moved it out of the expected state.
func (s *Store) SaveSaga(ctx context.Context, rec *models.SagaRecord, expected models.SagaState) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal saga: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.SagasTableName),
		Item:                item,
		ConditionExpression: aws.String("#state = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#state": "state",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return fmt.Errorf("saga %s not in state %s: %w", rec.ReferenceID, expected, storage.ErrSagaStateConflict)
		}
		return fmt.Errorf("failed to save saga in DynamoDB: %w", err)
	}

	return nil
}

// GetSaga retrieves a saga record by reference id.
func (s *Store) GetSaga(ctx context.Context, referenceID string) (*models.SagaRecord, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"reference_id": referenceID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal saga key: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.SagasTableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get saga from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("saga %s: %w", referenceID, storage.ErrSagaNotFound)
	}

	var rec models.SagaRecord
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saga: %w", err)
	}

	return &rec, nil
}

// ListStaleSagas queries the state index for sagas that have not moved since before the cutoff.
func (s *Store) ListStaleSagas(ctx context.Context, states []models.SagaState, olderThan time.Duration) ([]models.SagaRecord, error) {
	cutoffAV, err := attributevalue.Marshal(time.Now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	var sagas []models.SagaRecord
	for _, state := range states {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.SagasTableName),
			IndexName:              aws.String(staleSagaGSI),
			KeyConditionExpression: aws.String("#state = :state AND updated_at < :cutoff"),
			ExpressionAttributeNames: map[string]string{
				"#state": "state",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":state":  &types.AttributeValueMemberS{Value: string(state)},
				":cutoff": cutoffAV,
			},
		}
		for {
			page, err := s.Client.Query(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("failed to query for stale sagas in %s: %w", state, err)
			}
			var batch []models.SagaRecord
			if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
				return nil, fmt.Errorf("failed to unmarshal stale sagas: %w", err)
			}
			sagas = append(sagas, batch...)
			if len(page.LastEvaluatedKey) == 0 {
				break
			}
			input.ExclusiveStartKey = page.LastEvaluatedKey
		}
	}

	return sagas, nil
}
