package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
	"github.com/chris/store-credit-checkout/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSaga(state models.SagaState) *models.SagaRecord {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.SagaRecord{
		ReferenceID:      "01JREF",
		State:            state,
		RequestedTotal:   models.Money{Amount: 2500, Currency: "USD"},
		RemainingBalance: 2500,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestBeginSaga(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return *in.TableName == "sagas" && *in.ConditionExpression == "attribute_not_exists(reference_id)"
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		rec := testSaga(models.PROPOSED)
		err := store.BeginSaga(context.Background(), rec)

		require.NoError(t, err)
		assert.Equal(t, rec.CreatedAt.Add(sagaTTL).Unix(), rec.TTL)
	})

	t.Run("Duplicate Reference", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		err := store.BeginSaga(context.Background(), testSaga(models.PROPOSED))

		assert.ErrorIs(t, err, storage.ErrSagaStateConflict)
	})

	t.Run("DynamoDB Error", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable")).Once()

		err := store.BeginSaga(context.Background(), testSaga(models.PROPOSED))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create saga in DynamoDB")
	})
}

func TestSaveSaga(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			expected := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
			return *in.ConditionExpression == "#state = :expected" && expected.Value == string(models.CREDIT_RESERVED)
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		err := store.SaveSaga(context.Background(), testSaga(models.CHARGING), models.CREDIT_RESERVED)

		assert.NoError(t, err)
	})

	t.Run("State Moved", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		err := store.SaveSaga(context.Background(), testSaga(models.CHARGING), models.CREDIT_RESERVED)

		assert.ErrorIs(t, err, storage.ErrSagaStateConflict)
	})
}

func TestGetSaga(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		rec := testSaga(models.PAID)
		rec.CreditSnapshot = testCredit()
		item, err := attributevalue.MarshalMap(rec)
		require.NoError(t, err)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil).Once()

		got, err := store.GetSaga(context.Background(), rec.ReferenceID)

		require.NoError(t, err)
		assert.Equal(t, models.PAID, got.State)
		require.NotNil(t, got.CreditSnapshot)
		assert.Equal(t, "GIFT-2000", got.CreditSnapshot.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

		_, err := store.GetSaga(context.Background(), "01JMISSING")

		assert.ErrorIs(t, err, storage.ErrSagaNotFound)
	})
}

func TestListStaleSagas(t *testing.T) {
	t.Run("Follows Pagination Per State", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		first, _ := attributevalue.MarshalMap(testSaga(models.CREDIT_RESERVED))
		second, _ := attributevalue.MarshalMap(testSaga(models.CREDIT_RESERVED))
		charging, _ := attributevalue.MarshalMap(testSaga(models.CHARGING))
		lastKey := map[string]types.AttributeValue{"reference_id": &types.AttributeValueMemberS{Value: "01JREF"}}

		stateIs := func(state models.SagaState, withStartKey bool) interface{} {
			return mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
				s := in.ExpressionAttributeValues[":state"].(*types.AttributeValueMemberS)
				return *in.IndexName == staleSagaGSI && s.Value == string(state) && (len(in.ExclusiveStartKey) > 0) == withStartKey
			})
		}
		mockClient.On("Query", mock.Anything, stateIs(models.CREDIT_RESERVED, false)).
			Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{first}, LastEvaluatedKey: lastKey}, nil).Once()
		mockClient.On("Query", mock.Anything, stateIs(models.CREDIT_RESERVED, true)).
			Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{second}}, nil).Once()
		mockClient.On("Query", mock.Anything, stateIs(models.CHARGING, false)).
			Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{charging}}, nil).Once()

		sagas, err := store.ListStaleSagas(context.Background(), []models.SagaState{models.CREDIT_RESERVED, models.CHARGING}, 20*time.Minute)

		require.NoError(t, err)
		assert.Len(t, sagas, 3)
		assert.Equal(t, models.CHARGING, sagas[2].State)
	})

	t.Run("Query Fails", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable")).Once()

		_, err := store.ListStaleSagas(context.Background(), []models.SagaState{models.CHARGING}, time.Minute)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query for stale sagas")
	})
}

func TestPutCalendarEvent(t *testing.T) {
	event := &models.CalendarEvent{
		ReferenceID: "01JREF",
		StartsAt:    time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC),
		Summary:     "Order 01JREF",
		Fulfillment: []byte(`{"method":"pickup"}`),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return *in.TableName == "calendar"
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		assert.NoError(t, store.PutCalendarEvent(context.Background(), event))
	})

	t.Run("Already Recorded", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()

		assert.NoError(t, store.PutCalendarEvent(context.Background(), event))
	})

	t.Run("DynamoDB Error", func(t *testing.T) {
		mockClient := mocks.NewDynamoDBAPI(t)
		store := newTestStore(mockClient)

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable")).Once()

		assert.Error(t, store.PutCalendarEvent(context.Background(), event))
	})
}
