package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the Store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Tables names the DynamoDB tables backing the Store.
type Tables struct {
	Credits        string
	CreditActivity string
	Sagas          string
	Calendar       string
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client                  DynamoDBAPI
	CreditsTableName        string
	CreditActivityTableName string
	SagasTableName          string
	CalendarTableName       string
}

// New creates a new Store.
func New(client DynamoDBAPI, tables Tables) *Store {
	return &Store{
		Client:                  client,
		CreditsTableName:        tables.Credits,
		CreditActivityTableName: tables.CreditActivity,
		SagasTableName:          tables.Sagas,
		CalendarTableName:       tables.Calendar,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// cancellationFailedAt reports whether the transaction was cancelled because
// the condition on item idx failed.
func cancellationFailedAt(err error, idx int) bool {
	var txCanceled *types.TransactionCanceledException
	if !errors.As(err, &txCanceled) {
		return false
	}
	if idx >= len(txCanceled.CancellationReasons) {
		return false
	}
	reason := txCanceled.CancellationReasons[idx]
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}

func isConditionalCheckFailed(err error) bool {
	var condCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condCheckFailed)
}
