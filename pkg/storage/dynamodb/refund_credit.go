package dynamodb

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

// RefundCredit increments a credit's balance, removes the reference from its
// associated orders and writes the REFUND activity row in one transaction.
// The REFUND row is put-if-absent, so a reference is refunded at most once.
func (s *Store) RefundCredit(ctx context.Context, req storage.RefundRequest) (*models.CreditActivity, error) {
	entry, err := s.GetCredit(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit for refund: %w", err)
	}

	idx := slices.Index(entry.AssociatedOrders, req.ReferenceID)
	if idx < 0 {
		refunded, err := s.hasActivity(ctx, req.Code, activityEntryID(models.REFUND, req.ReferenceID))
		if err != nil {
			return nil, err
		}
		if refunded {
			return nil, fmt.Errorf("credit %s for %s: %w", req.Code, req.ReferenceID, storage.ErrAlreadyRefunded)
		}
		return nil, fmt.Errorf("credit %s for %s: %w", req.Code, req.ReferenceID, storage.ErrNothingToRefund)
	}
	if entry.Balance.Amount+req.Amount > req.Ceiling {
		return nil, fmt.Errorf("refund of %d would exceed %d on credit %s: %w", req.Amount, req.Ceiling, req.Code, storage.ErrNothingToRefund)
	}

	activity := &models.CreditActivity{
		EntryID:      activityEntryID(models.REFUND, req.ReferenceID),
		Code:         req.Code,
		ReferenceID:  req.ReferenceID,
		Kind:         models.REFUND,
		Amount:       req.Amount,
		BalanceAfter: entry.Balance.Amount + req.Amount,
		Timestamp:    req.At,
	}
	activityAV, err := attributevalue.MarshalMap(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refund activity: %w", err)
	}

	orderPath := fmt.Sprintf("associated_orders[%d]", idx)
	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:           aws.String(s.CreditsTableName),
					Key:                 map[string]types.AttributeValue{"code": &types.AttributeValueMemberS{Value: req.Code}},
					UpdateExpression:    aws.String("SET #balance.#amount = #balance.#amount + :amount, version = version + :inc REMOVE " + orderPath),
					ConditionExpression: aws.String(orderPath + " = :ref AND #balance.#amount <= :max"),
					ExpressionAttributeNames: map[string]string{
						"#balance": "balance",
						"#amount":  "amount",
					},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":amount": &types.AttributeValueMemberN{Value: strconv.FormatInt(req.Amount, 10)},
						":max":    &types.AttributeValueMemberN{Value: strconv.FormatInt(req.Ceiling-req.Amount, 10)},
						":ref":    &types.AttributeValueMemberS{Value: req.ReferenceID},
						":inc":    &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.CreditActivityTableName),
					Item:                activityAV,
					ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		if cancellationFailedAt(err, 1) {
			return nil, fmt.Errorf("credit %s for %s: %w", req.Code, req.ReferenceID, storage.ErrAlreadyRefunded)
		}
		if cancellationFailedAt(err, 0) {
			// The associated order list or balance moved underneath us.
			return nil, fmt.Errorf("credit %s: %w", req.Code, storage.ErrBalanceConflict)
		}
		return nil, fmt.Errorf("failed to execute refund transaction: %w", err)
	}

	return activity, nil
}

func (s *Store) hasActivity(ctx context.Context, code, entryID string) (bool, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"code": code, "entry_id": entryID})
	if err != nil {
		return false, fmt.Errorf("failed to marshal activity key: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.CreditActivityTableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get credit activity from DynamoDB: %w", err)
	}

	return result.Item != nil, nil
}
