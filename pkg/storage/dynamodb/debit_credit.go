package dynamodb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/storage"
)

func activityEntryID(kind models.ActivityKind, referenceID string) string {
	return string(kind) + "#" + referenceID
}

// DebitCredit decrements a credit's balance and writes the DEBIT activity row in one transaction.
// The balance update is conditioned on the stored balance still equaling req.ExpectedBalance,
// so of two spends minted against the same balance only one can commit.
func (s *Store) DebitCredit(ctx context.Context, req storage.DebitRequest) (*models.CreditActivity, error) {
	activity := &models.CreditActivity{
		EntryID:      activityEntryID(models.DEBIT, req.ReferenceID),
		Code:         req.Code,
		ReferenceID:  req.ReferenceID,
		Kind:         models.DEBIT,
		Amount:       req.Amount,
		BalanceAfter: req.ExpectedBalance - req.Amount,
		Actor:        req.Actor,
		Timestamp:    req.At,
	}
	activityAV, err := attributevalue.MarshalMap(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal debit activity: %w", err)
	}
	nowAV, err := attributevalue.Marshal(req.At)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal debit timestamp: %w", err)
	}

	updateExpr := "SET #balance.#amount = #balance.#amount - :amount, " +
		"associated_orders = list_append(if_not_exists(associated_orders, :empty), :ref), " +
		"last_used_at = :now, version = version + :inc"
	names := map[string]string{
		"#balance": "balance",
		"#amount":  "amount",
	}
	values := map[string]types.AttributeValue{
		":amount":   &types.AttributeValueMemberN{Value: strconv.FormatInt(req.Amount, 10)},
		":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(req.ExpectedBalance, 10)},
		":ref":      &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: req.ReferenceID}}},
		":empty":    &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		":now":      nowAV,
		":inc":      &types.AttributeValueMemberN{Value: "1"},
	}
	if req.Actor != "" {
		updateExpr += ", #names = list_append(if_not_exists(#names, :empty), :actor)"
		names["#names"] = "names"
		values[":actor"] = &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: req.Actor}}}
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                 aws.String(s.CreditsTableName),
					Key:                       map[string]types.AttributeValue{"code": &types.AttributeValueMemberS{Value: req.Code}},
					UpdateExpression:          aws.String(updateExpr),
					ConditionExpression:       aws.String("attribute_exists(code) AND #balance.#amount = :expected"),
					ExpressionAttributeNames:  names,
					ExpressionAttributeValues: values,
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
		if cancellationFailedAt(err, 0) {
			return nil, fmt.Errorf("credit %s: %w", req.Code, storage.ErrBalanceConflict)
		}
		if cancellationFailedAt(err, 1) {
			return nil, fmt.Errorf("credit %s already debited for %s: %w", req.Code, req.ReferenceID, storage.ErrBalanceConflict)
		}
		return nil, fmt.Errorf("failed to execute debit transaction: %w", err)
	}

	return activity, nil
}
