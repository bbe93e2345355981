/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const sequenceAttribute = "Value"

// sequenceKey is the counter item holding the last identifier handed out for the resource.
func (s *Store) sequenceKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		partitionKey: &types.AttributeValueMemberS{Value: "SEQUENCE#" + strings.ToUpper(s.def.Name)},
		sortKey:      &types.AttributeValueMemberS{Value: "SEQUENCE"},
	}
}

// nextSequence atomically increments the counter and returns the new value.
func (s *Store) nextSequence(ctx context.Context) (int64, error) {
	input := &sdk.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      s.sequenceKey(),
		UpdateExpression:         aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{"#v": sequenceAttribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	out, err := withRetry(ctx, s.retry, func() (*sdk.UpdateItemOutput, error) {
		return s.client.UpdateItem(ctx, input)
	})
	if err != nil {
		return 0, fmt.Errorf("sequence update failed: %w", err)
	}

	n, ok := out.Attributes[sequenceAttribute].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("sequence %s returned no value", s.def.Name)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sequence %s holds %q: %w", s.def.Name, n.Value, err)
	}
	return v, nil
}

// bumpSequence raises the counter to at least n. A counter already past n is left alone.
func (s *Store) bumpSequence(ctx context.Context, n int64) error {
	input := &sdk.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      s.sequenceKey(),
		UpdateExpression:         aws.String("SET #v = :n"),
		ConditionExpression:      aws.String("attribute_not_exists(#v) OR #v < :n"),
		ExpressionAttributeNames: map[string]string{"#v": sequenceAttribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)},
		},
	}
	_, err := withRetry(ctx, s.retry, func() (*sdk.UpdateItemOutput, error) {
		return s.client.UpdateItem(ctx, input)
	})
	if err != nil && !isConditionFailed(err) {
		return fmt.Errorf("sequence bump failed: %w", err)
	}
	return nil
}
