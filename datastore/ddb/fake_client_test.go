/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/suparena/resourcestore/registry"
)

// fakeClient records every request. Sequence counter updates are simulated; everything else
// answers with the configured hooks or an empty success.
type fakeClient struct {
	mu  sync.Mutex
	seq int64

	gets    []sdk.GetItemInput
	puts    []sdk.PutItemInput
	updates []sdk.UpdateItemInput
	deletes []sdk.DeleteItemInput
	scans   []sdk.ScanInput

	getItem    func(*sdk.GetItemInput) (*sdk.GetItemOutput, error)
	putItem    func(*sdk.PutItemInput) (*sdk.PutItemOutput, error)
	updateItem func(*sdk.UpdateItemInput) (*sdk.UpdateItemOutput, error)
	deleteItem func(*sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error)
	scan       func(*sdk.ScanInput) (*sdk.ScanOutput, error)
}

func (f *fakeClient) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, *in)
	if f.getItem != nil {
		return f.getItem(in)
	}
	return &sdk.GetItemOutput{}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, *in)
	if f.putItem != nil {
		return f.putItem(in)
	}
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch aws.ToString(in.UpdateExpression) {
	case "ADD #v :one":
		f.seq++
		return &sdk.UpdateItemOutput{Attributes: map[string]types.AttributeValue{
			sequenceAttribute: &types.AttributeValueMemberN{Value: strconv.FormatInt(f.seq, 10)},
		}}, nil
	case "SET #v = :n":
		n, _ := strconv.ParseInt(in.ExpressionAttributeValues[":n"].(*types.AttributeValueMemberN).Value, 10, 64)
		if f.seq >= n {
			return nil, &types.ConditionalCheckFailedException{}
		}
		f.seq = n
		return &sdk.UpdateItemOutput{}, nil
	}

	f.updates = append(f.updates, *in)
	if f.updateItem != nil {
		return f.updateItem(in)
	}
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, *in)
	if f.deleteItem != nil {
		return f.deleteItem(in)
	}
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeClient) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, *in)
	if f.scan != nil {
		return f.scan(in)
	}
	return &sdk.ScanOutput{}, nil
}

func todoDefinition() registry.Definition {
	return registry.Definition{
		Name:       "todos",
		Fields:     []string{"text", "done"},
		SoftDelete: "deleted_at",
	}
}

func newTestStore(t *testing.T, client *fakeClient, def registry.Definition) *Store {
	t.Helper()
	store, err := New(client, "app-table", def)
	require.NoError(t, err)
	return store
}

func attrS(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }

func attrN(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func attrBool(v bool) types.AttributeValue { return &types.AttributeValueMemberBOOL{Value: v} }

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"PK": attrS(pk), "SK": attrS(sk)}
}

// storedTodo is how a todo looks in the table.
func storedTodo(id, text string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         attrS("TODOS#" + id),
		"SK":         attrS("TODOS"),
		"EntityType": attrS("todos"),
		"id":         attrN(id),
		"text":       attrS(text),
	}
}
