/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
	"github.com/suparena/resourcestore/storagemodels"
)

const backendName = "dynamodb"

// Store implements datastore.Store for one resource type on a single DynamoDB table.
type Store struct {
	client    API
	tableName string
	def       registry.Definition
	retry     storagemodels.RetryOptions
	now       func() time.Time
}

// New constructs a Store for def on tableName.
func New(client API, tableName string, def registry.Definition, opts ...storagemodels.RetryOption) (*Store, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", "dynamodb client is required")
	}
	if tableName == "" {
		return nil, errors.NewValidationError("table", "dynamodb table name is required")
	}
	normalized, err := def.Normalize()
	if err != nil {
		return nil, err
	}
	if err := checkKeyTemplates(normalized); err != nil {
		return nil, err
	}

	retry := storagemodels.DefaultRetryOptions()
	for _, opt := range opts {
		opt(&retry)
	}
	return &Store{
		client:    client,
		tableName: tableName,
		def:       normalized,
		retry:     retry,
		now:       time.Now,
	}, nil
}

// WithClock sets the clock used to stamp soft deletes
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Definition returns the normalized definition the store serves.
func (s *Store) Definition() registry.Definition {
	return s.def
}

// Replace puts every item, overwriting resources that already exist.
func (s *Store) Replace(ctx context.Context, items []rest.Item, opts rest.Options) ([]rest.ID, error) {
	entries, err := s.prepare(items)
	if err != nil {
		return nil, err
	}

	if err := s.reserve(ctx, entries); err != nil {
		return nil, err
	}
	ids := make([]rest.ID, len(entries))
	for i, e := range entries {
		id, err := s.assign(ctx, e)
		if err != nil {
			return ids[:i], err
		}
		if err := s.put(ctx, e.Item, false); err != nil {
			return ids[:i], err
		}
		ids[i] = id
	}
	return ids, nil
}

// Create puts items that must not exist yet. Explicit identifiers are checked up front;
// each put is also conditioned on the key being free.
func (s *Store) Create(ctx context.Context, items []rest.Item, opts rest.Options) ([]rest.ID, error) {
	entries, err := s.prepare(items)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if !e.HasID() {
			continue
		}
		existing, err := s.get(ctx, e.ID, nil)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, errors.NewConflictError(s.def.Name, e.ID, "already exists")
		}
	}

	if err := s.reserve(ctx, entries); err != nil {
		return nil, err
	}
	ids := make([]rest.ID, len(entries))
	for i, e := range entries {
		id, err := s.assign(ctx, e)
		if err != nil {
			return ids[:i], err
		}
		if err := s.put(ctx, e.Item, true); err != nil {
			if isConditionFailed(err) {
				return ids[:i], errors.NewConflictError(s.def.Name, id, "already exists")
			}
			return ids[:i], err
		}
		ids[i] = id
	}
	return ids, nil
}

func (s *Store) prepare(items []rest.Item) ([]registry.Entry, error) {
	entries, err := s.def.PrepareBatch(items, true)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := checkReserved(s.def, e.Item); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// reserve moves the sequence past every explicit identifier of the batch.
func (s *Store) reserve(ctx context.Context, entries []registry.Entry) error {
	if highest := s.def.MaxSequenceID(entries); highest > 0 {
		return s.bumpSequence(ctx, highest)
	}
	return nil
}

// assign allocates a sequence identifier for e when it has none.
func (s *Store) assign(ctx context.Context, e registry.Entry) (rest.ID, error) {
	if e.HasID() {
		return e.ID, nil
	}
	n, err := s.nextSequence(ctx)
	if err != nil {
		return nil, err
	}
	e.Item[s.def.IDField] = n
	return n, nil
}

func (s *Store) put(ctx context.Context, item rest.Item, ifAbsent bool) error {
	av, err := encodeItem(s.def, item)
	if err != nil {
		return err
	}
	input := &sdk.PutItemInput{
		TableName: &s.tableName,
		Item:      av,
	}
	if ifAbsent {
		input.ConditionExpression = aws.String("attribute_not_exists(#pk)")
		input.ExpressionAttributeNames = map[string]string{"#pk": partitionKey}
	}

	_, err = withRetry(ctx, s.retry, func() (*sdk.PutItemOutput, error) {
		return s.client.PutItem(ctx, input)
	})
	if err != nil {
		if isConditionFailed(err) {
			return err
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Retrieve reads the resource with a consistent GetItem.
func (s *Store) Retrieve(ctx context.Context, id rest.ID, fields []string, opts rest.Options) (rest.Item, error) {
	key, err := s.def.ValidateID(id)
	if err != nil {
		return nil, err
	}
	if err := s.def.CheckFields(fields); err != nil {
		return nil, err
	}

	item, err := s.get(ctx, key, fields)
	if err != nil {
		return nil, err
	}
	if item == nil || s.deleted(item) {
		return nil, errors.NewNotFoundError(s.def.Name, key)
	}
	return rest.Project(item, fields), nil
}

// get returns the stored item, soft deleted or not, or nil when absent.
func (s *Store) get(ctx context.Context, id rest.ID, fields []string) (rest.Item, error) {
	key, err := keyFor(s.def, id)
	if err != nil {
		return nil, err
	}

	input := &sdk.GetItemInput{
		TableName:      &s.tableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	}
	if len(fields) > 0 {
		b := newExprBuilder()
		projected := fields
		if s.def.SoftDelete != "" {
			projected = append(append([]string{}, fields...), s.def.SoftDelete)
		}
		input.ProjectionExpression = b.projection(projected)
		input.ExpressionAttributeNames = b.attributeNames()
	}

	out, err := withRetry(ctx, s.retry, func() (*sdk.GetItemOutput, error) {
		return s.client.GetItem(ctx, input)
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return decodeItem(s.def, out.Item)
}

func (s *Store) deleted(item rest.Item) bool {
	return s.def.SoftDelete != "" && item[s.def.SoftDelete] != nil
}

// liveCondition requires the item to exist and not be soft deleted.
func (s *Store) liveCondition(b *exprBuilder) string {
	cond := fmt.Sprintf("attribute_exists(%s)", b.name(partitionKey))
	if s.def.SoftDelete != "" {
		cond += fmt.Sprintf(" AND attribute_not_exists(%s)", b.name(s.def.SoftDelete))
	}
	return cond
}

// Update applies each patch as a conditional UpdateItem, in order.
func (s *Store) Update(ctx context.Context, id rest.ID, patches []rest.Item, opts rest.Options) (rest.Item, error) {
	key, err := s.def.ValidateID(id)
	if err != nil {
		return nil, err
	}
	prepared, err := s.def.PreparePatches(key, patches)
	if err != nil {
		return nil, err
	}
	for _, p := range prepared {
		if err := checkReserved(s.def, p); err != nil {
			return nil, err
		}
	}
	dbKey, err := keyFor(s.def, key)
	if err != nil {
		return nil, err
	}

	var result rest.Item
	for _, p := range prepared {
		if len(p) == 0 {
			continue
		}
		result, err = s.update(ctx, key, dbKey, p)
		if err != nil {
			return nil, err
		}
	}

	if result == nil {
		// every patch only repeated the identifier
		return s.Retrieve(ctx, key, nil, opts)
	}
	return s.refreshIndexAttributes(ctx, key, dbKey, result)
}

func (s *Store) update(ctx context.Context, id rest.ID, dbKey map[string]types.AttributeValue, patch rest.Item) (rest.Item, error) {
	b := newExprBuilder()
	updateExpr, err := b.buildUpdateExpression(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}
	condition := s.liveCondition(b)

	input := &sdk.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       dbKey,
		UpdateExpression:          &updateExpr,
		ConditionExpression:       &condition,
		ExpressionAttributeNames:  b.attributeNames(),
		ExpressionAttributeValues: b.attributeValues(),
		ReturnValues:              types.ReturnValueAllNew,
	}
	out, err := withRetry(ctx, s.retry, func() (*sdk.UpdateItemOutput, error) {
		return s.client.UpdateItem(ctx, input)
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, errors.NewNotFoundError(s.def.Name, id)
		}
		return nil, fmt.Errorf("UpdateItem failed: %w", err)
	}
	return decodeItem(s.def, out.Attributes)
}

// refreshIndexAttributes recomputes secondary index attributes from the updated item and
// writes the ones that changed. Primary key attributes never change.
func (s *Store) refreshIndexAttributes(ctx context.Context, id rest.ID, dbKey map[string]types.AttributeValue, item rest.Item) (rest.Item, error) {
	secondary := make(map[string]string)
	for k, tmpl := range s.def.IndexMap {
		if k != partitionKey && k != sortKey {
			secondary[k] = tmpl
		}
	}
	if len(secondary) == 0 {
		return item, nil
	}

	expanded, err := expandMacros(secondary, item)
	if err != nil {
		return nil, err
	}
	patch := make(rest.Item, len(expanded))
	for k, v := range expanded {
		if v == "" {
			patch[k] = nil
		} else {
			patch[k] = v
		}
	}
	if _, err := s.update(ctx, id, dbKey, patch); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes, or soft deletes, the given ids or every resource matching criteria.
func (s *Store) Delete(ctx context.Context, ids []rest.ID, criteria []rest.Criterion, opts rest.Options) ([]rest.ID, error) {
	soft, err := s.def.CheckSoftDelete(opts)
	if err != nil {
		return nil, err
	}
	keys, err := s.def.ValidateIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		res, err := s.Fetch(ctx, criteria, []string{s.def.IDField}, nil)
		if err != nil {
			return nil, err
		}
		for _, item := range res.Items {
			keys = append(keys, item[s.def.IDField])
		}
	}

	deleted := make([]rest.ID, 0, len(keys))
	for _, k := range keys {
		ok, err := s.remove(ctx, k, soft)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted = append(deleted, k)
		}
	}
	return deleted, nil
}

// remove deletes one live item and reports whether it existed.
func (s *Store) remove(ctx context.Context, id rest.ID, soft bool) (bool, error) {
	dbKey, err := keyFor(s.def, id)
	if err != nil {
		return false, err
	}
	b := newExprBuilder()
	condition := s.liveCondition(b)

	if soft {
		stamp, err := b.value(strfmt.DateTime(s.now().UTC()).String())
		if err != nil {
			return false, err
		}
		updateExpr := fmt.Sprintf("SET %s = %s", b.name(s.def.SoftDelete), stamp)
		input := &sdk.UpdateItemInput{
			TableName:                 &s.tableName,
			Key:                       dbKey,
			UpdateExpression:          &updateExpr,
			ConditionExpression:       &condition,
			ExpressionAttributeNames:  b.attributeNames(),
			ExpressionAttributeValues: b.attributeValues(),
		}
		_, err = withRetry(ctx, s.retry, func() (*sdk.UpdateItemOutput, error) {
			return s.client.UpdateItem(ctx, input)
		})
		return s.removed(err)
	}

	input := &sdk.DeleteItemInput{
		TableName:                &s.tableName,
		Key:                      dbKey,
		ConditionExpression:      &condition,
		ExpressionAttributeNames: b.attributeNames(),
	}
	_, err = withRetry(ctx, s.retry, func() (*sdk.DeleteItemOutput, error) {
		return s.client.DeleteItem(ctx, input)
	})
	return s.removed(err)
}

func (s *Store) removed(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case isConditionFailed(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
}

// Fetch scans the table for live resources of this type matching criteria.
func (s *Store) Fetch(ctx context.Context, criteria []rest.Criterion, fields []string, opts rest.Options) (rest.FetchResult, error) {
	if err := s.def.CheckCriteria(criteria); err != nil {
		return rest.FetchResult{}, err
	}
	if err := s.def.CheckFields(fields); err != nil {
		return rest.FetchResult{}, err
	}
	if emptyIn(criteria) {
		return rest.FetchResult{}, nil
	}

	b := newExprBuilder()
	filter, err := s.filterExpression(b, criteria)
	if err != nil {
		return rest.FetchResult{}, err
	}

	countOnly := opts.Bool(rest.OptionCount)
	input := &sdk.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: &filter,
		ConsistentRead:   aws.Bool(true),
	}
	if s.retry.PageSize > 0 {
		input.Limit = aws.Int32(s.retry.PageSize)
	}
	if countOnly {
		input.Select = types.SelectCount
	} else if len(fields) > 0 {
		input.ProjectionExpression = b.projection(withID(fields, s.def.IDField))
	}
	input.ExpressionAttributeNames = b.attributeNames()
	input.ExpressionAttributeValues = b.attributeValues()

	var result rest.FetchResult
	for {
		out, err := withRetry(ctx, s.retry, func() (*sdk.ScanOutput, error) {
			return s.client.Scan(ctx, input)
		})
		if err != nil {
			return rest.FetchResult{}, fmt.Errorf("scan error: %w", err)
		}

		result.Count += int(out.Count)
		for _, raw := range out.Items {
			item, err := decodeItem(s.def, raw)
			if err != nil {
				return rest.FetchResult{}, err
			}
			result.Items = append(result.Items, item)
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if countOnly {
		result.Items = nil
		return result, nil
	}
	rest.SortItems(result.Items, s.def.IDField)
	for i, item := range result.Items {
		result.Items[i] = rest.Project(item, fields)
	}
	result.Count = len(result.Items)
	return result, nil
}

// filterExpression selects live items of this entity type matching every criterion.
func (s *Store) filterExpression(b *exprBuilder, criteria []rest.Criterion) (string, error) {
	et, err := b.value(s.def.Name)
	if err != nil {
		return "", err
	}
	parts := []string{fmt.Sprintf("%s = %s", b.name(EntityTypeAttribute), et)}
	if s.def.SoftDelete != "" {
		parts = append(parts, fmt.Sprintf("attribute_not_exists(%s)", b.name(s.def.SoftDelete)))
	}
	for _, c := range criteria {
		cond, err := b.condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)
	}
	return strings.Join(parts, " AND "), nil
}

// withID makes sure the identifier is read so results can be ordered by it.
func withID(fields []string, idField string) []string {
	for _, f := range fields {
		if f == idField {
			return fields
		}
	}
	return append(append([]string{}, fields...), idField)
}
