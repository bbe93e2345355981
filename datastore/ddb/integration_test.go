//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

func getTodoStore(t *testing.T) *Store {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	table := os.Getenv("AWS_DDB_TABLE")
	if table == "" {
		t.Skip("AWS_DDB_TABLE not set")
	}
	client, err := NewDynamoDBClient(context.Background(), ClientConfig{
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
		SecretKey: os.Getenv("AWS_SECRET_KEY"),
		Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
	})
	require.NoError(t, err)

	store, err := New(client, table, registry.Definition{
		Name:       "integration_todos",
		SoftDelete: "deleted_at",
	})
	require.NoError(t, err)
	return store
}

func TestIntegrationLifecycle(t *testing.T) {
	store := getTodoStore(t)
	ctx := context.Background()

	ids, err := store.Replace(ctx, []rest.Item{{"text": "I really have to iron"}}, nil)
	require.NoError(t, err)
	id := ids[0]
	t.Cleanup(func() { _, _ = store.Delete(context.Background(), []rest.ID{id}, nil, nil) })

	item, err := store.Retrieve(ctx, id, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "I really have to iron", item["text"])

	item, err = store.Update(ctx, id, []rest.Item{{"done": true}}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, item["done"])

	deleted, err := store.Delete(ctx, []rest.ID{id}, nil, rest.Options{rest.OptionSoftDelete: true})
	require.NoError(t, err)
	assert.Equal(t, []rest.ID{id}, deleted)

	_, err = store.Retrieve(ctx, id, nil, nil)
	assert.True(t, errors.IsNotFound(err))
}
