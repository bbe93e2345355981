//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package resourcestore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/resourcestore"
	"github.com/suparena/resourcestore/config"
	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/registry"
	"github.com/suparena/resourcestore/rest"
)

// openIntegrationStorage opens the backend configured by .env and the environment.
// Tests are skipped unless RESOURCESTORE_BACKEND names a live backend.
func openIntegrationStorage(t *testing.T) *resourcestore.Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	if cfg.Backend == config.BackendMemory {
		t.Skip("RESOURCESTORE_BACKEND not set, skipping integration test")
	}

	defs := []registry.Definition{{
		Name:       fmt.Sprintf("integration_todos_%d", time.Now().Unix()),
		Fields:     []string{"text", "done"},
		Types:      map[string]string{"text": "text", "done": "boolean"},
		SoftDelete: "deleted_at",
	}}
	storage, err := resourcestore.Open(context.Background(), cfg, defs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestIntegrationLifecycle(t *testing.T) {
	storage := openIntegrationStorage(t)
	ctx := context.Background()
	name := storage.Names()[0]
	store, err := storage.Store(name)
	require.NoError(t, err)

	ids, err := store.Replace(ctx, []rest.Item{{"text": "I really have to iron"}, {"text": "Do laundry"}}, nil)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	t.Cleanup(func() { _, _ = store.Delete(context.Background(), ids, nil, nil) })

	item, err := store.Retrieve(ctx, ids[0], []string{"text"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "I really have to iron", item["text"])

	item, err = store.Update(ctx, ids[1], []rest.Item{{"done": true}}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, item["done"])

	res, err := store.Fetch(ctx, []rest.Criterion{rest.Where("done", true)}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	deleted, err := store.Delete(ctx, []rest.ID{ids[0]}, nil, rest.Options{rest.OptionSoftDelete: true})
	require.NoError(t, err)
	assert.Equal(t, []rest.ID{ids[0]}, deleted)

	_, err = store.Retrieve(ctx, ids[0], nil, nil)
	assert.True(t, errors.IsNotFound(err))
}
