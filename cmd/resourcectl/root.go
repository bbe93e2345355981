/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/suparena/resourcestore"
	"github.com/suparena/resourcestore/config"
	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/processor"
	"github.com/suparena/resourcestore/rest"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	envFiles  []string
	resources string
	resource  string
	backend   string
	dsn       string
	dryRun    bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "resourcectl",
		Short: "Run REST-style resource operations against a configured backend",
		Long: `resourcectl runs replace, retrieve, update, create, delete and fetch against the
backend selected by RESOURCESTORE_BACKEND. With --dry-run it prints the query the
operation would run instead of running it.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env", nil, "dotenv files to load, later files win")
	flags.StringVar(&a.resources, "resources", "", "resource definitions YAML (default RESOURCESTORE_RESOURCES)")
	flags.StringVarP(&a.resource, "resource", "r", "", "resource to operate on")
	flags.StringVar(&a.backend, "backend", "", "backend override (memory, sqlite, postgres, mysql, dynamodb)")
	flags.StringVar(&a.dsn, "dsn", "", "SQL data source name override")
	flags.BoolVar(&a.dryRun, "dry-run", false, "print the query instead of running it")

	root.AddCommand(
		a.replaceCmd(),
		a.retrieveCmd(),
		a.updateCmd(),
		a.createCmd(),
		a.deleteCmd(),
		a.fetchCmd(),
		a.versionCmd(),
	)
	return root
}

// session is the storage opened for one command.
type session struct {
	storage *resourcestore.Storage
	store   datastore.Store
	querier datastore.Querier
}

func (a *app) open(ctx context.Context) (*session, error) {
	if a.resource == "" {
		return nil, errors.NewValidationError("resource", "--resource is required")
	}

	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return nil, err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.dsn != "" {
		cfg.DSN = a.dsn
	}
	if a.resources != "" {
		cfg.Resources = a.resources
	}

	logger, err := cfg.NewLogger(a.errOut)
	if err != nil {
		return nil, err
	}
	defs, err := processor.LoadFile(cfg.Resources)
	if err != nil {
		return nil, err
	}
	storage, err := resourcestore.Open(ctx, cfg, defs, resourcestore.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	s := &session{storage: storage}
	if a.dryRun {
		s.querier, err = storage.Querier(a.resource)
	} else {
		s.store, err = storage.Store(a.resource)
	}
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() error {
	return s.storage.Close()
}

// run opens a session, then calls query in dry-run mode and exec otherwise, printing the result.
func (a *app) run(cmd *cobra.Command, query func(datastore.Querier) (string, error), exec func(context.Context, datastore.Store) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if a.dryRun {
		text, err := query(s.querier)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, text)
		return err
	}

	result, err := exec(ctx, s.store)
	if err != nil {
		return err
	}
	return a.printJSON(result)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseItems reads a JSON array of objects, or a single object.
func parseItems(raw string) ([]rest.Item, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.NewValidationError("items", fmt.Sprintf("invalid JSON: %v", err))
	}
	if obj, ok := v.(map[string]any); ok {
		return []rest.Item{obj}, nil
	}
	return rest.AsItems(v)
}

// parseCriteria reads a JSON list of criterion tuples, e.g. [["done", true], ["id", ">", 10]].
func parseCriteria(raw string) ([]rest.Criterion, error) {
	if raw == "" {
		return nil, nil
	}
	var v []any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.NewValidationError("criteria", fmt.Sprintf("invalid JSON: %v", err))
	}
	return rest.ParseCriteria(v)
}

// parseID reads integers as int64 and anything else as a string identifier.
func parseID(raw string) rest.ID {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
