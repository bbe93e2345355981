/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suparena/resourcestore"
	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/rest"
)

func (a *app) replaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replace ITEMS",
		Short: "Upsert a JSON batch and print the identifiers in input order",
		Example: `  resourcectl replace -r todos '[{"id":10,"text":"I really have to iron"},{"text":"Do laundry"}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd,
				func(q datastore.Querier) (string, error) { return q.Replace(items, nil) },
				func(ctx context.Context, s datastore.Store) (any, error) { return s.Replace(ctx, items, nil) },
			)
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create ITEMS",
		Short: "Insert a JSON batch, failing on identifiers already taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd,
				func(q datastore.Querier) (string, error) { return q.Create(items, nil) },
				func(ctx context.Context, s datastore.Store) (any, error) { return s.Create(ctx, items, nil) },
			)
		},
	}
}

func (a *app) retrieveCmd() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "retrieve ID",
		Short: "Print one resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := parseID(args[0])
			return a.run(cmd,
				func(q datastore.Querier) (string, error) { return q.Retrieve(id, fields, nil) },
				func(ctx context.Context, s datastore.Store) (any, error) { return s.Retrieve(ctx, id, fields, nil) },
			)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return, all when empty")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "update ID PATCHES",
		Short:   "Apply JSON patches in order and print the result",
		Example: `  resourcectl update -r todos 10 '[{"text":"iron shirts"},{"done":true}]'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := parseID(args[0])
			patches, err := parseItems(args[1])
			if err != nil {
				return err
			}
			return a.run(cmd,
				func(q datastore.Querier) (string, error) { return q.Update(id, patches, nil) },
				func(ctx context.Context, s datastore.Store) (any, error) { return s.Update(ctx, id, patches, nil) },
			)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var where string
	var soft bool
	cmd := &cobra.Command{
		Use:   "delete [ID...]",
		Short: "Delete resources by identifier or criteria and print the deleted identifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]rest.ID, len(args))
			for i, raw := range args {
				ids[i] = parseID(raw)
			}
			criteria, err := parseCriteria(where)
			if err != nil {
				return err
			}
			opts := rest.Options{rest.OptionSoftDelete: soft}
			return a.run(cmd,
				func(q datastore.Querier) (string, error) { return q.Delete(ids, criteria, opts) },
				func(ctx context.Context, s datastore.Store) (any, error) { return s.Delete(ctx, ids, criteria, opts) },
			)
		},
	}
	cmd.Flags().StringVar(&where, "where", "", `JSON criteria, e.g. '[["done", true]]'`)
	cmd.Flags().BoolVar(&soft, "soft", false, "stamp the soft delete field instead of removing")
	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	var where string
	var fields []string
	var count bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "List or count resources matching criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseCriteria(where)
			if err != nil {
				return err
			}
			opts := rest.Options{rest.OptionCount: count}
			return a.run(cmd,
				func(q datastore.Querier) (string, error) { return q.Fetch(criteria, fields, opts) },
				func(ctx context.Context, s datastore.Store) (any, error) {
					res, err := s.Fetch(ctx, criteria, fields, opts)
					if err != nil {
						return nil, err
					}
					if count {
						return map[string]int{"count": res.Count}, nil
					}
					if res.Items == nil {
						return []rest.Item{}, nil
					}
					return res.Items, nil
				},
			)
		},
	}
	cmd.Flags().StringVar(&where, "where", "", `JSON criteria, e.g. '[["id", ">", 10]]'`)
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return, all when empty")
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of matches")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printJSON(resourcestore.GetVersionInfo())
		},
	}
}
