package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	xplot "github.com/goliatone/go-xplot"
	"github.com/goliatone/go-xplot/catalog"
	"github.com/goliatone/go-xplot/pkg/state"
	"github.com/goliatone/go-xplot/pkg/state/pgxstore"
)

const dsnEnv = "XPLOT_PG_DSN"

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Work with widget-state documents",
	}
	cmd.AddCommand(newNormalizeCmd(), newPushCmd(), newPullCmd())
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var (
		outputPath string
		pretty     bool
	)
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Import a widget-state document, fill defaults and export it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := importFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, manager.Export(), pretty, outputPath)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newPushCmd() *cobra.Command {
	var (
		dsn      string
		notebook string
		table    string
	)
	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Validate a widget-state document and store it in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, err := importFile(ctx, args[0])
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(ctx, dsn, table)
			if err != nil {
				return err
			}
			defer closeStore()
			refs, err := state.Save(ctx, store, notebook, manager)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %d widgets in %s\n", len(refs), notebook)
			return err
		},
	}
	addStoreFlags(cmd, &dsn, &notebook, &table)
	return cmd
}

func newPullCmd() *cobra.Command {
	var (
		dsn        string
		notebook   string
		table      string
		outputPath string
		pretty     bool
	)
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Restore a notebook from Postgres and export its widget-state document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, dsn, table)
			if err != nil {
				return err
			}
			defer closeStore()
			manager := xplot.NewManager(catalog.MustRegistry())
			if _, err := state.Restore(ctx, store, notebook, manager); err != nil {
				return err
			}
			return writeJSON(cmd, manager.Export(), pretty, outputPath)
		},
	}
	addStoreFlags(cmd, &dsn, &notebook, &table)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func addStoreFlags(cmd *cobra.Command, dsn, notebook, table *string) {
	cmd.Flags().StringVar(dsn, "dsn", os.Getenv(dsnEnv), "Postgres connection string (default: $"+dsnEnv+")")
	cmd.Flags().StringVar(notebook, "notebook", "", "Notebook the widgets belong to")
	cmd.Flags().StringVar(table, "table", pgxstore.DefaultTable, "Table holding widget records")
	_ = cmd.MarkFlagRequired("notebook")
}

func importFile(ctx context.Context, path string) (*xplot.Manager, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := xplot.ParseWidgetStateDocument(payload)
	if err != nil {
		return nil, err
	}
	manager := xplot.NewManager(catalog.MustRegistry())
	if _, err := manager.Import(ctx, doc); err != nil {
		return nil, err
	}
	return manager, nil
}

func openStore(ctx context.Context, dsn, table string) (*pgxstore.Store, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if dsn == "" {
		return nil, nil, fmt.Errorf("no postgres dsn: pass --dsn or set %s", dsnEnv)
	}
	pool, err := pgxstore.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	store := pgxstore.New(pool, pgxstore.WithTable(table))
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
