package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-xplot/catalog"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the registered widget models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := catalog.Registry()
			if err != nil {
				return err
			}
			for _, name := range registry.Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
