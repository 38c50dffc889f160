// Package main provides the xplot CLI: it lists the shipped widget models,
// renders their schemas and moves widget-state documents around.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xplot:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xplot",
		Short: "Inspect and normalize bqplot widget models",
		Long: `xplot lists the synchronized widget models this module ships,
renders their schemas and normalizes or persists widget-state documents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.AddCommand(newModelsCmd(), newSchemaCmd(), newStateCmd())
	return rootCmd
}

// writeJSON encodes value to path, or to the command output when path is
// empty.
func writeJSON(cmd *cobra.Command, value any, pretty bool, path string) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if path != "" {
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
