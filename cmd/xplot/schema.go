package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	xplot "github.com/goliatone/go-xplot"
	"github.com/goliatone/go-xplot/catalog"
	"github.com/goliatone/go-xplot/schema/openapi"
)

func newSchemaCmd() *cobra.Command {
	var (
		format     string
		pretty     bool
		outputPath string
	)
	cmd := &cobra.Command{
		Use:   "schema [model]",
		Short: "Render model schemas as field descriptors or an OpenAPI document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas, err := selectSchemas(args)
			if err != nil {
				return err
			}
			switch xplot.SchemaFormat(format) {
			case xplot.SchemaFormatDescriptors:
				out := make(map[string]any, len(schemas))
				for name, schema := range schemas {
					doc, err := xplot.DefaultSchemaGenerator().Generate(schema)
					if err != nil {
						return err
					}
					out[name] = doc.Document
				}
				return writeJSON(cmd, out, pretty, outputPath)
			case xplot.SchemaFormatOpenAPI:
				doc, err := openapi.NewGenerator().Generate(schemas)
				if err != nil {
					return err
				}
				return writeJSON(cmd, doc.Document, pretty, outputPath)
			default:
				return fmt.Errorf("invalid format: %s (must be descriptors or openapi)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", string(xplot.SchemaFormatDescriptors), "Output format: descriptors, openapi")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func selectSchemas(args []string) (map[string]*xplot.Schema, error) {
	all := catalog.Schemas()
	if len(args) == 0 {
		return all, nil
	}
	schema, ok := all[args[0]]
	if !ok {
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: %s (known: %s)", xplot.ErrUnknownModel, args[0], strings.Join(names, ", "))
	}
	return map[string]*xplot.Schema{args[0]: schema}, nil
}
