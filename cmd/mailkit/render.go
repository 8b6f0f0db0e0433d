package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailkit/pkg/preview"
)

func newRenderCmd() *cobra.Command {
	var (
		dataFile string
		part     int
	)

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a template and print its parts as JSON, or one raw body with --part",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			data, err := readData(dataFile)
			if err != nil {
				return err
			}

			parts, err := a.registry.UseTemplate(args[0], data, a.cids)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if part >= 0 {
				if part >= len(parts.Bodies) {
					return fmt.Errorf("template %q has %d bodies, no part %d", args[0], len(parts.Bodies), part)
				}
				_, err := out.Write(parts.Bodies[part].Resource.Bytes())
				return err
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(preview.Describe(args[0], parts))
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "JSON or YAML file with template data")
	cmd.Flags().IntVarP(&part, "part", "p", -1, "print only the raw body at this index")
	return cmd
}

// readData decodes a JSON or YAML file chosen by extension. An empty path
// yields nil data.
func readData(path string) (any, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	var data map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	case ".json":
		err = json.Unmarshal(raw, &data)
	default:
		return nil, fmt.Errorf("unsupported data file %q: want .json, .yaml or .yml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return data, nil
}
