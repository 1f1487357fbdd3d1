// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wabbit/wabbit/internal/api"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of every API operation's variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := renderSchema(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format (json or yaml)")
	return cmd
}

func renderSchema(format string) ([]byte, error) {
	// The operation table only needs a service to run handlers, not to reflect inputs.
	data, err := api.GenerateSchema(api.Operations(nil))
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return append(data, '\n'), nil
	case "yaml":
		return jsonToYAML(data)
	default:
		return nil, oops.Code("INVALID_FORMAT").Errorf("format must be json or yaml, got %q", format)
	}
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("SCHEMA_ENCODE_FAILED").Wrap(err)
	}
	blockStyle(&doc)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, oops.Code("SCHEMA_ENCODE_FAILED").Wrap(err)
	}
	return out, nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
