package cmd

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calendaragent/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate calendar tool documentation",
		Long: `Generate markdown documentation for the calendar tools.
This command introspects the tool schemas advertised to the model and to MCP
clients, so the documentation always matches the actual implementation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Schemas do not depend on the backend.
	registry := calendar_tools.NewRegistry(nil, calendar_tools.Options{})
	markdown := generateToolsMarkdown(registry.Specs())

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(specs []calendar_tools.Spec) string {
	var sb strings.Builder

	sb.WriteString("# Calendar Tools Reference\n\n")
	sb.WriteString("This document lists the tools the calendar agent offers to the model and, through `calendaragent mcp`, to MCP clients.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, spec := range specs {
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", spec.Name, spec.Name))
	}
	sb.WriteString("\n")

	sb.WriteString("## Times\n\n")
	sb.WriteString("Times are RFC3339 strings. A time without an offset is read in the configured time zone (`agent.timezone`, default `Asia/Kolkata`).\n\n")

	for _, spec := range specs {
		sb.WriteString(generateToolMarkdown(spec))
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateToolMarkdown(spec calendar_tools.Spec) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", spec.Name))

	if spec.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", spec.Description))
	}

	properties, _ := spec.Parameters["properties"].(map[string]any)
	if len(properties) == 0 {
		return sb.String()
	}
	required, _ := spec.Parameters["required"].([]string)

	sb.WriteString("**Arguments:**\n")

	// Sort properties for consistent output
	propNames := make([]string, 0, len(properties))
	for name := range properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, name := range propNames {
		propMap, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}

		requiredStr := "optional"
		if slices.Contains(required, name) {
			requiredStr = "required"
		}

		sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(propMap), requiredStr))
		if desc, ok := propMap["description"].(string); ok {
			sb.WriteString(desc)
		} else {
			sb.WriteString(fmt.Sprintf("%s parameter", getPropertyType(propMap)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
