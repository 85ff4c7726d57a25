package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"docvault/internal/logging"
	"docvault/internal/model"
)

func newTypesCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the document type catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, logging.New("types"))
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			types, err := st.repo.ListTypes(cmd.Context())
			if err != nil {
				return err
			}
			return printTypes(cmd.OutOrStdout(), output, types)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: table (default) or json")
	return cmd
}

func printTypes(w io.Writer, output string, types []model.DocumentType) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateHeader = false
		tw.AppendHeader(table.Row{"ID", "DESCRIPTION"})
		for _, t := range types {
			tw.AppendRow(table.Row{t.ID, t.Description})
		}
		_, err := fmt.Fprintln(w, tw.Render())
		return err
	case "json":
		return writeJSON(w, types)
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}
