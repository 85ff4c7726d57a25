package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"docvault/internal/audit"
	"docvault/internal/logging"
	"docvault/internal/model"
)

func newAuditCommand() *cobra.Command {
	var (
		documentID string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the audit trail, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, logging.New("audit"))
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			var filter *string
			if documentID != "" {
				filter = &documentID
			}
			records, err := audit.NewRecorder(st.repo, nil).List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printAudit(cmd.OutOrStdout(), output, records)
		},
	}
	cmd.Flags().StringVar(&documentID, "document", "", "Only records of this document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: table (default) or json")
	return cmd
}

func printAudit(w io.Writer, output string, records []model.AuditRecord) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{"ID", "TIMESTAMP", "USER", "DOCUMENT", "ACTION", "DETAILS"})
		for _, r := range records {
			doc := "-"
			if r.DocumentID != nil {
				doc = *r.DocumentID
			}
			tw.AppendRow(table.Row{
				r.ID,
				r.Timestamp.Format(time.RFC3339),
				r.UserID,
				doc,
				r.Action,
				r.Details,
			})
		}
		_, err := fmt.Fprintln(w, tw.Render())
		return err
	case "json":
		return writeJSON(w, records)
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
