// internal/cli/content_cmd.go
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Corphon/FunnelCraft/internal/funnel"
	"github.com/Corphon/FunnelCraft/internal/models"
)

// readDocument loads the blueprint from a file argument ("-" for stdin) or
// from the account's stored record.
func readDocument(cmd *cobra.Command, app *App, args []string, accountID string) (string, error) {
	switch {
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading blueprint: %w", err)
		}
		return string(data), nil
	case accountID != "":
		return app.Blueprints.Load(context.Background(), accountID)
	default:
		return "", fmt.Errorf("pass a blueprint file or --account")
	}
}

func newParseCmd(app *App) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a blueprint document into the editable content model (JSON)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, app, args, accountID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(funnel.Parse(doc))
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Parse the blueprint stored for this account")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var (
		accountID string
		section   string
	)

	cmd := &cobra.Command{
		Use:   "export [file|-]",
		Short: "Export blueprint sections as copy-ready plain text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, app, args, accountID)
			if err != nil {
				return err
			}
			content := funnel.Parse(doc)

			out := cmd.OutOrStdout()
			if section == "" {
				fmt.Fprint(out, funnel.SerializeAll(content))
				return nil
			}
			text, err := funnel.SerializeSection(content, models.Namespace(section))
			if err != nil {
				return err
			}
			fmt.Fprint(out, text)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Export the blueprint stored for this account")
	cmd.Flags().StringVar(&section, "section", "", "Only this section (landingPage, leadMagnet, emails, socialCapture, leadMagnetWorkflow)")
	return cmd
}
