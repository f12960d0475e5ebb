// internal/cli/info_cmd.go
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Corphon/FunnelCraft/internal/auth"
	"github.com/Corphon/FunnelCraft/internal/funnel"
)

func newQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List the nine funnel-craft questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleHeader.Render("Funnel Craft Questions"))
			for i, q := range funnel.Questions() {
				label := styleBold.Render(fmt.Sprintf("%d.", i+1)) + " " + styleDim.Render("["+q.Key+"]")
				fmt.Fprintln(out, label)
				fmt.Fprintln(out, wrap(q.Prompt))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newProgressCmd(app *App) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show phase progress for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Accounts.Progress(context.Background(), accountID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleHeader.Render("Progress for "+accountID))
			for i, ph := range p.Phases {
				name := strings.ReplaceAll(ph.Phase, "_", " ")
				fmt.Fprintf(out, "%-16s %s  %d/%d\n", name, progressBar(ph.Percent), ph.Completed, ph.Total)
				for _, f := range funnel.Phases[i].Flags {
					mark := styleDim.Render("·")
					if ph.Flags[string(f)] {
						mark = styleGreen.Render("✓")
					}
					fmt.Fprintf(out, "    %s %s\n", mark, f)
				}
			}
			fmt.Fprintf(out, "%-16s %s\n", "overall", progressBar(p.Percent))
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newTokenCmd(app *App) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an API token for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Tokens == nil {
				return fmt.Errorf("token signing is not configured")
			}
			tok, err := auth.GenerateToken(accountID, app.Tokens)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.MarkFlagRequired("account")
	return cmd
}
