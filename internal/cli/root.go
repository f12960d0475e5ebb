// internal/cli/root.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Corphon/FunnelCraft/internal/auth"
	"github.com/Corphon/FunnelCraft/internal/services"
)

// App holds the services CLI commands run against.
type App struct {
	Accounts   *services.AccountService
	Blueprints *services.BlueprintService
	Tokens     *auth.TokenConfig

	// IsInteractive reports whether stdin is a terminal; craft falls back
	// to --answers-file when it is not.
	IsInteractive func() bool
	// AskAnswers collects the nine answers interactively. Defaults to a
	// huh form.
	AskAnswers func(author *string) ([]string, error)
}

// NewRootCmd creates the top-level "funnelcraft" command.
func NewRootCmd(app *App) *cobra.Command {
	if app.AskAnswers == nil {
		app.AskAnswers = askAnswersForm
	}
	if app.IsInteractive == nil {
		app.IsInteractive = func() bool { return false }
	}

	root := &cobra.Command{
		Use:           "funnelcraft",
		Short:         "Build a lead-magnet funnel blueprint from nine answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newQuestionsCmd(),
		newCraftCmd(app),
		newParseCmd(app),
		newExportCmd(app),
		newProgressCmd(app),
		newTokenCmd(app),
	)
	return root
}
