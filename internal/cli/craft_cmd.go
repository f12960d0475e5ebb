// internal/cli/craft_cmd.go
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// answersFile is the non-interactive input of craft. A bare YAML (or JSON)
// list of nine strings is also accepted.
type answersFile struct {
	AuthorName string   `yaml:"author_name"`
	Answers    []string `yaml:"answers"`
}

func loadAnswersFile(path string) (*answersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers file: %w", err)
	}

	var af answersFile
	if err := yaml.Unmarshal(data, &af); err == nil && len(af.Answers) > 0 {
		return &af, nil
	}
	var list []string
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing answers file: expected a list or an answers: key")
	}
	return &answersFile{Answers: list}, nil
}

func newCraftCmd(app *App) *cobra.Command {
	var (
		accountID   string
		author      string
		answersPath string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "craft",
		Short: "Answer the nine questions and generate the funnel blueprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			var answers []string
			switch {
			case answersPath != "":
				af, err := loadAnswersFile(answersPath)
				if err != nil {
					return err
				}
				answers = af.Answers
				if author == "" {
					author = af.AuthorName
				}
			case app.IsInteractive():
				var err error
				if answers, err = app.AskAnswers(&author); err != nil {
					return err
				}
			default:
				return fmt.Errorf("stdin is not a terminal: use --answers-file")
			}

			result, err := app.Blueprints.GenerateFromAnswers(context.Background(), accountID, answers, author)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(result.Document), 0644); err != nil {
					return fmt.Errorf("writing blueprint: %w", err)
				}
				fmt.Fprintln(out, styleGreen.Render("✓ Blueprint written to "+outPath))
			} else {
				fmt.Fprint(out, result.Document)
			}

			if result.Saved {
				fmt.Fprintln(out, styleGreen.Render("✓ Saved for account "+accountID))
			} else {
				fmt.Fprintln(out, styleRed.Render("✗ Not saved: "+result.SaveError))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID to save the blueprint under")
	cmd.Flags().StringVar(&author, "author", "", "Author name used in the blueprint")
	cmd.Flags().StringVar(&answersPath, "answers-file", "", "YAML/JSON file with the nine answers")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the blueprint document to this file")
	cmd.MarkFlagRequired("account")
	return cmd
}
