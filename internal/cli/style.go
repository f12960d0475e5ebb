// internal/cli/style.go
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Corphon/FunnelCraft/internal/funnel"
)

const wrapWidth = 78

var (
	colorAccent = lipgloss.Color("#fe8019")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorFg     = lipgloss.Color("#ebdbb2")

	styleHeader = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	styleRed    = lipgloss.NewStyle().Foreground(colorRed)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleBold   = lipgloss.NewStyle().Foreground(colorFg).Bold(true)
)

func wrap(s string) string {
	return wordwrap.String(s, wrapWidth)
}

// progressBar renders percent as a fixed-width bar.
func progressBar(percent int) string {
	const width = 20
	filled := percent * width / 100
	return styleGreen.Render(strings.Repeat("█", filled)) +
		styleDim.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %3d%%", percent)
}

func craftHuhTheme() *huh.Theme {
	t := huh.ThemeBase()
	t.Focused.Title = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(colorDim)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(colorFg)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(colorRed)
	return t
}

// askAnswersForm walks the nine questions as one huh form, one group per
// question.
func askAnswersForm(author *string) ([]string, error) {
	answers := make([]string, funnel.QuestionCount)
	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Description("Shown in the About section and email sign-offs").
				Value(author),
		),
	}
	for i, q := range funnel.Questions() {
		groups = append(groups, huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("%d/%d", i+1, funnel.QuestionCount)).
				Description(q.Prompt).
				Value(&answers[i]).
				Validate(requireText),
		))
	}

	form := huh.NewForm(groups...).WithTheme(craftHuhTheme())
	if err := form.Run(); err != nil {
		return nil, err
	}
	return answers, nil
}

func requireText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("an answer is required")
	}
	return nil
}
