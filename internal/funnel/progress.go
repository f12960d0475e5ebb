// internal/funnel/progress.go
package funnel

import "github.com/Corphon/FunnelCraft/internal/models"

// Phase groups the completion flags shown together on the dashboard.
type Phase struct {
	Name  string
	Flags []models.ProgressFlag
}

// Phases in display order.
var Phases = []Phase{
	{Name: "setup", Flags: []models.ProgressFlag{
		models.FlagProfileComplete,
		models.FlagBusinessContextComplete,
		models.FlagAssistantTrained,
		models.FlagKnowledgeBaseUploaded,
	}},
	{Name: "lead_generation", Flags: []models.ProgressFlag{
		models.FlagFunnelCraftComplete,
		models.FlagSocialCaptureBuilt,
	}},
	{Name: "funnel_build", Flags: []models.ProgressFlag{
		models.FlagLandingPageBuilt,
		models.FlagEmailSequenceBuilt,
		models.FlagRemindersConfigured,
	}},
}

// PhaseProgress is the completion state of one phase.
type PhaseProgress struct {
	Phase     string          `json:"phase"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Percent   int             `json:"percent"`
	Flags     map[string]bool `json:"flags"`
}

// Progress summarizes every phase plus the overall percentage.
type Progress struct {
	Phases  []PhaseProgress `json:"phases"`
	Percent int             `json:"percent"`
}

// ComputeProgress derives per-phase and overall completion from the flags.
// Percentages are rounded down.
func ComputeProgress(flags models.ProgressFlags) Progress {
	var out Progress
	done, total := 0, 0
	for _, ph := range Phases {
		pp := PhaseProgress{Phase: ph.Name, Total: len(ph.Flags), Flags: make(map[string]bool, len(ph.Flags))}
		for _, f := range ph.Flags {
			v, _ := flags.Get(f)
			pp.Flags[string(f)] = v
			if v {
				pp.Completed++
			}
		}
		pp.Percent = percent(pp.Completed, pp.Total)
		out.Phases = append(out.Phases, pp)
		done += pp.Completed
		total += pp.Total
	}
	out.Percent = percent(done, total)
	return out
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return n * 100 / d
}
