package assemble

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ansci/internal/quality"
)

// SceneOutcome is one scene's line in the job quality report.
type SceneOutcome struct {
	Index           int          `json:"index"`
	Title           string       `json:"title"`
	Flag            quality.Flag `json:"flag"`
	DurationSeconds float64      `json:"duration_seconds"`
	Confidence      float64      `json:"confidence"`
	Notes           []string     `json:"notes,omitempty"`
}

// Report aggregates the job outcome: every scene's flag, the overall
// worst-case flag, and the produced outputs.
type Report struct {
	Title        string         `json:"title"`
	Scenes       []SceneOutcome `json:"scenes"`
	Overall      quality.Flag   `json:"overall"`
	Outputs      []string       `json:"outputs"`
	TotalSeconds float64        `json:"total_seconds"`
}

var titleCaser = cases.Title(language.AmericanEnglish)

// BuildReport folds scene outcomes into the job report. The overall flag is
// the worst flag any scene carries.
func BuildReport(title string, scenes []SceneOutcome, outputs []string) *Report {
	report := &Report{
		Title:   DisplayTitle(title),
		Scenes:  scenes,
		Overall: quality.OK,
		Outputs: outputs,
	}
	for _, scene := range scenes {
		report.Overall = quality.Worse(report.Overall, scene.Flag)
		report.TotalSeconds += scene.DurationSeconds
	}
	return report
}

// DisplayTitle normalizes a job title for report and filename headers.
func DisplayTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "Untitled"
	}
	return titleCaser.String(title)
}
