package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
)

type Writer struct{}

func (Writer) Write(w io.Writer, result domain.Result, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		payload := struct {
			Groups   []domain.GroupResult   `json:"groups"`
			Examples []domain.ExampleResult `json:"examples,omitempty"`
			Summary  struct {
				Pass    bool    `json:"pass"`
				Overall float64 `json:"overall"`
			} `json:"summary"`
			Warnings []string `json:"warnings,omitempty"`
		}{
			Groups:   result.Groups,
			Examples: result.Examples,
			Warnings: result.Warnings,
		}
		payload.Summary.Pass = result.Passed
		payload.Summary.Overall = result.OverallPercent()
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case application.OutputBrief:
		return writeBrief(w, result)
	case application.OutputText, "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeText(w io.Writer, result domain.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	hasDeltas := false
	for _, g := range result.Groups {
		if g.Delta != nil {
			hasDeltas = true
			break
		}
	}

	if hasDeltas {
		_, _ = fmt.Fprintln(tw, "Group\tRules\tCoverage\tDelta\tRequired\tStatus")
	} else {
		_, _ = fmt.Fprintln(tw, "Group\tRules\tCoverage\tRequired\tStatus")
	}

	colorize := colorEnabled(w)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	deltaUpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	deltaDownStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))

	for _, g := range result.Groups {
		status := string(g.Status)
		if colorize {
			switch g.Status {
			case domain.StatusPass:
				status = passStyle.Render(status)
			case domain.StatusFail:
				status = failStyle.Render(status)
			}
		}

		rules := fmt.Sprintf("%d/%d", g.Covered, g.Total)
		if hasDeltas {
			deltaStr := "-"
			if g.Delta != nil {
				deltaStr = fmt.Sprintf("%+.1f%%", *g.Delta)
				if colorize {
					if *g.Delta > 0 {
						deltaStr = deltaUpStyle.Render(deltaStr)
					} else if *g.Delta < 0 {
						deltaStr = deltaDownStyle.Render(deltaStr)
					}
				}
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%s\t%.1f%%\t%s\n", g.Group, rules, g.Percent, deltaStr, g.Required, status)
		} else {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%.1f%%\t%s\n", g.Group, rules, g.Percent, g.Required, status)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed := result.FailingExampleCount(); failed > 0 {
		fmt.Fprintln(w, "\nFailed examples:")
		for _, ex := range result.Examples {
			if ex.Status != domain.StatusFail {
				continue
			}
			name := ex.Name
			if colorize {
				name = failStyle.Render(name)
			}
			fmt.Fprintf(w, "  %s: %s\n", name, ex.Failure)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
	return nil
}

// WriteTokens renders tokenize output, one table per input file.
func (Writer) WriteTokens(w io.Writer, files []application.FileTokens, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	case application.OutputText, application.OutputBrief, "":
		for i, f := range files {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s: %d tokens\n", f.File, len(f.Tokens))
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "Line\tPos\tRule\tText")
			for _, tok := range f.Tokens {
				_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%q\n", tok.Line, tok.Pos, tok.Rule, tok.Text)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// writeBrief outputs a single-line summary for scripts and agents.
// Format: STATUS | XX.X% overall | N/M groups passing [| failing: g1 (XX.X%)]
func writeBrief(w io.Writer, result domain.Result) error {
	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}

	passing := result.PassingGroupCount()
	total := len(result.Groups)
	failing := result.FailingGroups()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s | %.1f%% overall | %d/%d groups passing", status, result.OverallPercent(), passing, total))

	if len(failing) > 0 {
		sb.WriteString(" | failing:")
		for i, g := range failing {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf(" %s (%.1f%%)", g.Group, g.Percent))
		}
	}

	if failed := result.FailingExampleCount(); failed > 0 {
		sb.WriteString(fmt.Sprintf(" | %d examples failing", failed))
	}

	if len(result.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf(" | %d warnings", len(result.Warnings)))
	}

	sb.WriteString("\n")
	_, err := w.Write([]byte(sb.String()))
	return err
}
