package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
)

type (
	wizardState int

	initWizardModel struct {
		state      wizardState
		grammar    string
		defaultMin float64
		groups     []wizardGroup
		cursor     int
		confirmed  bool
		aborted    bool
		exclude    []string
	}

	wizardGroup struct {
		group    domain.Group
		min      float64
		override bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// Run walks the user through reviewing detected rule groups and their
// coverage thresholds. The second return value reports whether the user
// confirmed; on cancel the input config comes back unchanged.
func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	defaultMin := cfg.Policy.DefaultMin
	if defaultMin <= 0 {
		defaultMin = 80
	}
	groups := make([]wizardGroup, len(cfg.Policy.Groups))
	for i, g := range cfg.Policy.Groups {
		minVal := defaultMin
		override := false
		if g.Min != nil {
			minVal = *g.Min
			override = true
		}
		groups[i] = wizardGroup{
			group:    g,
			min:      minVal,
			override: override,
		}
	}
	if len(groups) == 0 {
		groups = append(groups, wizardGroup{group: domain.Group{Name: "rules", Match: []string{"*"}}, min: defaultMin})
	}
	return &initWizardModel{
		state:      stateIntro,
		grammar:    cfg.Grammar,
		defaultMin: defaultMin,
		groups:     groups,
		cursor:     0,
		exclude:    append([]string(nil), cfg.Exclude...),
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-5)
			}
		case "right", "+":
			if m.state == stateEdit {
				m.adjustSelection(5)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	max := len(m.groups)
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > max {
		m.cursor = max
	}
}

func (m *initWizardModel) adjustSelection(delta float64) {
	if m.cursor == 0 {
		m.adjustDefault(delta)
		return
	}
	m.adjustGroup(m.cursor-1, delta)
}

func (m *initWizardModel) adjustDefault(delta float64) {
	m.defaultMin = clamp(m.defaultMin+delta, 0, 100)
	for i := range m.groups {
		if !m.groups[i].override {
			m.groups[i].min = m.defaultMin
		}
	}
}

func (m *initWizardModel) adjustGroup(index int, delta float64) {
	if index < 0 || index >= len(m.groups) {
		return
	}
	value := clamp(m.groups[index].min+delta, 0, 100)
	m.groups[index].min = value
	if !m.groups[index].override {
		m.groups[index].override = true
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nminilex init wizard\n\n")
	if m.grammar != "" {
		fmt.Fprintf(&b, "Detected %d rule groups in %s. Review the coverage thresholds below.\n\n", len(m.groups), m.grammar)
	} else {
		fmt.Fprintf(&b, "Detected %d rule groups. Review the coverage thresholds below.\n\n", len(m.groups))
	}
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel. Default coverage is %.0f%%.\n", m.defaultMin)
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust thresholds\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values.\n")
	fmt.Fprintf(&b, "Default min (affects non-customized groups):\n")
	indicator := "  "
	if m.cursor == 0 {
		indicator = "> "
	}
	fmt.Fprintf(&b, "%s%.0f%%\n\n", indicator, m.defaultMin)
	fmt.Fprintf(&b, "Groups:\n")
	for idx, g := range m.groups {
		prefix := "  "
		if m.cursor == idx+1 {
			prefix = "> "
		}
		custom := ""
		if g.override {
			custom = " (custom)"
		}
		fmt.Fprintf(&b, "%s%s: %.0f%%%s\n", prefix, g.group.Name, g.min, custom)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Default min coverage: %.0f%%\n", m.defaultMin)
	fmt.Fprintf(&b, "Groups summary:\n")
	for _, g := range m.groups {
		fmt.Fprintf(&b, "  %s: %.0f%%\n", g.group.Name, g.min)
	}
	if len(m.exclude) > 0 {
		fmt.Fprintf(&b, "\nExcluded rule patterns:\n")
		for _, pattern := range m.exclude {
			fmt.Fprintf(&b, "  - %s\n", pattern)
		}
	} else {
		fmt.Fprintf(&b, "\nNo exclusions configured.\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := application.Config{
		Version: 1,
		Grammar: m.grammar,
		Policy: domain.Policy{
			DefaultMin: m.defaultMin,
			Groups:     make([]domain.Group, len(m.groups)),
		},
		Exclude: append([]string(nil), m.exclude...),
	}
	for i, g := range m.groups {
		out := g.group
		out.Min = nil
		if g.override {
			min := g.min
			out.Min = &min
		}
		cfg.Policy.Groups[i] = out
	}
	return cfg
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
