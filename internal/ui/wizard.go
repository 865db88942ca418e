package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// WizardResult holds answers collected by the init wizard.
type WizardResult struct {
	Network      string
	RPCAlgorithm string
	ManifestPath string // deployment manifest to import, "" to skip
	Cancelled    bool
}

// --- Bubble Tea model ---

type wizardStep int

const (
	stepNetwork wizardStep = iota
	stepAlgorithm
	stepManifest
	stepDone
)

type wizardModel struct {
	step      wizardStep
	result    WizardResult
	cursor    int
	choices   []string
	networks  []string
	input     string
	inputMode bool
}

var algorithms = []string{"fastest", "failover"}

func initialWizard(networks []string) wizardModel {
	return wizardModel{
		step:     stepNetwork,
		choices:  networks,
		networks: networks,
	}
}

func (m wizardModel) Init() tea.Cmd { return nil }

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.result.Cancelled = true
		return m, tea.Quit

	case tea.KeyUp:
		if !m.inputMode && m.cursor > 0 {
			m.cursor--
		}

	case tea.KeyDown:
		if !m.inputMode && m.cursor < len(m.choices)-1 {
			m.cursor++
		}

	case tea.KeyEnter:
		if m.inputMode {
			m.result.ManifestPath = strings.Trim(strings.TrimSpace(m.input), `"'`)
			m.inputMode = false
		} else {
			m.applyChoice()
		}
		m.cursor = 0
		m.advance()

	case tea.KeyBackspace:
		if m.inputMode && len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}

	case tea.KeySpace:
		if m.inputMode {
			m.input += " "
		}

	case tea.KeyRunes:
		if m.inputMode {
			m.input += string(key.Runes)
			break
		}
		switch key.String() {
		case "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "q":
			m.result.Cancelled = true
			return m, tea.Quit
		}
	}

	if m.step == stepDone {
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) advance() {
	m.step++
	switch m.step {
	case stepAlgorithm:
		m.choices = algorithms
	case stepManifest:
		m.choices = nil
		m.inputMode = true
		m.input = ""
	}
}

func (m *wizardModel) applyChoice() {
	if m.cursor >= len(m.choices) {
		return
	}
	switch m.step {
	case stepNetwork:
		m.result.Network = m.choices[m.cursor]
	case stepAlgorithm:
		m.result.RPCAlgorithm = m.choices[m.cursor]
	}
}

func (m wizardModel) View() string {
	var s string

	switch m.step {
	case stepNetwork:
		s = renderMenu("Select the network your contracts live on:", m.choices, m.cursor)
	case stepAlgorithm:
		s = renderMenu("Select RPC algorithm:", m.choices, m.cursor)
	case stepManifest:
		s = StyleTitle.Render("Import contract addresses (optional)") + "\n\n"
		s += StyleMeta.Render("Path to a deployment manifest or deploy log (Enter to skip):") + "\n"
		s += "> " + StyleAddress.Render(m.input) + "█\n"
	case stepDone:
		s = Success("Setup complete!") + "\n"
	}

	return StyleBorder.Render(s) + "\n"
}

func renderMenu(title string, items []string, cursor int) string {
	s := StyleTitle.Render(title) + "\n\n"
	for i, item := range items {
		icon := "  "
		style := lipgloss.NewStyle().Foreground(ColorValue)
		if i == cursor {
			icon = "▸ "
			style = StyleSelected
		}
		s += icon + style.Render(item) + "\n"
	}
	s += "\n" + StyleMeta.Render("↑/↓ navigate · Enter select · q quit")
	return s
}

// RunWizard launches the interactive init wizard over the given networks.
func RunWizard(networks []string) (*WizardResult, error) {
	p := tea.NewProgram(initialWizard(networks))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard error: %w", err)
	}
	result := final.(wizardModel).result
	return &result, nil
}
