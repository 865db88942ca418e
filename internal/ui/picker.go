package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNothingToPick is returned by PickItem for an empty list.
var ErrNothingToPick = errors.New("no items to pick from")

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label    string // primary text (e.g. campaign title)
	SubLabel string // secondary text shown dimmed (e.g. address, price)
	Value    string // value returned on selection
	Disabled bool   // shown but not selectable (e.g. an ended campaign)
}

// pickerModel is the Bubble Tea model for the interactive list picker.
type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPicker(title string, items []PickerItem) pickerModel {
	m := pickerModel{title: title, items: items}
	m.cursor = m.next(-1, 1)
	return m
}

// next finds the first enabled item from i+dir onwards, or i if none.
func (m pickerModel) next(i, dir int) int {
	for j := i + dir; j >= 0 && j < len(m.items); j += dir {
		if !m.items[j].Disabled {
			return j
		}
	}
	if i < 0 {
		return 0
	}
	return i
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = m.next(m.cursor, -1)
	case "down", "j":
		m.cursor = m.next(m.cursor, 1)
	case "enter", " ":
		if m.cursor < len(m.items) && !m.items[m.cursor].Disabled {
			item := m.items[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
	default:
		// 1-9 jump to a row.
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(m.items) && !m.items[i].Disabled {
				m.cursor = i
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(StyleTitle.Render("  "+m.title) + "\n\n")

	for i, item := range m.items {
		prefix := fmt.Sprintf("  %d ", i+1)
		if i == m.cursor {
			prefix = "  ▸ "
		}

		label := StyleValue.Render(item.Label)
		if item.Disabled {
			label = StyleMeta.Render(item.Label)
		}
		line := prefix + label
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}

		if i == m.cursor {
			sb.WriteString(StyleSelected.Render(line) + "\n")
		} else {
			sb.WriteString(line + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(StyleMeta.Render("  [ ↑↓ / jk / 1-9 ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem runs an interactive list picker and returns the selected item's Value.
// Returns ("", nil) if the user cancels. Returns an error only on TUI failure.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToPick
	}

	p := tea.NewProgram(newPicker(title, items), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}

	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}
