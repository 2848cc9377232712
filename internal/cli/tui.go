package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/diagrammer/pkg/credential"
)

var (
	promptLabelStyle = lipgloss.NewStyle().Foreground(colorGray)
	promptValueStyle = lipgloss.NewStyle().Foreground(colorCyan)
	promptDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// errPromptCancelled is returned when the user leaves the key prompt.
var errPromptCancelled = errors.New("cancelled")

// =============================================================================
// KeyPromptModel - Masked API key entry
// =============================================================================

// KeyPromptModel is the bubbletea model for entering the API key. Input is
// echoed masked.
type KeyPromptModel struct {
	value     []rune
	Submitted bool
	Cancelled bool
}

// NewKeyPromptModel creates an empty key prompt.
func NewKeyPromptModel() KeyPromptModel {
	return KeyPromptModel{}
}

// Value returns the entered key without surrounding whitespace.
func (m KeyPromptModel) Value() string {
	return strings.TrimSpace(string(m.value))
}

func (m KeyPromptModel) Init() tea.Cmd {
	return nil
}

func (m KeyPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyEnter:
		m.Submitted = true
		return m, tea.Quit
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Cancelled = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(m.value) > 0 {
			m.value = m.value[:len(m.value)-1]
		}
	case tea.KeyCtrlU:
		m.value = nil
	case tea.KeyRunes, tea.KeySpace:
		m.value = append(m.value, key.Runes...)
	}
	return m, nil
}

func (m KeyPromptModel) View() string {
	if m.Submitted || m.Cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("OpenAI API Key"))
	b.WriteString("\n")
	b.WriteString(promptDimStyle.Render("paste or type  ⏎ save  esc cancel"))
	b.WriteString("\n\n")
	b.WriteString(promptLabelStyle.Render("key "))
	b.WriteString(promptValueStyle.Render(credential.Mask(string(m.value))))
	b.WriteString(promptDimStyle.Render("▌"))
	b.WriteString("\n")
	return b.String()
}

// promptKey runs the masked key prompt on the terminal.
func promptKey(ctx context.Context) (string, error) {
	p := tea.NewProgram(NewKeyPromptModel(), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m := final.(KeyPromptModel)
	if m.Cancelled || !m.Submitted {
		return "", errPromptCancelled
	}
	return m.Value(), nil
}
