package completion

import "fmt"

// Dialect is the diagram markup language requested from the model.
type Dialect string

const (
	Mermaid Dialect = "mermaid"
	DOT     Dialect = "dot"
)

// ParseDialect converts a config or engine dialect name to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case Mermaid, "":
		return Mermaid, nil
	case DOT, "graphviz":
		return DOT, nil
	default:
		return "", fmt.Errorf("unknown diagram dialect %q", s)
	}
}

// DisplayName is the human name used in prompts ("Mermaid", "Graphviz DOT").
func (d Dialect) DisplayName() string {
	switch d {
	case DOT:
		return "Graphviz DOT"
	default:
		return "Mermaid"
	}
}

// Instruction returns the system message that constrains the model to emit
// only markup in this dialect.
func (d Dialect) Instruction() string {
	return fmt.Sprintf("You are a helpful assistant that generates %s diagram code based on user descriptions. "+
		"Only respond with valid %s syntax without any explanations or markdown formatting.",
		d.DisplayName(), d.DisplayName())
}

// UserMessage formats the prompt as the user turn of the conversation.
func (d Dialect) UserMessage(prompt string) string {
	return fmt.Sprintf("Generate a %s diagram for: %s", d.DisplayName(), prompt)
}
