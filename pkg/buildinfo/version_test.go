package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	got := Template()
	if !strings.Contains(got, "version v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.HasPrefix(got, "{{.Name}}") {
		t.Errorf("Template() should start with the command name placeholder: %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v0.1.0"

	if got := UserAgent(); got != "diagrammer/v0.1.0" {
		t.Errorf("UserAgent() = %q", got)
	}
}
