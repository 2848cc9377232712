package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/diagrammer/pkg/config"
)

func TestCacheScope(t *testing.T) {
	graphviz := config.Default()
	graphviz.Engine.Name = "graphviz"

	krokiA := config.Default()
	krokiA.Engine.Name = "kroki"
	krokiA.Engine.KrokiURL = "https://kroki.io"

	krokiB := config.Default()
	krokiB.Engine.Name = "kroki"
	krokiB.Engine.KrokiURL = "http://kroki.internal:8000"

	if got := cacheScope(graphviz); strings.Contains(got, "kroki") {
		t.Errorf("graphviz scope should not mention a service URL: %q", got)
	}
	if cacheScope(krokiA) == cacheScope(krokiB) {
		t.Error("different Kroki services should use different scopes")
	}
	if !strings.HasSuffix(cacheScope(krokiB), "http://kroki.internal:8000:") {
		t.Errorf("cacheScope() = %q", cacheScope(krokiB))
	}
}
