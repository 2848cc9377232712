//go:build integration

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKroki_PublicInstance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	l, err := New(Kroki, Options{})
	require.NoError(t, err)

	eng, err := l.EnsureReady(ctx)
	require.NoError(t, err)

	svg, err := eng.Render(ctx, "graph TD\n  A[Start] --> B[End]")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = eng.Render(ctx, "graph TD\n  A[Start --> ")
	assert.Error(t, err)
}
