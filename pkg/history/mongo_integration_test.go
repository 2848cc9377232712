//go:build integration

package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("DIAGRAMMER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DIAGRAMMER_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "diagrammer_test",
		Collection: "history_" + uuid.NewString()[:8],
	})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()
	defer s.coll.Drop(ctx)

	base := time.Now().UTC()
	for i, p := range []string{"one", "two", "three"} {
		e := NewEntry(p, "graph TD", "gpt-4o-mini", "mermaid")
		e.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d", len(entries))
	}
	if entries[0].Prompt != "three" {
		t.Errorf("newest entry = %q, want three", entries[0].Prompt)
	}
}
