package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend without colliding, e.g. two servers pointed at different
// Kroki instances:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "kroki.internal:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(engine, dialect, theme, source string) string {
	return k.prefix + k.inner.ArtifactKey(engine, dialect, theme, source)
}
