package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "scribe:staging:")
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

// ProgramKey generates a prefixed program key.
func (k *ScopedKeyer) ProgramKey(opts ProgramKeyOpts) string {
	return k.prefix + k.inner.ProgramKey(opts)
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(programKey, format string) string {
	return k.prefix + k.inner.PreviewKey(programKey, format)
}

// IDKey generates a prefixed ID key.
func (k *ScopedKeyer) IDKey(id string) string {
	return k.prefix + k.inner.IDKey(id)
}
