package loader

import "github.com/aretw0/introspection"

// State implements introspection.Introspectable.
func (l *Loader) State() any {
	return l.Stats()
}

// ComponentType implements introspection.Component.
func (l *Loader) ComponentType() string {
	return "loader"
}

var _ introspection.Introspectable = (*Loader)(nil)
var _ introspection.Component = (*Loader)(nil)
