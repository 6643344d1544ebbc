package llm

import (
	"sync"
)

var (
	registryOnce sync.Once
	registry     *Registry
)

// LoadRegistry returns the process-wide provider registry, constructing
// it on first call and reusing the same instance afterwards. Providers
// hold live HTTP clients and credentials, so exactly one registry
// exists per process; whether a provider is usable is checked per
// request via IsConfigured rather than at construction time.
func LoadRegistry(build func() *Registry) *Registry {
	registryOnce.Do(func() {
		registry = build()
	})
	return registry
}
