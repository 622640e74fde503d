// Package capability holds the per-run capability registry and the
// publishers that derive capability payloads from resolved components.
package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Registry is the in-memory capability store for one synthesis run. It
// implements engine.CapabilityRegistry. A fresh Registry is constructed per
// run; nothing persists across runs.
type Registry struct {
	mu sync.RWMutex

	// entries maps component name -> capability name -> payload
	entries map[string]map[string]map[string]interface{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[string]map[string]interface{}),
	}
}

// Register implements engine.CapabilityRegistry. Registering the same
// (component, capability) pair twice is a programmer error in the publisher,
// not a runtime condition to tolerate.
func (r *Registry) Register(component, capability string, payload map[string]interface{}) error {
	if component == "" || capability == "" {
		return engine.NewConfigurationError("capability registration requires component and capability names", nil).
			WithCode(engine.ErrCodeDuplicateCapability)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byCapability, ok := r.entries[component]
	if !ok {
		byCapability = make(map[string]map[string]interface{})
		r.entries[component] = byCapability
	}

	if _, exists := byCapability[capability]; exists {
		return engine.NewConfigurationError(
			fmt.Sprintf("capability %q already registered for component %q", capability, component), nil).
			WithCode(engine.ErrCodeDuplicateCapability).
			WithComponent(component)
	}

	byCapability[capability] = payload
	return nil
}

// Lookup implements engine.CapabilityRegistry. A miss is a manifest error:
// either the target never publishes the capability or the binding is
// mis-typed.
func (r *Registry) Lookup(component, capability string) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCapability, ok := r.entries[component]
	if !ok {
		return nil, engine.NewCapabilityNotFoundError(
			fmt.Sprintf("component %q published no capabilities", component), nil).
			WithComponent(component)
	}

	payload, ok := byCapability[capability]
	if !ok {
		return nil, engine.NewCapabilityNotFoundError(
			fmt.Sprintf("component %q does not publish capability %q (has: %s)",
				component, capability, formatNames(byCapability)), nil).
			WithComponent(component).
			WithDetail("requested", capability).
			WithDetail("published", sortedNames(byCapability))
	}

	return payload, nil
}

// Capabilities implements engine.CapabilityRegistry.
func (r *Registry) Capabilities(component string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCapability, ok := r.entries[component]
	if !ok {
		return nil
	}
	return sortedNames(byCapability)
}

func sortedNames(m map[string]map[string]interface{}) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatNames(m map[string]map[string]interface{}) string {
	names := sortedNames(m)
	if len(names) == 0 {
		return "none"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
