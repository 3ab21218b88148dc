package inference

import (
	"fmt"

	"docstruct/internal/config"
	"docstruct/internal/port"
)

// ProviderFactory is a function that creates a PageInference from a provider config.
type ProviderFactory func(cfg *config.InferenceProviderConfig) (port.PageInference, error)

// registry of inference provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an inference provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewInference creates a PageInference from a provider config using the
// registered factory.
func NewInference(cfg *config.InferenceProviderConfig) (port.PageInference, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown inference provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
