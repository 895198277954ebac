// Package services provides the conversation core of bioscope and the
// registry that distributes exactly one instance of each service to its
// consumers.
package services

import (
	"fmt"
	"sync"

	"bioscope/pkg/biotypes"
)

// Registry manages service registration and lifecycle for bioscope services.
// Embedders construct their own Registry and inject it; the global accessor
// below exists for the CLI wiring.
type Registry struct {
	mu       sync.RWMutex
	services map[string]biotypes.Service
}

// NewRegistry creates a new service registry with an empty service map.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]biotypes.Service),
	}
}

// RegisterService adds a service to the registry, returning an error if already registered.
func (r *Registry) RegisterService(service biotypes.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	return nil
}

// GetService retrieves a service by name. Lookup of an unregistered service
// fails loudly so wiring mistakes surface at the access site.
func (r *Registry) GetService(name string) (biotypes.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}

	return service, nil
}

// InitializeAll initializes all registered services.
func (r *Registry) InitializeAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, service := range r.services {
		if err := service.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", name, err)
		}
	}

	return nil
}

// GetAllServices returns a copy of all registered services.
func (r *Registry) GetAllServices() map[string]biotypes.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make(map[string]biotypes.Service)
	for name, service := range r.services {
		result[name] = service
	}

	return result
}

// GlobalRegistry is the global service registry instance used by the CLI.
var GlobalRegistry = NewRegistry()

// globalRegistryMu protects access to the GlobalRegistry variable itself
var globalRegistryMu sync.RWMutex

// GetGlobalRegistry returns the global service registry instance in a thread-safe manner
func GetGlobalRegistry() *Registry {
	globalRegistryMu.RLock()
	defer globalRegistryMu.RUnlock()
	return GlobalRegistry
}

// SetGlobalRegistry sets the global service registry instance in a thread-safe manner
func SetGlobalRegistry(registry *Registry) {
	globalRegistryMu.Lock()
	defer globalRegistryMu.Unlock()
	GlobalRegistry = registry
}

// GetGlobalConversationService returns the conversation service instance from the global registry.
func GetGlobalConversationService() (*ConversationService, error) {
	service, err := GetGlobalRegistry().GetService("conversation")
	if err != nil {
		return nil, fmt.Errorf("conversation service not available: %w", err)
	}
	return service.(*ConversationService), nil
}

// GetGlobalRenderService returns the render service instance from the global registry.
func GetGlobalRenderService() (*RenderService, error) {
	service, err := GetGlobalRegistry().GetService("render")
	if err != nil {
		return nil, fmt.Errorf("render service not available: %w", err)
	}
	return service.(*RenderService), nil
}
