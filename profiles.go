package lexstream

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/profiles/backends.yaml
var defaultProfilesYAML []byte

// Profiles Philosophy:
//
// Backend profiles are METADATA about the remote AI backends the assistant
// talks to: which endpoint to call, which chunk format the backend emits,
// and whether its answer channel carries inline reasoning markup.
//
// Profiles do not gate requests; the backend is the source of truth. A
// request can always override the parser and reasoning mode per call.
//
// Library users can override the embedded defaults by:
//  1. Calling LoadProfilesFromFile() with custom YAML
//  2. Calling RegisterBackendProfile() programmatically

// ProfileSet represents the full backend profile configuration.
type ProfileSet struct {
	Version     string                    `yaml:"version"`      // Semantic version (e.g., "1.0.0")
	LastUpdated string                    `yaml:"last_updated"` // ISO 8601 date
	Backends    map[string]BackendProfile `yaml:"backends"`
	Transport   TransportDefaults         `yaml:"transport"`
}

// BackendProfile describes one remote AI backend.
type BackendProfile struct {
	// Endpoint is the path of the streaming endpoint, joined to the
	// transport's base URL.
	Endpoint string `yaml:"endpoint"`

	// Parser selects the default chunk-format parser for this backend.
	Parser ParserKind `yaml:"parser"`

	// ReasoningBlocks enables inline <think> extraction by default. Used
	// for deep-research style backends that emit reasoning markup in the
	// answer channel instead of discrete thought events.
	ReasoningBlocks bool `yaml:"reasoning_blocks"`

	// Kind describes the response kind reported in metadata
	// (e.g. "answer", "research").
	Kind string `yaml:"kind"`
}

// TransportDefaults holds transport-wide tuning shared by all backends.
type TransportDefaults struct {
	MaxRetries        int `yaml:"max_retries"`
	RetryDelayMS      int `yaml:"retry_delay_ms"`
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// RetryDelay returns the configured fixed retry delay.
func (t TransportDefaults) RetryDelay() time.Duration {
	return time.Duration(t.RetryDelayMS) * time.Millisecond
}

// ProfileRegistry manages backend profiles.
type ProfileRegistry struct {
	profiles  map[string]BackendProfile
	transport TransportDefaults
	mu        sync.RWMutex
}

var (
	globalProfiles     *ProfileRegistry
	globalProfilesOnce sync.Once
)

// GetProfileRegistry returns the global profile registry (singleton).
func GetProfileRegistry() *ProfileRegistry {
	globalProfilesOnce.Do(func() {
		globalProfiles = &ProfileRegistry{
			profiles: make(map[string]BackendProfile),
		}
		if err := globalProfiles.loadDefaults(); err != nil {
			// Don't panic - validation will catch missing profiles.
			fmt.Fprintf(os.Stderr, "Warning: failed to load default backend profiles: %v\n", err)
		}
	})
	return globalProfiles
}

// loadDefaults loads the embedded profile YAML.
func (r *ProfileRegistry) loadDefaults() error {
	var set ProfileSet
	if err := yaml.Unmarshal(defaultProfilesYAML, &set); err != nil {
		return fmt.Errorf("failed to unmarshal default profiles: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, profile := range set.Backends {
		r.profiles[name] = profile
	}
	r.transport = set.Transport

	return nil
}

// GetBackendProfile returns the profile for a backend identifier.
func (r *ProfileRegistry) GetBackendProfile(backend string) (BackendProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[backend]
	if !ok {
		return BackendProfile{}, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
	return profile, nil
}

// SupportsBackend checks if a backend identifier is registered.
func (r *ProfileRegistry) SupportsBackend(backend string) bool {
	_, err := r.GetBackendProfile(backend)
	return err == nil
}

// TransportDefaults returns the transport-wide tuning values.
func (r *ProfileRegistry) TransportDefaults() TransportDefaults {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transport
}

// LoadProfilesFromFile loads backend profiles from a YAML file, merging
// them over the embedded defaults. The file format matches the embedded
// YAML structure.
func (r *ProfileRegistry) LoadProfilesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profiles file: %w", err)
	}

	var set ProfileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("failed to unmarshal profiles: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, profile := range set.Backends {
		r.profiles[name] = profile
	}
	if set.Transport != (TransportDefaults{}) {
		r.transport = set.Transport
	}

	return nil
}

// RegisterBackendProfile programmatically registers a backend profile.
// This allows library users to define backends in code rather than YAML.
func (r *ProfileRegistry) RegisterBackendProfile(backend string, profile BackendProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[backend] = profile
}

// LoadProfilesFromFile is a convenience function that calls the global registry's LoadProfilesFromFile.
func LoadProfilesFromFile(path string) error {
	return GetProfileRegistry().LoadProfilesFromFile(path)
}

// RegisterBackendProfile is a convenience function that calls the global registry's RegisterBackendProfile.
func RegisterBackendProfile(backend string, profile BackendProfile) {
	GetProfileRegistry().RegisterBackendProfile(backend, profile)
}
