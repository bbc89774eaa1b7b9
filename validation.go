package lexstream

import (
	"encoding/json"
	"sync"
)

// ValidationRule checks one aspect of a StreamRequest before any network
// activity. Rules return a *ValidationError for hard failures and nil when
// the request passes.
type ValidationRule interface {
	// Name returns a human-readable name for this rule.
	Name() string

	// Check validates a request against the given registry.
	Check(registry *ProfileRegistry, req *StreamRequest) *ValidationError
}

// ValidationEngine manages validation rules and executes them in order.
type ValidationEngine struct {
	rules []ValidationRule
	mu    sync.RWMutex
}

var (
	globalValidationEngine     *ValidationEngine
	globalValidationEngineOnce sync.Once
)

// GetValidationEngine returns the global validation engine (singleton).
func GetValidationEngine() *ValidationEngine {
	globalValidationEngineOnce.Do(func() {
		globalValidationEngine = &ValidationEngine{}
		globalValidationEngine.AddRule(backendRule{})
		globalValidationEngine.AddRule(parserRule{})
		globalValidationEngine.AddRule(payloadRule{})
	})
	return globalValidationEngine
}

// AddRule adds a validation rule to the engine.
func (ve *ValidationEngine) AddRule(rule ValidationRule) {
	ve.mu.Lock()
	defer ve.mu.Unlock()
	ve.rules = append(ve.rules, rule)
}

// Validate runs all rules against the request and returns the first hard
// failure, or nil when the request is acceptable.
func (ve *ValidationEngine) Validate(registry *ProfileRegistry, req *StreamRequest) error {
	ve.mu.RLock()
	rules := make([]ValidationRule, len(ve.rules))
	copy(rules, ve.rules)
	ve.mu.RUnlock()

	for _, rule := range rules {
		if verr := rule.Check(registry, req); verr != nil {
			return verr
		}
	}
	return nil
}

// ValidateRequest validates a request against the global engine and registry.
func ValidateRequest(req *StreamRequest) error {
	return GetValidationEngine().Validate(GetProfileRegistry(), req)
}

// backendRule requires a registered backend profile.
type backendRule struct{}

func (backendRule) Name() string { return "backend" }

func (backendRule) Check(registry *ProfileRegistry, req *StreamRequest) *ValidationError {
	if req.Backend == "" {
		return &ValidationError{Field: "Backend", Value: req.Backend, Reason: "backend identifier is required"}
	}
	if !registry.SupportsBackend(req.Backend) {
		return &ValidationError{Field: "Backend", Value: req.Backend, Reason: "no profile registered for backend"}
	}
	return nil
}

// parserRule requires any parser override to be a known strategy.
type parserRule struct{}

func (parserRule) Name() string { return "parser" }

func (parserRule) Check(_ *ProfileRegistry, req *StreamRequest) *ValidationError {
	if req.Parser != "" && !req.Parser.IsValid() {
		return &ValidationError{Field: "Parser", Value: req.Parser, Reason: "unknown parser kind (valid: generic, indexed)"}
	}
	return nil
}

// payloadRule requires the payload to be JSON-serializable.
type payloadRule struct{}

func (payloadRule) Name() string { return "payload" }

func (payloadRule) Check(_ *ProfileRegistry, req *StreamRequest) *ValidationError {
	if req.Payload == nil {
		return nil
	}
	if _, err := json.Marshal(req.Payload); err != nil {
		return &ValidationError{Field: "Payload", Value: req.Payload, Reason: "payload is not JSON-serializable: " + err.Error()}
	}
	return nil
}
