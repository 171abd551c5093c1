package lint

import (
	"fmt"
	"sync"
)

// defaultRegistry holds the rules registered by pkg/lint/rules.
var defaultRegistry = NewRegistry()

// Registry stores rules in registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []RuleDef
	byKey map[string]int // ID and code -> index
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]int)}
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds rules to the default registry.
// Call this from init() in rule packages.
func Register(rules ...RuleDef) {
	for _, r := range rules {
		if err := defaultRegistry.Add(r); err != nil {
			panic(err)
		}
	}
}

// Add appends a rule. IDs and codes must be unique.
func (r *Registry) Add(rule RuleDef) error {
	if rule.ID == "" || rule.Code == "" {
		return fmt.Errorf("rule %q: id and code are required", rule.Name)
	}
	if rule.Check == nil {
		return fmt.Errorf("rule %s: check function is required", rule.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[rule.ID]; ok {
		return fmt.Errorf("rule %s already registered", rule.ID)
	}
	if _, ok := r.byKey[rule.Code]; ok {
		return fmt.Errorf("rule code %s already registered", rule.Code)
	}
	r.rules = append(r.rules, rule)
	r.byKey[rule.ID] = len(r.rules) - 1
	r.byKey[rule.Code] = len(r.rules) - 1
	return nil
}

// Rules returns all rules in registration order.
func (r *Registry) Rules() []RuleDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RuleDef, len(r.rules))
	copy(out, r.rules)
	return out
}

// Enabled returns the rules that run under cfg, in registration order.
func (r *Registry) Enabled(cfg *Config) []RuleDef {
	var out []RuleDef
	for _, rule := range r.Rules() {
		if cfg.IsDisabled(rule) || !rule.IsEnabled(cfg) {
			continue
		}
		out = append(out, rule)
	}
	return out
}

// Get returns a rule by ID or code.
func (r *Registry) Get(key string) (RuleDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byKey[key]
	if !ok {
		return RuleDef{}, false
	}
	return r.rules[i], true
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// AllRules returns metadata for every rule in the default registry.
func AllRules() []RuleInfo {
	rules := defaultRegistry.Rules()
	infos := make([]RuleInfo, 0, len(rules))
	for _, r := range rules {
		infos = append(infos, r.Info())
	}
	return infos
}

// GetRule returns a rule from the default registry by ID or code.
func GetRule(key string) (RuleDef, bool) {
	return defaultRegistry.Get(key)
}
