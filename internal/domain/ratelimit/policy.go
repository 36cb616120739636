package ratelimit

import "fmt"

// PolicyTable is the immutable mapping from category name to quota policy.
// It is built once at startup from validated configuration; lookups never
// observe partial state.
type PolicyTable struct {
	policies map[string]Policy
}

// NewPolicyTable builds a policy table from the given policies.
// Returns an error for duplicate names or non-positive capacity/refill,
// so a bad table is caught at boot rather than while serving traffic.
func NewPolicyTable(policies []Policy) (*PolicyTable, error) {
	m := make(map[string]Policy, len(policies))
	for _, p := range policies {
		if p.Name == "" {
			return nil, fmt.Errorf("policy with empty category name")
		}
		if p.Capacity <= 0 {
			return nil, fmt.Errorf("category %q: capacity must be positive, got %d", p.Name, p.Capacity)
		}
		if p.RefillPerSecond <= 0 {
			return nil, fmt.Errorf("category %q: refill rate must be positive, got %g", p.Name, p.RefillPerSecond)
		}
		if _, exists := m[p.Name]; exists {
			return nil, fmt.Errorf("duplicate category %q", p.Name)
		}
		m[p.Name] = p
	}
	return &PolicyTable{policies: m}, nil
}

// Lookup returns the policy for a category.
// Returns ErrUnknownCategory for categories not in the table.
func (t *PolicyTable) Lookup(category string) (Policy, error) {
	p, ok := t.policies[category]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return p, nil
}

// Categories returns the names of all configured categories.
func (t *PolicyTable) Categories() []string {
	names := make([]string, 0, len(t.policies))
	for name := range t.policies {
		names = append(names, name)
	}
	return names
}

// DefaultPolicies returns the built-in category policies used when the
// configuration does not define any.
func DefaultPolicies() []Policy {
	return []Policy{
		{Name: "api", Capacity: 60, RefillPerSecond: 1.0 / 10},
		{Name: "search", Capacity: 30, RefillPerSecond: 1.0 / 20},
		{Name: "contact", Capacity: 5, RefillPerSecond: 1.0 / 60},
		{Name: "auth", Capacity: 10, RefillPerSecond: 1.0 / 30},
	}
}
