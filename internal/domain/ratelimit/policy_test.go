package ratelimit

import (
	"errors"
	"testing"
)

func TestNewPolicyTable_RejectsBadPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		policies []Policy
	}{
		{"empty name", []Policy{{Name: "", Capacity: 10, RefillPerSecond: 1}}},
		{"zero capacity", []Policy{{Name: "api", Capacity: 0, RefillPerSecond: 1}}},
		{"negative capacity", []Policy{{Name: "api", Capacity: -5, RefillPerSecond: 1}}},
		{"zero refill", []Policy{{Name: "api", Capacity: 10, RefillPerSecond: 0}}},
		{"duplicate name", []Policy{
			{Name: "api", Capacity: 10, RefillPerSecond: 1},
			{Name: "api", Capacity: 20, RefillPerSecond: 2},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewPolicyTable(tt.policies); err == nil {
				t.Error("NewPolicyTable() accepted invalid policies")
			}
		})
	}
}

func TestPolicyTable_Lookup(t *testing.T) {
	t.Parallel()

	table, err := NewPolicyTable(DefaultPolicies())
	if err != nil {
		t.Fatalf("NewPolicyTable() error: %v", err)
	}

	p, err := table.Lookup("contact")
	if err != nil {
		t.Fatalf("Lookup(contact) error: %v", err)
	}
	if p.Capacity != 5 {
		t.Errorf("contact capacity = %d, want 5", p.Capacity)
	}

	_, err = table.Lookup("uploads")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Lookup(uploads) error = %v, want ErrUnknownCategory", err)
	}
}

func TestDefaultPolicies_Complete(t *testing.T) {
	t.Parallel()

	table, err := NewPolicyTable(DefaultPolicies())
	if err != nil {
		t.Fatalf("NewPolicyTable() error: %v", err)
	}

	for _, name := range []string{"api", "search", "contact", "auth"} {
		if _, err := table.Lookup(name); err != nil {
			t.Errorf("default category %q missing: %v", name, err)
		}
	}
	if len(table.Categories()) != 4 {
		t.Errorf("default category count = %d, want 4", len(table.Categories()))
	}
}
