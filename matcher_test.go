package bastion

import "testing"

func TestMatchGrant(t *testing.T) {
	tests := []struct {
		name     string
		grants   []string
		resource string
		action   string
		want     string
		allowed  bool
	}{
		{"exact", []string{"order:read"}, "order", "read", "order:read", true},
		{"resource wildcard", []string{"user:*"}, "user", "delete", "user:*", true},
		{"global wildcard", []string{"*:*"}, "billing", "export", "*:*", true},
		{"action wildcard", []string{"*:read"}, "order", "read", "*:read", true},
		{"action wildcard wrong action", []string{"*:read"}, "order", "write", "", false},
		{"no grant", []string{"order:read"}, "order", "write", "", false},
		{"empty set", nil, "order", "read", "", false},
		{"exact beats resource wildcard", []string{"user:*", "user:delete"}, "user", "delete", "user:delete", true},
		{"resource wildcard beats global", []string{"*:*", "user:*"}, "user", "read", "user:*", true},
		{"global beats action wildcard", []string{"*:read", "*:*"}, "user", "read", "*:*", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchGrant(tt.grants, tt.resource, tt.action)
			if ok != tt.allowed {
				t.Fatalf("MatchGrant allowed = %v, want %v", ok, tt.allowed)
			}
			if got != tt.want {
				t.Errorf("MatchGrant matched %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchGrantName(t *testing.T) {
	grants := []string{"order:*", "*:export"}

	if _, ok := MatchGrantName(grants, "order:cancel"); !ok {
		t.Error("order:cancel should match order:*")
	}
	if _, ok := MatchGrantName(grants, "report:export"); !ok {
		t.Error("report:export should match *:export")
	}
	if _, ok := MatchGrantName(grants, "report:read"); ok {
		t.Error("report:read should not match")
	}
	// A required wildcard name matches only a literal grant.
	if _, ok := MatchGrantName(grants, "order:*"); !ok {
		t.Error("order:* should match the literal order:* grant")
	}
	if _, ok := MatchGrantName([]string{"*:*"}, "order:*"); ok {
		t.Error("required order:* must not be satisfied by *:*")
	}
	if _, ok := MatchGrantName(grants, "not-a-name"); ok {
		t.Error("malformed name should not match")
	}
}
