package permission_test

import (
	"testing"

	"github.com/xraph/bastion/permission"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		resource string
		action   string
		wantErr  bool
	}{
		{"plain", "user:read", "user", "read", false},
		{"action wildcard", "user:*", "user", "*", false},
		{"global wildcard", "*:*", "*", "*", false},
		{"action-position wildcard name", "*:read", "*", "read", true},
		{"missing separator", "userread", "", "", true},
		{"empty action", "user:", "", "", true},
		{"empty resource", ":read", "", "", true},
		{"double separator", "user:read:extra", "", "", true},
		{"uppercase", "User:read", "", "", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource, action, err := permission.ParseName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseName(%q) failed: %v", tt.input, err)
			}
			if resource != tt.resource || action != tt.action {
				t.Errorf("got (%q, %q), want (%q, %q)", resource, action, tt.resource, tt.action)
			}
		})
	}
}

func TestFormatName(t *testing.T) {
	if got := permission.FormatName("role", "read"); got != "role:read" {
		t.Errorf("FormatName = %q", got)
	}
	if got := permission.WildcardName("role"); got != "role:*" {
		t.Errorf("WildcardName = %q", got)
	}
}
