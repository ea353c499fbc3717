package permission

import (
	"fmt"
	"strings"
)

// Wildcard is the literal wildcard segment in a permission name.
const Wildcard = "*"

// Global is the permission name that matches anything.
const Global = "*:*"

// FormatName builds the canonical "resource:action" permission name.
func FormatName(resource, action string) string {
	return resource + ":" + action
}

// WildcardName returns the resource-level wildcard name for a resource
// ("resource:*").
func WildcardName(resource string) string {
	return FormatName(resource, Wildcard)
}

// ParseName splits a permission name into its resource and action segments
// and validates the grammar: exactly one ':', non-empty ASCII segments,
// and '*' allowed in the resource position only as part of "*:*".
func ParseName(name string) (resource, action string, err error) {
	resource, action, ok := strings.Cut(name, ":")
	if !ok {
		return "", "", fmt.Errorf("permission name %q: missing ':' separator", name)
	}
	if resource == "" || action == "" {
		return "", "", fmt.Errorf("permission name %q: empty segment", name)
	}
	if strings.Contains(action, ":") {
		return "", "", fmt.Errorf("permission name %q: more than one ':'", name)
	}
	if resource == Wildcard && action != Wildcard {
		return "", "", fmt.Errorf("permission name %q: wildcard resource is only valid as %q", name, Global)
	}
	for _, seg := range []string{resource, action} {
		if seg == Wildcard {
			continue
		}
		if !validSegment(seg) {
			return "", "", fmt.Errorf("permission name %q: segment %q must be lowercase ASCII [a-z0-9_-]", name, seg)
		}
	}
	return resource, action, nil
}

// ValidateName reports whether name conforms to the permission name grammar.
func ValidateName(name string) error {
	_, _, err := ParseName(name)
	return err
}

// ValidateSegment validates a single name segment: non-empty lowercase
// ASCII [a-z0-9_-]. Resource catalog names use the same grammar.
func ValidateSegment(s string) error {
	if s == "" {
		return fmt.Errorf("name segment must not be empty")
	}
	if !validSegment(s) {
		return fmt.Errorf("name segment %q must be lowercase ASCII [a-z0-9_-]", s)
	}
	return nil
}

func validSegment(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}
