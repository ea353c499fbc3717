package bastion

import (
	"strings"

	"github.com/xraph/bastion/permission"
)

// MatchGrant checks whether any grant in the set covers resource:action.
// Candidate grants are tried in precedence order: the exact name, the
// resource-wide wildcard ("resource:*"), the global wildcard ("*:*"),
// then the action-across-resources wildcard ("*:action"). The first hit
// wins and is returned so callers can report which grant matched.
func MatchGrant(grants []string, resource, action string) (string, bool) {
	candidates := [4]string{
		permission.FormatName(resource, action),
		permission.WildcardName(resource),
		permission.Global,
		permission.FormatName(permission.Wildcard, action),
	}
	for _, c := range candidates {
		for _, g := range grants {
			if g == c {
				return c, true
			}
		}
	}
	return "", false
}

// MatchGrantName is MatchGrant for an already-formatted "resource:action"
// name. A required name that is itself a wildcard only matches literally.
func MatchGrantName(grants []string, name string) (string, bool) {
	res, act, ok := strings.Cut(name, ":")
	if !ok || res == permission.Wildcard || act == permission.Wildcard {
		for _, g := range grants {
			if g == name {
				return name, true
			}
		}
		return "", false
	}
	return MatchGrant(grants, res, act)
}
