package auth

import (
	"strings"

	"golang.org/x/text/cases"
)

// ParseScopes normalises a scope claim. A string claim is split on
// whitespace; a list claim keeps its elements as whole tokens.
func ParseScopes(claim any) []string {
	switch v := claim.(type) {
	case string:
		return strings.Fields(v)
	case []string:
		return v
	case []any:
		scopes := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				scopes = append(scopes, s)
			}
		}
		return scopes
	default:
		return nil
	}
}

// ScopesMatch reports whether any granted scope equals one of the required
// scopes, ignoring case.
func ScopesMatch(required, granted []string) bool {
	fold := cases.Fold()
	wanted := make(map[string]struct{}, len(required))
	for _, scope := range required {
		wanted[fold.String(scope)] = struct{}{}
	}

	for _, scope := range granted {
		if _, ok := wanted[fold.String(scope)]; ok {
			return true
		}
	}
	return false
}
