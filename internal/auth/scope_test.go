package auth

import (
	"reflect"
	"testing"
)

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name  string
		claim any
		want  []string
	}{
		{"space separated", "read:roles  write:roles", []string{"read:roles", "write:roles"}},
		{"list", []any{"all:roles", 7, "read:organizations"}, []string{"all:roles", "read:organizations"}},
		{"missing", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseScopes(tt.claim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseScopes(%v) = %v, want %v", tt.claim, got, tt.want)
			}
		})
	}
}

func TestScopesMatch(t *testing.T) {
	required := []string{"read:roles", "all:roles"}

	if !ScopesMatch(required, []string{"READ:Roles"}) {
		t.Error("expected case-insensitive match")
	}
	if !ScopesMatch(required, []string{"write:organizations", "all:roles"}) {
		t.Error("expected match on any granted scope")
	}
	if ScopesMatch(required, []string{"read:organizations"}) {
		t.Error("did not expect match for unrelated scope")
	}
	if ScopesMatch(required, nil) {
		t.Error("did not expect match with no scopes")
	}
}
