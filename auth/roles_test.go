package auth

import "testing"

func TestHasRole(t *testing.T) {
	t.Run("Reflexivity", func(t *testing.T) {
		for _, r := range Roles {
			if !HasRole(r, r) {
				t.Errorf("HasRole(%s, %s) should be true", r, r)
			}
		}
	})

	t.Run("Strict Order", func(t *testing.T) {
		for i, lower := range Roles {
			for _, higher := range Roles[i+1:] {
				if !HasRole(lower, higher) {
					t.Errorf("HasRole(%s, %s) should be true", lower, higher)
				}
				if HasRole(higher, lower) {
					t.Errorf("HasRole(%s, %s) should be false", higher, lower)
				}
			}
		}
	})

	t.Run("Absent Identity", func(t *testing.T) {
		for _, r := range Roles {
			if HasRole(r, "") {
				t.Errorf("HasRole(%s, <empty>) should be false", r)
			}
		}
	})

	t.Run("Unknown Role Fails Closed", func(t *testing.T) {
		if HasRole(RoleViewer, Role("superadmin")) {
			t.Error("unknown role must not satisfy any requirement")
		}
		if HasRole(RoleViewer, Role("Admin")) {
			t.Error("role matching must be case-sensitive")
		}
	})
}

func TestResolveRole(t *testing.T) {
	t.Run("Explicit Role Claim", func(t *testing.T) {
		got := ResolveRole(map[string]interface{}{"role": "admin"})
		if got != RoleAdmin {
			t.Errorf("expected admin, got %s", got)
		}
	})

	t.Run("Highest Of List", func(t *testing.T) {
		got := ResolveRole(map[string]interface{}{
			"roles": []interface{}{"viewer", "admin"},
		})
		if got != RoleAdmin {
			t.Errorf("expected admin, got %s", got)
		}
		got = ResolveRole(map[string]interface{}{
			"roles": []string{"editor", "reviewer", "viewer"},
		})
		if got != RoleReviewer {
			t.Errorf("expected reviewer, got %s", got)
		}
	})

	t.Run("Explicit Claim Wins Over List", func(t *testing.T) {
		got := ResolveRole(map[string]interface{}{
			"role":  "editor",
			"roles": []interface{}{"admin"},
		})
		if got != RoleEditor {
			t.Errorf("expected editor, got %s", got)
		}
	})

	t.Run("Bogus Role Collapses To Viewer", func(t *testing.T) {
		cases := []map[string]interface{}{
			{"role": "bogus"},
			{"role": 42},
			{"roles": []interface{}{"bogus", 7, nil}},
			{"roles": "admin"},
			{},
			nil,
		}
		for _, claims := range cases {
			if got := ResolveRole(claims); got != RoleViewer {
				t.Errorf("ResolveRole(%v) = %s, expected viewer", claims, got)
			}
		}
	})

	t.Run("Malformed List Falls Back To Valid Entries", func(t *testing.T) {
		got := ResolveRole(map[string]interface{}{
			"roles": []interface{}{"bogus", "editor", 3.14},
		})
		if got != RoleEditor {
			t.Errorf("expected editor, got %s", got)
		}
	})
}
