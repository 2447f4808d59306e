package authz

import (
	"context"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := WithSession(context.Background(), Session{UserID: 7, RoleID: RoleLead})
	s, ok := SessionFromContext(ctx)
	if !ok {
		t.Fatal("expected session in context")
	}
	if s.UserID != 7 || s.RoleID != RoleLead {
		t.Fatalf("unexpected session %+v", s)
	}
}

func TestSessionMissing(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("expected no session")
	}
	ctx := WithSession(context.Background(), Session{UserID: 0, RoleID: RoleAdmin})
	if _, ok := SessionFromContext(ctx); ok {
		t.Fatal("anonymous session must not count")
	}
}

func TestRoles(t *testing.T) {
	cases := []struct {
		role     int
		elevated bool
		readOnly bool
	}{
		{RoleMember, false, false},
		{RoleAuditor, false, true},
		{RoleLead, true, false},
		{RoleAdmin, true, false},
		{99, false, false},
	}
	for _, c := range cases {
		if got := IsElevated(c.role); got != c.elevated {
			t.Errorf("IsElevated(%d) = %v", c.role, got)
		}
		if got := IsReadOnly(c.role); got != c.readOnly {
			t.Errorf("IsReadOnly(%d) = %v", c.role, got)
		}
	}
	if IsKnown(99) {
		t.Error("role 99 must be unknown")
	}
}
