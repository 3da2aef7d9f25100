package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/rampart/id"
)

func TestConstructorPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"RoleID", id.NewRoleID, "role_"},
		{"PermissionID", id.NewPermissionID, "perm_"},
		{"UserRoleID", id.NewUserRoleID, "urole_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRejectsOtherPrefix(t *testing.T) {
	if _, err := id.ParseRoleID(id.NewPermissionID().String()); err == nil {
		t.Error("ParseRoleID accepted a permission ID")
	}
	if _, err := id.ParsePermissionID(id.NewUserRoleID().String()); err == nil {
		t.Error("ParsePermissionID accepted a user-role ID")
	}
	if _, err := id.ParseUserRoleID(id.NewRoleID().String()); err == nil {
		t.Error("ParseUserRoleID accepted a role ID")
	}
}

func TestParseRoleIDs(t *testing.T) {
	a, b := id.NewRoleID(), id.NewRoleID()
	got, err := id.ParseRoleIDs([]string{a.String(), b.String()})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].String() != a.String() || got[1].String() != b.String() {
		t.Fatalf("unexpected parse result %v", got)
	}

	if _, err := id.ParseRoleIDs([]string{a.String(), "nope"}); err == nil {
		t.Fatal("expected error for invalid entry")
	}
}

func TestStrings(t *testing.T) {
	a, b := id.NewPermissionID(), id.NewPermissionID()
	got := id.Strings([]id.ID{a, b})
	if got[0] != a.String() || got[1] != b.String() {
		t.Fatalf("unexpected strings %v", got)
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("expected empty rendering, got %q/%q", i.String(), i.Prefix())
	}
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewRoleID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var restored id.ID
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if restored.String() != original.String() {
		t.Errorf("mismatch: %q != %q", restored, original)
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewUserRoleID()
	val, err := original.Value()
	if err != nil {
		t.Fatal(err)
	}
	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	val, err = nilID.Value()
	if err != nil || val != nil {
		t.Fatalf("expected NULL for nil ID, got %v (%v)", val, err)
	}
	var scanned2 id.ID
	if err := scanned2.Scan(nil); err != nil || !scanned2.IsNil() {
		t.Fatalf("expected nil after scanning NULL, got %v (%v)", scanned2, err)
	}
}
