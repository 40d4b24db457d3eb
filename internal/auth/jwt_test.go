package auth

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")
	token, err := v.GenerateToken(7, []string{RoleArranger}, []uint{3, 9})
	if err != nil {
		t.Fatal(err)
	}

	claims, err := v.ParseAndValidate(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 7 {
		t.Errorf("userID = %d, want 7", claims.UserID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != RoleArranger {
		t.Errorf("roles = %v, want [arranger]", claims.Roles)
	}
	if len(claims.ScopedEntityIDs) != 2 {
		t.Errorf("scopedEntityIds = %v, want two entries", claims.ScopedEntityIDs)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a").GenerateToken(7, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewVerifier("secret-b").ParseAndValidate(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestCallerScopes(t *testing.T) {
	staff := Caller{UserID: 1, Roles: []string{RoleStaff}}
	arranger := Caller{UserID: 2, Roles: []string{RoleArranger}, ScopedEntityIDs: []uint{3}}

	if !staff.IsAssignedTo(99) {
		t.Error("staff are assigned to every deal")
	}
	if !arranger.IsAssignedTo(3) {
		t.Error("arranger is assigned to deal 3")
	}
	if arranger.IsAssignedTo(4) {
		t.Error("arranger is not assigned to deal 4")
	}
	if arranger.HasRole(RoleStaff) {
		t.Error("arranger does not carry staff")
	}
}
