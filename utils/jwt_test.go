package utils

import (
	"testing"

	"taskhive/config"
	"taskhive/models"
)

func TestGenerateAndParseJWT(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	user := &models.User{
		Role: models.RoleTeamLeader,
		Memberships: []models.TeamMember{
			{TeamID: 3, Role: models.TeamRoleLeader},
			{TeamID: 8, Role: models.TeamRoleViewer},
		},
	}
	user.ID = 42

	token, err := GenerateJWTToken(user)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	claims, err := ParseJWTToken(token)
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != models.RoleTeamLeader {
		t.Errorf("Role = %q, want team_leader", claims.Role)
	}
	if len(claims.TeamRoles) != 2 || claims.TeamRoles[0].TeamID != 3 || claims.TeamRoles[1].Role != models.TeamRoleViewer {
		t.Errorf("TeamRoles = %+v", claims.TeamRoles)
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	user := &models.User{Role: models.RoleTeamMember}
	user.ID = 1

	token, err := GenerateJWTToken(user)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	config.AppConfig.JWTSecret = "other-secret"
	defer func() { config.AppConfig.JWTSecret = "test-secret" }()
	if _, err := ParseJWTToken(token); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	if _, err := ParseJWTToken("not.a.token"); err == nil {
		t.Fatal("malformed token accepted")
	}
}
