package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"taskhive/config"
	"taskhive/models"
)

func TestCreateTeamSetsCreatorAsLeader(t *testing.T) {
	app := setupApp(t)
	token, userID := registerUser(t, app, "lead@x.com", "Lena", "team_leader")

	teamID := createTeam(t, app, token, "Platform")

	var membership models.TeamMember
	if err := config.DB.Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&membership).Error; err != nil {
		t.Fatalf("membership row not created: %v", err)
	}
	if membership.Role != models.TeamRoleLeader {
		t.Errorf("creator team role = %q, want leader", membership.Role)
	}

	status, resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/teams/%d", teamID), token, nil)
	if status != http.StatusOK {
		t.Fatalf("get team: status %d, body %v", status, resp)
	}
	team := resp["team"].(map[string]interface{})
	members := team["members"].([]interface{})
	if len(members) != 1 {
		t.Fatalf("team has %d members, want 1", len(members))
	}
}

func TestCreateTeamRequiresGlobalRole(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "member@x.com", "Manu", "")

	status, resp := doJSON(t, app, http.MethodPost, "/api/teams/", token, map[string]interface{}{
		"name": "Rogue",
	})
	if status != http.StatusForbidden {
		t.Fatalf("team_member creating team: status %d, want 403", status)
	}
	if resp["message"] != "You do not have permission to perform this action" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestTeamMutationsAreLeaderOnly(t *testing.T) {
	app := setupApp(t)
	leaderToken, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	memberToken, memberID := registerUser(t, app, "member@x.com", "Manu", "")

	teamID := createTeam(t, app, leaderToken, "Platform")
	addMember(t, app, leaderToken, teamID, memberID, "member")

	// A plain member sees the team but cannot mutate it. The refusal is
	// indistinguishable from the team not existing.
	status, _ := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/teams/%d", teamID), memberToken, nil)
	if status != http.StatusOK {
		t.Errorf("member reading team: status %d, want 200", status)
	}

	status, resp := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/teams/%d", teamID), memberToken, map[string]interface{}{
		"name": "Hijacked",
	})
	if status != http.StatusNotFound {
		t.Errorf("member updating team: status %d, want 404", status)
	}
	if resp["message"] != "Team not found or unauthorized" {
		t.Errorf("message = %v", resp["message"])
	}

	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/teams/%d", teamID), memberToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("member deleting team: status %d, want 404", status)
	}

	status, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", teamID), memberToken, map[string]interface{}{
		"user_id": memberID,
	})
	if status != http.StatusNotFound {
		t.Errorf("member adding member: status %d, want 404", status)
	}

	// The leader can.
	status, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/teams/%d", teamID), leaderToken, map[string]interface{}{
		"name": "Platform Core",
	})
	if status != http.StatusOK {
		t.Errorf("leader updating team: status %d, want 200", status)
	}
}

func TestNonMemberGetsUniformNotFound(t *testing.T) {
	app := setupApp(t)
	leaderToken, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	outsiderToken, _ := registerUser(t, app, "out@x.com", "Olga", "")

	teamID := createTeam(t, app, leaderToken, "Platform")

	status, resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/teams/%d", teamID), outsiderToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("outsider reading team: status %d, want 404", status)
	}
	if resp["message"] != "Team not found or unauthorized" {
		t.Errorf("message = %v", resp["message"])
	}

	// Listing only shows the caller's teams.
	status, resp = doJSON(t, app, http.MethodGet, "/api/teams/", outsiderToken, nil)
	if status != http.StatusOK {
		t.Fatalf("outsider listing teams: status %d", status)
	}
	if teams := resp["teams"].([]interface{}); len(teams) != 0 {
		t.Errorf("outsider sees %d teams, want 0", len(teams))
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	app := setupApp(t)
	leaderToken, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	_, memberID := registerUser(t, app, "member@x.com", "Manu", "")

	teamID := createTeam(t, app, leaderToken, "Platform")
	addMember(t, app, leaderToken, teamID, memberID, "")

	status, resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", teamID), leaderToken, map[string]interface{}{
		"user_id": memberID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate add: status %d, want 400", status)
	}
	if resp["message"] != "User is already a member of this team" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestAddMemberUnknownUser(t *testing.T) {
	app := setupApp(t)
	leaderToken, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	teamID := createTeam(t, app, leaderToken, "Platform")

	status, resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", teamID), leaderToken, map[string]interface{}{
		"user_id": 9999,
	})
	if status != http.StatusNotFound {
		t.Fatalf("adding unknown user: status %d, want 404", status)
	}
	if resp["message"] != "User not found" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestUpdateAndRemoveMember(t *testing.T) {
	app := setupApp(t)
	leaderToken, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	_, memberID := registerUser(t, app, "member@x.com", "Manu", "")

	teamID := createTeam(t, app, leaderToken, "Platform")
	addMember(t, app, leaderToken, teamID, memberID, "viewer")

	status, resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/teams/%d/members/%d/role", teamID, memberID), leaderToken, map[string]interface{}{
		"role": "member",
	})
	if status != http.StatusOK {
		t.Fatalf("updating member role: status %d, body %v", status, resp)
	}

	var membership models.TeamMember
	if err := config.DB.Where("team_id = ? AND user_id = ?", teamID, memberID).
		First(&membership).Error; err != nil {
		t.Fatalf("membership lookup: %v", err)
	}
	if membership.Role != models.TeamRoleMember {
		t.Errorf("role after update = %q, want member", membership.Role)
	}

	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/teams/%d/members/%d", teamID, memberID), leaderToken, nil)
	if status != http.StatusOK {
		t.Fatalf("removing member: status %d", status)
	}

	var count int64
	config.DB.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, memberID).Count(&count)
	if count != 0 {
		t.Error("membership row survived removal")
	}

	// Removing again reports the member as missing.
	status, resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/teams/%d/members/%d", teamID, memberID), leaderToken, nil)
	if status != http.StatusNotFound {
		t.Errorf("removing absent member: status %d, want 404", status)
	}
	if resp["message"] != "Team member not found" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestDeleteTeamCascades(t *testing.T) {
	app := setupApp(t)
	leaderToken, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	_, memberID := registerUser(t, app, "member@x.com", "Manu", "")

	teamID := createTeam(t, app, leaderToken, "Platform")
	addMember(t, app, leaderToken, teamID, memberID, "")
	taskID := createTask(t, app, leaderToken, teamID, "Ship it")

	status, resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/tasks/%d/comments", taskID), leaderToken, map[string]interface{}{
		"content": "on it",
	})
	if status != http.StatusOK {
		t.Fatalf("adding comment: status %d, body %v", status, resp)
	}

	status, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/teams/%d", teamID), leaderToken, nil)
	if status != http.StatusOK {
		t.Fatalf("deleting team: status %d", status)
	}

	var memberships, tasks, comments int64
	config.DB.Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&memberships)
	config.DB.Model(&models.Task{}).Where("team_id = ?", teamID).Count(&tasks)
	config.DB.Model(&models.TaskComment{}).Where("task_id = ?", taskID).Count(&comments)
	if memberships != 0 || tasks != 0 || comments != 0 {
		t.Errorf("after team delete: %d memberships, %d tasks, %d comments left", memberships, tasks, comments)
	}
}
