// Package rbac centralizes every authorization predicate so role checks
// are not re-implemented ad hoc per handler. All predicates evaluate the
// user row loaded for the current request (with memberships preloaded),
// never the role snapshot embedded in the token.
package rbac

import (
	"taskhive/models"
)

// CanCreateTeam reports whether the user may create teams. This is the
// only operation gated on the global role.
func CanCreateTeam(user *models.User) bool {
	return user.Role == models.RoleAdmin || user.Role == models.RoleTeamLeader
}

// TeamRole returns the user's role on the given team, if any.
func TeamRole(user *models.User, teamID uint) (string, bool) {
	for _, m := range user.Memberships {
		if m.TeamID == teamID {
			return m.Role, true
		}
	}
	return "", false
}

// IsMember reports whether the user holds any role on the team. A user
// with no membership is treated as a non-member even if their global
// role is admin.
func IsMember(user *models.User, teamID uint) bool {
	_, ok := TeamRole(user, teamID)
	return ok
}

// CanMutateTeam reports whether the user may rename or delete the team
// or manage its members: leader role required.
func CanMutateTeam(user *models.User, teamID uint) bool {
	role, ok := TeamRole(user, teamID)
	return ok && role == models.TeamRoleLeader
}

// CanDeleteTeam is identical to CanMutateTeam.
func CanDeleteTeam(user *models.User, teamID uint) bool {
	return CanMutateTeam(user, teamID)
}

// CanManageMembers reports whether the user may add or remove members
// or change member roles on the team.
func CanManageMembers(user *models.User, teamID uint) bool {
	return CanMutateTeam(user, teamID)
}

// CanAccessTask reports whether the user may read or mutate tasks owned
// by the team. Any team role suffices; no finer distinction is made for
// read, update, delete, comment or attach.
func CanAccessTask(user *models.User, teamID uint) bool {
	return IsMember(user, teamID)
}

// MemberTeamIDs returns the ids of every team the user belongs to, for
// scoping task queries.
func MemberTeamIDs(user *models.User) []uint {
	ids := make([]uint, 0, len(user.Memberships))
	for _, m := range user.Memberships {
		ids = append(ids, m.TeamID)
	}
	return ids
}

// RegistrationRole resolves the global role for a new registration. A
// requested admin role is silently downgraded: admin can only be
// granted by an existing admin through an administrative path.
func RegistrationRole(requested string) string {
	if requested == "" || requested == models.RoleAdmin {
		return models.RoleTeamMember
	}
	return requested
}

// ValidTeamRole reports whether s is a recognized team role.
func ValidTeamRole(s string) bool {
	switch s {
	case models.TeamRoleLeader, models.TeamRoleMember, models.TeamRoleViewer:
		return true
	}
	return false
}
