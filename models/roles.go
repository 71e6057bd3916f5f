package models

// Global roles apply account-wide; team roles are scoped to a single team.
const (
	RoleAdmin      = "admin"
	RoleTeamLeader = "team_leader"
	RoleTeamMember = "team_member"
	RoleViewer     = "viewer"
)

const (
	TeamRoleLeader = "leader"
	TeamRoleMember = "member"
	TeamRoleViewer = "viewer"
)

// Task status and priority values
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)
