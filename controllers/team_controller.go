package controller

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/rbac"
	"taskhive/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTeamController(db *gorm.DB, logger *log.Logger) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
	}
}

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type AddMemberRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=leader member viewer"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=leader member viewer"`
}

// loadTeam fetches a team with members and creator resolved.
func (tc *TeamController) loadTeam(teamID uint) (*models.Team, error) {
	var team models.Team
	err := tc.DB.Preload("Members").Preload("Members.User").Preload("CreatedBy").
		First(&team, teamID).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// CreateTeam creates a team and enrolls the creator as leader in the
// same transaction. The route is gated on global role admin or
// team_leader.
func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if !rbac.CanCreateTeam(user) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "You do not have permission to perform this action", nil)
	}

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	team := models.Team{
		Name:        req.Name,
		Description: req.Description,
		CreatedByID: user.ID,
	}

	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		member := models.TeamMember{
			TeamID: team.ID,
			UserID: user.ID,
			Role:   models.TeamRoleLeader,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error creating team", err)
	}

	recordActivity(tc.DB, user.ID, "team_created", "team", team.ID, team.Name)

	loaded, err := tc.loadTeam(team.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error creating team", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Team created successfully",
		"team":    teamResponse(loaded),
	})
}

// GetTeams lists the teams the actor belongs to.
func (tc *TeamController) GetTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamIDs := rbac.MemberTeamIDs(user)

	teams := make([]models.Team, 0)
	if len(teamIDs) > 0 {
		if err := tc.DB.Preload("Members").Preload("Members.User").Preload("CreatedBy").
			Where("id IN ?", teamIDs).
			Find(&teams).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error fetching teams", err)
		}
	}

	responses := make([]fiber.Map, 0, len(teams))
	for i := range teams {
		responses = append(responses, teamResponse(&teams[i]))
	}

	return c.JSON(fiber.Map{
		"teams": responses,
	})
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	if !rbac.IsMember(user, teamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	team, err := tc.loadTeam(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Team")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error fetching team", err)
	}

	return c.JSON(fiber.Map{
		"team": teamResponse(team),
	})
}

// UpdateTeam renames a team. Leader role required; a member or viewer
// gets the same response as a non-member.
func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	var req UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if !rbac.CanMutateTeam(user, teamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	var team models.Team
	if err := tc.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Team")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating team", err)
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}

	if err := tc.DB.Save(&team).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating team", err)
	}

	loaded, err := tc.loadTeam(team.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating team", err)
	}

	return c.JSON(fiber.Map{
		"message": "Team updated successfully",
		"team":    teamResponse(loaded),
	})
}

// DeleteTeam removes the team, every membership row and the team's
// tasks in one transaction, then cleans up stored attachment files.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	if !rbac.CanDeleteTeam(user, teamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	var team models.Team
	if err := tc.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Team")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error deleting team", err)
	}

	var filePaths []string
	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&models.Task{}).Where("team_id = ?", teamID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Model(&models.TaskAttachment{}).Where("task_id IN ?", taskIDs).
				Pluck("storage_path", &filePaths).Error; err != nil {
				return err
			}

			var commentIDs []uint
			if err := tx.Model(&models.TaskComment{}).Where("task_id IN ?", taskIDs).
				Pluck("id", &commentIDs).Error; err != nil {
				return err
			}
			if len(commentIDs) > 0 {
				var commentPaths []string
				if err := tx.Model(&models.CommentAttachment{}).Where("comment_id IN ?", commentIDs).
					Pluck("storage_path", &commentPaths).Error; err != nil {
					return err
				}
				filePaths = append(filePaths, commentPaths...)

				if err := tx.Where("comment_id IN ?", commentIDs).
					Delete(&models.CommentAttachment{}).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAttachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id = ?", teamID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		// Purge every member's role entry for this team.
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Team{}, teamID).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error deleting team", err)
	}

	for _, path := range filePaths {
		utils.RemoveFileQuietly(path)
	}

	recordActivity(tc.DB, user.ID, "team_deleted", "team", teamID, team.Name)

	return c.JSON(fiber.Map{
		"message": "Team deleted successfully",
	})
}

// AddMember enrolls a user into the team. Leader role required; the
// target must exist and must not already be a member.
func (tc *TeamController) AddMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if req.Role == "" {
		req.Role = models.TeamRoleMember
	}

	if !rbac.CanManageMembers(user, teamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	var target models.User
	if err := tc.DB.First(&target, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding team member", err)
	}

	var existing models.TeamMember
	if err := tc.DB.Where("team_id = ? AND user_id = ?", teamID, req.UserID).
		First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "User is already a member of this team", nil)
	}

	member := models.TeamMember{
		TeamID: teamID,
		UserID: req.UserID,
		Role:   req.Role,
	}
	if err := tc.DB.Create(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding team member", err)
	}

	recordActivity(tc.DB, user.ID, "member_added", "team", teamID,
		fmt.Sprintf("%s added as %s", target.Name, req.Role))

	loaded, err := tc.loadTeam(teamID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding team member", err)
	}

	return c.JSON(fiber.Map{
		"message": "Team member added successfully",
		"team":    teamResponse(loaded),
	})
}

// RemoveMember drops a user's membership row.
func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}
	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Team member not found", nil)
	}

	if !rbac.CanManageMembers(user, teamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	result := tc.DB.Where("team_id = ? AND user_id = ?", teamID, targetID).
		Delete(&models.TeamMember{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error removing team member", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Team member not found", nil)
	}

	loaded, err := tc.loadTeam(teamID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error removing team member", err)
	}

	return c.JSON(fiber.Map{
		"message": "Team member removed successfully",
		"team":    teamResponse(loaded),
	})
}

// UpdateMemberRole changes an existing member's team role.
func (tc *TeamController) UpdateMemberRole(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := parseIDParam(c, "teamId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}
	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Team member not found", nil)
	}

	var req UpdateMemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if !rbac.CanManageMembers(user, teamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	result := tc.DB.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, targetID).
		Update("role", req.Role)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating member role", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Team member not found", nil)
	}

	loaded, err := tc.loadTeam(teamID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating member role", err)
	}

	return c.JSON(fiber.Map{
		"message": "Member role updated successfully",
		"team":    teamResponse(loaded),
	})
}
