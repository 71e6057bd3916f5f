package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskhive/models"
)

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parseQueryID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// recordActivity writes a profile-feed entry. Best effort: a failed
// insert is logged and never fails the request.
func recordActivity(db *gorm.DB, userID uint, action, targetType string, targetID uint, detail string) {
	activity := models.Activity{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
	}
	if err := db.Create(&activity).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
			"error":   err.Error(),
		}).Warn("failed to record activity")
	}
}

// teamResponse renders a team with its member list. Members and their
// users must be preloaded.
func teamResponse(team *models.Team) fiber.Map {
	members := make([]fiber.Map, 0, len(team.Members))
	for i := range team.Members {
		m := &team.Members[i]
		members = append(members, fiber.Map{
			"user": m.User.Public(),
			"role": m.Role,
		})
	}

	return fiber.Map{
		"id":          team.ID,
		"name":        team.Name,
		"description": team.Description,
		"created_by":  team.CreatedBy.Public(),
		"members":     members,
		"created_at":  team.CreatedAt,
		"updated_at":  team.UpdatedAt,
	}
}

// taskResponse renders a task with its comments and attachments.
// Relations must be preloaded.
func taskResponse(task *models.Task) fiber.Map {
	comments := make([]fiber.Map, 0, len(task.Comments))
	for i := range task.Comments {
		cm := &task.Comments[i]
		attachments := make([]fiber.Map, 0, len(cm.Attachments))
		for j := range cm.Attachments {
			attachments = append(attachments, fiber.Map{
				"id":          cm.Attachments[j].ID,
				"filename":    cm.Attachments[j].Filename,
				"path":        cm.Attachments[j].StoragePath,
				"uploaded_at": cm.Attachments[j].CreatedAt,
			})
		}
		comments = append(comments, fiber.Map{
			"id":          cm.ID,
			"content":     cm.Content,
			"author":      cm.Author.Public(),
			"attachments": attachments,
			"created_at":  cm.CreatedAt,
		})
	}

	attachments := make([]fiber.Map, 0, len(task.Attachments))
	for i := range task.Attachments {
		a := &task.Attachments[i]
		attachments = append(attachments, fiber.Map{
			"id":          a.ID,
			"filename":    a.Filename,
			"path":        a.StoragePath,
			"uploaded_at": a.CreatedAt,
		})
	}

	resp := fiber.Map{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"due_date":    task.DueDate,
		"team": fiber.Map{
			"id":   task.TeamID,
			"name": task.Team.Name,
		},
		"created_by":  task.CreatedBy.Public(),
		"comments":    comments,
		"attachments": attachments,
		"created_at":  task.CreatedAt,
		"updated_at":  task.UpdatedAt,
	}
	if task.AssignedTo != nil {
		resp["assigned_to"] = task.AssignedTo.Public()
	}
	return resp
}
