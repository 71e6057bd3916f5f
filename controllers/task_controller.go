package controller

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/config"
	"taskhive/models"
	"taskhive/rbac"
	"taskhive/utils"
)

type TaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTaskController(db *gorm.DB, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:     db,
		Logger: logger,
	}
}

type CreateTaskRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	TeamID       uint       `json:"team_id" validate:"required"`
	AssignedToID *uint      `json:"assigned_to_id"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title" validate:"omitempty,max=200"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status" validate:"omitempty,oneof=open in_progress completed"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate      *time.Time `json:"due_date"`
	AssignedToID *uint      `json:"assigned_to_id"`
}

type AddCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// loadTask fetches a task with every relation the response needs. The
// query is scoped to the caller's teams so a missing task and an
// inaccessible one are indistinguishable.
func (tc *TaskController) loadTask(taskID uint, teamIDs []uint) (*models.Task, error) {
	var task models.Task
	err := tc.DB.Preload("Team").Preload("CreatedBy").Preload("AssignedTo").
		Preload("Comments").Preload("Comments.Author").Preload("Comments.Attachments").
		Preload("Attachments").
		Where("id = ? AND team_id IN ?", taskID, teamIDs).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task in a team the actor belongs to. Any team
// role suffices.
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if !rbac.CanAccessTask(user, req.TeamID) {
		return utils.NotFoundOrUnauthorized(c, "Team")
	}

	task := models.Task{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		TeamID:       req.TeamID,
		CreatedByID:  user.ID,
		AssignedToID: req.AssignedToID,
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error creating task", err)
	}

	recordActivity(tc.DB, user.ID, "task_created", "task", task.ID, task.Title)

	loaded, err := tc.loadTask(task.ID, []uint{req.TeamID})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error creating task", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Task created successfully",
		"task":    taskResponse(loaded),
	})
}

// GetTasks lists tasks across the actor's teams with optional filters.
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamIDs := rbac.MemberTeamIDs(user)

	// A teamId filter outside the caller's memberships gets the uniform
	// response instead of narrowing to someone else's team.
	if teamParam := c.Query("teamId"); teamParam != "" {
		teamID, err := parseQueryID(teamParam)
		if err != nil || !rbac.IsMember(user, teamID) {
			return utils.NotFoundOrUnauthorized(c, "Team")
		}
		teamIDs = []uint{teamID}
	}

	if len(teamIDs) == 0 {
		return c.JSON(fiber.Map{"tasks": []fiber.Map{}})
	}

	query := tc.DB.Preload("Team").Preload("CreatedBy").Preload("AssignedTo").
		Preload("Comments").Preload("Comments.Author").Preload("Comments.Attachments").
		Preload("Attachments").
		Where("team_id IN ?", teamIDs)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if assignedTo := c.Query("assignedTo"); assignedTo != "" {
		query = query.Where("assigned_to_id = ?", assignedTo)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			tc.DB.Where("LOWER(title) LIKE LOWER(?)", pattern).
				Or("LOWER(description) LIKE LOWER(?)", pattern),
		)
	}
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")
	if startDate != "" && endDate != "" {
		start, err1 := time.Parse("2006-01-02", startDate)
		end, err2 := time.Parse("2006-01-02", endDate)
		if err1 != nil || err2 != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", nil)
		}
		query = query.Where("due_date BETWEEN ? AND ?", start, end)
	}

	var tasks []models.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error fetching tasks", err)
	}

	responses := make([]fiber.Map, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, taskResponse(&tasks[i]))
	}

	return c.JSON(fiber.Map{
		"tasks": responses,
	})
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := parseIDParam(c, "taskId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Task")
	}

	task, err := tc.loadTask(taskID, rbac.MemberTeamIDs(user))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Task")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error fetching task", err)
	}

	return c.JSON(fiber.Map{
		"task": taskResponse(task),
	})
}

// UpdateTask mutates a task. Any member of the owning team may update,
// regardless of team role.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := parseIDParam(c, "taskId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Task")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var task models.Task
	if err := tc.DB.Where("id = ? AND team_id IN ?", taskID, rbac.MemberTeamIDs(user)).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Task")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating task", err)
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AssignedToID != nil {
		task.AssignedToID = req.AssignedToID
	}

	if err := tc.DB.Save(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating task", err)
	}

	loaded, err := tc.loadTask(task.ID, []uint{task.TeamID})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating task", err)
	}

	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"task":    taskResponse(loaded),
	})
}

// DeleteTask removes a task with its comments and attachments, then
// cleans up stored files. Any member of the owning team may delete.
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := parseIDParam(c, "taskId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Task")
	}

	var task models.Task
	if err := tc.DB.Where("id = ? AND team_id IN ?", taskID, rbac.MemberTeamIDs(user)).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Task")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error deleting task", err)
	}

	var filePaths []string
	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TaskAttachment{}).Where("task_id = ?", taskID).
			Pluck("storage_path", &filePaths).Error; err != nil {
			return err
		}

		var commentIDs []uint
		if err := tx.Model(&models.TaskComment{}).Where("task_id = ?", taskID).
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

		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAttachment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, taskID).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error deleting task", err)
	}

	for _, path := range filePaths {
		utils.RemoveFileQuietly(path)
	}

	tc.Logger.Printf("task %d deleted by user %d", taskID, user.ID)

	return c.JSON(fiber.Map{
		"message": "Task deleted successfully",
	})
}

// AddComment appends a comment to a task in one of the actor's teams.
func (tc *TaskController) AddComment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := parseIDParam(c, "taskId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Task")
	}

	var req AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var task models.Task
	if err := tc.DB.Where("id = ? AND team_id IN ?", taskID, rbac.MemberTeamIDs(user)).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Task")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding comment", err)
	}

	comment := models.TaskComment{
		TaskID:   taskID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := tc.DB.Create(&comment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding comment", err)
	}

	recordActivity(tc.DB, user.ID, "comment_added", "task", taskID, task.Title)

	loaded, err := tc.loadTask(taskID, []uint{task.TeamID})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding comment", err)
	}

	return c.JSON(fiber.Map{
		"message": "Comment added successfully",
		"task":    taskResponse(loaded),
	})
}

// AddAttachments stores uploaded files for a task. Every file is
// validated before anything touches disk or the database; if the
// database write fails afterwards the stored files are deleted so no
// orphans remain.
func (tc *TaskController) AddAttachments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := parseIDParam(c, "taskId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Task")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File upload error", err)
	}

	files := form.File["attachments"]
	if len(files) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No files uploaded", nil)
	}
	if len(files) > utils.MaxAttachmentNum {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("Too many files. Maximum is %d files per upload", utils.MaxAttachmentNum), nil)
	}
	for _, file := range files {
		if err := utils.ValidateUpload(file, utils.MaxAttachmentSize, utils.AttachmentTypes); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
		}
	}

	var task models.Task
	if err := tc.DB.Where("id = ? AND team_id IN ?", taskID, rbac.MemberTeamIDs(user)).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Task")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding attachments", err)
	}

	dir := filepath.Join(config.AppConfig.UploadDir, "tasks")
	stored, err := tc.storeFiles(c, files, dir)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error storing attachments", err)
	}

	attachments := make([]models.TaskAttachment, 0, len(stored))
	for i, file := range files {
		attachments = append(attachments, models.TaskAttachment{
			TaskID:      taskID,
			Filename:    file.Filename,
			StoragePath: stored[i],
		})
	}

	if err := tc.DB.Create(&attachments).Error; err != nil {
		// Roll back the stored files so no orphans are left behind.
		for _, path := range stored {
			utils.RemoveFileQuietly(path)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding attachments", err)
	}

	recordActivity(tc.DB, user.ID, "attachment_added", "task", taskID, task.Title)

	loaded, err := tc.loadTask(taskID, []uint{task.TeamID})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error adding attachments", err)
	}

	return c.JSON(fiber.Map{
		"message": "Attachments added successfully",
		"task":    taskResponse(loaded),
	})
}

// storeFiles saves every file or none: a failure deletes what was
// already written.
func (tc *TaskController) storeFiles(c *fiber.Ctx, files []*multipart.FileHeader, dir string) ([]string, error) {
	stored := make([]string, 0, len(files))
	for _, file := range files {
		path, err := utils.SaveUpload(c, file, dir, "task")
		if err != nil {
			for _, p := range stored {
				utils.RemoveFileQuietly(p)
			}
			return nil, err
		}
		stored = append(stored, path)
	}
	return stored, nil
}

// RemoveAttachment deletes one attachment row and its stored file.
func (tc *TaskController) RemoveAttachment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	taskID, err := parseIDParam(c, "taskId")
	if err != nil {
		return utils.NotFoundOrUnauthorized(c, "Task")
	}
	attachmentID, err := parseIDParam(c, "attachmentId")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Attachment not found", nil)
	}

	var task models.Task
	if err := tc.DB.Where("id = ? AND team_id IN ?", taskID, rbac.MemberTeamIDs(user)).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundOrUnauthorized(c, "Task")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error removing attachment", err)
	}

	var attachment models.TaskAttachment
	if err := tc.DB.Where("id = ? AND task_id = ?", attachmentID, taskID).
		First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Attachment not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error removing attachment", err)
	}

	// Row first, file second: if the row delete fails the stored file is
	// still referenced, while a leftover file after a committed delete is
	// only orphaned storage.
	if err := tc.DB.Delete(&attachment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error removing attachment", err)
	}

	utils.RemoveFileQuietly(attachment.StoragePath)

	loaded, err := tc.loadTask(taskID, []uint{task.TeamID})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error removing attachment", err)
	}

	return c.JSON(fiber.Map{
		"message": "Attachment removed successfully",
		"task":    taskResponse(loaded),
	})
}
