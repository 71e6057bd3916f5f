package controller

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhive/config"
	"taskhive/models"
	"taskhive/utils"
)

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func GetProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(user)
}

func UpdateProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if req.Email != nil {
		req.Email = utils.Pointer(utils.NormalizeEmail(*req.Email))
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if req.Email != nil {
		email := *req.Email

		var existingUser models.User
		if err := config.DB.Where("email = ? AND id <> ?", email, user.ID).
			First(&existingUser).Error; err == nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Email already in use", nil)
		}
		user.Email = email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := config.DB.Save(user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error updating profile", err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func DeleteProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	// Membership rows go with the account so teams keep a consistent
	// member list.
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error deleting profile", err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile deleted successfully",
	})
}

func ChangePassword(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Current password is incorrect", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error changing password", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := config.DB.Save(user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error changing password", err)
	}

	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}

func GetActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var activities []models.Activity
	if err := config.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&activities).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error fetching activity", err)
	}

	return c.JSON(fiber.Map{
		"activities": activities,
	})
}

func UploadAvatar(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	file, err := c.FormFile("avatar")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", nil)
	}

	if err := utils.ValidateUpload(file, utils.MaxAvatarSize, utils.AvatarTypes); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	dir := filepath.Join(config.AppConfig.UploadDir, "avatars")
	path, err := utils.SaveUpload(c, file, dir, "avatar")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error uploading avatar", err)
	}

	oldAvatar := user.AvatarURL
	user.AvatarURL = &path
	if err := config.DB.Save(user).Error; err != nil {
		// Roll back the stored file so no orphan is left behind.
		utils.RemoveFileQuietly(path)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Error uploading avatar", err)
	}

	if oldAvatar != nil {
		utils.RemoveFileQuietly(*oldAvatar)
	}

	return c.JSON(fiber.Map{
		"message": "Avatar uploaded successfully",
		"user":    user,
	})
}
