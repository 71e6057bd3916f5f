package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	MaxAvatarSize     = 5 << 20  // 5MB
	MaxAttachmentSize = 10 << 20 // 10MB
	MaxAttachmentNum  = 5
)

// AvatarTypes are the content types accepted for profile avatars.
var AvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// AttachmentTypes are the content types accepted for task attachments.
var AttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":               true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// ValidateUpload checks size and content type before anything is
// written to disk or the database.
func ValidateUpload(file *multipart.FileHeader, maxSize int64, allowed map[string]bool) error {
	if file.Size > maxSize {
		return fmt.Errorf("file too large (max %dMB)", maxSize>>20)
	}
	contentType := file.Header.Get("Content-Type")
	if !allowed[contentType] {
		return fmt.Errorf("invalid file type %q", contentType)
	}
	return nil
}

// SaveUpload stores the file under dir with a collision-free name and
// returns the storage path.
func SaveUpload(c *fiber.Ctx, file *multipart.FileHeader, dir, prefix string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), filepath.Ext(file.Filename))
	path := filepath.Join(dir, name)
	if err := c.SaveFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveFileQuietly deletes a stored file as compensating cleanup.
// Failure is logged and swallowed: the caller is already on an error
// path or the row is already gone.
func RemoveFileQuietly(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Warn("failed to delete stored file")
	}
}
