package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestGetAndUpdateProfile(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "a@x.com", "Alice", "")

	status, resp := doJSON(t, app, http.MethodGet, "/profile/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get profile: status %d, body %v", status, resp)
	}
	if resp["name"] != "Alice" {
		t.Errorf("name = %v, want Alice", resp["name"])
	}
	if _, exposed := resp["PasswordHash"]; exposed {
		t.Error("password hash leaked in profile response")
	}

	status, resp = doJSON(t, app, http.MethodPut, "/profile/", token, map[string]interface{}{
		"name":  "Alice B",
		"email": " Alice.B@X.com ",
	})
	if status != http.StatusOK {
		t.Fatalf("update profile: status %d, body %v", status, resp)
	}

	// The new email works for login, the old one no longer exists.
	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "alice.b@x.com",
		"password": "pw123456",
	})
	if status != http.StatusOK {
		t.Errorf("login with new email: status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("login with old email: status %d, want 401", status)
	}
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	app := setupApp(t)
	registerUser(t, app, "taken@x.com", "Tara", "")
	token, _ := registerUser(t, app, "a@x.com", "Alice", "")

	status, resp := doJSON(t, app, http.MethodPut, "/profile/", token, map[string]interface{}{
		"email": "taken@x.com",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("conflicting email: status %d, want 400", status)
	}
	if resp["message"] != "Email already in use" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestChangePassword(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "a@x.com", "Alice", "")

	status, resp := doJSON(t, app, http.MethodPut, "/profile/password", token, map[string]interface{}{
		"current_password": "wrong",
		"new_password":     "newpass123",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong current password: status %d, want 401", status)
	}
	if resp["message"] != "Current password is incorrect" {
		t.Errorf("message = %v", resp["message"])
	}

	status, _ = doJSON(t, app, http.MethodPut, "/profile/password", token, map[string]interface{}{
		"current_password": "pw123456",
		"new_password":     "newpass123",
	})
	if status != http.StatusOK {
		t.Fatalf("change password: status %d", status)
	}

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "newpass123",
	})
	if status != http.StatusOK {
		t.Errorf("login with new password: status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("login with old password: status %d, want 401", status)
	}
}

func TestDeleteProfile(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "a@x.com", "Alice", "")

	status, _ := doJSON(t, app, http.MethodDelete, "/profile/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("delete profile: status %d", status)
	}

	// The token no longer resolves to an account.
	status, _ = doJSON(t, app, http.MethodGet, "/profile/", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("token after deletion: status %d, want 401", status)
	}

	status, _ = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "a@x.com",
		"password": "pw123456",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("login after deletion: status %d, want 401", status)
	}
}

func TestActivityFeed(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "lead@x.com", "Lena", "team_leader")
	teamID := createTeam(t, app, token, "Platform")
	createTask(t, app, token, teamID, "Kickoff")

	status, resp := doJSON(t, app, http.MethodGet, "/profile/activity", token, nil)
	if status != http.StatusOK {
		t.Fatalf("activity feed: status %d, body %v", status, resp)
	}
	activities := resp["activities"].([]interface{})
	if len(activities) < 2 {
		t.Fatalf("activity entries = %d, want at least 2", len(activities))
	}
	actions := make(map[string]bool)
	for _, a := range activities {
		entry := a.(map[string]interface{})
		actions[entry["action"].(string)] = true
	}
	if !actions["team_created"] || !actions["task_created"] {
		t.Errorf("actions recorded = %v, want team_created and task_created", actions)
	}
}

func TestUploadAvatar(t *testing.T) {
	app := setupApp(t)
	token, _ := registerUser(t, app, "a@x.com", "Alice", "")

	status, resp := uploadAvatar(t, app, token, "face.png", "image/png", bytes.Repeat([]byte{0x89}, 128))
	if status != http.StatusOK {
		t.Fatalf("avatar upload: status %d, body %v", status, resp)
	}
	user := resp["user"].(map[string]interface{})
	if user["avatar_url"] == nil || user["avatar_url"] == "" {
		t.Error("avatar_url not set after upload")
	}

	// Wrong content type is refused before anything is written.
	status, resp = uploadAvatar(t, app, token, "notes.txt", "text/plain", []byte("hello"))
	if status != http.StatusBadRequest {
		t.Errorf("text avatar: status %d, body %v, want 400", status, resp)
	}
}

func uploadAvatar(t *testing.T, app *fiber.App, token, filename, contentType string, data []byte) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("creating multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("writing multipart data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/profile/avatar", &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("avatar request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}
