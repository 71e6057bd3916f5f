package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskhive/config"
	"taskhive/routes"
)

// setupApp builds an app backed by a fresh in-memory database. The
// config globals are pointed at the test database, matching how the
// handlers resolve them in production.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := config.MigrateDB(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	config.DB = db
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.UploadDir = t.TempDir()
	config.AppConfig.RateLimitAuth = 1000

	app := fiber.New()
	routes.SetupRoutes(app, db)
	return app
}

// doJSON sends a JSON request and decodes the JSON response body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}

	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decoding response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

// registerUser creates an account and returns its token and user id.
func registerUser(t *testing.T, app *fiber.App, email, name, role string) (string, uint) {
	t.Helper()

	body := map[string]interface{}{
		"email":    email,
		"password": "pw123456",
		"name":     name,
	}
	if role != "" {
		body["role"] = role
	}
	status, resp := doJSON(t, app, http.MethodPost, "/auth/register", "", body)
	if status != http.StatusCreated {
		t.Fatalf("registering %s: status %d, body %v", email, status, resp)
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("registering %s: no token in response %v", email, resp)
	}
	user, _ := resp["user"].(map[string]interface{})
	id, _ := user["id"].(float64)
	return token, uint(id)
}

// createTeam makes a team and returns its id.
func createTeam(t *testing.T, app *fiber.App, token, name string) uint {
	t.Helper()

	status, resp := doJSON(t, app, http.MethodPost, "/api/teams/", token, map[string]interface{}{
		"name": name,
	})
	if status != http.StatusCreated {
		t.Fatalf("creating team %s: status %d, body %v", name, status, resp)
	}
	team, _ := resp["team"].(map[string]interface{})
	id, _ := team["id"].(float64)
	if id == 0 {
		t.Fatalf("creating team %s: no id in response %v", name, resp)
	}
	return uint(id)
}

// addMember adds a user to a team with the given role.
func addMember(t *testing.T, app *fiber.App, token string, teamID, userID uint, role string) {
	t.Helper()

	body := map[string]interface{}{"user_id": userID}
	if role != "" {
		body["role"] = role
	}
	status, resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/teams/%d/members", teamID), token, body)
	if status != http.StatusOK {
		t.Fatalf("adding member %d to team %d: status %d, body %v", userID, teamID, status, resp)
	}
}

// createTask makes a task in a team and returns its id.
func createTask(t *testing.T, app *fiber.App, token string, teamID uint, title string) uint {
	t.Helper()

	status, resp := doJSON(t, app, http.MethodPost, "/tasks/", token, map[string]interface{}{
		"title":   title,
		"team_id": teamID,
	})
	if status != http.StatusCreated {
		t.Fatalf("creating task %s: status %d, body %v", title, status, resp)
	}
	task, _ := resp["task"].(map[string]interface{})
	id, _ := task["id"].(float64)
	if id == 0 {
		t.Fatalf("creating task %s: no id in response %v", title, resp)
	}
	return uint(id)
}
