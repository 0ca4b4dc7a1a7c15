package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/edutask-api/internal/config"
	"github.com/noah-isme/edutask-api/internal/handler"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/internal/router"
	"github.com/noah-isme/edutask-api/internal/service"
	"github.com/noah-isme/edutask-api/pkg/ai"
)

// testAuth replaces the JWT middleware: identity comes from request headers.
func testAuth(c *fiber.Ctx) error {
	if id := c.Get("X-User-ID"); id != "" {
		parsed, err := strconv.Atoi(id)
		if err == nil && parsed >= 0 {
			c.Locals("user_id", uint(parsed))
		}
	}
	if role := c.Get("X-User-Role"); role != "" {
		c.Locals("user_role", role)
	}
	return c.Next()
}

func newWorkflowApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Class{},
		&models.ClassMembership{},
		&models.Task{},
		&models.Assignment{},
		&models.Submission{},
	))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	classRepo := repository.NewClassRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	taskService := service.NewTaskService(taskRepo, classRepo, validate, nil, ai.NewMockDrafter(), logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, validate, nil, nil, logger)
	reportService := service.NewReportService(taskRepo, assignmentRepo, classRepo, nil, time.Minute, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "edutask-test", AppEnv: "test"}, router.Dependencies{
		TaskHandler:       handler.NewTaskHandler(taskService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		JWTMiddleware:     testAuth,
	})

	return app, db
}

func seedClass(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.Class{ID: 1, Name: "Year 5", OwnerID: 10}).Error)
	for _, studentID := range []uint{100, 101} {
		require.NoError(t, db.Create(&models.ClassMembership{ClassID: 1, StudentID: studentID}).Error)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, userID uint, role string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))
	req.Header.Set("X-User-Role", role)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env))

	return resp, env
}

func doSubmit(t *testing.T, app *fiber.App, assignmentID, userID uint, role, content string) (*http.Response, envelope) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("content", content))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submit", assignmentID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))
	req.Header.Set("X-User-Role", role)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &env))

	return resp, env
}

func TestTaskWorkflowEndToEnd(t *testing.T) {
	app, db := newWorkflowApp(t)
	seedClass(t, db)

	// Teacher creates a task for the whole class.
	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 10, "teacher", fiber.Map{
		"title":        "Fractions practice",
		"instructions": "Complete the worksheet and show your working.",
		"assign_to":    "whole_class",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, env.Success)

	var created struct {
		Task struct {
			ID uint `json:"id"`
		} `json:"task"`
		Assignments []struct {
			ID        uint   `json:"id"`
			StudentID uint   `json:"student_id"`
			Status    string `json:"status"`
		} `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created.Assignments, 2)

	var assignmentID uint
	for _, assignment := range created.Assignments {
		assert.Equal(t, models.AssignmentStatusNotStarted, assignment.Status)
		if assignment.StudentID == 100 {
			assignmentID = assignment.ID
		}
	}
	require.NotZero(t, assignmentID)

	// Student starts, then submits.
	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/start", assignmentID), 100, "student", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doSubmit(t, app, assignmentID, 100, "student", "My answer: 3/4")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Another student cannot submit someone else's assignment.
	resp, _ = doSubmit(t, app, assignmentID, 101, "student", "not mine")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Teacher reviews the submitted work.
	resp, env = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/review/100", created.Task.ID), 10, "teacher", fiber.Map{
		"feedback":     "Great work",
		"reward_score": 4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reviewed struct {
		Status      string `json:"status"`
		RewardScore int    `json:"reward_score"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reviewed))
	assert.Equal(t, models.AssignmentStatusReviewed, reviewed.Status)
	assert.Equal(t, 4, reviewed.RewardScore)

	// Reviewing a student who never submitted conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/review/101", created.Task.ID), 10, "teacher", fiber.Map{
		"reward_score": 2,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The class report reflects the review.
	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/classes/1/report?range=all", 10, "teacher", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		TotalTasks       int `json:"total_tasks"`
		TotalAssignments int `json:"total_assignments"`
		ReviewedCount    int `json:"reviewed_count"`
		TotalRewardScore int `json:"total_reward_score"`
		Students         []struct {
			StudentID        uint `json:"student_id"`
			TotalRewardScore int  `json:"total_reward_score"`
		} `json:"students"`
		WeeklySeries []struct {
			RewardScoreSum int `json:"reward_score_sum"`
		} `json:"weekly_series"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.TotalTasks)
	assert.Equal(t, 2, report.TotalAssignments)
	assert.Equal(t, 1, report.ReviewedCount)
	assert.Equal(t, 4, report.TotalRewardScore)
	require.Len(t, report.Students, 2)
	require.Len(t, report.WeeklySeries, 1)
	assert.Equal(t, 4, report.WeeklySeries[0].RewardScoreSum)
}

func TestSubmitRejectsMarkupOnlyContent(t *testing.T) {
	app, db := newWorkflowApp(t)
	seedClass(t, db)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 10, "teacher", fiber.Map{
		"title":        "Fractions practice",
		"instructions": "Complete the worksheet.",
		"assign_to":    "selected",
		"student_ids":  []uint{100},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Assignments []struct {
			ID uint `json:"id"`
		} `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Len(t, created.Assignments, 1)

	// Content that sanitises to nothing is a bad request, not a server error.
	resp, env = doSubmit(t, app, created.Assignments[0].ID, 100, "student", "<script>alert(1)</script>")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestTaskCreateRejectsNonOwners(t *testing.T) {
	app, db := newWorkflowApp(t)
	seedClass(t, db)

	payload := fiber.Map{
		"title":        "Fractions practice",
		"instructions": "Complete the worksheet.",
		"assign_to":    "whole_class",
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 77, "teacher", payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 100, "student", payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/classes/42/tasks", 10, "teacher", payload)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTaskCreateValidatesPayload(t *testing.T) {
	app, db := newWorkflowApp(t)
	seedClass(t, db)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 10, "teacher", fiber.Map{
		"title":        "x",
		"instructions": "too short title",
		"assign_to":    "whole_class",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 10, "teacher", fiber.Map{
		"title":        "Valid title",
		"instructions": "Valid instructions",
		"assign_to":    "selected",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportEndpointAccessAndRange(t *testing.T) {
	app, db := newWorkflowApp(t)
	seedClass(t, db)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/classes/1/report", 100, "student", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/classes/1/report?range=lastyear", 10, "teacher", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/classes/1/report", 10, "teacher", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		Range      string `json:"range"`
		TotalTasks int    `json:"total_tasks"`
		Students   []struct {
			StudentID uint `json:"student_id"`
		} `json:"students"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "all", report.Range)
	assert.Equal(t, 0, report.TotalTasks)
	assert.Empty(t, report.Students)
}

func TestStudentAssignmentListing(t *testing.T) {
	app, db := newWorkflowApp(t)
	seedClass(t, db)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/classes/1/tasks", 10, "teacher", fiber.Map{
		"title":        "Fractions practice",
		"instructions": "Complete the worksheet.",
		"assign_to":    "selected",
		"student_ids":  []uint{100},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/students/100/assignments", 100, "student", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []struct {
		TaskTitle string `json:"task_title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Fractions practice", list[0].TaskTitle)

	var meta struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, 1, meta.Count)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/students/100/assignments", 101, "student", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDraftEndpoint(t *testing.T) {
	app, _ := newWorkflowApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/tasks/draft", 10, "teacher", fiber.Map{
		"prompt": "Design a short comprehension task about rivers",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var draft struct {
		Title    string `json:"title"`
		Provider string `json:"provider"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.NotEmpty(t, draft.Title)
	assert.Equal(t, "mock", draft.Provider)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/tasks/draft", 100, "student", fiber.Map{
		"prompt": "Design a short comprehension task about rivers",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
