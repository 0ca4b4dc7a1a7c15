package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edutask-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeClassRepo struct {
	classes map[uint]models.Class
	members map[uint][]uint
}

func newFakeClassRepo() *fakeClassRepo {
	return &fakeClassRepo{
		classes: map[uint]models.Class{},
		members: map[uint][]uint{},
	}
}

func (f *fakeClassRepo) GetByID(_ context.Context, id uint) (models.Class, error) {
	class, ok := f.classes[id]
	if !ok {
		return models.Class{}, gorm.ErrRecordNotFound
	}

	return class, nil
}

func (f *fakeClassRepo) MembersOf(_ context.Context, classID uint) ([]uint, error) {
	return f.members[classID], nil
}

func (f *fakeClassRepo) Create(_ context.Context, class *models.Class) error {
	f.classes[class.ID] = *class
	return nil
}

func (f *fakeClassRepo) AddMember(_ context.Context, membership *models.ClassMembership) error {
	f.members[membership.ClassID] = append(f.members[membership.ClassID], membership.StudentID)
	return nil
}

type fakeTaskRepo struct {
	nextTaskID       uint
	nextAssignmentID uint
	tasks            []models.Task
	assignments      map[string]models.Assignment
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{assignments: map[string]models.Assignment{}}
}

func assignmentKey(taskID, studentID uint) string {
	return fmt.Sprintf("%d:%d", taskID, studentID)
}

func (f *fakeTaskRepo) CreateWithAssignments(_ context.Context, task *models.Task, studentIDs []uint) ([]models.Assignment, error) {
	if task.ID == 0 {
		f.nextTaskID++
		task.ID = f.nextTaskID
		f.tasks = append(f.tasks, *task)
	}

	assignments := make([]models.Assignment, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		key := assignmentKey(task.ID, studentID)
		if existing, ok := f.assignments[key]; ok {
			assignments = append(assignments, existing)
			continue
		}

		f.nextAssignmentID++
		assignment := models.Assignment{
			ID:        f.nextAssignmentID,
			TaskID:    task.ID,
			StudentID: studentID,
			Status:    models.AssignmentStatusNotStarted,
		}
		f.assignments[key] = assignment
		assignments = append(assignments, assignment)
	}

	return assignments, nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id uint) (models.Task, error) {
	for _, task := range f.tasks {
		if task.ID == id {
			return task, nil
		}
	}

	return models.Task{}, gorm.ErrRecordNotFound
}

func (f *fakeTaskRepo) ListByClass(_ context.Context, classID uint, since *time.Time) ([]models.Task, error) {
	var tasks []models.Task
	for _, task := range f.tasks {
		if task.ClassID != classID {
			continue
		}
		if since != nil && task.CreatedAt.Before(*since) {
			continue
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}
}

func (f *fakeAssignmentRepo) put(assignment models.Assignment) {
	f.assignments[assignment.ID] = assignment
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}

	return assignment, nil
}

func (f *fakeAssignmentRepo) GetByTaskAndStudent(_ context.Context, taskID, studentID uint) (models.Assignment, error) {
	for _, assignment := range f.assignments {
		if assignment.TaskID == taskID && assignment.StudentID == studentID {
			return assignment, nil
		}
	}

	return models.Assignment{}, gorm.ErrRecordNotFound
}

func (f *fakeAssignmentRepo) ListByTaskIDs(_ context.Context, taskIDs []uint, since *time.Time) ([]models.Assignment, error) {
	wanted := make(map[uint]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = struct{}{}
	}

	assignments := []models.Assignment{}
	for _, assignment := range f.assignments {
		if _, ok := wanted[assignment.TaskID]; !ok {
			continue
		}
		if since != nil && assignment.CreatedAt.Before(*since) {
			continue
		}
		assignments = append(assignments, assignment)
	}

	return assignments, nil
}

func (f *fakeAssignmentRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Assignment, error) {
	assignments := []models.Assignment{}
	for _, assignment := range f.assignments {
		if assignment.StudentID == studentID {
			assignments = append(assignments, assignment)
		}
	}

	return assignments, nil
}

func (f *fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = *assignment
	return nil
}

type fakeSubmissionRepo struct {
	nextID      uint
	submissions map[uint]models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uint]models.Submission{}}
}

func (f *fakeSubmissionRepo) GetByAssignment(_ context.Context, assignmentID uint) (models.Submission, error) {
	submission, ok := f.submissions[assignmentID]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}

	return submission, nil
}

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	f.nextID++
	submission.ID = f.nextID
	f.submissions[submission.AssignmentID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	f.submissions[submission.AssignmentID] = *submission
	return nil
}

type capturingPublisher struct {
	events []WorkflowEvent
}

func (p *capturingPublisher) Publish(_ context.Context, event WorkflowEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	f.uploads = append(f.uploads, name)
	return "https://files.example/" + name, nil
}

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("attachment", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 10240)
	require.NoError(t, err)

	return form.File["attachment"][0]
}
