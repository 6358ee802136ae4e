package services

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/isdelr/ender-tasks/internal/models"
	"github.com/isdelr/ender-tasks/internal/store"
)

// TaskFields are the columns of the task file.
var TaskFields = []string{"id", "name", "done"}

// ErrTaskNotFound is returned when no task carries the requested id.
var ErrTaskNotFound = errors.New("task not found")

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	CreateTask(task models.Task) (int, error)
	ListTasks() ([]models.Task, error)
	GetTask(id int) (models.Task, error)
	UpdateTask(id int, patch models.TaskPatch) error
	DeleteTask(id int) error
}

// TaskService keeps tasks in a flat-file record store.
type TaskService struct {
	store *store.Store
}

// NewTaskService creates a new TaskService.
func NewTaskService(s *store.Store) *TaskService {
	return &TaskService{store: s}
}

// CreateTask appends a task and returns its newly assigned id.
func (s *TaskService) CreateTask(task models.Task) (int, error) {
	id, err := s.store.Insert(store.Record{
		"name": task.Name,
		"done": strconv.FormatBool(task.Done),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}
	return id, nil
}

// ListTasks returns every task in file order.
func (s *TaskService) ListTasks() ([]models.Task, error) {
	records, err := s.store.ScanAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, taskFromRecord(rec))
	}
	return tasks, nil
}

// GetTask retrieves a single task by its id.
func (s *TaskService) GetTask(id int) (models.Task, error) {
	rec, err := s.store.Find(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return taskFromRecord(rec), nil
}

// UpdateTask merges patch into the task with the given id. Only truthy values
// are applied: an empty name or done=false leaves the stored field as it is.
// An unknown id or an empty patch is not an error.
func (s *TaskService) UpdateTask(id int, patch models.TaskPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	partial := store.Record{}
	if patch.Name != nil {
		partial["name"] = *patch.Name
	}
	if patch.Done != nil && *patch.Done {
		partial["done"] = strconv.FormatBool(true)
	}

	if err := s.store.Update(id, partial); err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return nil
}

// DeleteTask removes the task with the given id. An unknown id is not an
// error.
func (s *TaskService) DeleteTask(id int) error {
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

func taskFromRecord(rec store.Record) models.Task {
	id, _ := rec.ID()
	done, _ := strconv.ParseBool(rec["done"])
	return models.Task{
		ID:   id,
		Name: rec["name"],
		Done: done,
	}
}
