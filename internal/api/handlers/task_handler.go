package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ender-tasks/internal/models"
	"github.com/isdelr/ender-tasks/internal/services"
	"github.com/rs/zerolog/log"
)

// TaskHandler handles HTTP requests related to tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskRequest is the body of POST /task.
type CreateTaskRequest struct {
	Name string `json:"name"`
	Done *bool  `json:"done"`
}

// CreateTaskResponse is returned by POST /task.
type CreateTaskResponse struct {
	Success string `json:"success"`
	ID      int    `json:"id"`
}

// UpdateTaskResponse is returned by PUT /task/{id}.
type UpdateTaskResponse struct {
	Success string `json:"success"`
}

// Create handles the request to create a new task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateTaskRequest
	present, err := decodeBody(r, &payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if !present || payload.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	task := models.Task{Name: payload.Name}
	if payload.Done != nil {
		task.Done = *payload.Done
	}

	id, err := h.service.CreateTask(task)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusCreated, CreateTaskResponse{Success: "Task created", ID: id})
}

// GetAll handles the request to list every task.
func (h *TaskHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve tasks")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Get handles the request to get a single task by its id.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		log.Error().Err(err).Int("task_id", id).Msg("Failed to get task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Update handles the request to merge fields into an existing task. Any
// non-empty object is accepted; keys other than name and done are ignored.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var attrs map[string]json.RawMessage
	present, err := decodeBody(r, &attrs)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if !present || len(attrs) == 0 {
		writeError(w, http.StatusBadRequest, "you must provide at least one attribute to be updated")
		return
	}

	var patch models.TaskPatch
	if err := decodeAttrs(attrs, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.service.UpdateTask(id, patch); err != nil {
		log.Error().Err(err).Int("task_id", id).Msg("Failed to update task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, UpdateTaskResponse{Success: "task updated"})
}

// Delete handles the request to delete a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(id); err != nil {
		log.Error().Err(err).Int("task_id", id).Msg("Failed to delete task")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAttrs(attrs map[string]json.RawMessage, patch *models.TaskPatch) error {
	if raw, ok := attrs["name"]; ok {
		if err := json.Unmarshal(raw, &patch.Name); err != nil {
			return err
		}
	}
	if raw, ok := attrs["done"]; ok {
		if err := json.Unmarshal(raw, &patch.Done); err != nil {
			return err
		}
	}
	return nil
}

// taskID reads the {id} URL parameter. The router only matches digits, so a
// failure here means the value overflowed.
func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return 0, false
	}
	return id, true
}
