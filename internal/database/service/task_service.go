package service

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/repository"
)

// TaskUpdate carries the fields a task owner may change. Nil means "not
// supplied".
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// TaskService defines the interface for task business logic. Every
// operation is scoped to the calling author; tasks owned by other users
// surface as not found.
type TaskService interface {
	Create(authorID uint, description string, completed bool) (*models.Task, error)
	List(authorID uint, opts repository.ListOptions) ([]models.Task, error)
	Get(authorID uint, id uuid.UUID) (*models.Task, error)
	Update(authorID uint, id uuid.UUID, upd TaskUpdate) (*models.Task, error)
	Delete(authorID uint, id uuid.UUID) (*models.Task, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
	logger   *slog.Logger
}

// NewTaskService creates a new task service instance
func NewTaskService(taskRepo repository.TaskRepository, logger *slog.Logger) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

func (s *taskService) Create(authorID uint, description string, completed bool) (*models.Task, error) {
	description, err := models.NormalizeDescription(description)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Description: description,
		Completed:   completed,
		AuthorID:    authorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		s.logger.Error("❌ [TaskService] Failed to create task", "author_id", authorID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [TaskService] Task created", "task_id", task.ID, "author_id", authorID)
	return task, nil
}

func (s *taskService) List(authorID uint, opts repository.ListOptions) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListByAuthor(authorID, opts)
	if err != nil {
		s.logger.Error("❌ [TaskService] Failed to list tasks", "author_id", authorID, "error", err)
		return nil, err
	}
	return tasks, nil
}

func (s *taskService) Get(authorID uint, id uuid.UUID) (*models.Task, error) {
	return s.taskRepo.FindByIDAndAuthor(id, authorID)
}

func (s *taskService) Update(authorID uint, id uuid.UUID, upd TaskUpdate) (*models.Task, error) {
	task, err := s.taskRepo.FindByIDAndAuthor(id, authorID)
	if err != nil {
		return nil, err
	}

	if upd.Description != nil {
		description, err := models.NormalizeDescription(*upd.Description)
		if err != nil {
			return nil, err
		}
		task.Description = description
	}

	if upd.Completed != nil {
		task.Completed = *upd.Completed
	}

	if err := s.taskRepo.Update(task); err != nil {
		s.logger.Error("❌ [TaskService] Failed to update task", "task_id", id, "error", err)
		return nil, err
	}

	return task, nil
}

func (s *taskService) Delete(authorID uint, id uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.FindByIDAndAuthor(id, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Delete(id, authorID); err != nil {
		s.logger.Error("❌ [TaskService] Failed to delete task", "task_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("🗑️ [TaskService] Task deleted", "task_id", id, "author_id", authorID)
	return task, nil
}
