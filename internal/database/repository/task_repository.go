package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ntuon/taskapp/internal/database/models"
)

// ListOptions controls filtering, pagination and ordering for task listings.
// SortField carries the API-level field name; only whitelisted fields reach
// the query, anything else keeps natural order.
type ListOptions struct {
	Completed *bool
	Limit     int
	Offset    int
	SortField string
	SortDesc  bool
}

// sortColumns maps API field names to the columns they may order by.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// TaskRepository defines the interface for task data operations. Every
// lookup is scoped to the author; a task owned by someone else behaves as
// if it does not exist.
type TaskRepository interface {
	Create(task *models.Task) error
	FindByIDAndAuthor(id uuid.UUID, authorID uint) (*models.Task, error)
	ListByAuthor(authorID uint, opts ListOptions) ([]models.Task, error)
	Update(task *models.Task) error
	Delete(id uuid.UUID, authorID uint) error
	DeleteAllForAuthor(authorID uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository instance
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

func (r *taskRepository) FindByIDAndAuthor(id uuid.UUID, authorID uint) (*models.Task, error) {
	var task models.Task
	err := r.db.Where("id = ? AND author_id = ?", id, authorID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByAuthor(authorID uint, opts ListOptions) ([]models.Task, error) {
	query := r.db.Where("author_id = ?", authorID)

	if opts.Completed != nil {
		query = query.Where("completed = ?", *opts.Completed)
	}

	if column, ok := sortColumns[opts.SortField]; ok {
		if opts.SortDesc {
			query = query.Order(column + " DESC")
		} else {
			query = query.Order(column + " ASC")
		}
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var tasks []models.Task
	err := query.Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(task *models.Task) error {
	result := r.db.Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(id uuid.UUID, authorID uint) error {
	result := r.db.Where("id = ? AND author_id = ?", id, authorID).
		Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) DeleteAllForAuthor(authorID uint) error {
	return r.db.Where("author_id = ?", authorID).
		Delete(&models.Task{}).Error
}

// Repository errors
var (
	ErrTaskNotFound = errors.New("task not found")
)
