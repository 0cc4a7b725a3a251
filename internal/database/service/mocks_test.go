package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ntuon/taskapp/internal/config"
	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/repository"
	"github.com/ntuon/taskapp/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test_secret",
		BcryptCost: 8,
	}
}

// ==================== MOCK USER REPOSITORY ====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	if len(args) > 1 && args.Get(0) != nil {
		user.ID = args.Get(0).(uint)
	}
	return args.Error(len(args) - 1)
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// ==================== MOCK AUTH TOKEN REPOSITORY ====================

type MockAuthTokenRepository struct {
	mock.Mock
}

func (m *MockAuthTokenRepository) Create(token *models.AuthToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockAuthTokenRepository) FindByToken(token string) (*models.AuthToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthToken), args.Error(1)
}

func (m *MockAuthTokenRepository) DeleteByToken(userID uint, token string) error {
	args := m.Called(userID, token)
	return args.Error(0)
}

func (m *MockAuthTokenRepository) DeleteAllForUser(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

// ==================== MOCK TASK REPOSITORY ====================

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(task *models.Task) error {
	args := m.Called(task)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByIDAndAuthor(id uuid.UUID, authorID uint) (*models.Task, error) {
	args := m.Called(id, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByAuthor(authorID uint, opts repository.ListOptions) ([]models.Task, error) {
	args := m.Called(authorID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(task *models.Task) error {
	args := m.Called(task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(id uuid.UUID, authorID uint) error {
	args := m.Called(id, authorID)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteAllForAuthor(authorID uint) error {
	args := m.Called(authorID)
	return args.Error(0)
}

// ==================== MOCK MAILER ====================

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	args := m.Called(ctx, email, name)
	return args.Error(0)
}

func (m *MockMailer) SendCancellationEmail(ctx context.Context, email, name string) error {
	args := m.Called(ctx, email, name)
	return args.Error(0)
}

// newTestPool returns a pool whose shutdown drains instantly in tests.
func newTestPool() *worker.Pool {
	return worker.NewPool(testLogger())
}
