package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ntuon/taskapp/internal/config"
	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/repository"
	"github.com/ntuon/taskapp/internal/mail"
	"github.com/ntuon/taskapp/internal/worker"
)

// mailTimeout bounds each background email dispatch.
const mailTimeout = 10 * time.Second

// ProfileUpdate carries the fields a user may change on their own profile.
// Nil means "not supplied". A supplied password always arrives as plaintext
// and is re-hashed exactly once.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

// UserService defines the interface for profile and avatar business logic
type UserService interface {
	UpdateProfile(userID uint, upd ProfileUpdate) (*models.User, error)
	DeleteAccount(userID uint) (*models.User, error)
	SetAvatar(userID uint, avatar []byte) error
	ClearAvatar(userID uint) error
	GetAvatar(userID uint) ([]byte, error)
}

type userService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.AuthTokenRepository
	taskRepo  repository.TaskRepository
	mailer    mail.Mailer
	pool      *worker.Pool
	cfg       *config.Config
	logger    *slog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(
	userRepo repository.UserRepository,
	tokenRepo repository.AuthTokenRepository,
	taskRepo repository.TaskRepository,
	mailer mail.Mailer,
	pool *worker.Pool,
	cfg *config.Config,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		taskRepo:  taskRepo,
		mailer:    mailer,
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *userService) UpdateProfile(userID uint, upd ProfileUpdate) (*models.User, error) {
	s.logger.Info("✏️ [UserService] Updating profile", "user_id", userID)

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to find user", "user_id", userID, "error", err)
		return nil, err
	}

	if upd.Name != nil {
		name, err := models.NormalizeName(*upd.Name)
		if err != nil {
			return nil, err
		}
		user.Name = name
	}

	if upd.Email != nil {
		email, err := models.NormalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			existing, err := s.userRepo.FindByEmail(email)
			if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return nil, err
			}
			if existing != nil && existing.ID != userID {
				s.logger.Warn("⚠️ [UserService] Email already taken", "email", email)
				return nil, ErrEmailAlreadyExists
			}
		}
		user.Email = email
	}

	if upd.Password != nil {
		password, err := models.ValidatePassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), int(s.cfg.BcryptCost))
		if err != nil {
			s.logger.Error("❌ [UserService] Failed to hash password", "error", err)
			return nil, err
		}
		user.Password = string(hashed)
	}

	if upd.Age != nil {
		if err := models.ValidateAge(*upd.Age); err != nil {
			return nil, err
		}
		user.Age = *upd.Age
	}

	if err := s.userRepo.Update(user); err != nil {
		// A concurrent claim on the same email can get past the
		// pre-check and lose to the unique index instead
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.logger.Warn("⚠️ [UserService] Email already taken", "email", user.Email)
			return nil, ErrEmailAlreadyExists
		}
		s.logger.Error("❌ [UserService] Failed to update user", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("✅ [UserService] Profile updated", "user_id", userID)
	return user, nil
}

// DeleteAccount removes the user and everything they own. The cascade is
// best-effort: a failure deleting tasks or tokens is logged and the account
// deletion still proceeds.
func (s *userService) DeleteAccount(userID uint) (*models.User, error) {
	s.logger.Info("🗑️ [UserService] Deleting account", "user_id", userID)

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.DeleteAllForAuthor(userID); err != nil {
		s.logger.Error("❌ [UserService] Failed to cascade task deletion", "user_id", userID, "error", err)
	}

	if err := s.tokenRepo.DeleteAllForUser(userID); err != nil {
		s.logger.Error("❌ [UserService] Failed to revoke sessions", "user_id", userID, "error", err)
	}

	if err := s.userRepo.Delete(userID); err != nil {
		s.logger.Error("❌ [UserService] Failed to delete user", "user_id", userID, "error", err)
		return nil, err
	}

	// Cancellation email is best-effort and must never fail the deletion
	s.dispatchCancellationEmail(user.Email, user.Name)

	s.logger.Info("✅ [UserService] Account deleted", "user_id", userID)
	return user, nil
}

func (s *userService) SetAvatar(userID uint, avatar []byte) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	user.Avatar = avatar
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("❌ [UserService] Failed to store avatar", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("🖼️ [UserService] Avatar stored", "user_id", userID, "bytes", len(avatar))
	return nil
}

func (s *userService) ClearAvatar(userID uint) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	user.Avatar = nil
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("❌ [UserService] Failed to clear avatar", "user_id", userID, "error", err)
		return err
	}

	return nil
}

func (s *userService) GetAvatar(userID uint) ([]byte, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrAvatarNotFound
	}
	if !user.HasAvatar() {
		return nil, ErrAvatarNotFound
	}
	return user.Avatar, nil
}

func (s *userService) dispatchCancellationEmail(email, name string) {
	s.pool.SubmitWithTimeout(mailTimeout, func(ctx context.Context) {
		if err := s.mailer.SendCancellationEmail(ctx, email, name); err != nil {
			s.logger.Warn("⚠️ [UserService] Cancellation email failed", "email", email, "error", err)
		}
	})
}

// Service errors
var (
	ErrAvatarNotFound = errors.New("avatar not found")
)
