package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ntuon/taskapp/internal/config"
	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/repository"
	"github.com/ntuon/taskapp/internal/mail"
	"github.com/ntuon/taskapp/internal/worker"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(name, email, password string, age int) (*models.User, string, error)
	Login(email, password string) (*models.User, string, error)
	Logout(userID uint, token string) error
	LogoutAll(userID uint) error
	Authenticate(tokenString string) (*models.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.AuthTokenRepository
	mailer    mail.Mailer
	pool      *worker.Pool
	jwtSecret string
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.AuthTokenRepository,
	mailer mail.Mailer,
	pool *worker.Pool,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		pool:      pool,
		jwtSecret: cfg.JWTSecret,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *authService) Register(name, email, password string, age int) (*models.User, string, error) {
	s.logger.Info("📝 [AuthService] Registration attempt", "email", email)

	name, err := models.NormalizeName(name)
	if err != nil {
		return nil, "", err
	}

	email, err = models.NormalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	password, err = models.ValidatePassword(password)
	if err != nil {
		return nil, "", err
	}

	if err := models.ValidateAge(age); err != nil {
		return nil, "", err
	}

	// Check if email already exists
	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, "", err
	}

	if existingUser != nil {
		s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
		return nil, "", ErrEmailAlreadyExists
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), int(s.cfg.BcryptCost))
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return nil, "", err
	}

	// Create user
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		Age:      age,
	}

	if err := s.userRepo.Create(user); err != nil {
		// A concurrent registration can slip past the pre-check and
		// lose to the unique index instead
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
			return nil, "", ErrEmailAlreadyExists
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return nil, "", err
	}

	// Welcome email is best-effort and must never fail the registration
	s.dispatchWelcomeEmail(user.Email, user.Name)

	token, err := s.issueToken(user.ID)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to issue token", "error", err)
		return nil, "", err
	}

	s.logger.Info("✅ [AuthService] User registered successfully", "user_id", user.ID)
	return user, token, nil
}

func (s *authService) Login(email, password string) (*models.User, string, error) {
	s.logger.Info("🔐 [AuthService] Login attempt", "email", email)

	normalized, err := models.NormalizeEmail(email)
	if err != nil {
		// A malformed address can never match a stored one; same generic error
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("⚠️ [AuthService] User not found", "email", normalized)
			return nil, "", ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "email", normalized)
		return nil, "", ErrInvalidCredentials
	}

	// Prior sessions on other devices stay valid
	token, err := s.issueToken(user.ID)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to issue token", "error", err)
		return nil, "", err
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return user, token, nil
}

func (s *authService) Logout(userID uint, token string) error {
	s.logger.Info("👋 [AuthService] Logout", "user_id", userID)

	if err := s.tokenRepo.DeleteByToken(userID, token); err != nil {
		// A concurrent revocation already removed the row; the session
		// is gone either way
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.logger.Warn("⚠️ [AuthService] Token already revoked", "user_id", userID)
			return nil
		}
		return err
	}

	return nil
}

func (s *authService) LogoutAll(userID uint) error {
	s.logger.Info("👋 [AuthService] Logout all sessions", "user_id", userID)
	return s.tokenRepo.DeleteAllForUser(userID)
}

// Authenticate verifies the token signature and requires that the exact
// token string is still in the holder's active list. A token removed via
// logout fails here even though its signature is still valid.
func (s *authService) Authenticate(tokenString string) (*models.User, error) {
	userID, err := s.verifyToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	stored, err := s.tokenRepo.FindByToken(tokenString)
	if err != nil || stored.UserID != userID {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// issueToken signs a new token, appends it to the user's token list and
// returns it.
func (s *authService) issueToken(userID uint) (string, error) {
	// jti keeps tokens unique even when two sessions start within the
	// same second
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"jti":     uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	authToken := &models.AuthToken{
		UserID: userID,
		Token:  signed,
	}
	if err := s.tokenRepo.Create(authToken); err != nil {
		return "", err
	}

	return signed, nil
}

func (s *authService) verifyToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}

	return uint(userID), nil
}

func (s *authService) dispatchWelcomeEmail(email, name string) {
	s.pool.SubmitWithTimeout(mailTimeout, func(ctx context.Context) {
		if err := s.mailer.SendWelcomeEmail(ctx, email, name); err != nil {
			s.logger.Warn("⚠️ [AuthService] Welcome email failed", "email", email, "error", err)
		}
	})
}

// Service errors
var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("unable to login")
	ErrInvalidToken       = errors.New("invalid token")
)
