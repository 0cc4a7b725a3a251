package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ntuon/taskapp/internal/database/models"
)

// AuthTokenRepository defines the interface for session token operations
type AuthTokenRepository interface {
	Create(token *models.AuthToken) error
	FindByToken(token string) (*models.AuthToken, error)
	DeleteByToken(userID uint, token string) error
	DeleteAllForUser(userID uint) error
}

type authTokenRepository struct {
	db *gorm.DB
}

// NewAuthTokenRepository creates a new auth token repository instance
func NewAuthTokenRepository(db *gorm.DB) AuthTokenRepository {
	return &authTokenRepository{db: db}
}

func (r *authTokenRepository) Create(token *models.AuthToken) error {
	return r.db.Create(token).Error
}

func (r *authTokenRepository) FindByToken(token string) (*models.AuthToken, error) {
	var authToken models.AuthToken
	err := r.db.Where("token = ?", token).First(&authToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &authToken, nil
}

// DeleteByToken removes exactly one session. Scoped to the owning user so a
// token string can never revoke a session it does not belong to.
func (r *authTokenRepository) DeleteByToken(userID uint, token string) error {
	result := r.db.Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.AuthToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *authTokenRepository) DeleteAllForUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).
		Delete(&models.AuthToken{}).Error
}

// Repository errors
var (
	ErrTokenNotFound = errors.New("token not found")
)
