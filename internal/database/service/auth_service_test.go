package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ntuon/taskapp/internal/database/models"
	"github.com/ntuon/taskapp/internal/database/repository"
)

func newAuthService(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository, mailer *MockMailer) AuthService {
	return NewAuthService(userRepo, tokenRepo, mailer, newTestPool(), testConfig(), testLogger())
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		userName   string
		email      string
		password   string
		age        int
		setupMocks func(*MockUserRepository, *MockAuthTokenRepository)
		wantErr    error
	}{
		{
			name:     "success",
			userName: "Ann",
			email:    "Ann@X.com",
			password: "abcdefg",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {
				userRepo.On("FindByEmail", "ann@x.com").Return(nil, repository.ErrUserNotFound)
				userRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
					user := args.Get(0).(*models.User)
					user.ID = 1
				}).Return(uint(1), nil)
				tokenRepo.On("Create", mock.AnythingOfType("*models.AuthToken")).Return(nil)
			},
		},
		{
			name:       "name required",
			userName:   "   ",
			email:      "ann@x.com",
			password:   "abcdefg",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {},
			wantErr:    models.ErrNameRequired,
		},
		{
			name:       "invalid email",
			userName:   "Ann",
			email:      "not-an-email",
			password:   "abcdefg",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {},
			wantErr:    models.ErrEmailInvalid,
		},
		{
			name:       "password too short",
			userName:   "Ann",
			email:      "ann@x.com",
			password:   "abc",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {},
			wantErr:    models.ErrPasswordTooShort,
		},
		{
			name:       "password contains the word password",
			userName:   "Ann",
			email:      "ann@x.com",
			password:   "myPassWord123",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {},
			wantErr:    models.ErrPasswordDisallowed,
		},
		{
			name:       "negative age",
			userName:   "Ann",
			email:      "ann@x.com",
			password:   "abcdefg",
			age:        -3,
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {},
			wantErr:    models.ErrAgeNegative,
		},
		{
			name:     "email already registered case-insensitively",
			userName: "Ann",
			email:    "ANN@x.COM",
			password: "abcdefg",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {
				userRepo.On("FindByEmail", "ann@x.com").Return(&models.User{ID: 1, Email: "ann@x.com"}, nil)
			},
			wantErr: ErrEmailAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			tokenRepo := new(MockAuthTokenRepository)
			mailer := new(MockMailer)
			mailer.On("SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
			tt.setupMocks(userRepo, tokenRepo)

			authService := newAuthService(userRepo, tokenRepo, mailer)
			user, token, err := authService.Register(tt.userName, tt.email, tt.password, tt.age)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint(1), user.ID)
				assert.Equal(t, "ann@x.com", user.Email, "email must be stored lowercase")
				assert.NotEmpty(t, token)
				assert.NotEqual(t, tt.password, user.Password, "plaintext must never be stored")
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(tt.password)))
			}

			userRepo.AssertExpectations(t)
			tokenRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_SendsWelcomeEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockAuthTokenRepository)
	mailer := new(MockMailer)

	userRepo.On("FindByEmail", "ann@x.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Return(uint(1), nil)
	tokenRepo.On("Create", mock.AnythingOfType("*models.AuthToken")).Return(nil)
	mailer.On("SendWelcomeEmail", mock.Anything, "ann@x.com", "Ann").Return(nil)

	pool := newTestPool()
	authService := NewAuthService(userRepo, tokenRepo, mailer, pool, testConfig(), testLogger())

	_, _, err := authService.Register("Ann", "ann@x.com", "abcdefg", 0)
	require.NoError(t, err)

	// Wait for the background dispatch before asserting
	pool.Shutdown(time.Second)
	mailer.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("abcdefg"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(*MockUserRepository, *MockAuthTokenRepository)
		wantErr    error
	}{
		{
			name:     "success",
			email:    "ann@x.com",
			password: "abcdefg",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {
				userRepo.On("FindByEmail", "ann@x.com").Return(&models.User{
					ID:       1,
					Email:    "ann@x.com",
					Password: string(hash),
				}, nil)
				tokenRepo.On("Create", mock.AnythingOfType("*models.AuthToken")).Return(nil)
			},
		},
		{
			name:     "unknown email",
			email:    "nobody@x.com",
			password: "abcdefg",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {
				userRepo.On("FindByEmail", "nobody@x.com").Return(nil, repository.ErrUserNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "ann@x.com",
			password: "wrong-password-guess",
			setupMocks: func(userRepo *MockUserRepository, tokenRepo *MockAuthTokenRepository) {
				userRepo.On("FindByEmail", "ann@x.com").Return(&models.User{
					ID:       1,
					Email:    "ann@x.com",
					Password: string(hash),
				}, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			tokenRepo := new(MockAuthTokenRepository)
			tt.setupMocks(userRepo, tokenRepo)

			authService := newAuthService(userRepo, tokenRepo, new(MockMailer))
			user, token, err := authService.Login(tt.email, tt.password)

			if tt.wantErr != nil {
				// Unknown email and wrong password must be indistinguishable
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint(1), user.ID)
				assert.NotEmpty(t, token)
			}

			userRepo.AssertExpectations(t)
			tokenRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockAuthTokenRepository)
	mailer := new(MockMailer)
	mailer.On("SendWelcomeEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	var issued string
	userRepo.On("FindByEmail", "ann@x.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.User).ID = 7
	}).Return(uint(7), nil)
	tokenRepo.On("Create", mock.AnythingOfType("*models.AuthToken")).Run(func(args mock.Arguments) {
		issued = args.Get(0).(*models.AuthToken).Token
	}).Return(nil)

	authService := newAuthService(userRepo, tokenRepo, mailer)
	user, token, err := authService.Register("Ann", "ann@x.com", "abcdefg", 0)
	require.NoError(t, err)
	require.Equal(t, issued, token)

	t.Run("active token resolves the user", func(t *testing.T) {
		tokenRepo.On("FindByToken", token).Return(&models.AuthToken{UserID: 7, Token: token}, nil).Once()
		userRepo.On("FindByID", uint(7)).Return(user, nil).Once()

		resolved, err := authService.Authenticate(token)
		require.NoError(t, err)
		assert.Equal(t, uint(7), resolved.ID)
	})

	t.Run("revoked token is rejected despite a valid signature", func(t *testing.T) {
		tokenRepo.On("FindByToken", token).Return(nil, repository.ErrTokenNotFound).Once()

		_, err := authService.Authenticate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := authService.Authenticate("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token for a deleted user is rejected", func(t *testing.T) {
		tokenRepo.On("FindByToken", token).Return(&models.AuthToken{UserID: 7, Token: token}, nil).Once()
		userRepo.On("FindByID", uint(7)).Return(nil, repository.ErrUserNotFound).Once()

		_, err := authService.Authenticate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthService_Register_ConcurrentDuplicate(t *testing.T) {
	// Both registrations pass the pre-check; the second loses to the
	// unique index and must still surface as the duplicate-email error
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockAuthTokenRepository)
	userRepo.On("FindByEmail", "ann@x.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicateEmail)

	authService := newAuthService(userRepo, tokenRepo, new(MockMailer))
	_, _, err := authService.Register("Ann", "ann@x.com", "red12345!", 30)

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	tokenRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Logout(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockAuthTokenRepository)
	tokenRepo.On("DeleteByToken", uint(1), "some-token").Return(nil)

	authService := newAuthService(userRepo, tokenRepo, new(MockMailer))
	require.NoError(t, authService.Logout(1, "some-token"))
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Logout_AlreadyRevoked(t *testing.T) {
	// A concurrent revocation removed the row first; the session is gone
	// either way, so logout still succeeds
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockAuthTokenRepository)
	tokenRepo.On("DeleteByToken", uint(1), "gone-token").Return(repository.ErrTokenNotFound)

	authService := newAuthService(userRepo, tokenRepo, new(MockMailer))
	assert.NoError(t, authService.Logout(1, "gone-token"))
	tokenRepo.AssertExpectations(t)
}

func TestAuthService_LogoutAll(t *testing.T) {
	userRepo := new(MockUserRepository)
	tokenRepo := new(MockAuthTokenRepository)
	tokenRepo.On("DeleteAllForUser", uint(1)).Return(nil)

	authService := newAuthService(userRepo, tokenRepo, new(MockMailer))
	require.NoError(t, authService.LogoutAll(1))
	tokenRepo.AssertExpectations(t)
}
