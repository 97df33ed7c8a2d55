package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kolboard/internal/authz"
	"kolboard/internal/models"
	"kolboard/internal/repositories"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

type UserService interface {
	CreateUserWithPassword(user *models.User, plainPassword string) error
	GetUserByID(id int) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id int) error
	ListUsers(limit, offset int) ([]*models.User, error)
	GetUserByEmail(email string) (*models.User, error)

	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) CreateUserWithPassword(user *models.User, plainPassword string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return ErrEmailRequired
	}
	if len(plainPassword) < 8 {
		return ErrPasswordTooShort
	}
	if user.RoleID == 0 {
		user.RoleID = authz.RoleOutreach
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.repo.Create(user)
}

func (s *userService) GetUserByID(id int) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) UpdateUser(user *models.User) error {
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(id int) error {
	return s.repo.Delete(id)
}

func (s *userService) ListUsers(limit, offset int) ([]*models.User, error) {
	return s.repo.List(limit, offset)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
}

func (s *userService) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(userID, token, expiresAt)
}

func (s *userService) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	return s.repo.RotateRefresh(oldToken, newToken, newExpiresAt)
}

func (s *userService) ClearRefresh(userID int) error {
	return s.repo.ClearRefresh(userID)
}

func (s *userService) GetByRefreshToken(token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(token)
}
