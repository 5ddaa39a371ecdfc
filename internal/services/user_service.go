package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/grandline-guide/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for stored credentials.
const PasswordCost = 10

// UserServiceProvider defines the interface for the credential store.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, username, password string) (models.User, error)
	VerifyCredentials(ctx context.Context, username, password string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// UserService stores username/password-hash records in SQLite.
type UserService struct {
	db   *sql.DB
	cost int
	// dummyHash is compared against when the user does not exist so that
	// unknown usernames take as long as wrong passwords.
	dummyHash []byte
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return newUserService(db, PasswordCost)
}

func newUserService(db *sql.DB, cost int) *UserService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("grandline-dummy-password"), cost)
	if err != nil {
		// Only possible with an out-of-range cost.
		panic(fmt.Sprintf("services: invalid bcrypt cost %d: %v", cost, err))
	}
	return &UserService{db: db, cost: cost, dummyHash: dummy}
}

// GetUserByUsername retrieves a single user, including the password hash.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser hashes the password and inserts the record if the username is
// free. The existence check and the insert are one statement.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return models.User{}, fmt.Errorf("%w: password is too long", ErrValidation)
		}
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(username) DO NOTHING",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.User{}, ErrDuplicateUser
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// VerifyCredentials checks a username/password pair. It returns
// ErrUserNotFound or ErrInvalidCredentials on failure; callers must not
// surface the difference.
func (s *UserService) VerifyCredentials(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}
