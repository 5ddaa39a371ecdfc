package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/isdelr/grandline-guide/internal/models"
	"github.com/isdelr/grandline-guide/internal/services"
)

// mockUserService keeps users in memory and stores plain passwords.
type mockUserService struct {
	mu        sync.Mutex
	users     map[string]models.User
	passwords map[string]string
	err       error
}

func newMockUserService() *mockUserService {
	return &mockUserService{
		users:     make(map[string]models.User),
		passwords: make(map[string]string),
	}
}

func (m *mockUserService) CreateUser(_ context.Context, username, password string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	if username == "" || password == "" {
		return models.User{}, services.ErrValidation
	}
	if _, ok := m.users[username]; ok {
		return models.User{}, services.ErrDuplicateUser
	}
	user := models.User{ID: "id-" + username, Username: username, CreatedAt: time.Now().UTC()}
	m.users[username] = user
	m.passwords[username] = password
	return user, nil
}

func (m *mockUserService) VerifyCredentials(_ context.Context, username, password string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	user, ok := m.users[username]
	if !ok {
		return models.User{}, services.ErrUserNotFound
	}
	if m.passwords[username] != password {
		return models.User{}, services.ErrInvalidCredentials
	}
	return user, nil
}

func (m *mockUserService) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return models.User{}, services.ErrUserNotFound
	}
	return user, nil
}

type mockEventService struct {
	mu       sync.Mutex
	events   []models.Event
	getErr   error
	gotLimit int
}

func (m *mockEventService) CreateEvent(_ context.Context, eventType, level, message string, username *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, models.Event{Type: eventType, Level: level, Message: message, Username: username})
	return nil
}

func (m *mockEventService) GetRecentEvents(_ context.Context, username string, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotLimit = limit
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := []models.Event{}
	for _, e := range m.events {
		if e.Username != nil && *e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventService) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")
