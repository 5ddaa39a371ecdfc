package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/grandline-guide/internal/client/api"
	"github.com/rs/zerolog/log"
)

// TokenProber checks a token against the backend. api.Client implements it.
type TokenProber interface {
	Protected(ctx context.Context, token string) (*api.ProtectedResponse, error)
}

// Manager owns the client session. The application shell holds one Manager
// and passes it to whatever needs the identity.
type Manager struct {
	store  Store
	prober TokenProber
}

// NewManager creates a new Manager.
func NewManager(store Store, prober TokenProber) *Manager {
	return &Manager{store: store, prober: prober}
}

// Load returns the stored session, or an empty one when there is none.
func (m *Manager) Load(ctx context.Context) (Session, error) {
	sess, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return Session{}, nil
	}
	return sess, err
}

// Save stores the token and username issued by login or signup.
func (m *Manager) Save(ctx context.Context, token, username string) error {
	return m.store.Save(ctx, Session{Token: token, Username: username})
}

// Clear forgets the token and username (logout).
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// Bootstrap decides whether the stored identity is still usable. Without a
// stored token it returns ErrLoginRequired without calling the backend. If
// the backend rejects the token, or cannot be reached, the stored session is
// discarded and ErrLoginRequired is returned.
func (m *Manager) Bootstrap(ctx context.Context) (Session, error) {
	sess, err := m.Load(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}
	if sess.Token == "" {
		return Session{}, ErrLoginRequired
	}

	resp, err := m.prober.Protected(ctx, sess.Token)
	if err != nil {
		log.Warn().Err(err).Str("username", sess.Username).Msg("Stored token rejected, clearing session")
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			log.Error().Err(clearErr).Msg("Failed to clear session")
		}
		return Session{}, fmt.Errorf("%w: %v", ErrLoginRequired, err)
	}

	if sess.Username == "" && resp.User.Username != "" {
		sess.Username = resp.User.Username
		if err := m.store.Save(ctx, sess); err != nil {
			log.Error().Err(err).Msg("Failed to update session username")
		}
	}
	return sess, nil
}
