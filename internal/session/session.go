package session

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Persister saves the signed-in session across runs
type Persister interface {
	GetSession() (domain.Session, bool)
	SaveSession(s domain.Session) error
	ClearSession()
}

// Manager gates browsing behind the single configured account
type Manager struct {
	username    string
	displayName string
	hash        []byte
	persist     Persister
	now         func() time.Time
	logger      *slog.Logger

	mu      sync.RWMutex
	current domain.Session
}

// HashPassword returns the bcrypt hash of password at cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// NewManager builds a manager from cfg and restores any persisted session.
// A plain password is hashed once here; an explicit password hash wins.
func NewManager(cfg config.AuthConfig, persist Persister, logger *slog.Logger) (*Manager, error) {
	return newManager(cfg, persist, logger, bcrypt.DefaultCost)
}

func newManager(cfg config.AuthConfig, persist Persister, logger *slog.Logger, cost int) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("auth.username must not be empty")
	}

	hash := cfg.PasswordHash
	if hash == "" {
		var err error
		hash, err = HashPassword(cfg.Password, cost)
		if err != nil {
			return nil, err
		}
	} else if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid auth.password_hash: %w", err)
	}

	displayName := cfg.DisplayName
	if displayName == "" {
		displayName = cfg.Username
	}

	m := &Manager{
		username:    cfg.Username,
		displayName: displayName,
		hash:        []byte(hash),
		persist:     persist,
		now:         time.Now,
		logger:      logger,
	}

	// Only restore a session that belongs to the configured account
	if sess, ok := persist.GetSession(); ok && sess.Authenticated {
		if sess.Username == m.username {
			m.current = sess
			logger.Info("restored session", "user", sess.Username, "session", sess.ID)
		} else {
			logger.Warn("discarding session for unknown user", "user", sess.Username)
			persist.ClearSession()
		}
	}
	return m, nil
}

// Login checks the credentials and starts a session
func (m *Manager) Login(username, password string) (domain.Session, error) {
	username = strings.TrimSpace(username)

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(m.hash, []byte(password))
	if !userOK || passErr != nil {
		m.logger.Warn("sign-in rejected", "user", username)
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	sess := domain.Session{
		ID:            uuid.NewString(),
		Username:      m.username,
		DisplayName:   m.displayName,
		Authenticated: true,
		SignedInAt:    m.now(),
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	if err := m.persist.SaveSession(sess); err != nil {
		m.logger.Error("failed to persist session", "error", err)
	}
	m.logger.Info("signed in", "user", sess.Username, "session", sess.ID)
	return sess, nil
}

// Logout ends the session. Returns ErrNotAuthenticated when nobody is signed in.
func (m *Manager) Logout() error {
	m.mu.Lock()
	prev := m.current
	m.current = domain.Session{}
	m.mu.Unlock()

	m.persist.ClearSession()
	if !prev.Authenticated {
		return domain.ErrNotAuthenticated
	}
	m.logger.Info("signed out", "user", prev.Username, "session", prev.ID)
	return nil
}

// Current returns the active session or ErrNotAuthenticated
func (m *Manager) Current() (domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.current.Authenticated {
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	return m.current, nil
}

// IsAuthenticated reports whether a user is signed in
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Authenticated
}
