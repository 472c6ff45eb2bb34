package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"animevault/models"
	"animevault/store"
)

// SessionKey is the store key holding the single active session document.
const SessionKey = "anime_platform_session"

// Manager persists at most one active session under SessionKey. Expiry is
// lazy: nothing runs in the background, a stale session is purged the next
// time it is read.
type Manager struct {
	store   *store.Store
	timeout time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// NewManager creates a session manager with the given inactivity timeout.
func NewManager(st *store.Store, timeout time.Duration) *Manager {
	return &Manager{
		store:   st,
		timeout: timeout,
		now:     time.Now,
	}
}

// Login stores the account as the active session, stamped with the current
// time in milliseconds. A second login simply replaces the first.
func (m *Manager) Login(account models.Account) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := models.Session{
		Account:     account,
		LoginTimeMs: m.now().UnixMilli(),
	}
	m.writeLocked(sess)
	log.Printf("INFO: Session started for user %d %q", account.ID, account.Username)
	return sess
}

// Current returns the active session, or nil when there is none. A session
// older than the timeout is purged on the spot; corrupt stored JSON is
// treated as no session.
func (m *Manager) Current() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

func (m *Manager) currentLocked() *models.Session {
	raw, ok := m.store.Get(SessionKey)
	if !ok {
		return nil
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		log.Printf("WARN: Malformed session data in store: %v. Clearing.", err)
		m.store.Remove(SessionKey)
		return nil
	}

	loginTime := time.UnixMilli(sess.LoginTimeMs)
	if m.now().Sub(loginTime) > m.timeout {
		log.Printf("INFO: Session for user %d expired, logging out", sess.Account.ID)
		m.store.Remove(SessionKey)
		return nil
	}
	return &sess
}

// Logout removes the active session. Logging out twice is harmless.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Remove(SessionKey)
}

// Refresh rewrites the login timestamp of the active session, pushing the
// expiry window forward. A missing or expired session is a no-op.
func (m *Manager) Refresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.currentLocked()
	if sess == nil {
		return false
	}
	sess.LoginTimeMs = m.now().UnixMilli()
	m.writeLocked(*sess)
	return true
}

// IsAdmin reports whether the active session belongs to an administrator of
// at least the given level.
func (m *Manager) IsAdmin(minLevel int) bool {
	sess := m.Current()
	return sess != nil && sess.Account.IsAdmin && sess.Account.AdminLevel >= minLevel
}

// ReplaceAccount swaps the account stored in the active session without
// touching the login timestamp. The sync coordinator uses it after an
// import rewrites the logged-in user's record. No-op when the saved account
// has a different id or there is no session.
func (m *Manager) ReplaceAccount(account models.Account) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.currentLocked()
	if sess == nil || sess.Account.ID != account.ID {
		return false
	}
	sess.Account = account
	m.writeLocked(*sess)
	return true
}

func (m *Manager) writeLocked(sess models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		log.Printf("ERROR: Failed to marshal session: %v", err)
		return
	}
	if err := m.store.Set(SessionKey, string(data)); err != nil {
		log.Printf("ERROR: Failed to persist session: %v", err)
	}
}
