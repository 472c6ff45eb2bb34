package accounts

import (
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"animevault/models"
	"animevault/store"
)

// UsersKey is where the non-protected accounts live in the store. Matches
// the original platform key so exported data stays interchangeable.
const UsersKey = "anime_platform_users"

var (
	ErrNotFound           = errors.New("accounts: user not found")
	ErrDuplicateEmail     = errors.New("accounts: a user with this email already exists")
	ErrDuplicateUsername  = errors.New("accounts: a user with this username already exists")
	ErrProtectedAccount   = errors.New("accounts: the protected administrator account cannot be modified")
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
	ErrWeakPassword       = errors.New("accounts: password is too short")
	ErrInvalidEmail       = errors.New("accounts: email address is not valid")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ProtectedAdmin returns the built-in administrator account. It is
// synthesized fresh on every load and never written to the store, so it
// cannot be edited, deleted or leaked through exports.
func ProtectedAdmin() models.Account {
	return models.Account{
		ID:          1,
		Username:    "superadmin",
		Email:       "admin@anime.local",
		Password:    "Admin123!",
		DisplayName: "System Administrator",
		Avatar:      "https://i.pravatar.cc/150?img=1",
		Bio:         "Platform administrator. This account is protected from changes.",
		JoinDate:    "2024-01-01",
		IsAdmin:     true,
		AdminLevel:  5,
		Protected:   true,
		Preferences: models.DefaultPreferences(),
	}
}

// Patch holds the account fields an update may change. Nil fields are
// left alone. Password changes go through ChangePassword instead.
type Patch struct {
	Username    *string
	Email       *string
	DisplayName *string
	Avatar      *string
	Bio         *string
	IsAdmin     *bool
	AdminLevel  *int
	Preferences *models.Preferences
}

// Repository owns the account list. The protected administrator is always
// element zero and is excluded from persistence; everything else round-trips
// through the store under UsersKey.
type Repository struct {
	store       *store.Store
	minPassword int

	mu    sync.RWMutex
	users []models.Account

	onChange func()
}

// NewRepository loads accounts from the store and prepends the protected
// administrator. Malformed persisted JSON starts the list with only the
// administrator.
func NewRepository(st *store.Store, minPasswordLen int) *Repository {
	r := &Repository{store: st, minPassword: minPasswordLen}
	r.load()
	return r
}

// SetOnChange registers the callback fired after every persisting mutation.
func (r *Repository) SetOnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Repository) load() {
	r.users = []models.Account{ProtectedAdmin()}

	raw, ok := r.store.Get(UsersKey)
	if !ok {
		log.Printf("INFO: No stored users, starting with the protected administrator only")
		return
	}

	var stored []models.Account
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("WARN: Malformed users data in store: %v. Starting with the protected administrator only.", err)
		return
	}
	for _, u := range stored {
		// A tampered export could carry a protected flag; drop it so
		// there is exactly one protected account.
		if u.Protected {
			continue
		}
		r.users = append(r.users, u)
	}
	log.Printf("INFO: Loaded %d users from store", len(stored))
}

// All returns every account including the protected administrator.
func (r *Repository) All() []models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Account, len(r.users))
	copy(out, r.users)
	return out
}

// NonProtected returns every persistable account, i.e. everything except
// the protected administrator. This is the set exports and sync snapshots
// carry.
func (r *Repository) NonProtected() []models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Account, 0, len(r.users))
	for _, u := range r.users {
		if !u.Protected {
			out = append(out, u)
		}
	}
	return out
}

// GetByID returns the account with the given id, or nil.
func (r *Repository) GetByID(id int64) *models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOfLocked(id); i >= 0 {
		u := r.users[i]
		return &u
	}
	return nil
}

// FindByEmail returns the account with the given email (case-insensitive),
// or nil.
func (r *Repository) FindByEmail(email string) *models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByEmailLocked(email, 0)
}

// FindByUsername returns the account with the given username
// (case-insensitive), or nil.
func (r *Repository) FindByUsername(username string) *models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByUsernameLocked(username, 0)
}

// Count returns the number of accounts including the administrator.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Create registers a new account. Email format, email/username uniqueness
// and password length are validated before anything is stored; id, join
// date, non-admin defaults and the default preference bundle are assigned
// here.
func (r *Repository) Create(username, email, password, displayName string) (models.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if !emailPattern.MatchString(email) {
		return models.Account{}, ErrInvalidEmail
	}
	if len(password) < r.minPassword {
		return models.Account{}, ErrWeakPassword
	}
	if username == "" {
		return models.Account{}, ErrDuplicateUsername
	}

	r.mu.Lock()
	if r.findByEmailLocked(email, 0) != nil {
		r.mu.Unlock()
		return models.Account{}, ErrDuplicateEmail
	}
	if r.findByUsernameLocked(username, 0) != nil {
		r.mu.Unlock()
		return models.Account{}, ErrDuplicateUsername
	}

	now := time.Now().UTC()
	if displayName == "" {
		displayName = username
	}
	account := models.Account{
		ID:           r.nextIDLocked(now),
		Username:     username,
		Email:        email,
		Password:     password,
		DisplayName:  displayName,
		Avatar:       "https://i.pravatar.cc/150?u=" + username,
		JoinDate:     now.Format("2006-01-02"),
		IsAdmin:      false,
		AdminLevel:   0,
		Preferences:  models.DefaultPreferences(),
		LastModified: now,
	}
	r.users = append(r.users, account)
	r.mu.Unlock()

	r.persist()
	log.Printf("INFO: Created user %d %q (%s)", account.ID, account.Username, account.Email)
	return account, nil
}

// Update merges the patch into the account with the given id and stamps
// LastModified. The protected administrator is rejected before any other
// validation runs.
func (r *Repository) Update(id int64, patch Patch) (models.Account, error) {
	r.mu.Lock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return models.Account{}, ErrNotFound
	}
	if r.users[idx].Protected {
		r.mu.Unlock()
		log.Printf("WARN: Rejected update of protected administrator %q", r.users[idx].Username)
		return models.Account{}, ErrProtectedAccount
	}

	if patch.Email != nil {
		if !emailPattern.MatchString(*patch.Email) {
			r.mu.Unlock()
			return models.Account{}, ErrInvalidEmail
		}
		if r.findByEmailLocked(*patch.Email, id) != nil {
			r.mu.Unlock()
			return models.Account{}, ErrDuplicateEmail
		}
	}
	if patch.Username != nil && r.findByUsernameLocked(*patch.Username, id) != nil {
		r.mu.Unlock()
		return models.Account{}, ErrDuplicateUsername
	}

	account := r.users[idx]
	applyPatch(&account, patch)
	account.LastModified = time.Now().UTC()
	r.users[idx] = account
	r.mu.Unlock()

	r.persist()
	log.Printf("INFO: Updated user %d %q", account.ID, account.Username)
	return account, nil
}

// Delete removes the account with the given id.
func (r *Repository) Delete(id int64) error {
	r.mu.Lock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}
	if r.users[idx].Protected {
		r.mu.Unlock()
		log.Printf("WARN: Rejected deletion of protected administrator %q", r.users[idx].Username)
		return ErrProtectedAccount
	}

	username := r.users[idx].Username
	r.users = append(r.users[:idx], r.users[idx+1:]...)
	r.mu.Unlock()

	r.persist()
	log.Printf("INFO: Deleted user %d %q", id, username)
	return nil
}

// ChangePassword verifies the current password and swaps in the new one.
// The protected administrator is rejected before any credential check so
// the answer never depends on what was supplied.
func (r *Repository) ChangePassword(id int64, current, next string) error {
	r.mu.Lock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}
	if r.users[idx].Protected {
		r.mu.Unlock()
		log.Printf("WARN: Rejected password change for protected administrator %q", r.users[idx].Username)
		return ErrProtectedAccount
	}
	if r.users[idx].Password != current {
		r.mu.Unlock()
		return ErrInvalidCredentials
	}
	if len(next) < r.minPassword {
		r.mu.Unlock()
		return ErrWeakPassword
	}

	r.users[idx].Password = next
	r.users[idx].LastModified = time.Now().UTC()
	r.mu.Unlock()

	r.persist()
	log.Printf("INFO: Password changed for user %d", id)
	return nil
}

// Authenticate matches an email (case-insensitive) and password against
// the account list. The protected administrator can log in like anyone
// else.
func (r *Repository) Authenticate(email, password string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.findByEmailLocked(email, 0)
	if u == nil || u.Password != password {
		return models.Account{}, ErrInvalidCredentials
	}
	return *u, nil
}

// Merge folds an imported account list into the local one. Per account:
// unknown ids are added, known ids are replaced only when the incoming
// LastModified is strictly newer (an absent timestamp counts as oldest),
// and protected accounts are never touched in either direction. Returns
// how many accounts were added or replaced.
func (r *Repository) Merge(incoming []models.Account) int {
	r.mu.Lock()

	merged := 0
	for _, in := range incoming {
		if in.Protected || in.ID == ProtectedAdmin().ID {
			continue
		}
		idx := r.indexOfLocked(in.ID)
		if idx < 0 {
			r.users = append(r.users, in)
			merged++
			continue
		}
		if in.LastModified.After(r.users[idx].LastModified) {
			r.users[idx] = in
			merged++
		}
	}
	r.mu.Unlock()

	if merged > 0 {
		r.persist()
		log.Printf("INFO: Merged %d users from imported snapshot", merged)
	}
	return merged
}

func (r *Repository) indexOfLocked(id int64) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) findByEmailLocked(email string, excludeID int64) *models.Account {
	for i := range r.users {
		if r.users[i].ID != excludeID && strings.EqualFold(r.users[i].Email, email) {
			return &r.users[i]
		}
	}
	return nil
}

func (r *Repository) findByUsernameLocked(username string, excludeID int64) *models.Account {
	for i := range r.users {
		if r.users[i].ID != excludeID && strings.EqualFold(r.users[i].Username, username) {
			return &r.users[i]
		}
	}
	return nil
}

func (r *Repository) nextIDLocked(now time.Time) int64 {
	id := now.UnixMilli()
	for r.indexOfLocked(id) >= 0 {
		id++
	}
	return id
}

func (r *Repository) persist() {
	r.mu.RLock()
	persistable := make([]models.Account, 0, len(r.users))
	for _, u := range r.users {
		if !u.Protected {
			persistable = append(persistable, u)
		}
	}
	fn := r.onChange
	r.mu.RUnlock()

	data, err := json.Marshal(persistable)
	if err != nil {
		log.Printf("ERROR: Failed to marshal users: %v", err)
		return
	}
	if err := r.store.Set(UsersKey, string(data)); err != nil {
		log.Printf("ERROR: Failed to persist users: %v", err)
	}
	if fn != nil {
		fn()
	}
}

func applyPatch(a *models.Account, p Patch) {
	if p.Username != nil {
		a.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		a.Email = strings.TrimSpace(*p.Email)
	}
	if p.DisplayName != nil {
		a.DisplayName = *p.DisplayName
	}
	if p.Avatar != nil {
		a.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		a.Bio = *p.Bio
	}
	if p.IsAdmin != nil {
		a.IsAdmin = *p.IsAdmin
	}
	if p.AdminLevel != nil {
		a.AdminLevel = *p.AdminLevel
	}
	if p.Preferences != nil {
		a.Preferences = *p.Preferences
	}
}
