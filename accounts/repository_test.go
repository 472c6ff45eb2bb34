package accounts

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animevault/models"
	"animevault/store"
)

func newTestRepo(t *testing.T) (*Repository, *store.Store) {
	t.Helper()
	st := store.New(store.Options{
		FilePath:     filepath.Join(t.TempDir(), "store.json"),
		SaveInterval: 0,
	})
	t.Cleanup(func() { st.Close() })
	return NewRepository(st, 6), st
}

func TestProtectedAdminAlwaysPresent(t *testing.T) {
	repo, st := newTestRepo(t)

	admin := repo.GetByID(ProtectedAdmin().ID)
	require.NotNil(t, admin)
	assert.True(t, admin.Protected)
	assert.Equal(t, 5, admin.AdminLevel)

	// The administrator never reaches the store.
	_, err := repo.Create("alice", "alice@example.com", "secret1", "Alice")
	require.NoError(t, err)
	raw, ok := st.Get(UsersKey)
	require.True(t, ok)
	var stored []models.Account
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "alice", stored[0].Username)
}

func TestCreateValidation(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Create("bob", "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = repo.Create("bob", "bob@example.com", "short", "")
	assert.ErrorIs(t, err, ErrWeakPassword)

	created, err := repo.Create("bob", "bob@example.com", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", created.DisplayName)
	assert.NotZero(t, created.ID)
	assert.False(t, created.IsAdmin)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), created.JoinDate)

	_, err = repo.Create("other", "BOB@example.com", "secret1", "")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = repo.Create("BOB", "fresh@example.com", "secret1", "")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUpdateAndUniqueness(t *testing.T) {
	repo, _ := newTestRepo(t)

	a, err := repo.Create("alice", "alice@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = repo.Create("bob", "bob@example.com", "secret1", "")
	require.NoError(t, err)

	bio := "New bio"
	updated, err := repo.Update(a.ID, Patch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "New bio", updated.Bio)
	assert.True(t, updated.LastModified.After(a.LastModified) || updated.LastModified.Equal(a.LastModified))

	email := "bob@example.com"
	_, err = repo.Update(a.ID, Patch{Email: &email})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	name := "bob"
	_, err = repo.Update(a.ID, Patch{Username: &name})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.Update(99999, Patch{Bio: &bio})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProtectedAdminImmutable(t *testing.T) {
	repo, _ := newTestRepo(t)
	adminID := ProtectedAdmin().ID

	bio := "hacked"
	_, err := repo.Update(adminID, Patch{Bio: &bio})
	assert.ErrorIs(t, err, ErrProtectedAccount)

	assert.ErrorIs(t, repo.Delete(adminID), ErrProtectedAccount)

	err = repo.ChangePassword(adminID, ProtectedAdmin().Password, "newpass1")
	assert.ErrorIs(t, err, ErrProtectedAccount)

	// The rejection must not depend on the supplied credentials.
	err = repo.ChangePassword(adminID, "definitely-wrong", "newpass1")
	assert.ErrorIs(t, err, ErrProtectedAccount)
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)

	u, err := repo.Create("gone", "gone@example.com", "secret1", "")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(u.ID))
	assert.Nil(t, repo.GetByID(u.ID))
	assert.ErrorIs(t, repo.Delete(u.ID), ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	repo, _ := newTestRepo(t)

	u, err := repo.Create("carol", "carol@example.com", "secret1", "")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.ChangePassword(u.ID, "wrong", "newsecret"), ErrInvalidCredentials)
	assert.ErrorIs(t, repo.ChangePassword(u.ID, "secret1", "tiny"), ErrWeakPassword)
	assert.ErrorIs(t, repo.ChangePassword(99999, "secret1", "newsecret"), ErrNotFound)

	require.NoError(t, repo.ChangePassword(u.ID, "secret1", "newsecret"))
	_, err = repo.Authenticate("carol@example.com", "newsecret")
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Create("dave", "dave@example.com", "secret1", "")
	require.NoError(t, err)

	got, err := repo.Authenticate("DAVE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Username)

	_, err = repo.Authenticate("dave@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = repo.Authenticate("unknown@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	admin, err := repo.Authenticate(ProtectedAdmin().Email, ProtectedAdmin().Password)
	require.NoError(t, err)
	assert.True(t, admin.Protected)
}

func TestMergeLastModifiedWins(t *testing.T) {
	repo, _ := newTestRepo(t)

	local, err := repo.Create("eve", "eve@example.com", "secret1", "")
	require.NoError(t, err)

	older := local
	older.Bio = "stale"
	older.LastModified = local.LastModified.Add(-time.Hour)

	newer := local
	newer.Bio = "fresh"
	newer.LastModified = local.LastModified.Add(time.Hour)

	stranger := models.Account{
		ID:           424242,
		Username:     "import-only",
		Email:        "import@example.com",
		Password:     "secret1",
		LastModified: time.Now().UTC(),
	}

	// Stale copy loses; equal timestamps also lose.
	assert.Equal(t, 1, repo.Merge([]models.Account{older, stranger}))
	assert.Equal(t, local.Bio, repo.GetByID(local.ID).Bio)
	require.NotNil(t, repo.GetByID(stranger.ID))

	assert.Equal(t, 0, repo.Merge([]models.Account{local}))

	assert.Equal(t, 1, repo.Merge([]models.Account{newer}))
	assert.Equal(t, "fresh", repo.GetByID(local.ID).Bio)
}

func TestMergeNeverTouchesProtected(t *testing.T) {
	repo, _ := newTestRepo(t)

	impostor := ProtectedAdmin()
	impostor.Password = "stolen"
	impostor.LastModified = time.Now().UTC().Add(time.Hour)

	assert.Equal(t, 0, repo.Merge([]models.Account{impostor}))
	assert.Equal(t, ProtectedAdmin().Password, repo.GetByID(impostor.ID).Password)
}

func TestLoadDropsStoredProtectedFlag(t *testing.T) {
	_, st := newTestRepo(t)

	fake := ProtectedAdmin()
	fake.ID = 777
	fake.Username = "fake-admin"
	data, err := json.Marshal([]models.Account{fake})
	require.NoError(t, err)
	require.NoError(t, st.Set(UsersKey, string(data)))

	repo := NewRepository(st, 6)
	assert.Nil(t, repo.GetByID(777))
	assert.Equal(t, 1, repo.Count())
}

func TestNonProtectedExcludesAdmin(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Create("frank", "frank@example.com", "secret1", "")
	require.NoError(t, err)

	list := repo.NonProtected()
	require.Len(t, list, 1)
	assert.Equal(t, "frank", list[0].Username)
	assert.Len(t, repo.All(), 2)
}
