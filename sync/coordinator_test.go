package sync

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animevault/accounts"
	"animevault/catalog"
	"animevault/models"
	"animevault/session"
	"animevault/store"
)

type fixture struct {
	store    *store.Store
	catalog  *catalog.Repository
	accounts *accounts.Repository
	session  *session.Manager
	coord    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, store.New(store.Options{
		FilePath:     filepath.Join(t.TempDir(), "store.json"),
		SaveInterval: 0,
	}))
}

func newFixtureWithStore(t *testing.T, st *store.Store) *fixture {
	t.Helper()
	t.Cleanup(func() { st.Close() })

	cat := catalog.NewRepository(st)
	acc := accounts.NewRepository(st, 6)
	sess := session.NewManager(st, 24*time.Hour)
	coord := NewCoordinator(st, cat, acc, sess, Options{Debounce: 0})
	t.Cleanup(coord.Stop)

	return &fixture{store: st, catalog: cat, accounts: acc, session: sess, coord: coord}
}

func foreignSnapshot(ts time.Time) models.SyncSnapshot {
	return models.SyncSnapshot{
		Anime: []models.Anime{
			{ID: 100, Title: "Foreign Anime", Year: 2020},
		},
		Users: []models.Account{
			{ID: 200, Username: "traveler", Email: "traveler@example.com", Password: "secret1", LastModified: ts},
		},
		Timestamp: ts,
		Version:   SnapshotVersion,
		Origin:    "deadbeefdeadbeefdeadbeefdeadbeef",
	}
}

func TestMutationsPersistSnapshot(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(models.Anime{Title: "Snapshot Trigger", Episodes: 1})
	require.NoError(t, err)

	raw, ok := f.store.Get(SyncKey)
	require.True(t, ok, "catalog mutation should write the combined snapshot")

	var snap models.SyncSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Len(t, snap.Anime, 1)
	assert.Equal(t, f.coord.Origin(), snap.Origin)
	assert.Equal(t, SnapshotVersion, snap.Version)

	marker := f.coord.LastSync()
	require.NotNil(t, marker)
	assert.False(t, marker.LastSync.IsZero())
}

func TestSnapshotExcludesProtectedAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.accounts.Create("grace", "grace@example.com", "secret1", "")
	require.NoError(t, err)

	snap := f.coord.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "grace", snap.Users[0].Username)
}

func TestCheckForNewerImportsForeignSnapshot(t *testing.T) {
	f := newFixture(t)

	snap := foreignSnapshot(time.Now().UTC().Add(time.Minute))
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	// A raw Set notifies observers the way a foreign writer would.
	require.NoError(t, f.store.Set(SyncKey, string(data)))

	// The store notification already triggered the import.
	assert.Equal(t, 1, f.catalog.Count())
	require.NotNil(t, f.catalog.GetByID(100))
	require.NotNil(t, f.accounts.GetByID(200))

	// A second explicit check is a no-op: nothing newer.
	assert.Nil(t, f.coord.CheckForNewer())
}

func TestCheckForNewerIgnoresOwnOrigin(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(models.Anime{Title: "Mine", Episodes: 1})
	require.NoError(t, err)

	assert.Nil(t, f.coord.CheckForNewer())
	assert.Equal(t, 1, f.catalog.Count())
}

func TestCheckForNewerIgnoresStaleSnapshot(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(models.Anime{Title: "Current", Episodes: 1})
	require.NoError(t, err)

	stale := foreignSnapshot(time.Now().UTC().Add(-time.Hour))
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(SyncKey, string(data)))

	// Local catalog untouched.
	assert.Equal(t, 1, f.catalog.Count())
	assert.Nil(t, f.catalog.GetByID(100))
}

func TestCheckForNewerIgnoresEqualTimestamp(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(models.Anime{Title: "Current", Episodes: 1})
	require.NoError(t, err)

	local, ok := f.store.Get(SyncKey)
	require.True(t, ok)
	var snap models.SyncSnapshot
	require.NoError(t, json.Unmarshal([]byte(local), &snap))

	// A foreign snapshot carrying the identical timestamp is a tie, and
	// a tie keeps local.
	tie := foreignSnapshot(snap.Timestamp)
	data, err := json.Marshal(tie)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(SyncKey, string(data)))

	assert.Nil(t, f.coord.CheckForNewer())
	assert.Equal(t, 1, f.catalog.Count())
	assert.Nil(t, f.catalog.GetByID(100))
}

func TestRestartDoesNotReimportOwnSnapshot(t *testing.T) {
	st := store.New(store.Options{
		FilePath:     filepath.Join(t.TempDir(), "store.json"),
		SaveInterval: 0,
	})
	first := newFixtureWithStore(t, st)

	_, err := first.catalog.Add(models.Anime{Title: "Survivor", Episodes: 1})
	require.NoError(t, err)

	// A second coordinator over the same store stands in for a process
	// restart: the repositories reload the data, and the stored marker
	// seeds the last-known timestamp, so the snapshot written by the
	// previous incarnation is not treated as foreign news.
	cat := catalog.NewRepository(st)
	acc := accounts.NewRepository(st, 6)
	sess := session.NewManager(st, 24*time.Hour)
	coord := NewCoordinator(st, cat, acc, sess, Options{Debounce: 0})
	t.Cleanup(coord.Stop)

	assert.Nil(t, coord.CheckForNewer())
	assert.Equal(t, 1, cat.Count())
}

func TestImportSnapshotRejectsMissingAnime(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(models.Anime{Title: "Keep Me", Episodes: 1})
	require.NoError(t, err)

	_, err = f.coord.ImportSnapshot(models.SyncSnapshot{Users: []models.Account{}}, false)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, 1, f.catalog.Count())
}

func TestImportRefreshesLoggedInSession(t *testing.T) {
	f := newFixture(t)

	local, err := f.accounts.Create("henry", "henry@example.com", "secret1", "")
	require.NoError(t, err)
	f.session.Login(local)

	updated := local
	updated.Bio = "imported bio"
	updated.LastModified = local.LastModified.Add(time.Hour)

	snap := foreignSnapshot(time.Now().UTC().Add(time.Minute))
	snap.Users = append(snap.Users, updated)

	_, err = f.coord.ImportSnapshot(snap, false)
	require.NoError(t, err)

	sess := f.session.Current()
	require.NotNil(t, sess)
	assert.Equal(t, "imported bio", sess.Account.Bio)
}

func TestExportFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Add(models.Anime{Title: "Exported", Episodes: 2})
	require.NoError(t, err)

	result, err := f.coord.ExportFile()
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("animevault-backup-%s.json", time.Now().UTC().Format("2006-01-02")), result.Filename)
	assert.Equal(t, 1, result.AnimeCount)

	var snap models.SyncSnapshot
	require.NoError(t, json.Unmarshal(result.Data, &snap))
	assert.Len(t, snap.Anime, 1)
	assert.True(t, strings.HasPrefix(string(result.Data), "{\n"), "export should be pretty-printed")
}

func TestImportFromFile(t *testing.T) {
	f := newFixture(t)

	snap := foreignSnapshot(time.Now().UTC())
	data, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err)

	result, err := f.coord.ImportFromFile(data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AnimeCount)
	assert.Equal(t, 1, f.catalog.Count())
}

func TestImportFromFileRejectsBadShapes(t *testing.T) {
	f := newFixture(t)

	cases := []string{
		"not json at all",
		`{"users": []}`,
		`{"anime": "not an array"}`,
		`{"anime": [], "users": 42}`,
	}
	for _, payload := range cases {
		_, err := f.coord.ImportFromFile([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidFormat, "payload: %s", payload)
	}
	assert.Equal(t, 0, f.catalog.Count())
}

func TestShareLinkRoundTrip(t *testing.T) {
	source := newFixture(t)
	_, err := source.catalog.Add(models.Anime{Title: "Shared", Episodes: 1})
	require.NoError(t, err)

	link, err := source.coord.BuildShareLink("https://example.com/catalog")
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	param := parsed.Query().Get("sync")
	require.NotEmpty(t, param)

	target := newFixture(t)
	result := target.coord.ConsumeShareLink(param)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.AnimeCount)
	assert.Equal(t, 1, target.catalog.Count())
}

func TestConsumeShareLinkSwallowsGarbage(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.coord.ConsumeShareLink("%%%not-base64%%%"))
	assert.Nil(t, f.coord.ConsumeShareLink(base64.StdEncoding.EncodeToString([]byte("not json"))))
	assert.Nil(t, f.coord.ConsumeShareLink(base64.StdEncoding.EncodeToString([]byte(`{"users": []}`))))
	assert.Equal(t, 0, f.catalog.Count())
}

func TestQuotaPruningEvictsAuxiliaryKeysOnly(t *testing.T) {
	st := store.New(store.Options{
		FilePath:     filepath.Join(t.TempDir(), "store.json"),
		SaveInterval: 0,
		MaxBytes:     16 * 1024,
	})
	f := newFixtureWithStore(t, st)

	// Fill the budget with disposable data.
	require.NoError(t, st.Set("scratch_old", strings.Repeat("x", 12*1024)))

	big := models.Anime{Title: "Big Entry", Description: strings.Repeat("d", 2*1024), Episodes: 1}
	_, err := f.catalog.Add(big)
	require.NoError(t, err)

	_, scratchRemains := st.Get("scratch_old")
	assert.False(t, scratchRemains, "auxiliary key should be evicted to fit the snapshot")

	_, ok := st.Get(SyncKey)
	assert.True(t, ok)
	_, ok = st.Get(catalog.AnimeKey)
	assert.True(t, ok, "well-known keys must never be evicted")
}

func TestLastSyncNilBeforeFirstSync(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.coord.LastSync())
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)

	f.coord.Start()
	f.coord.Stop()
	f.coord.Stop() // idempotent
}
