package sync

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	gosync "sync"
	"time"

	"github.com/tidwall/gjson"

	"animevault/accounts"
	"animevault/catalog"
	"animevault/models"
	"animevault/session"
	"animevault/store"
	"animevault/utils"
)

// Store keys owned by the coordinator. The combined snapshot key matches
// the original platform; the marker key sits beside it.
const (
	SyncKey     = "anime_platform_sync"
	LastSyncKey = "anime_platform_last_sync"
)

// SnapshotVersion tags every snapshot this build writes.
const SnapshotVersion = "1.0"

// ErrInvalidFormat is returned when imported data is not a recognizable
// backup document.
var ErrInvalidFormat = errors.New("sync: data is not a recognized backup format")

// State is the coordinator's per-process activity state. Exactly one
// persist or import runs at a time; overlapping attempts are skipped.
type State int

const (
	StateIdle State = iota
	StateSaving
	StateImporting
)

func (s State) String() string {
	switch s {
	case StateSaving:
		return "saving"
	case StateImporting:
		return "importing"
	default:
		return "idle"
	}
}

// ImportResult reports what an import changed.
type ImportResult struct {
	AnimeCount int `json:"animeCount"`
	UsersCount int `json:"usersCount"`
}

// ExportResult carries a downloadable backup document.
type ExportResult struct {
	Filename   string
	Data       []byte
	AnimeCount int
	UsersCount int
}

// Options tunes the coordinator's timing. Zero debounce persists
// synchronously, which the tests rely on.
type Options struct {
	Debounce      time.Duration
	CheckInterval time.Duration
	GraceDelay    time.Duration
}

// Coordinator keeps the combined snapshot under SyncKey in step with the
// repositories, and folds in snapshots written by other instances sharing
// the same store file. It owns a dashless-UUID origin id so it can tell
// its own snapshots from foreign ones.
type Coordinator struct {
	store    *store.Store
	catalog  *catalog.Repository
	accounts *accounts.Repository
	session  *session.Manager

	origin   string
	debounce time.Duration
	interval time.Duration
	grace    time.Duration

	mu        gosync.Mutex
	state     State
	lastLocal time.Time // Timestamp of the newest snapshot written or imported here

	saveMu      gosync.Mutex
	saveTimer   *time.Timer
	savePending bool

	stop     chan struct{}
	stopOnce gosync.Once
}

// NewCoordinator wires the coordinator to the store and repositories. It
// registers itself as the repositories' change callback and subscribes to
// store notifications for the snapshot key, so snapshots refresh without
// the callers knowing the coordinator exists.
func NewCoordinator(st *store.Store, cat *catalog.Repository, acc *accounts.Repository, sess *session.Manager, opts Options) *Coordinator {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 30 * time.Second
	}
	c := &Coordinator{
		store:    st,
		catalog:  cat,
		accounts: acc,
		session:  sess,
		origin:   utils.GenerateDashlessUUID(),
		debounce: opts.Debounce,
		interval: opts.CheckInterval,
		grace:    opts.GraceDelay,
		stop:     make(chan struct{}),
	}

	cat.SetOnChange(c.PersistSnapshot)
	acc.SetOnChange(c.PersistSnapshot)
	st.Subscribe(func(key string) {
		if key == SyncKey {
			c.CheckForNewer()
		}
	})

	// Seed the last-known timestamp from the stored marker. The
	// repositories loaded from this store already reflect everything up
	// to that point, so the startup check must not re-import it.
	if marker := c.LastSync(); marker != nil {
		c.mu.Lock()
		c.lastLocal = marker.LastSync
		c.mu.Unlock()
	}

	log.Printf("INFO: Sync coordinator ready (origin %s)", c.origin)
	return c
}

// Origin returns the coordinator's instance id.
func (c *Coordinator) Origin() string {
	return c.origin
}

// CurrentState returns the coordinator's activity state.
func (c *Coordinator) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot builds a combined snapshot of the catalog and the non-protected
// accounts, stamped now and tagged with this coordinator's origin.
func (c *Coordinator) Snapshot() models.SyncSnapshot {
	return models.SyncSnapshot{
		Anime:     c.catalog.GetAll(),
		Users:     c.accounts.NonProtected(),
		Timestamp: time.Now().UTC(),
		Version:   SnapshotVersion,
		Origin:    c.origin,
	}
}

// PersistSnapshot schedules a snapshot write. Rapid bursts of mutations
// collapse into one write per debounce window; a zero debounce writes
// before returning. Failures are logged and never surface to the mutation
// that triggered them.
func (c *Coordinator) PersistSnapshot() {
	if c.debounce <= 0 {
		c.persistNow()
		return
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.savePending = true
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(c.debounce, func() {
		c.saveMu.Lock()
		c.savePending = false
		c.saveMu.Unlock()
		c.persistNow()
	})
}

// Flush writes any pending snapshot immediately. Called on shutdown.
func (c *Coordinator) Flush() {
	c.saveMu.Lock()
	pending := c.savePending
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.savePending = false
	c.saveMu.Unlock()

	if pending {
		c.persistNow()
	}
}

func (c *Coordinator) persistNow() {
	if !c.begin(StateSaving) {
		return
	}
	defer c.end()

	snap := c.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("ERROR: Failed to marshal sync snapshot: %v", err)
		return
	}

	// SetQuiet keeps our own write from triggering a CheckForNewer echo.
	if err := c.store.SetQuiet(SyncKey, string(data)); err != nil {
		if !errors.Is(err, store.ErrQuotaExceeded) {
			log.Printf("ERROR: Failed to persist sync snapshot: %v", err)
			return
		}
		if err := c.pruneAndRetry(string(data)); err != nil {
			log.Printf("ERROR: Sync snapshot still over the store budget after pruning: %v", err)
			return
		}
	}

	c.mu.Lock()
	c.lastLocal = snap.Timestamp
	c.mu.Unlock()

	c.recordMarker(snap.Timestamp)
	log.Printf("INFO: Sync snapshot persisted (%d anime, %d users)", len(snap.Anime), len(snap.Users))
}

// pruneAndRetry evicts auxiliary keys oldest-first and retries the write
// after each eviction. The well-known platform keys are never evicted.
func (c *Coordinator) pruneAndRetry(data string) error {
	protected := map[string]struct{}{
		catalog.AnimeKey:     {},
		catalog.FavoritesKey: {},
		accounts.UsersKey:    {},
		session.SessionKey:   {},
		SyncKey:              {},
		LastSyncKey:          {},
	}

	var lastErr error = store.ErrQuotaExceeded
	for _, key := range c.store.KeysByAge() {
		if _, ok := protected[key]; ok {
			continue
		}
		log.Printf("WARN: Store over budget, evicting auxiliary key %q", key)
		c.store.Remove(key)

		lastErr = c.store.SetQuiet(SyncKey, data)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, store.ErrQuotaExceeded) {
			return lastErr
		}
	}
	return lastErr
}

// CheckForNewer reads the combined snapshot and imports it when it is both
// foreign and strictly newer than anything this instance has seen. Returns
// the import result, or nil when nothing was imported.
func (c *Coordinator) CheckForNewer() *ImportResult {
	snap, ok := c.readSnapshot()
	if !ok {
		return nil
	}

	if snap.Origin == c.origin {
		return nil
	}

	c.mu.Lock()
	newer := snap.Timestamp.After(c.lastLocal)
	c.mu.Unlock()
	if !newer {
		return nil
	}

	log.Printf("INFO: Found newer snapshot from origin %s (%s), importing", snap.Origin, snap.Timestamp.Format(time.RFC3339))
	result, err := c.ImportSnapshot(snap, true)
	if err != nil {
		log.Printf("WARN: Skipping snapshot from origin %s: %v", snap.Origin, err)
		return nil
	}
	return &result
}

func (c *Coordinator) readSnapshot() (models.SyncSnapshot, bool) {
	raw, ok := c.store.Get(SyncKey)
	if !ok {
		return models.SyncSnapshot{}, false
	}
	var snap models.SyncSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("WARN: Malformed sync snapshot in store: %v", err)
		return models.SyncSnapshot{}, false
	}
	return snap, true
}

// ImportSnapshot replaces the catalog wholesale and merges accounts
// last-modified-wins. Validation happens before any repository is touched;
// a failed import leaves everything unchanged. When the merge rewrites the
// logged-in user's record, the session is refreshed in place.
func (c *Coordinator) ImportSnapshot(snap models.SyncSnapshot, silent bool) (ImportResult, error) {
	if snap.Anime == nil {
		return ImportResult{}, ErrInvalidFormat
	}

	if !c.begin(StateImporting) {
		return ImportResult{}, fmt.Errorf("sync: coordinator busy (%s)", c.CurrentState())
	}

	c.catalog.ReplaceAll(snap.Anime)
	merged := c.accounts.Merge(snap.Users)

	if sess := c.session.Current(); sess != nil {
		if fresh := c.accounts.GetByID(sess.Account.ID); fresh != nil {
			c.session.ReplaceAccount(*fresh)
		}
	}

	c.mu.Lock()
	if snap.Timestamp.After(c.lastLocal) {
		c.lastLocal = snap.Timestamp
	}
	c.mu.Unlock()
	c.recordMarker(time.Now().UTC())
	c.end()

	if !silent {
		// Republish so other instances converge on the imported data.
		c.PersistSnapshot()
	}

	log.Printf("INFO: Imported snapshot: %d anime, %d users merged", len(snap.Anime), merged)
	return ImportResult{AnimeCount: len(snap.Anime), UsersCount: merged}, nil
}

// ExportFile builds a pretty-printed backup document with a date-stamped
// filename, and persists the same snapshot so the store reflects what was
// handed out.
func (c *Coordinator) ExportFile() (ExportResult, error) {
	snap := c.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return ExportResult{}, fmt.Errorf("sync: failed to encode backup: %w", err)
	}

	c.PersistSnapshot()

	return ExportResult{
		Filename:   fmt.Sprintf("animevault-backup-%s.json", time.Now().UTC().Format("2006-01-02")),
		Data:       data,
		AnimeCount: len(snap.Anime),
		UsersCount: len(snap.Users),
	}, nil
}

// ImportFromFile validates and imports an uploaded backup document. The
// shape is checked with gjson before the full decode so a malformed file
// is rejected without touching the repositories.
func (c *Coordinator) ImportFromFile(data []byte) (ImportResult, error) {
	if !gjson.ValidBytes(data) {
		return ImportResult{}, ErrInvalidFormat
	}
	anime := gjson.GetBytes(data, "anime")
	if !anime.Exists() || !anime.IsArray() {
		return ImportResult{}, ErrInvalidFormat
	}
	if users := gjson.GetBytes(data, "users"); users.Exists() && !users.IsArray() {
		return ImportResult{}, ErrInvalidFormat
	}

	var snap models.SyncSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return c.ImportSnapshot(snap, false)
}

// BuildShareLink encodes the current snapshot as base64 in a sync query
// parameter appended to the given base URL.
func (c *Coordinator) BuildShareLink(baseURL string) (string, error) {
	snap := c.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("sync: failed to encode share link: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("%s?sync=%s", baseURL, url.QueryEscape(encoded)), nil
}

// ConsumeShareLink decodes a sync query parameter and imports it. Any
// failure is logged and swallowed, matching the forgiving behavior share
// links need: a broken link must not break the page that carries it.
func (c *Coordinator) ConsumeShareLink(param string) *ImportResult {
	decoded, err := base64.StdEncoding.DecodeString(param)
	if err != nil {
		log.Printf("WARN: Ignoring share link with invalid base64: %v", err)
		return nil
	}

	var snap models.SyncSnapshot
	if err := json.Unmarshal(decoded, &snap); err != nil {
		log.Printf("WARN: Ignoring share link with invalid payload: %v", err)
		return nil
	}

	result, err := c.ImportSnapshot(snap, false)
	if err != nil {
		log.Printf("WARN: Ignoring share link: %v", err)
		return nil
	}
	return &result
}

// LastSync returns the marker of the most recent successful persist or
// import, or nil when no sync has happened yet.
func (c *Coordinator) LastSync() *models.SyncMarker {
	raw, ok := c.store.Get(LastSyncKey)
	if !ok {
		return nil
	}
	var marker models.SyncMarker
	if err := json.Unmarshal([]byte(raw), &marker); err != nil {
		log.Printf("WARN: Malformed sync marker in store: %v", err)
		return nil
	}
	return &marker
}

// Start begins the background check loop: one check after the startup
// grace delay, then one per interval until Stop.
func (c *Coordinator) Start() {
	go c.run()
	log.Printf("INFO: Sync check loop started (%s interval)", c.interval)
}

// Stop halts the background loop and flushes any pending snapshot write.
// Safe to call more than once.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.Flush()
}

func (c *Coordinator) run() {
	// Let startup writes settle before the first check.
	select {
	case <-time.After(c.grace):
	case <-c.stop:
		return
	}
	c.CheckForNewer()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckForNewer()
		case <-c.stop:
			log.Printf("INFO: Sync check loop stopped")
			return
		}
	}
}

func (c *Coordinator) recordMarker(ts time.Time) {
	marker := models.SyncMarker{LastSync: ts, Version: SnapshotVersion}
	data, err := json.Marshal(marker)
	if err != nil {
		log.Printf("ERROR: Failed to marshal sync marker: %v", err)
		return
	}
	if err := c.store.SetQuiet(LastSyncKey, string(data)); err != nil {
		log.Printf("ERROR: Failed to persist sync marker: %v", err)
	}
}

// begin moves the coordinator from idle into the given state. A false
// return means another persist or import is in flight and the caller
// should skip.
func (c *Coordinator) begin(next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		log.Printf("DEBUG: Skipping %s, coordinator is %s", next, c.state)
		return false
	}
	c.state = next
	return true
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}
