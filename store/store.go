package store

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

// ErrQuotaExceeded is returned by Set when a write would push the store past
// its configured size budget. Callers are expected to prune and retry (or
// surface the failure); the store itself never drops data.
var ErrQuotaExceeded = errors.New("store: size budget exceeded")

// Observer is notified after every successful Set or Remove with the key
// that changed. This replaces the original design of wrapping the write
// primitive itself: interested components subscribe instead of intercepting.
type Observer func(key string)

// fileState is the on-disk layout: the key-value entries plus the time each
// key was last written.
type fileState struct {
	Entries map[string]string    `json:"entries"`
	Written map[string]time.Time `json:"written"`
}

// Store is a persistent string key-value store. It keeps all data in memory
// and persists the whole state as a single JSON file with debounced, atomic
// writes. When no usable file path is available it degrades to a pure
// in-memory map behind the same interface.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
	written map[string]time.Time

	filePath     string // Empty means in-memory only
	enableBackup bool
	maxBytes     int64 // <= 0 means unlimited

	saveInterval time.Duration
	saveTimer    *time.Timer
	savePending  bool
	saveMu       sync.Mutex

	obsMu     sync.RWMutex
	observers []Observer
}

// Options configures a Store.
type Options struct {
	FilePath     string        // Path of the backing JSON file; empty for in-memory
	SaveInterval time.Duration // Debounce window; <= 0 persists immediately
	EnableBackup bool          // Keep a .bak of the previous file on save
	MaxBytes     int64         // Total size budget across values; <= 0 unlimited
}

// New creates a Store and loads any existing state from disk. A missing file
// is not an error; a file that exists but cannot be read or parsed is logged
// and treated as absent data, so the store starts empty rather than failing.
// If the backing path is unusable for writing, the store degrades to
// in-memory operation.
func New(opts Options) *Store {
	s := &Store{
		entries:      make(map[string]string),
		written:      make(map[string]time.Time),
		filePath:     opts.FilePath,
		enableBackup: opts.EnableBackup,
		maxBytes:     opts.MaxBytes,
		saveInterval: opts.SaveInterval,
	}

	if s.filePath == "" {
		log.Printf("INFO: Store running in-memory (no file path configured)")
		return s
	}

	s.load()

	// Probe writability once up front so later Set calls don't silently
	// stop persisting. On failure we keep the loaded data but stop
	// touching the disk.
	if err := s.probeWritable(); err != nil {
		log.Printf("WARN: Store path '%s' is not writable (%v). Degrading to in-memory operation.", s.filePath, err)
		s.filePath = ""
	}

	return s
}

// load reads the backing file into memory. Corrupted or unreadable content
// is treated as absent data per the persistence contract.
func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("INFO: Store file '%s' not found. Starting with empty state.", s.filePath)
		} else {
			log.Printf("WARN: Failed to read store file '%s': %v. Starting with empty state.", s.filePath, err)
		}
		return
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("WARN: Store file '%s' contains malformed JSON: %v. Treating as absent data.", s.filePath, err)
		return
	}

	if state.Entries != nil {
		s.entries = state.Entries
	}
	if state.Written != nil {
		s.written = state.Written
	}
	log.Printf("INFO: Loaded store from %s (%d keys)", s.filePath, len(s.entries))
}

// probeWritable verifies the store can create files next to its backing path.
func (s *Store) probeWritable() error {
	probe := s.filePath + ".probe"
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// Get returns the value stored under key, and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set stores value under key and notifies observers. It fails with
// ErrQuotaExceeded when the write would exceed the configured size budget,
// leaving the store unchanged.
func (s *Store) Set(key, value string) error {
	if err := s.put(key, value); err != nil {
		return err
	}
	s.notify(key)
	return nil
}

// SetQuiet is Set without observer notification. The sync coordinator uses
// it for its own writes so it does not react to its own echo.
func (s *Store) SetQuiet(key, value string) error {
	return s.put(key, value)
}

func (s *Store) put(key, value string) error {
	s.mu.Lock()
	if s.maxBytes > 0 {
		var total int64
		for k, v := range s.entries {
			if k == key {
				continue
			}
			total += int64(len(k) + len(v))
		}
		if total+int64(len(key)+len(value)) > s.maxBytes {
			s.mu.Unlock()
			return ErrQuotaExceeded
		}
	}
	s.entries[key] = value
	s.written[key] = time.Now().UTC()
	s.mu.Unlock()

	s.requestSave()
	return nil
}

// Remove deletes key and notifies observers. Removing an absent key is a
// no-op that still persists nothing and notifies nobody.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	_, existed := s.entries[key]
	if existed {
		delete(s.entries, key)
		delete(s.written, key)
	}
	s.mu.Unlock()

	if existed {
		s.requestSave()
		s.notify(key)
	}
}

// Keys returns all stored keys in no particular order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// LastWritten reports when key was last written, and whether it exists.
func (s *Store) LastWritten(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.written[key]
	return t, ok
}

// KeysByAge returns all stored keys ordered oldest write first. The sync
// coordinator uses this to prune auxiliary keys when a write hits the size
// budget.
func (s *Store) KeysByAge() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.written[keys[i]].Before(s.written[keys[j]])
	})
	return keys
}

// Subscribe registers an observer called after every Set/Remove. Observers
// run synchronously on the mutating goroutine and must not call back into
// the store's mutating methods for the same key.
func (s *Store) Subscribe(obs Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, obs)
}

func (s *Store) notify(key string) {
	s.obsMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, obs := range observers {
		obs(key)
	}
}

// requestSave schedules a debounced persist, collapsing bursts of writes
// into one file write. A non-positive interval persists immediately.
func (s *Store) requestSave() {
	if s.filePath == "" {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.saveInterval <= 0 {
		if err := s.persist(); err != nil {
			log.Printf("ERROR: Immediate store persist failed: %v", err)
		}
		return
	}

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.savePending = true
	s.saveTimer = time.AfterFunc(s.saveInterval, func() {
		s.saveMu.Lock()
		if !s.savePending {
			s.saveMu.Unlock()
			return
		}
		s.savePending = false
		s.saveMu.Unlock()

		if err := s.persist(); err != nil {
			log.Printf("ERROR: Debounced store persist failed: %v", err)
		}
	})
}

// persist writes the full state to disk atomically: marshal, write to a
// temp file, optionally rotate the previous file to .bak, then rename.
func (s *Store) persist() error {
	s.mu.RLock()
	state := fileState{Entries: s.entries, Written: s.written}
	data, err := json.MarshalIndent(&state, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		log.Printf("ERROR: Failed to marshal store state: %v", err)
		return err
	}

	tempPath := s.filePath + ".tmp"
	backupPath := s.filePath + ".bak"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		log.Printf("ERROR: Failed to write temporary store file '%s': %v", tempPath, err)
		return err
	}

	if s.enableBackup {
		if _, err := os.Stat(s.filePath); err == nil {
			if err := os.Rename(s.filePath, backupPath); err != nil {
				log.Printf("WARN: Failed to rotate '%s' to '%s': %v. Proceeding with save.", s.filePath, backupPath, err)
			}
		}
	}

	if err := os.Rename(tempPath, s.filePath); err != nil {
		log.Printf("ERROR: Failed to rename temporary store file into place: %v", err)
		_ = os.Remove(tempPath)
		return err
	}

	return nil
}

// Close flushes any pending debounced save. Call on shutdown.
func (s *Store) Close() error {
	var needsFinal bool

	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if s.savePending {
		needsFinal = true
		s.savePending = false
	}
	s.saveMu.Unlock()

	if needsFinal && s.filePath != "" {
		log.Printf("INFO: Flushing pending store save on close...")
		return s.persist()
	}
	return nil
}
