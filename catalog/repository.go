package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"animevault/models"
	"animevault/store"
)

// Well-known persistence keys. Documented in SPEC_FULL.md §4; the anime key
// matches the original platform so exported data stays interchangeable.
const (
	AnimeKey     = "anime_platform_anime"
	FavoritesKey = "anime_platform_favorites"
)

var (
	// ErrDuplicateTitle is returned when an add/update would give two
	// catalog items the same case-insensitive title.
	ErrDuplicateTitle = errors.New("catalog: an anime with this title already exists")
	// ErrNotFound is returned when the requested anime id is absent.
	ErrNotFound = errors.New("catalog: anime not found")
)

const (
	defaultEpisodeDuration = "24:00"
	defaultEpisodeVideoURL = "https://www.youtube.com/embed/dQw4w9WgXcQ"
	defaultPopularity      = 50
)

// Patch holds the fields an update may change. Nil fields are left alone.
type Patch struct {
	Title         *string
	OriginalTitle *string
	Description   *string
	Genre         *string
	Type          *string
	Status        *string
	Studio        *string
	Year          *int
	Rating        *float64
	Episodes      *int
	Poster        *string
	VideoURL      *string
	Popularity    *int
	Votes         *int
	// EpisodesList, when non-nil, is an explicit per-episode edit and
	// suppresses wholesale regeneration.
	EpisodesList []models.Episode
}

// Repository owns the canonical in-memory anime list and the favorites set.
// Items are kept in insertion order; every mutation persists to the store
// and fires the registered change callback before returning.
type Repository struct {
	store *store.Store

	mu        sync.RWMutex
	items     []models.Anime
	favorites map[int64]struct{}

	onChange func()
}

// NewRepository loads the catalog and favorites from the store. Malformed
// persisted JSON is treated as absent data: the catalog starts empty.
func NewRepository(st *store.Store) *Repository {
	r := &Repository{
		store:     st,
		favorites: make(map[int64]struct{}),
	}
	r.load()
	return r
}

// SetOnChange registers the callback invoked after every persisting
// mutation. The sync coordinator uses it to keep its combined snapshot
// current within the same call.
func (r *Repository) SetOnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Repository) load() {
	if raw, ok := r.store.Get(AnimeKey); ok {
		var items []models.Anime
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			log.Printf("WARN: Malformed anime data in store: %v. Starting with an empty catalog.", err)
		} else {
			r.items = items
			log.Printf("INFO: Loaded %d anime from store", len(items))
		}
	}

	if raw, ok := r.store.Get(FavoritesKey); ok {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			log.Printf("WARN: Malformed favorites data in store: %v. Starting with no favorites.", err)
		} else {
			for _, id := range ids {
				r.favorites[id] = struct{}{}
			}
		}
	}
}

// GetAll returns a snapshot copy of the catalog in insertion order.
func (r *Repository) GetAll() []models.Anime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyAnimeList(r.items)
}

// GetByID returns the anime with the given id, or nil if absent.
func (r *Repository) GetByID(id int64) *models.Anime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.items {
		if r.items[i].ID == id {
			item := copyAnime(r.items[i])
			return &item
		}
	}
	return nil
}

// Filters narrows and orders a search. Zero values mean "not set".
type Filters struct {
	Genre     string
	Year      int
	MinRating float64
	Type      string
	Status    string
	Sort      string // rating | year | popularity | title | episodes
}

// Search returns the items matching the query and filters. A non-empty
// query is a case-insensitive substring match against title, original title
// and description. Rating/year/popularity/episodes sort descending, title
// ascending; without a sort the insertion order is preserved.
func (r *Repository) Search(query string, f Filters) []models.Anime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]models.Anime, 0)
	for _, a := range r.items {
		if q != "" {
			if !strings.Contains(strings.ToLower(a.Title), q) &&
				!strings.Contains(strings.ToLower(a.OriginalTitle), q) &&
				!strings.Contains(strings.ToLower(a.Description), q) {
				continue
			}
		}
		if f.Genre != "" && a.Genre != f.Genre {
			continue
		}
		if f.Year != 0 && a.Year != f.Year {
			continue
		}
		if f.MinRating != 0 && a.Rating < f.MinRating {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		results = append(results, copyAnime(a))
	}

	switch f.Sort {
	case "rating":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Rating > results[j].Rating })
	case "year":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Year > results[j].Year })
	case "popularity":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Popularity > results[j].Popularity })
	case "episodes":
		sort.SliceStable(results, func(i, j int) bool { return results[i].Episodes > results[j].Episodes })
	case "title":
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Title) < strings.ToLower(results[j].Title)
		})
	}

	return results
}

// Popular returns up to limit items ordered by popularity descending.
func (r *Repository) Popular(limit int) []models.Anime {
	return headSorted(r.GetAll(), limit, func(a, b models.Anime) bool { return a.Popularity > b.Popularity })
}

// Recent returns up to limit items ordered by year descending.
func (r *Repository) Recent(limit int) []models.Anime {
	return headSorted(r.GetAll(), limit, func(a, b models.Anime) bool { return a.Year > b.Year })
}

func headSorted(items []models.Anime, limit int, less func(a, b models.Anime) bool) []models.Anime {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Add creates a new catalog item. The id is derived from the creation
// timestamp (bumped while colliding), the episode list is generated from
// the episode count and title, and the full catalog is persisted. Fails
// with ErrDuplicateTitle on a case-insensitive title collision, leaving
// the catalog unchanged.
func (r *Repository) Add(data models.Anime) (models.Anime, error) {
	r.mu.Lock()

	if strings.TrimSpace(data.Title) == "" {
		r.mu.Unlock()
		return models.Anime{}, fmt.Errorf("catalog: title must not be empty")
	}
	if r.findByTitleLocked(data.Title, 0) != nil {
		r.mu.Unlock()
		return models.Anime{}, ErrDuplicateTitle
	}

	now := time.Now().UTC()
	data.ID = r.nextIDLocked(now)
	data.CreatedAt = now
	if data.Popularity == 0 {
		data.Popularity = defaultPopularity
	}
	if data.Episodes < 0 {
		data.Episodes = 0
	}
	if len(data.EpisodesList) == 0 {
		data.EpisodesList = GenerateEpisodes(data.Episodes, data.Title)
	}

	r.items = append(r.items, data)
	added := copyAnime(data)
	r.mu.Unlock()

	r.persistAnime()
	log.Printf("INFO: Added anime %d %q (%d episodes)", added.ID, added.Title, added.Episodes)
	return added, nil
}

// Update merges the patch into the item with the given id, stamps the
// update time and persists. The episode list is regenerated wholesale when
// the patch changes the title or episode count without supplying an
// explicit episode list. Fails with ErrNotFound or ErrDuplicateTitle.
func (r *Repository) Update(id int64, patch Patch) (models.Anime, error) {
	r.mu.Lock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return models.Anime{}, ErrNotFound
	}

	if patch.Title != nil && r.findByTitleLocked(*patch.Title, id) != nil {
		r.mu.Unlock()
		return models.Anime{}, ErrDuplicateTitle
	}

	item := r.items[idx]
	titleChanged := patch.Title != nil && !strings.EqualFold(*patch.Title, item.Title)
	countChanged := patch.Episodes != nil && *patch.Episodes != item.Episodes

	applyPatch(&item, patch)

	if patch.EpisodesList != nil {
		item.EpisodesList = patch.EpisodesList
	} else if titleChanged || countChanged {
		item.EpisodesList = GenerateEpisodes(item.Episodes, item.Title)
	}

	item.UpdatedAt = time.Now().UTC()
	r.items[idx] = item
	updated := copyAnime(item)
	r.mu.Unlock()

	r.persistAnime()
	log.Printf("INFO: Updated anime %d %q", updated.ID, updated.Title)
	return updated, nil
}

// Delete removes the item with the given id. Fails with ErrNotFound.
func (r *Repository) Delete(id int64) error {
	r.mu.Lock()

	idx := r.indexOfLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}

	title := r.items[idx].Title
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	delete(r.favorites, id)
	r.mu.Unlock()

	r.persistAnime()
	r.persistFavorites()
	log.Printf("INFO: Deleted anime %d %q", id, title)
	return nil
}

// ReplaceAll swaps in a whole new catalog. Only the sync coordinator calls
// this, during snapshot import.
func (r *Repository) ReplaceAll(items []models.Anime) {
	r.mu.Lock()
	r.items = copyAnimeList(items)
	r.mu.Unlock()

	r.persistAnime()
	log.Printf("INFO: Catalog replaced wholesale (%d anime)", len(items))
}

// ToggleFavorite flips the favorite state of the given id and returns the
// new state. Unknown ids can still be toggled; the favorites set is an
// independent id set.
func (r *Repository) ToggleFavorite(id int64) bool {
	r.mu.Lock()
	_, isFav := r.favorites[id]
	if isFav {
		delete(r.favorites, id)
	} else {
		r.favorites[id] = struct{}{}
	}
	nowFav := !isFav
	r.mu.Unlock()

	r.persistFavorites()
	return nowFav
}

// IsFavorite reports whether the id is currently favorited.
func (r *Repository) IsFavorite(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.favorites[id]
	return ok
}

// GetFavorites returns the catalog items whose ids are in the favorites
// set, in catalog order.
func (r *Repository) GetFavorites() []models.Anime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Anime, 0, len(r.favorites))
	for _, a := range r.items {
		if _, ok := r.favorites[a.ID]; ok {
			out = append(out, copyAnime(a))
		}
	}
	return out
}

// Count returns the number of catalog items.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// GenerateEpisodes builds the deterministic placeholder episode list for an
// anime: "{title} - Episode {n}", fixed duration, placeholder thumbnail and
// the default video URL.
func GenerateEpisodes(count int, title string) []models.Episode {
	episodes := make([]models.Episode, 0, count)
	for i := 1; i <= count; i++ {
		episodes = append(episodes, models.Episode{
			Number:      i,
			Title:       fmt.Sprintf("%s - Episode %d", title, i),
			Duration:    defaultEpisodeDuration,
			Thumbnail:   fmt.Sprintf("https://via.placeholder.com/300x169/333/fff?text=Episode+%d", i),
			Description: fmt.Sprintf("Episode %d of %q.", i, title),
			VideoURL:    defaultEpisodeVideoURL,
		})
	}
	return episodes
}

// --- Internal helpers ---

func (r *Repository) indexOfLocked(id int64) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

// findByTitleLocked returns the item whose title equals the given one
// case-insensitively, ignoring excludeID (0 to exclude nothing).
func (r *Repository) findByTitleLocked(title string, excludeID int64) *models.Anime {
	for i := range r.items {
		if r.items[i].ID != excludeID && strings.EqualFold(r.items[i].Title, title) {
			return &r.items[i]
		}
	}
	return nil
}

// nextIDLocked derives an id from the wall clock in millis, bumping past
// collisions so two same-millisecond adds stay unique.
func (r *Repository) nextIDLocked(now time.Time) int64 {
	id := now.UnixMilli()
	for r.indexOfLocked(id) >= 0 {
		id++
	}
	return id
}

func (r *Repository) persistAnime() {
	r.mu.RLock()
	data, err := json.Marshal(r.items)
	fn := r.onChange
	r.mu.RUnlock()
	if err != nil {
		log.Printf("ERROR: Failed to marshal catalog: %v", err)
		return
	}
	if err := r.store.Set(AnimeKey, string(data)); err != nil {
		log.Printf("ERROR: Failed to persist catalog: %v", err)
	}
	if fn != nil {
		fn()
	}
}

func (r *Repository) persistFavorites() {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.favorites))
	for id := range r.favorites {
		ids = append(ids, id)
	}
	fn := r.onChange
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := json.Marshal(ids)
	if err != nil {
		log.Printf("ERROR: Failed to marshal favorites: %v", err)
		return
	}
	if err := r.store.Set(FavoritesKey, string(data)); err != nil {
		log.Printf("ERROR: Failed to persist favorites: %v", err)
	}
	if fn != nil {
		fn()
	}
}

func applyPatch(item *models.Anime, p Patch) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.OriginalTitle != nil {
		item.OriginalTitle = *p.OriginalTitle
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Genre != nil {
		item.Genre = *p.Genre
	}
	if p.Type != nil {
		item.Type = *p.Type
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.Studio != nil {
		item.Studio = *p.Studio
	}
	if p.Year != nil {
		item.Year = *p.Year
	}
	if p.Rating != nil {
		item.Rating = *p.Rating
	}
	if p.Episodes != nil {
		item.Episodes = *p.Episodes
	}
	if p.Poster != nil {
		item.Poster = *p.Poster
	}
	if p.VideoURL != nil {
		item.VideoURL = *p.VideoURL
	}
	if p.Popularity != nil {
		item.Popularity = *p.Popularity
	}
	if p.Votes != nil {
		item.Votes = *p.Votes
	}
}

func copyAnime(a models.Anime) models.Anime {
	if a.EpisodesList != nil {
		eps := make([]models.Episode, len(a.EpisodesList))
		copy(eps, a.EpisodesList)
		a.EpisodesList = eps
	}
	return a
}

func copyAnimeList(items []models.Anime) []models.Anime {
	out := make([]models.Anime, len(items))
	for i, a := range items {
		out[i] = copyAnime(a)
	}
	return out
}
