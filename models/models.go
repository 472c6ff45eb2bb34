package models

import (
	"time"
)

// Anime is one catalog entry with its metadata and episode list.
type Anime struct {
	ID            int64     `json:"id"`             // Unique, derived from creation time (millis)
	Title         string    `json:"title"`          // Unique case-insensitively within the catalog
	OriginalTitle string    `json:"originalTitle,omitempty"`
	Description   string    `json:"description"`
	Genre         string    `json:"genre"`
	Type          string    `json:"type,omitempty"`   // TV, Movie, OVA, ...
	Status        string    `json:"status,omitempty"` // Ongoing, Completed, ...
	Studio        string    `json:"studio,omitempty"`
	Year          int       `json:"year"`
	Rating        float64   `json:"rating"`   // 0-10
	Episodes      int       `json:"episodes"` // Episode count, >= 0
	Poster        string    `json:"poster,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"` // Default video URL
	EpisodesList  []Episode `json:"episodesList"`
	Popularity    int       `json:"popularity"`
	Votes         int       `json:"votes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// Episode belongs exclusively to its Anime; it has no independent identity.
// Number is 1-based and matches the episode's position in the list.
type Episode struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"videoUrl"`
}

// NotificationPrefs is the per-account notification toggle bundle.
type NotificationPrefs struct {
	Email      bool `json:"email"`
	Push       bool `json:"push"`
	Newsletter bool `json:"newsletter"`
}

// Preferences is the per-account preference bundle.
type Preferences struct {
	Language      string            `json:"language"`
	Theme         string            `json:"theme"`
	Notifications NotificationPrefs `json:"notifications"`
}

// Account is a user record. Passwords are stored in plaintext: the platform
// is a local demo and treats credential hardening as out of scope.
type Account struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"` // Unique
	Email        string      `json:"email"`    // Unique, pattern-validated
	Password     string      `json:"password"`
	DisplayName  string      `json:"displayName"`
	Avatar       string      `json:"avatar,omitempty"`
	Bio          string      `json:"bio,omitempty"`
	JoinDate     string      `json:"joinDate"` // YYYY-MM-DD
	IsAdmin      bool        `json:"isAdmin"`
	AdminLevel   int         `json:"adminLevel"` // 0 regular, 1-5 increasing privilege
	Protected    bool        `json:"protected,omitempty"`
	Preferences  Preferences `json:"preferences"`
	LastModified time.Time   `json:"lastModified,omitempty"` // Drives the sync merge rule
}

// Sanitized returns a copy safe to hand to API responses: the password is
// blanked. Persisted copies keep the password so logins survive reloads.
func (a Account) Sanitized() Account {
	a.Password = ""
	return a
}

// Session is the persisted record of the currently authenticated account.
// The account is a snapshot copy, not a live reference into the repository.
type Session struct {
	Account     Account `json:"account"`
	LoginTimeMs int64   `json:"loginTimeMs"`
}

// SyncSnapshot is a timestamped projection of the catalog plus the
// non-protected accounts. It is derived, disposable state owned by the
// sync coordinator and is never a source of truth itself.
type SyncSnapshot struct {
	Anime     []Anime   `json:"anime"`
	Users     []Account `json:"users"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Origin    string    `json:"origin,omitempty"` // Coordinator instance that wrote it
}

// SyncMarker records when the last successful sync (persist or import)
// happened.
type SyncMarker struct {
	LastSync time.Time `json:"lastSync"`
	Version  string    `json:"version"`
}

// DefaultPreferences is the preference bundle new accounts start with.
func DefaultPreferences() Preferences {
	return Preferences{
		Language: "en",
		Theme:    "dark",
		Notifications: NotificationPrefs{
			Email:      true,
			Push:       true,
			Newsletter: false,
		},
	}
}
