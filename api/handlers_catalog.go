package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"animevault/catalog"
	"animevault/models"
	"animevault/utils"
)

// CreateAnimeRequest defines the body for adding a catalog entry.
type CreateAnimeRequest struct {
	Title         string  `json:"title" binding:"required"`
	OriginalTitle string  `json:"originalTitle"`
	Description   string  `json:"description"`
	Genre         string  `json:"genre"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	Studio        string  `json:"studio"`
	Year          int     `json:"year"`
	Rating        float64 `json:"rating"`
	Episodes      int     `json:"episodes"`
	Poster        string  `json:"poster"`
	VideoURL      string  `json:"videoUrl"`
	Popularity    int     `json:"popularity"`
}

// UpdateAnimeRequest defines the body for editing a catalog entry. Absent
// fields are left unchanged.
type UpdateAnimeRequest struct {
	Title         *string          `json:"title"`
	OriginalTitle *string          `json:"originalTitle"`
	Description   *string          `json:"description"`
	Genre         *string          `json:"genre"`
	Type          *string          `json:"type"`
	Status        *string          `json:"status"`
	Studio        *string          `json:"studio"`
	Year          *int             `json:"year"`
	Rating        *float64         `json:"rating"`
	Episodes      *int             `json:"episodes"`
	Poster        *string          `json:"poster"`
	VideoURL      *string          `json:"videoUrl"`
	Popularity    *int             `json:"popularity"`
	Votes         *int             `json:"votes"`
	EpisodesList  []models.Episode `json:"episodesList"`
}

// FavoriteResponse reports the new favorite state after a toggle.
type FavoriteResponse struct {
	ID       int64 `json:"id"`
	Favorite bool  `json:"favorite"`
}

// SearchAnimeHandler lists catalog entries with optional filters.
// @Summary      Search the Catalog
// @Description  Returns catalog entries matching the query and filters. Without parameters the whole catalog comes back in insertion order.
// @Description  `q` is a case-insensitive substring match against the title, original title and description. `sort` accepts rating, year, popularity, episodes (descending) or title (ascending).
// @Tags         Anime
// @Produce      json
// @Param        q           query  string  false  "Free-text query"
// @Param        genre       query  string  false  "Exact genre"
// @Param        year        query  int     false  "Exact release year"
// @Param        min_rating  query  number  false  "Minimum rating"
// @Param        type        query  string  false  "Exact type (TV, Movie, ...)"
// @Param        status      query  string  false  "Exact status"
// @Param        sort        query  string  false  "rating | year | popularity | episodes | title"
// @Success      200  {array}  models.Anime
// @Failure      400  {object}  utils.APIError "A numeric filter could not be parsed."
// @Router       /anime [get]
func SearchAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	filters := catalog.Filters{
		Genre:  c.Query("genre"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	}

	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			utils.GinBadRequest(c, fmt.Sprintf("Invalid year: %q", raw))
			return
		}
		filters.Year = year
	}
	if raw := c.Query("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.GinBadRequest(c, fmt.Sprintf("Invalid min_rating: %q", raw))
			return
		}
		filters.MinRating = rating
	}

	c.JSON(http.StatusOK, cat.Search(c.Query("q"), filters))
}

// PopularAnimeHandler lists the most popular entries.
// @Summary      Most Popular Anime
// @Tags         Anime
// @Produce      json
// @Param        limit  query  int  false  "Maximum entries to return (default 10)"
// @Success      200  {array}  models.Anime
// @Router       /anime/popular [get]
func PopularAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	c.JSON(http.StatusOK, cat.Popular(limitParam(c, 10)))
}

// RecentAnimeHandler lists the newest entries by release year.
// @Summary      Recent Anime
// @Tags         Anime
// @Produce      json
// @Param        limit  query  int  false  "Maximum entries to return (default 10)"
// @Success      200  {array}  models.Anime
// @Router       /anime/recent [get]
func RecentAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	c.JSON(http.StatusOK, cat.Recent(limitParam(c, 10)))
}

// GetAnimeHandler returns a single catalog entry.
// @Summary      Get an Anime by ID
// @Tags         Anime
// @Produce      json
// @Param        id  path  int  true  "Anime ID"
// @Success      200  {object}  models.Anime
// @Failure      400  {object}  utils.APIError "Non-numeric id."
// @Failure      404  {object}  utils.APIError "No entry with this id."
// @Router       /anime/{id} [get]
func GetAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	anime := cat.GetByID(id)
	if anime == nil {
		utils.GinNotFound(c, "Anime not found.")
		return
	}
	c.JSON(http.StatusOK, anime)
}

// CreateAnimeHandler adds a catalog entry.
// @Summary      Add an Anime
// @Description  Adds a catalog entry. The server assigns the id, stamps the creation time and generates the placeholder episode list from the episode count. Requires administrator level 2.
// @Tags         Anime
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        anime body CreateAnimeRequest true "New entry. Only 'title' is required."
// @Success      201  {object}  models.Anime
// @Failure      400  {object}  utils.APIError "Malformed body or empty title."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "Administrator level 2 required."
// @Failure      409  {object}  utils.APIError "An entry with this title already exists."
// @Router       /anime [post]
func CreateAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	var req CreateAnimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	added, err := cat.Add(models.Anime{
		Title:         req.Title,
		OriginalTitle: req.OriginalTitle,
		Description:   req.Description,
		Genre:         req.Genre,
		Type:          req.Type,
		Status:        req.Status,
		Studio:        req.Studio,
		Year:          req.Year,
		Rating:        req.Rating,
		Episodes:      req.Episodes,
		Poster:        req.Poster,
		VideoURL:      req.VideoURL,
		Popularity:    req.Popularity,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicateTitle) {
			utils.GinConflict(c, "An anime with this title already exists.")
			return
		}
		utils.GinBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusCreated, added)
}

// UpdateAnimeHandler edits a catalog entry.
// @Summary      Update an Anime
// @Description  Merges the given fields into the entry. Changing the title or episode count regenerates the episode list unless an explicit 'episodesList' is supplied. Requires administrator level 2.
// @Tags         Anime
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                 true  "Anime ID"
// @Param        anime body  UpdateAnimeRequest  true  "Fields to change"
// @Success      200  {object}  models.Anime
// @Failure      400  {object}  utils.APIError "Non-numeric id or malformed body."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "Administrator level 2 required."
// @Failure      404  {object}  utils.APIError "No entry with this id."
// @Failure      409  {object}  utils.APIError "The new title collides with another entry."
// @Router       /anime/{id} [put]
func UpdateAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req UpdateAnimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := cat.Update(id, catalog.Patch{
		Title:         req.Title,
		OriginalTitle: req.OriginalTitle,
		Description:   req.Description,
		Genre:         req.Genre,
		Type:          req.Type,
		Status:        req.Status,
		Studio:        req.Studio,
		Year:          req.Year,
		Rating:        req.Rating,
		Episodes:      req.Episodes,
		Poster:        req.Poster,
		VideoURL:      req.VideoURL,
		Popularity:    req.Popularity,
		Votes:         req.Votes,
		EpisodesList:  req.EpisodesList,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			utils.GinNotFound(c, "Anime not found.")
		case errors.Is(err, catalog.ErrDuplicateTitle):
			utils.GinConflict(c, "An anime with this title already exists.")
		default:
			utils.GinBadRequest(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteAnimeHandler removes a catalog entry.
// @Summary      Delete an Anime
// @Description  Removes the entry and drops it from the favorites set. Requires administrator level 3.
// @Tags         Anime
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Anime ID"
// @Success      200  {object}  utils.APIMessage
// @Failure      400  {object}  utils.APIError "Non-numeric id."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "Administrator level 3 required."
// @Failure      404  {object}  utils.APIError "No entry with this id."
// @Router       /anime/{id} [delete]
func DeleteAnimeHandler(c *gin.Context, cat *catalog.Repository) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := cat.Delete(id); err != nil {
		utils.GinNotFound(c, "Anime not found.")
		return
	}
	c.JSON(http.StatusOK, utils.APIMessage{Message: "Anime deleted."})
}

// ListFavoritesHandler returns the favorited catalog entries.
// @Summary      List Favorites
// @Tags         Favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Anime
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Router       /favorites [get]
func ListFavoritesHandler(c *gin.Context, cat *catalog.Repository) {
	c.JSON(http.StatusOK, cat.GetFavorites())
}

// FavoriteStatusHandler reports whether an entry is favorited.
// @Summary      Get Favorite State
// @Tags         Favorites
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Anime ID"
// @Success      200  {object}  FavoriteResponse
// @Failure      400  {object}  utils.APIError "Non-numeric id."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      404  {object}  utils.APIError "No entry with this id."
// @Router       /favorites/{id} [get]
func FavoriteStatusHandler(c *gin.Context, cat *catalog.Repository) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if cat.GetByID(id) == nil {
		utils.GinNotFound(c, "Anime not found.")
		return
	}
	c.JSON(http.StatusOK, FavoriteResponse{ID: id, Favorite: cat.IsFavorite(id)})
}

// ToggleFavoriteHandler flips the favorite state of an entry.
// @Summary      Toggle a Favorite
// @Tags         Favorites
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Anime ID"
// @Success      200  {object}  FavoriteResponse
// @Failure      400  {object}  utils.APIError "Non-numeric id."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      404  {object}  utils.APIError "No entry with this id."
// @Router       /favorites/{id} [post]
func ToggleFavoriteHandler(c *gin.Context, cat *catalog.Repository) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if cat.GetByID(id) == nil {
		utils.GinNotFound(c, "Anime not found.")
		return
	}
	c.JSON(http.StatusOK, FavoriteResponse{ID: id, Favorite: cat.ToggleFavorite(id)})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid id: %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func limitParam(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
