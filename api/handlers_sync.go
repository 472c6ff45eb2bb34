package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"animevault/sync"
	"animevault/utils"
)

// SyncStatusResponse describes the coordinator's current state.
type SyncStatusResponse struct {
	State    string     `json:"state"`
	Origin   string     `json:"origin"`
	LastSync *time.Time `json:"lastSync,omitempty"`
	Version  string     `json:"version,omitempty"`
}

// SyncCheckResponse reports the outcome of an on-demand check.
type SyncCheckResponse struct {
	Imported   bool `json:"imported"`
	AnimeCount int  `json:"animeCount,omitempty"`
	UsersCount int  `json:"usersCount,omitempty"`
}

// ShareLinkResponse carries a generated share link.
type ShareLinkResponse struct {
	URL string `json:"url"`
}

// SyncStatusHandler reports the coordinator state and last sync marker.
// @Summary      Sync Status
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SyncStatusResponse
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Router       /sync/status [get]
func SyncStatusHandler(c *gin.Context, coord *sync.Coordinator) {
	resp := SyncStatusResponse{
		State:  coord.CurrentState().String(),
		Origin: coord.Origin(),
	}
	if marker := coord.LastSync(); marker != nil {
		resp.LastSync = &marker.LastSync
		resp.Version = marker.Version
	}
	c.JSON(http.StatusOK, resp)
}

// SyncCheckHandler runs an on-demand check for a newer snapshot. This is
// the API analog of returning to a stale page: the client asks whether
// someone else has written fresher data since it last looked.
// @Summary      Check for Newer Data
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SyncCheckResponse
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Router       /sync/check [post]
func SyncCheckHandler(c *gin.Context, coord *sync.Coordinator) {
	result := coord.CheckForNewer()
	if result == nil {
		c.JSON(http.StatusOK, SyncCheckResponse{Imported: false})
		return
	}
	c.JSON(http.StatusOK, SyncCheckResponse{
		Imported:   true,
		AnimeCount: result.AnimeCount,
		UsersCount: result.UsersCount,
	})
}

// SyncExportHandler downloads a backup of the catalog and accounts.
// @Summary      Export a Backup
// @Description  Returns a pretty-printed JSON backup of the whole catalog and the non-protected accounts as a file download.
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Success      200  {string}  string  "The backup document, served as an attachment."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      500  {object}  utils.APIError "Encoding the backup failed."
// @Router       /sync/export [get]
func SyncExportHandler(c *gin.Context, coord *sync.Coordinator) {
	result, err := coord.ExportFile()
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Export failed: %v", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, "application/json", result.Data)
}

// SyncImportHandler imports an uploaded backup file.
// @Summary      Import a Backup
// @Description  Accepts a backup document as a multipart file upload under the 'file' field and imports it: the catalog is replaced wholesale, accounts merge newest-wins. A rejected file changes nothing.
// @Tags         Sync
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Backup JSON file"
// @Success      200  {object}  SyncCheckResponse
// @Failure      400  {object}  utils.APIError "Missing file or unrecognized backup format."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      409  {object}  utils.APIError "Another sync operation is in flight."
// @Router       /sync/import [post]
func SyncImportHandler(c *gin.Context, coord *sync.Coordinator) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.GinBadRequest(c, "A backup file is required under the 'file' field.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Could not read uploaded file: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Could not read uploaded file: %v", err))
		return
	}

	result, err := coord.ImportFromFile(data)
	if err != nil {
		if errors.Is(err, sync.ErrInvalidFormat) {
			utils.GinBadRequest(c, "The uploaded file is not a recognized backup.")
			return
		}
		utils.GinConflict(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, SyncCheckResponse{
		Imported:   true,
		AnimeCount: result.AnimeCount,
		UsersCount: result.UsersCount,
	})
}

// SyncLinkHandler builds a shareable sync link.
// @Summary      Build a Share Link
// @Description  Encodes the current snapshot into a link that another instance can open to receive the data. The default base URL points at this server's consume endpoint.
// @Tags         Sync
// @Produce      json
// @Security     BearerAuth
// @Param        base  query  string  false  "Base URL for the link (defaults to this server's /sync/consume)"
// @Success      200  {object}  ShareLinkResponse
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      500  {object}  utils.APIError "Encoding the snapshot failed."
// @Router       /sync/link [get]
func SyncLinkHandler(c *gin.Context, coord *sync.Coordinator) {
	base := c.Query("base")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/sync/consume", scheme, c.Request.Host)
	}

	link, err := coord.BuildShareLink(base)
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to build share link: %v", err))
		return
	}
	c.JSON(http.StatusOK, ShareLinkResponse{URL: link})
}

// SyncConsumeHandler imports the payload of a share link and redirects to
// a clean URL, stripping the parameter the way the original page rewrote
// its address bar. Broken payloads are swallowed: the redirect happens
// either way.
// @Summary      Consume a Share Link
// @Tags         Sync
// @Produce      json
// @Param        sync      query  string  true   "Base64 share payload"
// @Param        redirect  query  string  false  "Where to land after consuming (default /)"
// @Success      302  {string}  string  "Redirects to the stripped URL."
// @Router       /sync/consume [get]
func SyncConsumeHandler(c *gin.Context, coord *sync.Coordinator) {
	if param := c.Query("sync"); param != "" {
		coord.ConsumeShareLink(param)
	}

	target := c.Query("redirect")
	if target == "" || target[0] != '/' {
		target = "/"
	}
	c.Redirect(http.StatusFound, target)
}
