package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	"animevault/accounts"
	"animevault/api"
	"animevault/catalog"
	"animevault/config"
	_ "animevault/docs" // Import for side effect: registers swagger spec via init()
	"animevault/session"
	"animevault/store"
	"animevault/sync"
	"animevault/utils"
)

// @title           AnimeVault API
// @version         1.0

// @description     ## AnimeVault API
// @description
// @description     **Purpose:** A self-hosted catalog, account and sync server for the AnimeVault platform. It keeps everything in one JSON-backed key/value store and synchronizes catalog snapshots between instances via export files and share links. **It is NOT intended for production use.**
// @description
// @description     **High-Level Overview:**
// @description     AnimeVault allows users to:
// @description     *   Register and log in to manage their accounts.
// @description     *   Browse and search the anime catalog, with genre/year/rating filters and several sort orders.
// @description     *   Keep a personal list of favorites.
// @description     *   Administer the catalog and user accounts, gated by a tiered admin level (1-5).
// @description     *   Export the whole catalog as a backup file, import one, or pass data between instances with a share link.
// @description
// @description     **Admin levels:**
// @description     *   Level 1: view the user list.
// @description     *   Level 2: add and edit anime.
// @description     *   Level 3: delete anime and user accounts.
// @description     *   Level 4: create admin accounts below their own level.
// @description     *   Level 5: full control.

// @license.name  MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.jwt BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("CRITICAL: Failed to load configuration: %v", err)
	}

	// --- Storage and repositories ---
	st := store.New(store.Options{
		FilePath:     cfg.StoreFilePath,
		SaveInterval: cfg.SaveInterval,
		EnableBackup: cfg.EnableBackup,
		MaxBytes:     cfg.MaxStoreBytes,
	})
	cat := catalog.NewRepository(st)
	acc := accounts.NewRepository(st, cfg.MinPasswordLength)
	sess := session.NewManager(st, cfg.SessionTimeout)

	// The coordinator watches both repositories and the store itself, so it
	// must be built after all three.
	coord := sync.NewCoordinator(st, cat, acc, sess, sync.Options{
		Debounce:      cfg.SyncDebounce,
		CheckInterval: cfg.SyncInterval,
		GraceDelay:    cfg.SyncGraceDelay,
	})
	coord.Start()

	// --- Gin Router Setup ---
	// Consider gin.ReleaseMode for production, gin.DebugMode for development
	// gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// --- Public Routes (No Auth Required) ---
	authGroup := router.Group("/auth")
	{
		// POST /auth/signup
		authGroup.POST("/signup", func(c *gin.Context) {
			api.SignupHandler(c, acc, sess, cfg)
		})
		// POST /auth/login
		authGroup.POST("/login", func(c *gin.Context) {
			api.LoginHandler(c, acc, sess, cfg)
		})
	}

	// Catalog reads are public, matching the original browse-first flow.
	router.GET("/anime", func(c *gin.Context) {
		api.SearchAnimeHandler(c, cat)
	})
	router.GET("/anime/popular", func(c *gin.Context) {
		api.PopularAnimeHandler(c, cat)
	})
	router.GET("/anime/recent", func(c *gin.Context) {
		api.RecentAnimeHandler(c, cat)
	})
	router.GET("/anime/:id", func(c *gin.Context) {
		api.GetAnimeHandler(c, cat)
	})

	// Share links must work for fresh visitors, so consume is public too.
	router.GET("/sync/consume", func(c *gin.Context) {
		api.SyncConsumeHandler(c, coord)
	})

	// --- Protected Routes (Auth Required) ---
	authMiddleware := utils.AuthMiddleware(cfg)

	// Logout/me/refresh are under /auth conceptually, but need the middleware
	router.POST("/auth/logout", authMiddleware, func(c *gin.Context) {
		api.LogoutHandler(c, sess)
	})
	router.GET("/auth/me", authMiddleware, func(c *gin.Context) {
		api.MeHandler(c, acc)
	})
	router.POST("/auth/refresh", authMiddleware, func(c *gin.Context) {
		api.RefreshHandler(c, sess)
	})

	// Catalog writes, gated by admin level
	animeAdmin := router.Group("/anime")
	animeAdmin.Use(authMiddleware)
	{
		// POST /anime
		animeAdmin.POST("", utils.AdminMiddleware(2), func(c *gin.Context) {
			api.CreateAnimeHandler(c, cat)
		})
		// PUT /anime/{id}
		animeAdmin.PUT("/:id", utils.AdminMiddleware(2), func(c *gin.Context) {
			api.UpdateAnimeHandler(c, cat)
		})
		// DELETE /anime/{id}
		animeAdmin.DELETE("/:id", utils.AdminMiddleware(3), func(c *gin.Context) {
			api.DeleteAnimeHandler(c, cat)
		})
	}

	// Favorites
	favGroup := router.Group("/favorites")
	favGroup.Use(authMiddleware)
	{
		// GET /favorites
		favGroup.GET("", func(c *gin.Context) {
			api.ListFavoritesHandler(c, cat)
		})
		// GET /favorites/{id}
		favGroup.GET("/:id", func(c *gin.Context) {
			api.FavoriteStatusHandler(c, cat)
		})
		// POST /favorites/{id} (toggle)
		favGroup.POST("/:id", func(c *gin.Context) {
			api.ToggleFavoriteHandler(c, cat)
		})
	}

	// User administration
	userGroup := router.Group("/users")
	userGroup.Use(authMiddleware)
	{
		// GET /users
		userGroup.GET("", utils.AdminMiddleware(1), func(c *gin.Context) {
			api.ListUsersHandler(c, acc)
		})
		// POST /users
		userGroup.POST("", utils.AdminMiddleware(4), func(c *gin.Context) {
			api.CreateUserHandler(c, acc)
		})
		// PUT /users/me
		userGroup.PUT("/me", func(c *gin.Context) {
			api.UpdateMeHandler(c, acc, sess)
		})
		// PUT /users/me/password
		userGroup.PUT("/me/password", func(c *gin.Context) {
			api.ChangeMyPasswordHandler(c, acc)
		})
		// DELETE /users/{id}
		userGroup.DELETE("/:id", utils.AdminMiddleware(3), func(c *gin.Context) {
			api.DeleteUserHandler(c, acc)
		})
	}

	// Sync
	syncGroup := router.Group("/sync")
	syncGroup.Use(authMiddleware)
	{
		syncGroup.GET("/status", func(c *gin.Context) {
			api.SyncStatusHandler(c, coord)
		})
		syncGroup.POST("/check", func(c *gin.Context) {
			api.SyncCheckHandler(c, coord)
		})
		syncGroup.GET("/export", func(c *gin.Context) {
			api.SyncExportHandler(c, coord)
		})
		syncGroup.POST("/import", func(c *gin.Context) {
			api.SyncImportHandler(c, coord)
		})
		syncGroup.GET("/link", func(c *gin.Context) {
			api.SyncLinkHandler(c, coord)
		})
	}

	// --- Swagger Route ---
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// --- Start Server ---
	listenAddr := fmt.Sprintf("%s:%s", cfg.ListenAddress, cfg.ListenPort)
	log.Printf("INFO: Starting server on %s", listenAddr)

	server := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	// Flush the debounced snapshot and the store itself on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Printf("INFO: Received signal %s, shutting down", sig)
		coord.Stop()
		if err := st.Close(); err != nil {
			log.Printf("ERROR: Failed to flush store on shutdown: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("CRITICAL: Server failed to start: %v", err)
	}
}
