package utils

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"animevault/config"
	"animevault/models"
)

// Context keys set by the auth middleware.
const (
	ContextUserID     = "userID"
	ContextUserEmail  = "userEmail"
	ContextAdminLevel = "adminLevel"
)

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	AdminLevel int    `json:"admin_level"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a new JWT token for a given account.
func GenerateJWT(account *models.Account, cfg *config.Config) (string, error) {
	if cfg.JwtSecret == "" {
		log.Println("CRITICAL: JWT Secret is empty. Cannot generate token.")
		return "", errors.New("JWT secret is not configured")
	}

	adminLevel := 0
	if account.IsAdmin {
		adminLevel = account.AdminLevel
	}

	expirationTime := time.Now().Add(cfg.TokenLifetime)
	claims := &Claims{
		UserID:     account.ID,
		Email:      account.Email,
		AdminLevel: adminLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "animevault",
			Subject:   fmt.Sprintf("%d", account.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JwtSecret))
	if err != nil {
		log.Printf("ERROR: Failed to sign JWT token: %v", err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT parses and validates a JWT token string.
// Returns the claims if valid, otherwise returns an error.
func ValidateJWT(tokenString string, cfg *config.Config) (*Claims, error) {
	if cfg.JwtSecret == "" {
		log.Println("CRITICAL: JWT Secret is empty. Cannot validate token.")
		return nil, errors.New("JWT secret is not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Printf("INFO: JWT validation failed: Token expired")
			return nil, errors.New("token has expired")
		}
		log.Printf("WARN: JWT validation failed: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		log.Printf("WARN: JWT validation failed: Token marked as invalid")
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// AuthMiddleware creates a Gin middleware function to protect routes.
// It validates the JWT token from the Authorization header.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			GinUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			GinError(c, http.StatusBadRequest, "Authorization header format must be Bearer {token}")
			return
		}

		tokenString := parts[1]
		claims, err := ValidateJWT(tokenString, cfg)
		if err != nil {
			GinUnauthorized(c, fmt.Sprintf("Invalid token: %v", err))
			return
		}

		// Store identity in context for handlers to use
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextAdminLevel, claims.AdminLevel)

		c.Next()
	}
}

// AdminMiddleware gates a route behind a minimum admin level. Must run
// after AuthMiddleware, which stores the level from the token claims.
func AdminMiddleware(minLevel int) gin.HandlerFunc {
	return func(c *gin.Context) {
		level := c.GetInt(ContextAdminLevel)
		if level < minLevel {
			GinForbidden(c, fmt.Sprintf("Administrator level %d required", minLevel))
			return
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user's id set by
// AuthMiddleware, or 0 when absent.
func UserIDFromContext(c *gin.Context) int64 {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
