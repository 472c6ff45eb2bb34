package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"animevault/accounts"
	"animevault/config"
	"animevault/models"
	"animevault/session"
	"animevault/utils"
)

// SignupRequest defines the body for account registration.
type SignupRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

// LoginRequest defines the body for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token   string         `json:"token"`
	Account models.Account `json:"account"`
}

// SignupHandler registers a new account and logs it in immediately.
// @Summary      Register a New Account
// @Description  Creates a user account and returns a JWT plus the new account, so the client is logged in straight away.
// @Description  Email must look like an email address and must not already be registered; the same goes for the username. The password must meet the configured minimum length.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup body SignupRequest true "New account details. 'displayName' defaults to the username."
// @Success      201  {object}  AuthResponse "Account created. The response carries the token and the account without its password."
// @Failure      400  {object}  utils.APIError "Malformed body, invalid email, or a password below the minimum length."
// @Failure      409  {object}  utils.APIError "The email or username is already taken."
// @Failure      500  {object}  utils.APIError "Token generation failed."
// @Router       /auth/signup [post]
func SignupHandler(c *gin.Context, acc *accounts.Repository, sess *session.Manager, cfg *config.Config) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	account, err := acc.Create(req.Username, req.Email, req.Password, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidEmail):
			utils.GinBadRequest(c, "Email address is not valid.")
		case errors.Is(err, accounts.ErrWeakPassword):
			utils.GinBadRequest(c, fmt.Sprintf("Password must be at least %d characters.", cfg.MinPasswordLength))
		case errors.Is(err, accounts.ErrDuplicateEmail):
			utils.GinConflict(c, "An account with this email already exists.")
		case errors.Is(err, accounts.ErrDuplicateUsername):
			utils.GinConflict(c, "This username is already taken.")
		default:
			utils.GinBadRequest(c, err.Error())
		}
		return
	}

	sess.Login(account)
	token, err := utils.GenerateJWT(&account, cfg)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to generate token.")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, Account: account.Sanitized()})
}

// LoginHandler authenticates an account by email and password.
// @Summary      Log In
// @Description  Verifies credentials, starts the session and returns a JWT plus the account.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login body LoginRequest true "Login credentials"
// @Success      200  {object}  AuthResponse
// @Failure      400  {object}  utils.APIError "Malformed body."
// @Failure      401  {object}  utils.APIError "Unknown email or wrong password."
// @Failure      500  {object}  utils.APIError "Token generation failed."
// @Router       /auth/login [post]
func LoginHandler(c *gin.Context, acc *accounts.Repository, sess *session.Manager, cfg *config.Config) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	account, err := acc.Authenticate(req.Email, req.Password)
	if err != nil {
		utils.GinUnauthorized(c, "Invalid email or password.")
		return
	}

	sess.Login(account)
	token, err := utils.GenerateJWT(&account, cfg)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to generate token.")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, Account: account.Sanitized()})
}

// LogoutHandler ends the active session.
// @Summary      Log Out
// @Description  Clears the stored session. The JWT itself stays valid until it expires; clients should discard it.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  utils.APIMessage
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Router       /auth/logout [post]
func LogoutHandler(c *gin.Context, sess *session.Manager) {
	sess.Logout()
	c.JSON(http.StatusOK, utils.APIMessage{Message: "Logged out."})
}

// MeHandler returns the authenticated user's account.
// @Summary      Get Your Own Account
// @Description  Looks up the account behind the presented token. The password field is blanked.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Account
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      404  {object}  utils.APIError "The account behind the token no longer exists."
// @Router       /auth/me [get]
func MeHandler(c *gin.Context, acc *accounts.Repository) {
	userID := utils.UserIDFromContext(c)
	if userID == 0 {
		utils.GinInternalServerError(c, "User ID not found in context. Middleware issue?")
		return
	}

	account := acc.GetByID(userID)
	if account == nil {
		utils.GinNotFound(c, "Authenticated account not found.")
		return
	}
	c.JSON(http.StatusOK, account.Sanitized())
}

// RefreshHandler pushes the session expiry window forward.
// @Summary      Refresh the Session
// @Description  Rewrites the session's login timestamp so the inactivity timeout starts over. Fails when the session has already expired.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  utils.APIMessage
// @Failure      401  {object}  utils.APIError "No active session to refresh."
// @Router       /auth/refresh [post]
func RefreshHandler(c *gin.Context, sess *session.Manager) {
	if !sess.Refresh() {
		utils.GinUnauthorized(c, "No active session.")
		return
	}
	c.JSON(http.StatusOK, utils.APIMessage{Message: "Session refreshed."})
}
