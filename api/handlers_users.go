package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"animevault/accounts"
	"animevault/models"
	"animevault/session"
	"animevault/utils"
)

// CreateUserRequest defines the body for creating an account through the
// administration surface, including admin assignment.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
	AdminLevel  int    `json:"adminLevel"`
}

// UpdateMeRequest defines the profile fields a user may change on their own
// account. Admin status is not among them.
type UpdateMeRequest struct {
	Username    *string             `json:"username"`
	Email       *string             `json:"email"`
	DisplayName *string             `json:"displayName"`
	Avatar      *string             `json:"avatar"`
	Bio         *string             `json:"bio"`
	Preferences *models.Preferences `json:"preferences"`
}

// ChangePasswordRequest defines the body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ListUsersHandler returns every account with passwords blanked.
// @Summary      List Accounts
// @Description  Returns all accounts, including the protected administrator, with password fields blanked. Requires administrator level 1.
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Account
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "Administrator level 1 required."
// @Router       /users [get]
func ListUsersHandler(c *gin.Context, acc *accounts.Repository) {
	all := acc.All()
	sanitized := make([]models.Account, len(all))
	for i, u := range all {
		sanitized[i] = u.Sanitized()
	}
	c.JSON(http.StatusOK, sanitized)
}

// CreateUserHandler creates an account, optionally with admin rights.
// @Summary      Create an Account (Admin)
// @Description  Creates an account through the administration surface. Unlike signup this may assign admin status, but only at a level below the caller's own.
// @Description  Requires administrator level 4.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user body CreateUserRequest true "Account to create"
// @Success      201  {object}  models.Account
// @Failure      400  {object}  utils.APIError "Malformed body, invalid email, or weak password."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "Administrator level 4 required, or the admin level is not below yours."
// @Failure      409  {object}  utils.APIError "Email or username already taken."
// @Router       /users [post]
func CreateUserHandler(c *gin.Context, acc *accounts.Repository) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if req.IsAdmin {
		callerLevel := c.GetInt(utils.ContextAdminLevel)
		if req.AdminLevel < 1 || req.AdminLevel >= callerLevel {
			utils.GinForbidden(c, "You can only assign admin levels below your own.")
			return
		}
	}

	account, err := acc.Create(req.Username, req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAccountError(c, err)
		return
	}

	if req.IsAdmin {
		account, err = acc.Update(account.ID, accounts.Patch{IsAdmin: &req.IsAdmin, AdminLevel: &req.AdminLevel})
		if err != nil {
			utils.GinInternalServerError(c, fmt.Sprintf("Account created but admin assignment failed: %v", err))
			return
		}
	}

	c.JSON(http.StatusCreated, account.Sanitized())
}

// UpdateMeHandler edits the authenticated user's own account.
// @Summary      Update Your Own Account
// @Description  Changes profile fields on your own account. Email and username stay unique across accounts; admin status cannot be changed here.
// @Description  When you are logged in, the stored session is refreshed with the updated account.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user body UpdateMeRequest true "Fields to change"
// @Success      200  {object}  models.Account
// @Failure      400  {object}  utils.APIError "Malformed body or invalid email."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "The protected administrator cannot be edited."
// @Failure      409  {object}  utils.APIError "Email or username already taken."
// @Router       /users/me [put]
func UpdateMeHandler(c *gin.Context, acc *accounts.Repository, sess *session.Manager) {
	userID := utils.UserIDFromContext(c)
	if userID == 0 {
		utils.GinInternalServerError(c, "User ID not found in context. Middleware issue?")
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := acc.Update(userID, accounts.Patch{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
		Bio:         req.Bio,
		Preferences: req.Preferences,
	})
	if err != nil {
		writeAccountError(c, err)
		return
	}

	sess.ReplaceAccount(updated)
	c.JSON(http.StatusOK, updated.Sanitized())
}

// ChangeMyPasswordHandler changes the authenticated user's password.
// @Summary      Change Your Password
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        passwords body ChangePasswordRequest true "Current and new password"
// @Success      200  {object}  utils.APIMessage
// @Failure      400  {object}  utils.APIError "Malformed body or a new password below the minimum length."
// @Failure      401  {object}  utils.APIError "Missing token or wrong current password."
// @Failure      403  {object}  utils.APIError "The protected administrator's password cannot be changed."
// @Router       /users/me/password [put]
func ChangeMyPasswordHandler(c *gin.Context, acc *accounts.Repository) {
	userID := utils.UserIDFromContext(c)
	if userID == 0 {
		utils.GinInternalServerError(c, "User ID not found in context. Middleware issue?")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := acc.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			utils.GinUnauthorized(c, "Current password is incorrect.")
		case errors.Is(err, accounts.ErrWeakPassword):
			utils.GinBadRequest(c, "New password is too short.")
		case errors.Is(err, accounts.ErrProtectedAccount):
			utils.GinForbidden(c, "The protected administrator cannot be modified.")
		case errors.Is(err, accounts.ErrNotFound):
			utils.GinNotFound(c, "Account not found.")
		default:
			utils.GinInternalServerError(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, utils.APIMessage{Message: "Password changed."})
}

// DeleteUserHandler removes an account.
// @Summary      Delete an Account
// @Description  Removes the account with the given id. The protected administrator cannot be deleted. Requires administrator level 3.
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Account ID"
// @Success      200  {object}  utils.APIMessage
// @Failure      400  {object}  utils.APIError "Non-numeric id."
// @Failure      401  {object}  utils.APIError "Missing or invalid token."
// @Failure      403  {object}  utils.APIError "Administrator level 3 required, or the account is protected."
// @Failure      404  {object}  utils.APIError "No account with this id."
// @Router       /users/{id} [delete]
func DeleteUserHandler(c *gin.Context, acc *accounts.Repository) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := acc.Delete(id); err != nil {
		switch {
		case errors.Is(err, accounts.ErrProtectedAccount):
			utils.GinForbidden(c, "The protected administrator cannot be deleted.")
		case errors.Is(err, accounts.ErrNotFound):
			utils.GinNotFound(c, "Account not found.")
		default:
			utils.GinInternalServerError(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, utils.APIMessage{Message: "Account deleted."})
}

// writeAccountError maps the accounts package sentinels to HTTP responses.
func writeAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, accounts.ErrInvalidEmail):
		utils.GinBadRequest(c, "Email address is not valid.")
	case errors.Is(err, accounts.ErrWeakPassword):
		utils.GinBadRequest(c, "Password is too short.")
	case errors.Is(err, accounts.ErrDuplicateEmail):
		utils.GinConflict(c, "An account with this email already exists.")
	case errors.Is(err, accounts.ErrDuplicateUsername):
		utils.GinConflict(c, "This username is already taken.")
	case errors.Is(err, accounts.ErrProtectedAccount):
		utils.GinForbidden(c, "The protected administrator cannot be modified.")
	case errors.Is(err, accounts.ErrNotFound):
		utils.GinNotFound(c, "Account not found.")
	default:
		utils.GinBadRequest(c, err.Error())
	}
}
