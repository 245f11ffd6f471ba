package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/internal/database"
	"github.com/textsimplify/api/internal/middleware"
	"github.com/textsimplify/api/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// userCacheTTL bounds how stale a cached profile can get
const userCacheTTL = 5 * time.Minute

func (api *API) register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Name     string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Please provide a valid email, password and name"))
		return
	}

	user := &models.User{
		Email:    req.Email,
		Name:     req.Name,
		IsActive: true,
	}

	ctx := c.Request.Context()
	if err := api.users.CreateUser(ctx, user, req.Password); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			apierror.Respond(c, apierror.Validation("Email already registered"))
			return
		}
		api.log.ErrorWithErr("Failed to create user", err)
		apierror.Respond(c, err)
		return
	}

	// Issue the verification token and email the raw value. The token is
	// rolled back if the email cannot be delivered; the user record stays.
	verifyToken, err := api.users.IssueVerifyToken(ctx, user.ID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	verifyURL := api.cfg.Email.FrontendURL + "/verify-email/" + verifyToken
	if err := api.mailer.SendVerification(ctx, user.Email, user.Name, verifyURL); err != nil {
		if clearErr := api.users.ClearVerifyToken(ctx, user.ID); clearErr != nil {
			api.log.ErrorWithErr("Failed to clear verification token", clearErr)
		}
		apierror.Respond(c, apierror.Internal("Email could not be sent"))
		return
	}

	apiKey, _, err := api.users.CreateAPIKey(ctx, user.ID, "default")
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, api.cfg.Auth.TokenExpiry)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data": gin.H{
			"token": token,
			"user": gin.H{
				"id":     user.ID,
				"name":   user.Name,
				"email":  user.Email,
				"apiKey": apiKey,
			},
		},
	})
}

func (api *API) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Please provide email and password"))
		return
	}

	ctx := c.Request.Context()
	user, err := api.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			apierror.Respond(c, apierror.Unauthorized("Incorrect email or password"))
			return
		}
		api.log.ErrorWithErr("Failed to look up user", err)
		apierror.Respond(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		apierror.Respond(c, apierror.Unauthorized("Incorrect email or password"))
		return
	}

	if !user.EmailVerified {
		apierror.Respond(c, apierror.Unauthorized("Please verify your email first"))
		return
	}

	if !user.IsActive {
		apierror.Respond(c, apierror.Unauthorized("Your account has been deactivated"))
		return
	}

	if err := api.users.UpdateLastLogin(ctx, user.ID); err != nil {
		api.log.ErrorWithErr("Failed to stamp last login", err)
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, api.cfg.Auth.TokenExpiry)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		},
	})
}

func (api *API) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Please provide a valid email"))
		return
	}

	ctx := c.Request.Context()
	user, err := api.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			apierror.Respond(c, apierror.NotFound("No user found with that email address"))
			return
		}
		api.log.ErrorWithErr("Failed to look up user", err)
		apierror.Respond(c, err)
		return
	}

	resetToken, err := api.users.IssueResetToken(ctx, user.ID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	resetURL := api.cfg.Email.FrontendURL + "/reset-password/" + resetToken
	if err := api.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		if clearErr := api.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			api.log.ErrorWithErr("Failed to clear reset token", clearErr)
		}
		apierror.Respond(c, apierror.Internal("Email could not be sent"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password reset link sent to email",
	})
}

func (api *API) resetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Password must be at least 8 characters"))
		return
	}

	err := api.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidToken) {
			apierror.Respond(c, apierror.Validation("Invalid or expired reset token"))
			return
		}
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password has been reset",
	})
}

func (api *API) verifyEmail(c *gin.Context) {
	err := api.users.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, database.ErrInvalidToken) {
			apierror.Respond(c, apierror.Validation("Invalid verification token"))
			return
		}
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Email verified successfully",
	})
}

func (api *API) getCurrentUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	ctx := c.Request.Context()

	user, err := api.cache.GetUser(ctx, userID)
	if err != nil {
		api.log.ErrorWithErr("Failed to read user from cache", err)
	}
	if user == nil {
		user, err = api.users.GetUserByID(ctx, userID)
		if err != nil {
			apierror.Respond(c, err)
			return
		}
		if err := api.cache.SetUser(ctx, user, userCacheTTL); err != nil {
			api.log.ErrorWithErr("Failed to cache user", err)
		}
	}

	keys, err := api.users.ListAPIKeys(ctx, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	simplifications, err := api.cache.GetStat(ctx, "simplifications:"+userID)
	if err != nil {
		api.log.ErrorWithErr("Failed to read usage counter", err)
	}

	apiKeys := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		apiKeys = append(apiKeys, gin.H{
			"name":       key.Name,
			"createdAt":  key.CreatedAt,
			"lastUsed":   key.LastUsed,
			"isActive":   key.IsActive,
			"usageCount": key.UsageCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"user": gin.H{
				"id":      user.ID,
				"name":    user.Name,
				"email":   user.Email,
				"role":    user.Role,
				"apiKeys": apiKeys,
			},
			"usage": gin.H{
				"simplifications": simplifications,
			},
		},
	})
}

func (api *API) updatePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Please provide current and new password"))
		return
	}

	userID, _ := middleware.GetUserID(c)

	ctx := c.Request.Context()
	user, err := api.users.GetUserByID(ctx, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		apierror.Respond(c, apierror.Unauthorized("Current password is incorrect"))
		return
	}

	if err := api.users.UpdatePassword(ctx, userID, req.NewPassword); err != nil {
		apierror.Respond(c, err)
		return
	}

	if err := api.cache.DeleteUser(ctx, userID); err != nil {
		api.log.ErrorWithErr("Failed to invalidate cached user", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Password updated successfully",
	})
}

func (api *API) updateMe(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Please provide a valid name and email"))
		return
	}

	userID, _ := middleware.GetUserID(c)
	ctx := c.Request.Context()

	user, err := api.users.UpdateProfile(ctx, userID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			apierror.Respond(c, apierror.Validation("Email already registered"))
			return
		}
		apierror.Respond(c, err)
		return
	}

	if err := api.cache.DeleteUser(ctx, userID); err != nil {
		api.log.ErrorWithErr("Failed to invalidate cached user", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		},
	})
}
