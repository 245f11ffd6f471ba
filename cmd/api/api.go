package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/cache"
	"github.com/textsimplify/api/internal/config"
	"github.com/textsimplify/api/internal/database"
	"github.com/textsimplify/api/internal/logging"
	"github.com/textsimplify/api/internal/mailer"
	"github.com/textsimplify/api/internal/simplifier"
	"github.com/textsimplify/api/pkg/models"
)

// UserStore provides user persistence
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, password string) error
	UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error)
	IssueResetToken(ctx context.Context, userID string) (string, error)
	ClearResetToken(ctx context.Context, userID string) error
	ResetPassword(ctx context.Context, rawToken, password string) error
	IssueVerifyToken(ctx context.Context, userID string) (string, error)
	ClearVerifyToken(ctx context.Context, userID string) error
	VerifyEmail(ctx context.Context, rawToken string) error
	CreateAPIKey(ctx context.Context, userID, name string) (string, *models.APIKey, error)
	ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error)
	ValidateAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// QueryStore provides query history persistence
type QueryStore interface {
	ListQueriesByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Query, error)
	CountQueriesByUser(ctx context.Context, userID string) (int64, error)
	GetQueryByID(ctx context.Context, userID, id string) (*models.Query, error)
	DeleteQuery(ctx context.Context, userID, id string) error
}

// Simplifier performs text simplification
type Simplifier interface {
	Simplify(ctx context.Context, userID, text, level string) (*simplifier.Result, error)
}

// API holds the service dependencies for the HTTP handlers
type API struct {
	users      UserStore
	queries    QueryStore
	simplifier Simplifier
	mailer     mailer.Sender
	db         *database.DB
	cache      *cache.Cache
	cfg        *config.Config
	log        *logging.Logger
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	if api.db != nil {
		if err := api.db.Health(ctx); err != nil {
			status = "degraded"
		}
	}
	if api.cache != nil {
		if err := api.cache.Ping(ctx); err != nil {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
