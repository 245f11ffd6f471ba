package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/internal/database"
	"github.com/textsimplify/api/internal/middleware"
	"github.com/textsimplify/api/pkg/models"
)

const defaultPageSize = 50

func (api *API) getHistory(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	offset := (page - 1) * limit

	ctx := c.Request.Context()
	queries, err := api.queries.ListQueriesByUser(ctx, userID, limit, offset)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	total, err := api.queries.CountQueriesByUser(ctx, userID)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}

	if queries == nil {
		queries = []*models.Query{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"queries": queries,
			"pagination": gin.H{
				"current": page,
				"pages":   pages,
				"total":   total,
			},
		},
	})
}

func (api *API) getQuery(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	query, err := api.queries.GetQueryByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrQueryNotFound) {
			apierror.Respond(c, apierror.NotFound("Query not found"))
			return
		}
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"query": query,
		},
	})
}

func (api *API) deleteQuery(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := api.queries.DeleteQuery(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrQueryNotFound) {
			apierror.Respond(c, apierror.NotFound("Query not found"))
			return
		}
		apierror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Query deleted successfully",
	})
}
