package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/internal/middleware"
)

func (api *API) simplifyText(c *gin.Context) {
	var req struct {
		Text  string `json:"text"`
		Level string `json:"level"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, apierror.Validation("Please provide text to simplify"))
		return
	}

	userID, _ := middleware.GetUserID(c)

	result, err := api.simplifier.Simplify(c.Request.Context(), userID, req.Text, req.Level)
	if err != nil {
		apierror.Respond(c, err)
		return
	}

	if err := api.cache.IncrementStat(c.Request.Context(), "simplifications:"+userID); err != nil {
		api.log.ErrorWithErr("Failed to bump usage counter", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  http.StatusOK,
		"message": "Text simplified successfully",
		"data": gin.H{
			"simplified": result.Simplified,
			"keyPoints":  result.KeyPoints,
			"level":      result.Level,
		},
	})
}
