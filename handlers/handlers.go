package handlers

import (
	"net/http"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gin-gonic/gin"
)

// abortWithError hands err to middleware.ErrorHandler and stops the chain.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the request body into dest, aborting with 400 on malformed JSON.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		abortWithError(c, &apperr.Error{Status: http.StatusBadRequest, Message: "Invalid request body!", Err: err})
		return false
	}
	return true
}

func shopResponse(shop *models.Shop) gin.H {
	if shop == nil {
		return nil
	}
	return gin.H{
		"id":        shop.ID,
		"name":      shop.Name,
		"owners":    shop.OwnerIDs(),
		"createdAt": shop.CreatedAt,
		"updatedAt": shop.UpdatedAt,
	}
}
