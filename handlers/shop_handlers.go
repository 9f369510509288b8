package handlers

import (
	"net/http"

	"github.com/gautam-ch/KrashiDukan/middleware"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
)

func CreateShopHandler(c *gin.Context, shops *services.ShopService) {
	var input services.CreateShopInput
	if !bindJSON(c, &input) {
		return
	}

	shop, err := shops.CreateShop(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Shop is created successfully!",
		"shop":    shopResponse(shop),
	})
}

func AddOwnerHandler(c *gin.Context, shops *services.ShopService) {
	var input services.AddOwnerInput
	if !bindJSON(c, &input) {
		return
	}

	shop, err := shops.AddOwner(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User added as owner of shop successfully",
		"shop":    shopResponse(shop),
	})
}

func GetMyShopHandler(c *gin.Context, shops *services.ShopService) {
	shop, err := shops.FindByOwner(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"shop":    shopResponse(shop),
	})
}

// GetAnalyticsHandler serves cached analytics unless ?refresh=true.
func GetAnalyticsHandler(c *gin.Context, analytics *services.AnalyticsService) {
	shop := middleware.Shop(c)
	refresh := c.Query("refresh") == "true"

	result, cached, err := analytics.Get(c.Request.Context(), shop.ID, refresh)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"analytics": result,
		"cached":    cached,
	})
}
