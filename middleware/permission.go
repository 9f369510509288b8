package middleware

import (
	"strconv"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
)

const shopKey = "Shop"

// ParseID reads a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid "+name, apperr.Fields{name: "Invalid " + name})
	}
	return uint(id), nil
}

// CheckShopOwnerMiddleware lets the request through only when the requester owns
// the shop named by the :shopId parameter: 404 for an unknown shop, 403 otherwise.
// Must run after CheckLoginMiddleware.
func CheckShopOwnerMiddleware(shops *services.ShopService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID, err := ParseID(c, "shopId")
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		shop, err := shops.Authorize(c.Request.Context(), shopID, UserID(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(shopKey, shop)
		c.Next()
	}
}

// Shop returns the shop CheckShopOwnerMiddleware authorized.
func Shop(c *gin.Context) *models.Shop {
	shop, _ := c.MustGet(shopKey).(*models.Shop)
	return shop
}
