package handlers

import (
	"net/http"

	"github.com/gautam-ch/KrashiDukan/middleware"
	"github.com/gautam-ch/KrashiDukan/pagination"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
)

// PlaceOrderHandler places an order for the shop named in the body. Ownership is
// checked by the service once the body names the shop.
func PlaceOrderHandler(c *gin.Context, orders *services.OrderService) {
	var input services.OrderInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := orders.PlaceOrder(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order placed successfully",
		"order":   order,
	})
}

func GetOrderHistoryHandler(c *gin.Context, orders *services.OrderService) {
	params, err := pagination.ParseQuery(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	list, page, err := orders.List(c.Request.Context(), middleware.Shop(c).ID, c.Query("search"), params)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"orders":     list,
		"pagination": page,
	})
}
