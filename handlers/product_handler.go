package handlers

import (
	"log"
	"net/http"

	"github.com/gautam-ch/KrashiDukan/middleware"
	"github.com/gautam-ch/KrashiDukan/pagination"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
)

const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

func GetProductListHandler(c *gin.Context, products *services.ProductService) {
	filter, err := services.ParseProductFilter(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	params, err := pagination.ParseQuery(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	list, page, err := products.List(c.Request.Context(), middleware.Shop(c).ID, filter, params)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "fetched products successfully",
		"products":   list,
		"pagination": page,
	})
}

// ExportProductsHandler streams every product matching the list filters as a
// products.csv or products.pdf download.
func ExportProductsHandler(c *gin.Context, products *services.ProductService, format string) {
	filter, err := services.ParseProductFilter(c.Request.URL.Query())
	if err != nil {
		abortWithError(c, err)
		return
	}

	shop := middleware.Shop(c)
	list, err := products.All(c.Request.Context(), shop.ID, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	switch format {
	case ExportPDF:
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", `attachment; filename="products.pdf"`)
		c.Status(http.StatusOK)
		err = services.WriteProductsPDF(c.Writer, shop.Name, list)
	default:
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="products.csv"`)
		c.Status(http.StatusOK)
		err = services.WriteProductsCSV(c.Writer, list)
	}
	if err != nil {
		log.Printf("[%s] product export failed: %v", middleware.GetRequestID(c), err)
	}
}
