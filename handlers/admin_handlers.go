package handlers

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/middleware"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func isValidImageExtensions(file *multipart.FileHeader) bool {
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

func makeUniqueFileName(file *multipart.FileHeader) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
}

// UploadImageHandler stores the "image" form file under uploadsDir. The returned
// path is served by the /uploads static route.
func UploadImageHandler(c *gin.Context, uploadsDir string) {
	file, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, apperr.Validation("Image is required!", apperr.Fields{"image": "Image is required!"}))
		return
	}

	if !isValidImageExtensions(file) {
		abortWithError(c, apperr.Validation("Invalid image format!", apperr.Fields{"image": "Only .jpg, .jpeg and .png are allowed"}))
		return
	}

	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		abortWithError(c, apperr.Internal(err))
		return
	}

	imageName := makeUniqueFileName(file)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadsDir, imageName)); err != nil {
		abortWithError(c, apperr.Internal(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Image uploaded successfully",
		"imagePath": "/uploads/" + imageName,
	})
}

func CreateProductHandler(c *gin.Context, products *services.ProductService) {
	var input services.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := products.Create(c.Request.Context(), middleware.Shop(c).ID, input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

func GetProductHandler(c *gin.Context, products *services.ProductService) {
	productID, err := middleware.ParseID(c, "productId")
	if err != nil {
		abortWithError(c, err)
		return
	}

	product, err := products.Get(c.Request.Context(), middleware.Shop(c).ID, productID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"product": product,
	})
}

// UpdateProductHandler applies a partial update; absent fields keep their values.
func UpdateProductHandler(c *gin.Context, products *services.ProductService) {
	productID, err := middleware.ParseID(c, "productId")
	if err != nil {
		abortWithError(c, err)
		return
	}

	var input services.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := products.Update(c.Request.Context(), middleware.Shop(c).ID, productID, input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}

func DeleteProductHandler(c *gin.Context, products *services.ProductService) {
	productID, err := middleware.ParseID(c, "productId")
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := products.Delete(c.Request.Context(), middleware.Shop(c).ID, productID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted successfully",
	})
}
