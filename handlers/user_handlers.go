package handlers

import (
	"net/http"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/authcookie"
	"github.com/gautam-ch/KrashiDukan/middleware"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
)

// SignupHandler registers a user without signing them in.
func SignupHandler(c *gin.Context, auth *services.AuthService) {
	var input services.SignupInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := auth.Signup(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully!",
		"user":    user,
	})
}

func SigninHandler(c *gin.Context, auth *services.AuthService, cookies authcookie.Options) {
	var input services.SigninInput
	if !bindJSON(c, &input) {
		return
	}

	creds, err := auth.Signin(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	cookies.SetAccessToken(c, creds.AccessToken, auth.AccessTokenTTL())
	cookies.SetRefreshToken(c, creds.RefreshToken, auth.RefreshTTL)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User login successfully!",
		"user":    creds.User,
	})
}

// SignoutHandler clears both cookies even when no session matched.
func SignoutHandler(c *gin.Context, auth *services.AuthService, cookies authcookie.Options) {
	_, refreshToken := authcookie.Read(c)

	err := auth.Signout(c.Request.Context(), refreshToken)
	cookies.Clear(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User logged out successfully!",
	})
}

func RefreshHandler(c *gin.Context, auth *services.AuthService, cookies authcookie.Options) {
	_, refreshToken := authcookie.Read(c)

	accessToken, _, err := auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if apperr.StatusOf(err) == http.StatusUnauthorized {
			cookies.Clear(c)
		}
		abortWithError(c, err)
		return
	}

	cookies.SetAccessToken(c, accessToken, auth.AccessTokenTTL())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token created successfully!",
	})
}

// MeHandler returns the requester and their shop; shop is null for non-owners.
func MeHandler(c *gin.Context, auth *services.AuthService, shops *services.ShopService) {
	user, err := auth.User(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	shop, err := shops.FindByOwner(c.Request.Context(), user.ID)
	if err != nil && apperr.StatusOf(err) != http.StatusNotFound {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
		"shop":    shopResponse(shop),
	})
}
