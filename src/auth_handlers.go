package main

import (
	"eventbooking/src/controllers"
	"net/http"

	"github.com/gin-gonic/gin"
)

func authHandlers(g *gin.RouterGroup, app *application, authenticate gin.HandlerFunc) *gin.RouterGroup {
	g.
		POST("/register", func(ctx *gin.Context) {
			res, status, err := controllers.AuthRegister(ctx, app.accounts)
			if err != nil {
				controllers.AbortWithError(ctx, status, err)
				return
			}
			ctx.JSON(status, res)
		}).
		POST("/login", func(ctx *gin.Context) {
			res, status, err := controllers.AuthLogin(ctx, app.accounts)
			if err != nil {
				controllers.AbortWithError(ctx, status, err)
				return
			}
			ctx.JSON(status, res)
		}).
		PUT("/profile", authenticate, func(ctx *gin.Context) {
			user, status, err := controllers.AuthUpdateProfile(ctx, app.accounts)
			if err != nil {
				controllers.AbortWithError(ctx, status, err)
				return
			}
			ctx.JSON(status, gin.H{"message": "Profile updated successfully", "user": user})
		})

	return g
}

func userHandlers(g *gin.RouterGroup, app *application) *gin.RouterGroup {
	g.GET("/profile", func(ctx *gin.Context) {
		user, err := app.accounts.Profile(ctx.Request.Context(), ctx.GetUint("id"))
		if err != nil {
			controllers.AbortWithError(ctx, controllers.StatusOf(err), err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"user": user})
	})
	return g
}
