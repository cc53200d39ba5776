package middlewares

import (
	"errors"
	"eventbooking/src/repositories"
	"eventbooking/src/utils"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authenticate verifies the bearer token and loads its user. On success the
// context carries "id", "role", "admin" and "email".
func Authenticate(users repositories.UserRepo) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		reqToken, found := strings.CutPrefix(bearerToken, "Bearer ")
		reqToken = strings.TrimSpace(reqToken)
		if !found || reqToken == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied"})
			return
		}
		claims, err := utils.ParseJWT(reqToken)
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid"})
			return
		}

		user, err := users.FindByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "User not found"})
				return
			}
			log.Printf("error loading user %d: %s\n", claims.UserID, err.Error())
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
		ctx.Set("id", user.ID)
		ctx.Set("role", user.Role)
		ctx.Set("admin", user.IsAdmin())
		ctx.Set("email", user.Email)
		ctx.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(ctx *gin.Context) {
	if !ctx.GetBool("admin") {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied"})
		return
	}
	ctx.Next()
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("Referrer-Policy", "no-referrer")
	ctx.Next()
}
