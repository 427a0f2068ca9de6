package middlewares

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"pbs/src/config"
	"pbs/src/db"
	"pbs/src/lib"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(401)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.AbortWithError(401, err)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(401)
		return
	}

	db := db.GetDb()
	var user models.User
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		log.Println("error parsing claims:", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	db.Model(&models.User{}).Where(&models.User{ID: uint(uid)}).Find(&user)

	if uint(uid) != user.ID || user.ID < 1 {
		ctx.AbortWithStatus(401)
		return
	}

	// Every authenticated request counts as activity for presence.
	now := time.Now()
	db.Model(&models.User{}).
		Where(&models.User{ID: user.ID}).
		UpdateColumn("last_activity", now)
	go lib.PresenceTouch(context.Background(), user.ID, time.Duration(config.PRESENCE_WINDOW_MINUTES)*time.Minute)

	ctx.Set("email", user.Email)
	ctx.Set("id", user.ID)
	ctx.Set("username", user.Username)
	ctx.Set("role", string(user.Role))
}

// RequireRole rejects requests from users outside the listed roles.
func RequireRole(roles ...types.UserRole) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := types.UserRole(ctx.GetString("role"))
		for _, r := range roles {
			if role == r {
				return
			}
		}
		ctx.AbortWithStatusJSON(403, gin.H{"error": "not enough permissions to perform this action"})
	}
}

// MaintenanceMiddleware returns 503 while the maintenance_mode setting is on.
func MaintenanceMiddleware(ctx *gin.Context) {
	gdb := db.GetDb()
	var setting models.Setting
	err := gdb.Where(&models.Setting{Key: "maintenance_mode"}).First(&setting).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Error reading settings: %s\n", err.Error())
		}
		return
	}
	if setting.Value == "true" && ctx.GetString("role") != string(types.ROLE_ADMIN) {
		ctx.AbortWithStatusJSON(503, gin.H{"error": "service is under maintenance"})
	}
}
