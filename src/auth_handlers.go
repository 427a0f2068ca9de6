package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"pbs/src/common"
	"pbs/src/db"
	"pbs/src/lib"
	"pbs/src/models"
	"pbs/src/types"
	"pbs/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// abortWithDomainError renders a domain failure with its mapped status.
// Internal errors come back as a bare 500.
func abortWithDomainError(ctx *gin.Context, err error) {
	status := common.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %s\n", err.Error())
		ctx.Status(http.StatusInternalServerError)
		return
	}
	de, _ := common.AsDomain(err)
	ctx.JSON(status, gin.H{"error": de.Message, "kind": de.Kind, "field": de.Field})
}

func guestAuthRoutes(router *gin.Engine) {
	g := router.Group(apiPrefix)
	g.
		POST("/auth/register", func(ctx *gin.Context) {
			var body types.RegisterUserRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			role := types.ROLE_PLAYER
			if body.Role != "" {
				role = types.UserRole(body.Role)
			}
			hash, err := utils.HashPassword(body.Password)
			if err != nil {
				log.Printf("Error hashing password: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			user := models.User{
				Username:     body.Username,
				Email:        strings.ToLower(body.Email),
				PasswordHash: hash,
				Role:         role,
				PhoneNumber:  body.PhoneNumber,
			}
			gdb := db.GetDb()
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&user).Error
			}); err != nil {
				if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
					ctx.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
					return
				}
				log.Printf("Error creating user: %s\n", err.Error())
				ctx.Status(http.StatusUnprocessableEntity)
				return
			}
			token, err := utils.GenerateJWT(user.ID, user.Username, user.Role)
			if err != nil {
				log.Printf("Error signing token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": user, "token": token})
		}).
		POST("/auth/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var user models.User
			if err := gdb.
				Where("username = ? OR email = ?", body.Username, strings.ToLower(body.Username)).
				First(&user).
				Error; err != nil {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			if !utils.CheckPassword(user.PasswordHash, body.Password) {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			token, err := utils.GenerateJWT(user.ID, user.Username, user.Role)
			if err != nil {
				log.Printf("Error signing token: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user, "token": token})
		})
}

func authSessionRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/auth/logout", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			gdb := db.GetDb()
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				return tx.
					Model(&models.User{}).
					Where("id = ?", userId).
					Update("last_activity", time.Now()).
					Error
			}); err != nil {
				log.Printf("Error on user logout: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go lib.PresenceClear(context.Background(), userId)
			ctx.Status(http.StatusOK)
		})
	return g
}
