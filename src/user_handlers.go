package main

import (
	"net/http"
	"time"

	"pbs/src/config"
	"pbs/src/db"
	"pbs/src/lib"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
)

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var users []models.User
			q := gdb.Model(&models.User{}).Order("username asc")
			if role := ctx.Query("role"); role != "" {
				q = q.Where("role = ?", role)
			}
			if pos := ctx.Query("position"); pos != "" {
				q = q.Where("position = ?", pos)
			}
			if err := q.Find(&users).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
		}).
		GET("/users/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var user models.User
			if err := gdb.First(&user, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		GET("/users/:id/online", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			// redis is the fast path, the last_activity column the fallback
			if lib.PresenceCheck(ctx.Request.Context(), params.ID) {
				ctx.JSON(http.StatusOK, gin.H{"online": true})
				return
			}
			gdb := db.GetDb()
			var user models.User
			if err := gdb.First(&user, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			window := time.Duration(config.PRESENCE_WINDOW_MINUTES) * time.Minute
			ctx.JSON(http.StatusOK, gin.H{"online": user.Online(time.Now(), window)})
		}).
		GET("/profile", func(ctx *gin.Context) {
			id := ctx.GetUint("id")
			gdb := db.GetDb()
			var user models.User
			if err := gdb.First(&user, id).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PATCH("/profile", func(ctx *gin.Context) {
			var body types.UpdateProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			id := ctx.GetUint("id")
			updates := map[string]any{}
			if body.PhoneNumber != nil {
				updates["phone_number"] = *body.PhoneNumber
			}
			if body.Position != nil {
				updates["position"] = *body.Position
			}
			if body.SkillLevel != nil {
				updates["skill_level"] = *body.SkillLevel
			}
			gdb := db.GetDb()
			if len(updates) > 0 {
				if err := gdb.
					Model(&models.User{}).
					Where("id = ?", id).
					Updates(updates).
					Error; err != nil {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
			}
			var user models.User
			gdb.First(&user, id)
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		POST("/users/presence", func(ctx *gin.Context) {
			id := ctx.GetUint("id")
			window := time.Duration(config.PRESENCE_WINDOW_MINUTES) * time.Minute
			lib.PresenceTouch(ctx.Request.Context(), id, window)
			gdb := db.GetDb()
			gdb.
				Model(&models.User{}).
				Where("id = ?", id).
				Update("last_activity", time.Now())
			ctx.JSON(http.StatusOK, gin.H{"online": true})
		}).
		POST("/profile/device", func(ctx *gin.Context) {
			var body struct {
				Token string `json:"token" binding:"required"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			id := ctx.GetUint("id")
			gdb := db.GetDb()
			if err := gdb.
				Model(&models.User{}).
				Where("id = ?", id).
				Update("device_token", body.Token).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
