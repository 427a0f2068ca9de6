package main

import (
	"net/http"
	"strings"

	"pbs/src/db"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func settingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/settings", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var settings []models.Setting
			if err := gdb.Order("key asc").Find(&settings).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": settings, "count": len(settings)})
		}).
		PUT("/settings", func(ctx *gin.Context) {
			var body types.CreateSettingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			setting := models.Setting{
				Key:   strings.ToLower(body.Key),
				Value: body.Value,
			}
			if body.Description != "" {
				setting.Description = &body.Description
			}
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				var existing models.Setting
				err := tx.Where(&models.Setting{Key: setting.Key}).First(&existing).Error
				if err == nil {
					setting.ID = existing.ID
					return tx.Save(&setting).Error
				}
				if err != gorm.ErrRecordNotFound {
					return err
				}
				return tx.Create(&setting).Error
			}); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": setting})
		}).
		DELETE("/settings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var setting models.Setting
			if err := gdb.First(&setting, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if err := gdb.Delete(&setting).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
