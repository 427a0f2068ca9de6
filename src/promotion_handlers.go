package main

import (
	"net/http"
	"strings"
	"time"

	"pbs/src/common"
	"pbs/src/config"
	"pbs/src/db"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func promotionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/promotions", func(ctx *gin.Context) {
			gdb := db.GetDb()
			q := gdb.Model(&models.Promotion{}).Order("valid_until desc")
			// non-admins only see promotions that are currently usable
			if types.UserRole(ctx.GetString("role")) != types.ROLE_ADMIN {
				now := time.Now()
				q = q.
					Where("valid_from <= ? AND valid_until > ?", now, now).
					Where("max_uses IS NULL OR current_uses < max_uses")
			}
			var promotions []models.Promotion
			if err := q.Find(&promotions).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": promotions, "count": len(promotions)})
		}).
		POST("/promotions", func(ctx *gin.Context) {
			if types.UserRole(ctx.GetString("role")) != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			var body types.CreatePromotionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			validFrom, err := time.Parse(config.DATE_PARSE_FORMAT, body.ValidFrom)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_from, expected YYYY-MM-DD"})
				return
			}
			validUntil, err := time.Parse(config.DATE_PARSE_FORMAT, body.ValidUntil)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_until, expected YYYY-MM-DD"})
				return
			}
			if !validUntil.After(validFrom) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "valid_until must be after valid_from"})
				return
			}
			promo := models.Promotion{
				Code:               strings.ToUpper(body.Code),
				DiscountPercentage: body.DiscountPercentage,
				MaxUses:            body.MaxUses,
				ValidFrom:          validFrom,
				ValidUntil:         validUntil,
			}
			if body.Description != "" {
				promo.Description = &body.Description
			}
			gdb := db.GetDb()
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&promo).Error
			}); err != nil {
				if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
					ctx.JSON(http.StatusConflict, gin.H{"error": "promotion code already exists"})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": promo})
		}).
		DELETE("/promotions/:id", func(ctx *gin.Context) {
			if types.UserRole(ctx.GetString("role")) != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var promo models.Promotion
			if err := gdb.First(&promo, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if err := gdb.Delete(&promo).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

// applyPromotionRoute is registered for all authenticated users, unlike the
// admin-only promotion CRUD above.
func applyPromotionRoute(g *gin.RouterGroup) *gin.RouterGroup {
	g.POST("/promotions/:id/apply", func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		var body types.ApplyPromotionRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		gdb := db.GetDb()
		actor := requestUser(ctx)
		booking, err := common.ApplyPromotion(gdb, params.ID, body.BookingID, actor)
		if err != nil {
			abortWithDomainError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": booking})
	})
	return g
}
