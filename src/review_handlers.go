package main

import (
	"net/http"

	"pbs/src/db"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func reviewHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reviews", func(ctx *gin.Context) {
			var body types.CreateReviewRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			playerId := ctx.GetUint("id")
			review := models.Review{
				PitchID:  body.PitchID,
				PlayerID: playerId,
				Rating:   body.Rating,
			}
			if body.Comment != "" {
				review.Comment = &body.Comment
			}
			gdb := db.GetDb()
			updated := false
			err := gdb.Transaction(func(tx *gorm.DB) error {
				var pitch models.Pitch
				if err := tx.First(&pitch, body.PitchID).Error; err != nil {
					ctx.Status(http.StatusNotFound)
					return err
				}
				// only players who completed a booking there get a say
				var count int64
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{PitchID: body.PitchID, PlayerID: playerId}).
					Where("status = ?", types.BOOKING_COMPLETED).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count == 0 {
					ctx.JSON(http.StatusForbidden, gin.H{"error": "you can only review pitches you have played at"})
					return gorm.ErrRecordNotFound
				}
				// one review per player+pitch, a repeat submission replaces it
				var existing models.Review
				err := tx.
					Where(&models.Review{PitchID: body.PitchID, PlayerID: playerId}).
					First(&existing).
					Error
				if err == nil {
					updates := map[string]any{"rating": body.Rating}
					if body.Comment != "" {
						updates["comment"] = body.Comment
					}
					if err := tx.
						Model(&models.Review{}).
						Where("id = ?", existing.ID).
						Updates(updates).
						Error; err != nil {
						return err
					}
					review.ID = existing.ID
					updated = true
					return nil
				}
				if err != gorm.ErrRecordNotFound {
					return err
				}
				return tx.Create(&review).Error
			})
			if err != nil {
				if !ctx.Writer.Written() {
					ctx.Status(http.StatusUnprocessableEntity)
				}
				return
			}
			if updated {
				ctx.JSON(http.StatusOK, gin.H{"data": review})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": review})
		}).
		PATCH("/reviews/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body struct {
				Rating  *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
				Comment *string `json:"comment,omitempty"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var review models.Review
			if err := gdb.First(&review, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if review.PlayerID != ctx.GetUint("id") {
				ctx.Status(http.StatusForbidden)
				return
			}
			updates := map[string]any{}
			if body.Rating != nil {
				updates["rating"] = *body.Rating
			}
			if body.Comment != nil {
				updates["comment"] = *body.Comment
			}
			if len(updates) > 0 {
				if err := gdb.
					Model(&models.Review{}).
					Where("id = ?", review.ID).
					Updates(updates).
					Error; err != nil {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
			}
			gdb.First(&review, params.ID)
			ctx.JSON(http.StatusOK, gin.H{"data": review})
		}).
		DELETE("/reviews/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var review models.Review
			if err := gdb.First(&review, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			role := types.UserRole(ctx.GetString("role"))
			if review.PlayerID != ctx.GetUint("id") && role != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			if err := gdb.Delete(&review).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
