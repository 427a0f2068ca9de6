package main

import (
	"net/http"
	"time"

	"pbs/src/db"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func messageHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/messages", func(ctx *gin.Context) {
			id := ctx.GetUint("id")
			gdb := db.GetDb()
			var messages []models.Message
			q := gdb.
				Model(&models.Message{}).
				Preload("Sender").
				Order("created_at desc")
			if with := ctx.Query("with"); with != "" {
				q = q.Where(
					"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
					id, with, with, id,
				)
			} else {
				q = q.Where("sender_id = ? OR recipient_id = ?", id, id)
			}
			if err := q.Find(&messages).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": messages, "count": len(messages)})
		}).
		POST("/messages", func(ctx *gin.Context) {
			var body types.CreateMessageRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.RecipientID != nil && body.GroupID != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "a message goes to a user or a group, not both"})
				return
			}
			gdb := db.GetDb()
			message := models.Message{
				SenderID:    ctx.GetUint("id"),
				RecipientID: body.RecipientID,
				GroupID:     body.GroupID,
				Content:     body.Content,
			}
			duplicate := false
			err := gdb.Transaction(func(tx *gorm.DB) error {
				if body.RecipientID != nil {
					var recipient models.User
					if err := tx.First(&recipient, *body.RecipientID).Error; err != nil {
						ctx.Status(http.StatusNotFound)
						return err
					}
				}
				if body.GroupID != nil {
					var group models.MessageGroup
					if err := tx.Preload("Members").First(&group, *body.GroupID).Error; err != nil {
						ctx.Status(http.StatusNotFound)
						return err
					}
					if group.IsPrivate && !groupHasMember(&group, ctx.GetUint("id")) {
						ctx.Status(http.StatusForbidden)
						return gorm.ErrRecordNotFound
					}
				}
				// retries and double-taps: an identical message inside 30s is
				// treated as the same send
				var existing models.Message
				q := tx.
					Where("sender_id = ? AND content = ?", message.SenderID, message.Content).
					Where("created_at > ?", time.Now().Add(-30*time.Second))
				if body.RecipientID != nil {
					q = q.Where("recipient_id = ?", *body.RecipientID)
				} else if body.GroupID != nil {
					q = q.Where("group_id = ?", *body.GroupID)
				} else {
					q = q.Where("recipient_id IS NULL AND group_id IS NULL")
				}
				if err := q.First(&existing).Error; err == nil {
					message = existing
					duplicate = true
					return nil
				}
				return tx.Create(&message).Error
			})
			if err != nil {
				if !ctx.Writer.Written() {
					ctx.Status(http.StatusUnprocessableEntity)
				}
				return
			}
			if duplicate {
				ctx.JSON(http.StatusOK, gin.H{"data": message})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": message})
		}).
		POST("/messages/:id/read", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var message models.Message
			if err := gdb.First(&message, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			id := ctx.GetUint("id")
			if message.RecipientID == nil || *message.RecipientID != id {
				ctx.Status(http.StatusForbidden)
				return
			}
			if err := gdb.
				Model(&models.Message{}).
				Where("id = ?", message.ID).
				Update("is_read", true).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		GET("/groups", func(ctx *gin.Context) {
			id := ctx.GetUint("id")
			gdb := db.GetDb()
			var groups []models.MessageGroup
			if err := gdb.
				Joins("LEFT JOIN group_memberships ON group_memberships.message_group_id = message_groups.id").
				Where("message_groups.is_private = false OR message_groups.creator_id = ? OR group_memberships.user_id = ?", id, id).
				Group("message_groups.id").
				Find(&groups).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": groups, "count": len(groups)})
		}).
		POST("/groups", func(ctx *gin.Context) {
			var body types.CreateGroupRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			creatorId := ctx.GetUint("id")
			isPrivate := true
			if body.IsPrivate != nil {
				isPrivate = *body.IsPrivate
			}
			group := models.MessageGroup{
				Name:      body.Name,
				CreatorID: creatorId,
				IsPrivate: isPrivate,
			}
			if body.Description != "" {
				group.Description = &body.Description
			}
			gdb := db.GetDb()
			err := gdb.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&group).Error; err != nil {
					return err
				}
				memberIds := append([]uint{creatorId}, body.MemberIDs...)
				var members []*models.User
				if err := tx.Find(&members, memberIds).Error; err != nil {
					return err
				}
				return tx.Model(&group).Association("Members").Append(members)
			})
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": group})
		}).
		GET("/groups/:id/messages", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var group models.MessageGroup
			if err := gdb.Preload("Members").First(&group, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if group.IsPrivate && !groupHasMember(&group, ctx.GetUint("id")) {
				ctx.Status(http.StatusForbidden)
				return
			}
			var messages []models.Message
			if err := gdb.
				Where("group_id = ?", group.ID).
				Preload("Sender").
				Order("created_at asc").
				Find(&messages).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": messages, "count": len(messages)})
		}).
		POST("/groups/:id/members", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.GroupMemberRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var group models.MessageGroup
			if err := gdb.First(&group, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			role := types.UserRole(ctx.GetString("role"))
			if group.CreatorID != ctx.GetUint("id") && role != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			var user models.User
			if err := gdb.First(&user, body.UserID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if err := gdb.Model(&group).Association("Members").Append(&user); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}

func groupHasMember(group *models.MessageGroup, userId uint) bool {
	if group.CreatorID == userId {
		return true
	}
	for _, m := range group.Members {
		if m.ID == userId {
			return true
		}
	}
	return false
}
