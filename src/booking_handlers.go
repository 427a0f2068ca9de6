package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"pbs/src/common"
	"pbs/src/db"
	"pbs/src/lib"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

// scopeBookings narrows a booking query to what the requester may see:
// players their own rows, owners the rows on their pitches, admins all.
func scopeBookings(ctx *gin.Context, q *gorm.DB) *gorm.DB {
	role := types.UserRole(ctx.GetString("role"))
	id := ctx.GetUint("id")
	switch role {
	case types.ROLE_ADMIN:
		return q
	case types.ROLE_OWNER:
		return q.
			Joins("JOIN pitches ON pitches.id = bookings.pitch_id").
			Where("pitches.owner_id = ? OR bookings.player_id = ?", id, id)
	default:
		return q.Where("bookings.player_id = ?", id)
	}
}

func canReadBooking(ctx *gin.Context, booking *models.Booking) bool {
	role := types.UserRole(ctx.GetString("role"))
	id := ctx.GetUint("id")
	if role == types.ROLE_ADMIN || booking.PlayerID == id {
		return true
	}
	return booking.Pitch != nil && booking.Pitch.OwnerID == id
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			gdb := db.GetDb()
			common.LogSweep(gdb)
			var filters types.BookingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			q := gdb.Model(&models.Booking{}).Preload("Pitch").Order("date desc, start_time desc")
			q = scopeBookings(ctx, q)
			if filters.Status != "" {
				q = q.Where("bookings.status = ?", filters.Status)
			}
			if filters.StatusIn != "" {
				q = q.Where("bookings.status IN ?", strings.Split(filters.StatusIn, ","))
			}
			if filters.Date != "" {
				q = q.Where("bookings.date = ?", filters.Date)
			}
			if filters.DateGt != "" {
				q = q.Where("bookings.date > ?", filters.DateGt)
			}
			if filters.DateGte != "" {
				q = q.Where("bookings.date >= ?", filters.DateGte)
			}
			if filters.PitchID > 0 {
				q = q.Where("bookings.pitch_id = ?", filters.PitchID)
			}
			var bookings []models.Booking
			if err := q.Find(&bookings).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var booking models.Booking
			if err := gdb.
				Preload("Pitch").
				Preload("Payment").
				First(&booking, params.ID).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !canReadBooking(ctx, &booking) {
				ctx.Status(http.StatusForbidden)
				return
			}
			// a stale pending row completes on read
			if common.ExpiredAt(&booking, time.Now()) {
				common.LogSweep(gdb)
				gdb.Preload("Pitch").Preload("Payment").First(&booking, params.ID)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			playerId := ctx.GetUint("id")
			booking, err := common.CreateBooking(gdb, playerId, &body)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			go common.NotifyBookingCreated(gdb, booking.ID)
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		POST("/bookings/:id/confirm", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			actor := requestUser(ctx)
			booking, err := common.ConfirmBooking(gdb, params.ID, actor)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			go common.NotifyBookingConfirmed(gdb, booking.ID)
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		POST("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			actor := requestUser(ctx)
			booking, err := common.CancelBooking(gdb, params.ID, actor)
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			go common.NotifyBookingCancelled(gdb, booking.ID, actor.ID)
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			actor := requestUser(ctx)
			if err := common.DeleteBooking(gdb, params.ID, actor); err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/bookings/sweep", func(ctx *gin.Context) {
			if types.UserRole(ctx.GetString("role")) != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			gdb := db.GetDb()
			n, err := common.SweepExpiredBookings(gdb, time.Now())
			if err != nil {
				log.Printf("Error sweeping bookings: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"completed": n})
		}).
		GET("/bookings/:id/qrcode", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var booking models.Booking
			if err := gdb.Preload("Pitch").First(&booking, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !canReadBooking(ctx, &booking) {
				ctx.Status(http.StatusForbidden)
				return
			}
			filename := fmt.Sprintf("booking_%d", booking.ID)
			rd := lib.GetRedisClient()
			if rd != nil {
				cached, err := rd.Get(context.Background(), filename).Result()
				if err == nil {
					ctx.FileAttachment(cached, "checkin.jpeg")
					return
				}
				if err != redis.Nil {
					log.Printf("Error reading cache for %s: %s\n", filename, err.Error())
				}
			}
			payload := fmt.Sprintf("booking:%d:%s:%s-%s", booking.ID, booking.Date.Format("2006-01-02"), booking.StartTime, booking.EndTime)
			qrc, err := qrcode.New(payload)
			if err != nil {
				log.Printf("Error generating qrcode: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if rd != nil {
				rd.SetEx(context.Background(), filename, filepath, 2*time.Hour)
			}
			ctx.FileAttachment(filepath, "checkin.jpeg")
		})
	return g
}

// requestUser rebuilds the acting user from context values set by the auth
// middleware.
func requestUser(ctx *gin.Context) *models.User {
	return &models.User{
		ID:       ctx.GetUint("id"),
		Username: ctx.GetString("username"),
		Role:     types.UserRole(ctx.GetString("role")),
	}
}
