package main

import (
	"fmt"
	"log"
	"math"
	"net/http"

	"pbs/src/db"
	"pbs/src/lib"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/payments", func(ctx *gin.Context) {
			gdb := db.GetDb()
			q := gdb.Model(&models.Payment{}).Preload("Booking").Order("payments.created_at desc")
			role := types.UserRole(ctx.GetString("role"))
			id := ctx.GetUint("id")
			switch role {
			case types.ROLE_ADMIN:
			case types.ROLE_OWNER:
				q = q.
					Joins("JOIN bookings ON bookings.id = payments.booking_id").
					Joins("JOIN pitches ON pitches.id = bookings.pitch_id").
					Where("pitches.owner_id = ? OR bookings.player_id = ?", id, id)
			default:
				q = q.
					Joins("JOIN bookings ON bookings.id = payments.booking_id").
					Where("bookings.player_id = ?", id)
			}
			var payments []models.Payment
			if err := q.Find(&payments).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var payment models.Payment
			if err := gdb.
				Preload("Booking.Pitch").
				First(&payment, params.ID).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if payment.Booking == nil || !canReadBooking(ctx, payment.Booking) {
				ctx.Status(http.StatusForbidden)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		POST("/payments/:id/process", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ProcessPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var payment models.Payment
			if err := gdb.
				Preload("Booking").
				First(&payment, params.ID).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if payment.Booking == nil || payment.Booking.PlayerID != ctx.GetUint("id") {
				ctx.Status(http.StatusForbidden)
				return
			}
			if payment.Status != types.PAYMENT_PENDING {
				ctx.JSON(http.StatusConflict, gin.H{"error": "payment is not pending"})
				return
			}
			amountCents := int64(math.Round(payment.Amount * 100))
			intent, err := lib.CreatePaymentIntent(amountCents, "usd", map[string]string{
				"payment_id": fmt.Sprint(payment.ID),
				"booking_id": fmt.Sprint(payment.BookingID),
			})
			if err != nil {
				log.Printf("Error creating payment intent: %s\n", err.Error())
				gdb.
					Model(&models.Payment{}).
					Where("id = ?", payment.ID).
					Update("status", types.PAYMENT_FAILED)
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "payment provider rejected the charge"})
				return
			}
			txnId := uuid.New()
			err = gdb.Transaction(func(tx *gorm.DB) error {
				return tx.
					Model(&models.Payment{}).
					Where(&models.Payment{ID: payment.ID, Status: types.PAYMENT_PENDING}).
					Updates(map[string]any{
						"status":         types.PAYMENT_COMPLETED,
						"payment_method": body.PaymentMethod,
						"transaction_id": txnId,
						"intent_id":      intent.ID,
					}).
					Error
			})
			if err != nil {
				log.Printf("Error recording payment: %s\n", err.Error())
				ctx.Status(http.StatusUnprocessableEntity)
				return
			}
			payment.Status = types.PAYMENT_COMPLETED
			payment.PaymentMethod = body.PaymentMethod
			payment.TransactionID = &txnId
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		})
	return g
}
