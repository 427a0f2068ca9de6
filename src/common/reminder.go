package common

import (
	"context"
	"fmt"
	"log"
	"time"

	"pbs/src/config"
	"pbs/src/lib"
	"pbs/src/models"
)

// ReminderDue reports whether a confirmed booking starts within the next 24
// hours and has not already started.
func ReminderDue(b *models.Booking, now time.Time) bool {
	layout := config.DATE_PARSE_FORMAT + " " + config.CLOCK_PARSE_FORMAT
	startAt, err := time.ParseInLocation(layout, fmt.Sprintf("%s %s", b.Date.Format(config.DATE_PARSE_FORMAT), b.StartTime), now.Location())
	if err != nil {
		return false
	}
	return startAt.After(now) && startAt.Before(now.Add(24*time.Hour))
}

// ClaimReminder marks a booking's reminder as sent. Returns false when
// another worker already claimed it. Without redis every call claims.
func ClaimReminder(bookingID uint) bool {
	rdb := lib.GetRedisClient()
	if rdb == nil {
		return true
	}
	key := fmt.Sprintf("reminder:%d", bookingID)
	ok, err := rdb.SetNX(context.Background(), key, "1", 48*time.Hour).Result()
	if err != nil {
		log.Printf("Error claiming reminder for booking %d: %s\n", bookingID, err.Error())
		return true
	}
	return ok
}

// SendBookingReminder queues the reminder email and pushes a notification.
func SendBookingReminder(b *models.Booking) {
	subject := fmt.Sprintf("Reminder: %s tomorrow", b.Pitch.Name)
	body := fmt.Sprintf(
		"You have a booking at %s on %s from %s to %s.",
		b.Pitch.Name,
		b.Date.Format(config.DATE_PARSE_FORMAT),
		b.StartTime,
		b.EndTime,
	)
	sendEmail(b.Player.Email, subject, body)
	if b.Player.DeviceToken != nil {
		lib.SendPush(*b.Player.DeviceToken, subject, body, map[string]string{
			"booking_id": fmt.Sprint(b.ID),
		})
	}
}
