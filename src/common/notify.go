package common

import (
	"fmt"
	"log"
	"os"
	"time"

	"pbs/src/config"
	"pbs/src/lib"
	"pbs/src/lib/mailer"
	"pbs/src/models"

	"google.golang.org/api/calendar/v3"
	"gorm.io/gorm"
)

// NotifyBookingCreated tells the pitch owner a new request is waiting.
// Delivery is best effort and never affects the booking transaction.
func NotifyBookingCreated(db *gorm.DB, bookingID uint) {
	booking, err := loadBookingGraph(db, bookingID)
	if err != nil {
		log.Printf("Error loading booking %d for notification: %s\n", bookingID, err.Error())
		return
	}
	owner := booking.Pitch.Owner
	if owner == nil {
		return
	}
	subject := fmt.Sprintf("New booking request for %s", booking.Pitch.Name)
	body := fmt.Sprintf(
		"%s requested %s on %s from %s to %s. Total: %.2f",
		booking.Player.Username,
		booking.Pitch.Name,
		booking.Date.Format(config.DATE_PARSE_FORMAT),
		booking.StartTime,
		booking.EndTime,
		booking.TotalPrice,
	)
	sendEmail(owner.Email, subject, body)
	if owner.DeviceToken != nil {
		lib.SendPush(*owner.DeviceToken, subject, body, map[string]string{
			"booking_id": fmt.Sprint(booking.ID),
		})
	}
}

// NotifyBookingConfirmed tells the player their slot is locked in and pushes
// the event to the shared calendar.
func NotifyBookingConfirmed(db *gorm.DB, bookingID uint) {
	booking, err := loadBookingGraph(db, bookingID)
	if err != nil {
		log.Printf("Error loading booking %d for notification: %s\n", bookingID, err.Error())
		return
	}
	player := booking.Player
	subject := fmt.Sprintf("Booking confirmed: %s", booking.Pitch.Name)
	body := fmt.Sprintf(
		"Your booking at %s on %s from %s to %s is confirmed.",
		booking.Pitch.Name,
		booking.Date.Format(config.DATE_PARSE_FORMAT),
		booking.StartTime,
		booking.EndTime,
	)
	sendEmail(player.Email, subject, body)
	if player.DeviceToken != nil {
		lib.SendPush(*player.DeviceToken, subject, body, map[string]string{
			"booking_id": fmt.Sprint(booking.ID),
		})
	}
	addCalendarEvent(booking)
}

// NotifyBookingCancelled informs the counterparty of a cancellation.
func NotifyBookingCancelled(db *gorm.DB, bookingID uint, cancelledBy uint) {
	booking, err := loadBookingGraph(db, bookingID)
	if err != nil {
		log.Printf("Error loading booking %d for notification: %s\n", bookingID, err.Error())
		return
	}
	subject := fmt.Sprintf("Booking cancelled: %s", booking.Pitch.Name)
	body := fmt.Sprintf(
		"The booking at %s on %s from %s to %s was cancelled.",
		booking.Pitch.Name,
		booking.Date.Format(config.DATE_PARSE_FORMAT),
		booking.StartTime,
		booking.EndTime,
	)
	if cancelledBy != booking.PlayerID {
		sendEmail(booking.Player.Email, subject, body)
	} else if owner := booking.Pitch.Owner; owner != nil {
		sendEmail(owner.Email, subject, body)
	}
}

func loadBookingGraph(db *gorm.DB, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	err := db.
		Preload("Pitch.Owner").
		Preload("Player").
		First(&booking, bookingID).
		Error
	if err != nil {
		return nil, err
	}
	if booking.Pitch == nil || booking.Player == nil {
		return nil, fmt.Errorf("booking %d has incomplete associations", bookingID)
	}
	return &booking, nil
}

func sendEmail(to string, subject string, body string) {
	input := lib.SendMailInput{
		From:     os.Getenv("EMAIL_SENDER"),
		FromName: os.Getenv("EMAIL_SENDER_NAME"),
		To:       []string{to},
		Subject:  subject,
		Body:     body,
	}
	if err := mailer.NewMailerMessage(&input); err != nil {
		log.Printf("Error queueing email to %s: %s\n", to, err.Error())
	}
}

func addCalendarEvent(booking *models.Booking) {
	calId := os.Getenv("BOOKINGS_CALENDAR_ID")
	if calId == "" {
		return
	}
	layout := config.DATE_PARSE_FORMAT + " " + config.CLOCK_PARSE_FORMAT
	day := booking.Date.Format(config.DATE_PARSE_FORMAT)
	startAt, err := time.Parse(layout, fmt.Sprintf("%s %s", day, booking.StartTime))
	if err != nil {
		log.Printf("Error parsing booking start: %s\n", err.Error())
		return
	}
	endAt, err := time.Parse(layout, fmt.Sprintf("%s %s", day, booking.EndTime))
	if err != nil {
		log.Printf("Error parsing booking end: %s\n", err.Error())
		return
	}
	event := calendar.Event{
		Summary:  fmt.Sprintf("%s - %s", booking.Pitch.Name, booking.Player.Username),
		Location: booking.Pitch.Location,
		Start:    &calendar.EventDateTime{DateTime: startAt.Format(time.RFC3339)},
		End:      &calendar.EventDateTime{DateTime: endAt.Format(time.RFC3339)},
	}
	if err := lib.GAPIAddEvent(calId, &event, nil); err != nil {
		log.Printf("Error adding calendar event for booking %d: %s\n", booking.ID, err.Error())
	}
}
