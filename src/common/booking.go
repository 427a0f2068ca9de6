package common

import (
	"errors"
	"fmt"
	"log"
	"math"
	"pbs/src/config"
	"pbs/src/models"
	"pbs/src/types"
	"strings"
	"time"

	"gorm.io/gorm"
)

// MinBookingMinutes is the shortest interval a pitch can be reserved for.
const MinBookingMinutes = 30

// ParseClock converts a "15:04" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(config.CLOCK_PARSE_FORMAT, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock is the inverse of ParseClock. All stored clock values go
// through this so that lexicographic comparison in SQL matches time order.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WeekdayIndex maps a date to the availability-template convention,
// 0=Monday through 6=Sunday.
func WeekdayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// DurationHours returns the length of [start, end) in fractional hours.
// Both arguments must already be valid clock strings.
func DurationHours(start, end string) float64 {
	s, _ := ParseClock(start)
	e, _ := ParseClock(end)
	return float64(e-s) / 60.0
}

// Overlaps implements the half-open interval rule: [aStart, aEnd) and
// [bStart, bEnd) conflict iff aStart < bEnd && aEnd > bStart. Touching
// intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// CheckAvailability validates a requested interval against a pitch's weekly
// availability template. Pure function over the provided entries.
func CheckAvailability(entries []models.PitchAvailability, date time.Time, start, end string) error {
	startM, err := ParseClock(start)
	if err != nil {
		return NewDomainError(InvalidInterval, "start_time", "invalid time, expected HH:MM")
	}
	endM, err := ParseClock(end)
	if err != nil {
		return NewDomainError(InvalidInterval, "end_time", "invalid time, expected HH:MM")
	}
	if endM <= startM {
		return NewDomainError(InvalidInterval, "end_time", "end time must be after start time")
	}
	if endM-startM < MinBookingMinutes {
		return NewDomainError(InvalidInterval, "end_time", fmt.Sprintf("booking must be at least %d minutes", MinBookingMinutes))
	}

	day := WeekdayIndex(date)
	var entry *models.PitchAvailability
	for i := range entries {
		if entries[i].DayOfWeek == day {
			entry = &entries[i]
			break
		}
	}
	if entry == nil || !entry.IsAvailable {
		return NewDomainError(UnavailableDay, "date", "pitch is not available on this day")
	}

	openM, err := ParseClock(entry.OpeningTime)
	if err != nil {
		return NewDomainError(UnavailableDay, "date", "pitch availability is misconfigured for this day")
	}
	closeM, err := ParseClock(entry.ClosingTime)
	if err != nil {
		return NewDomainError(UnavailableDay, "date", "pitch availability is misconfigured for this day")
	}
	if startM < openM || endM > closeM {
		return NewDomainError(OutsideHours, "start_time", fmt.Sprintf("requested time is outside opening hours %s-%s", entry.OpeningTime, entry.ClosingTime))
	}
	return nil
}

// DetectConflict scans non-cancelled bookings for the pitch/date and rejects
// overlapping intervals. excludeID skips one booking, for updates. This is
// the fast path; the exclusion constraint created at boot is the guarantee.
func DetectConflict(tx *gorm.DB, pitchID uint, date time.Time, start, end string, excludeID uint) error {
	q := tx.
		Model(&models.Booking{}).
		Where("pitch_id = ? AND date = ?", pitchID, date).
		Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return NewDomainError(SlotConflict, "start_time", "pitch is already booked for this time slot")
	}
	return nil
}

// PromotionUsable reports whether a promotion can be applied at the given
// instant: now inside [valid_from, valid_until) and uses not exhausted.
func PromotionUsable(p *models.Promotion, now time.Time) bool {
	if now.Before(p.ValidFrom) || !now.Before(p.ValidUntil) {
		return false
	}
	if p.MaxUses != nil && p.CurrentUses >= *p.MaxUses {
		return false
	}
	return true
}

// RoundPrice rounds a monetary amount to 2 decimal places.
func RoundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputePrice derives the booking total from the hourly rate and duration,
// applying the promotion discount when one is supplied. The promotion's
// validity is verified first.
func ComputePrice(rate, durationHours float64, promo *models.Promotion, now time.Time) (float64, error) {
	base := rate * durationHours
	if promo != nil {
		if !PromotionUsable(promo, now) {
			return 0, NewDomainError(InvalidPromotion, "promo_code", "promotion code is not valid or has expired")
		}
		base -= base * float64(promo.DiscountPercentage) / 100
	}
	return RoundPrice(base), nil
}

// BookingEvent is an input to the booking state machine.
type BookingEvent string

const (
	EventConfirm  BookingEvent = "confirm"
	EventCancel   BookingEvent = "cancel"
	EventComplete BookingEvent = "complete"
)

// Transition is the single place that enumerates valid (state, event)
// pairs. completed and cancelled are terminal.
func Transition(from types.BookingStatus, ev BookingEvent) (types.BookingStatus, error) {
	switch {
	case from == types.BOOKING_PENDING && ev == EventConfirm:
		return types.BOOKING_CONFIRMED, nil
	case (from == types.BOOKING_PENDING || from == types.BOOKING_CONFIRMED) && ev == EventCancel:
		return types.BOOKING_CANCELLED, nil
	case (from == types.BOOKING_PENDING || from == types.BOOKING_CONFIRMED) && ev == EventComplete:
		return types.BOOKING_COMPLETED, nil
	}
	return from, NewDomainError(InvalidTransition, "status", fmt.Sprintf("cannot %s a %s booking", ev, from))
}

// ExpiredAt reports whether a pending booking's interval lies in the past:
// its date is before today, or it is today and the end time has passed.
// Only pending bookings are eligible for auto-completion.
func ExpiredAt(b *models.Booking, now time.Time) bool {
	if b.Status != types.BOOKING_PENDING {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	date := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return true
	}
	if !date.Equal(today) {
		return false
	}
	endM, err := ParseClock(b.EndTime)
	if err != nil {
		return false
	}
	return endM <= now.Hour()*60+now.Minute()
}

// SweepExpiredBookings moves expired pending bookings to completed and
// recomputes reserved hours for every affected player, all in one
// transaction. Invoked lazily on collection reads and from the sweep
// endpoint.
func SweepExpiredBookings(db *gorm.DB, now time.Time) (int, error) {
	today := now.Format(config.DATE_PARSE_FORMAT)
	nowClock := FormatClock(now.Hour()*60 + now.Minute())
	var updated int
	err := db.Transaction(func(tx *gorm.DB) error {
		var playerIds []uint
		if err := tx.
			Model(&models.Booking{}).
			Distinct("player_id").
			Where("status = ?", types.BOOKING_PENDING).
			Where("date < ? OR (date = ? AND end_time <= ?)", today, today, nowClock).
			Pluck("player_id", &playerIds).
			Error; err != nil {
			return err
		}
		if len(playerIds) == 0 {
			return nil
		}
		res := tx.
			Model(&models.Booking{}).
			Where("status = ?", types.BOOKING_PENDING).
			Where("date < ? OR (date = ? AND end_time <= ?)", today, today, nowClock).
			Update("status", types.BOOKING_COMPLETED)
		if res.Error != nil {
			return res.Error
		}
		updated = int(res.RowsAffected)
		for _, id := range playerIds {
			if _, err := RecomputeReservedHours(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	return updated, err
}

// RecomputeReservedHours recalculates a user's cached reserved-hours value
// from scratch: the sum of confirmed+completed booking durations, truncated
// to whole hours. Runs inside the caller's transaction so the cache cannot
// drift from the write that triggered it.
func RecomputeReservedHours(tx *gorm.DB, userID uint) (int, error) {
	var bookings []models.Booking
	if err := tx.
		Model(&models.Booking{}).
		Select("start_time", "end_time").
		Where("player_id = ?", userID).
		Where("status IN ?", []types.BookingStatus{types.BOOKING_CONFIRMED, types.BOOKING_COMPLETED}).
		Find(&bookings).
		Error; err != nil {
		return 0, err
	}
	var total float64
	for _, b := range bookings {
		total += DurationHours(b.StartTime, b.EndTime)
	}
	hours := int(total)
	if err := tx.
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("reserved_hours", hours).
		Error; err != nil {
		return 0, err
	}
	return hours, nil
}

// CreateBooking runs the whole booking pipeline in one transaction:
// validate the interval against availability, detect conflicts, price the
// slot, create the pending row, burn the promotion use and refresh the
// player's reserved-hours cache. Nothing is persisted on any validation
// failure.
func CreateBooking(db *gorm.DB, playerID uint, params *types.CreateBookingRequestBody) (*models.Booking, error) {
	date, err := time.Parse(config.DATE_PARSE_FORMAT, params.Date)
	if err != nil {
		return nil, NewDomainError(InvalidInterval, "date", "invalid date, expected YYYY-MM-DD")
	}
	startM, err := ParseClock(params.StartTime)
	if err != nil {
		return nil, NewDomainError(InvalidInterval, "start_time", "invalid time, expected HH:MM")
	}
	endM, err := ParseClock(params.EndTime)
	if err != nil {
		return nil, NewDomainError(InvalidInterval, "end_time", "invalid time, expected HH:MM")
	}
	start := FormatClock(startM)
	end := FormatClock(endM)

	var booking models.Booking
	err = db.Transaction(func(tx *gorm.DB) error {
		var pitch models.Pitch
		if err := tx.
			Preload("Availabilities").
			First(&pitch, params.PitchID).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewDomainError(NotFound, "pitch_id", "pitch not found")
			}
			return err
		}
		if err := CheckAvailability(pitch.Availabilities, date, start, end); err != nil {
			return err
		}
		if err := DetectConflict(tx, pitch.ID, date, start, end, 0); err != nil {
			return err
		}

		var promo *models.Promotion
		if params.PromoCode != "" {
			var p models.Promotion
			if err := tx.
				Where(&models.Promotion{Code: params.PromoCode}).
				First(&p).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewDomainError(NotFound, "promo_code", "promotion not found")
				}
				return err
			}
			promo = &p
		}

		price, err := ComputePrice(pitch.PricePerHour, float64(endM-startM)/60.0, promo, time.Now())
		if err != nil {
			return err
		}

		booking = models.Booking{
			PitchID:    pitch.ID,
			PlayerID:   playerID,
			Date:       date,
			StartTime:  start,
			EndTime:    end,
			Status:     types.BOOKING_PENDING,
			TotalPrice: price,
		}
		if promo != nil {
			booking.PromoID = &promo.ID
		}
		if err := tx.Create(&booking).Error; err != nil {
			if strings.Contains(err.Error(), overlapConstraint) {
				return NewDomainError(SlotConflict, "start_time", "pitch is already booked for this time slot")
			}
			return err
		}
		if promo != nil {
			if err := tx.
				Model(&models.Promotion{}).
				Where("id = ?", promo.ID).
				Update("current_uses", gorm.Expr("current_uses + 1")).
				Error; err != nil {
				return err
			}
		}
		if _, err := RecomputeReservedHours(tx, playerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// overlapConstraint is the name of the range-exclusion constraint installed
// by boot.InitDb. A create that loses the race surfaces as SlotConflict.
const overlapConstraint = "bookings_no_overlap"

// ConfirmBooking transitions a pending booking to confirmed and opens a
// pending payment for it. Only the pitch owner or an admin may confirm.
func ConfirmBooking(db *gorm.DB, bookingID uint, actor *models.User) (*models.Booking, error) {
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Pitch").
			First(&booking, bookingID).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewDomainError(NotFound, "id", "booking not found")
			}
			return err
		}
		if actor.Role != types.ROLE_ADMIN && (actor.Role != types.ROLE_OWNER || booking.Pitch == nil || booking.Pitch.OwnerID != actor.ID) {
			return NewDomainError(PermissionDenied, "id", "you don't have permission to confirm this booking")
		}
		next, err := Transition(booking.Status, EventConfirm)
		if err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", next).
			Error; err != nil {
			return err
		}
		booking.Status = next
		payment := models.Payment{
			BookingID: booking.ID,
			Amount:    booking.TotalPrice,
			Status:    types.PAYMENT_PENDING,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if _, err := RecomputeReservedHours(tx, booking.PlayerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking cancels a pending or confirmed booking. The requesting
// player, the pitch owner, or an admin may cancel; an existing payment is
// marked refunded.
func CancelBooking(db *gorm.DB, bookingID uint, actor *models.User) (*models.Booking, error) {
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Pitch").
			First(&booking, bookingID).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewDomainError(NotFound, "id", "booking not found")
			}
			return err
		}
		allowed := actor.ID == booking.PlayerID ||
			actor.Role == types.ROLE_ADMIN ||
			(booking.Pitch != nil && booking.Pitch.OwnerID == actor.ID)
		if !allowed {
			return NewDomainError(PermissionDenied, "id", "you don't have permission to cancel this booking")
		}
		next, err := Transition(booking.Status, EventCancel)
		if err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Update("status", next).
			Error; err != nil {
			return err
		}
		booking.Status = next
		if err := tx.
			Model(&models.Payment{}).
			Where("booking_id = ?", booking.ID).
			Update("status", types.PAYMENT_REFUNDED).
			Error; err != nil {
			return err
		}
		if _, err := RecomputeReservedHours(tx, booking.PlayerID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ApplyPromotion discounts an existing pending booking owned by the actor.
// The stored total is discounted in place; the price is never recomputed
// from the current pitch rate.
func ApplyPromotion(db *gorm.DB, promoID, bookingID uint, actor *models.User) (*models.Booking, error) {
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		var promo models.Promotion
		if err := tx.First(&promo, promoID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewDomainError(NotFound, "id", "promotion not found")
			}
			return err
		}
		if !PromotionUsable(&promo, time.Now()) {
			return NewDomainError(InvalidPromotion, "id", "promotion code is not valid or has expired")
		}
		if err := tx.
			Where(&models.Booking{ID: bookingID, PlayerID: actor.ID}).
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewDomainError(NotFound, "booking_id", "booking not found")
			}
			return err
		}
		if booking.Status != types.BOOKING_PENDING {
			return NewDomainError(InvalidPromotion, "booking_id", "promotion can only be applied to pending bookings")
		}
		if booking.PromoID != nil {
			return NewDomainError(InvalidPromotion, "booking_id", "a promotion has already been applied to this booking")
		}
		discounted := RoundPrice(booking.TotalPrice * (1 - float64(promo.DiscountPercentage)/100))
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Updates(map[string]any{"total_price": discounted, "promo_id": promo.ID}).
			Error; err != nil {
			return err
		}
		booking.TotalPrice = discounted
		booking.PromoID = &promo.ID
		if err := tx.
			Model(&models.Promotion{}).
			Where("id = ?", promo.ID).
			Update("current_uses", gorm.Expr("current_uses + 1")).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// DeleteBooking removes a booking and refreshes the owning player's
// reserved-hours cache in the same transaction.
func DeleteBooking(db *gorm.DB, bookingID uint, actor *models.User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewDomainError(NotFound, "id", "booking not found")
			}
			return err
		}
		if actor.Role != types.ROLE_ADMIN && actor.ID != booking.PlayerID {
			return NewDomainError(PermissionDenied, "id", "you don't have permission to delete this booking")
		}
		if err := tx.Delete(&booking).Error; err != nil {
			return err
		}
		if _, err := RecomputeReservedHours(tx, booking.PlayerID); err != nil {
			return err
		}
		return nil
	})
}

// LogSweep runs a sweep and logs the outcome. Convenience wrapper for the
// lazy sweep on collection reads where the caller doesn't care about errors.
func LogSweep(db *gorm.DB) {
	n, err := SweepExpiredBookings(db, time.Now())
	if err != nil {
		log.Printf("Error sweeping expired bookings: %s\n", err.Error())
		return
	}
	if n > 0 {
		log.Printf("Swept %d expired bookings to completed\n", n)
	}
}
