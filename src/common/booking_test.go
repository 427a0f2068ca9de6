package common

import (
	"testing"
	"time"

	"pbs/src/models"
	"pbs/src/types"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	assert.Nil(t, err)
	assert.Equal(t, 570, m)

	m, err = ParseClock("00:00")
	assert.Nil(t, err)
	assert.Equal(t, 0, m)

	_, err = ParseClock("9:30am")
	assert.NotNil(t, err)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:30", FormatClock(570))
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "23:59", FormatClock(23*60+59))
}

func TestWeekdayIndex(t *testing.T) {
	// 2025-06-02 is a Monday
	assert.Equal(t, 0, WeekdayIndex(day("2025-06-02")))
	assert.Equal(t, 5, WeekdayIndex(day("2025-06-07")))
	assert.Equal(t, 6, WeekdayIndex(day("2025-06-08")))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"identical", 600, 660, 600, 660, true},
		{"half hour shifted", 600, 660, 630, 690, true},
		{"contained", 600, 720, 630, 660, true},
		{"back to back", 600, 660, 660, 720, false},
		{"back to back reversed", 660, 720, 600, 660, false},
		{"disjoint", 600, 660, 720, 780, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func mondayTemplate(open, close string, available bool) []models.PitchAvailability {
	return []models.PitchAvailability{
		{PitchID: 1, DayOfWeek: 0, OpeningTime: open, ClosingTime: close, IsAvailable: available},
	}
}

func TestCheckAvailability(t *testing.T) {
	monday := day("2025-06-02")
	entries := mondayTemplate("08:00", "22:00", true)

	tests := []struct {
		name       string
		entries    []models.PitchAvailability
		date       time.Time
		start, end string
		wantKind   ErrorKind
	}{
		{"inside opening hours", entries, monday, "10:00", "11:00", ""},
		{"exact opening hours", entries, monday, "08:00", "22:00", ""},
		{"end before start", entries, monday, "11:00", "10:00", InvalidInterval},
		{"zero length", entries, monday, "10:00", "10:00", InvalidInterval},
		{"below minimum duration", entries, monday, "10:00", "10:15", InvalidInterval},
		{"exactly minimum duration", entries, monday, "10:00", "10:30", ""},
		{"before opening", entries, monday, "07:00", "09:00", OutsideHours},
		{"after closing", entries, monday, "21:30", "22:30", OutsideHours},
		{"no template for day", entries, day("2025-06-03"), "10:00", "11:00", UnavailableDay},
		{"day marked unavailable", mondayTemplate("08:00", "22:00", false), monday, "10:00", "11:00", UnavailableDay},
		{"garbage start", entries, monday, "10am", "11:00", InvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAvailability(tt.entries, tt.date, tt.start, tt.end)
			if tt.wantKind == "" {
				assert.Nil(t, err)
				return
			}
			assert.True(t, IsKind(err, tt.wantKind), "expected %s, got %v", tt.wantKind, err)
		})
	}
}

func TestComputePrice(t *testing.T) {
	now := time.Now()
	promo := &models.Promotion{
		Code:               "SAVE20",
		DiscountPercentage: 20,
		ValidFrom:          now.Add(-time.Hour),
		ValidUntil:         now.Add(time.Hour),
	}

	price, err := ComputePrice(50, 2, nil, now)
	assert.Nil(t, err)
	assert.Equal(t, 100.0, price)

	price, err = ComputePrice(50, 2, promo, now)
	assert.Nil(t, err)
	assert.Equal(t, 80.0, price)

	price, err = ComputePrice(35, 1.5, nil, now)
	assert.Nil(t, err)
	assert.Equal(t, 52.5, price)

	// a third of 100 per hour rounds to cents
	price, err = ComputePrice(100.0/3.0, 1.5, nil, now)
	assert.Nil(t, err)
	assert.Equal(t, 50.0, price)

	expired := &models.Promotion{
		DiscountPercentage: 20,
		ValidFrom:          now.Add(-2 * time.Hour),
		ValidUntil:         now.Add(-time.Hour),
	}
	_, err = ComputePrice(50, 2, expired, now)
	assert.True(t, IsKind(err, InvalidPromotion))
}

func TestPromotionUsable(t *testing.T) {
	now := day("2025-06-15")
	maxUses := 100
	tests := []struct {
		name  string
		promo models.Promotion
		want  bool
	}{
		{"inside window", models.Promotion{ValidFrom: day("2025-06-01"), ValidUntil: day("2025-07-01")}, true},
		{"before window", models.Promotion{ValidFrom: day("2025-06-20"), ValidUntil: day("2025-07-01")}, false},
		{"on expiry instant", models.Promotion{ValidFrom: day("2025-06-01"), ValidUntil: day("2025-06-15")}, false},
		{"on start instant", models.Promotion{ValidFrom: day("2025-06-15"), ValidUntil: day("2025-07-01")}, true},
		{"uses exhausted", models.Promotion{ValidFrom: day("2025-06-01"), ValidUntil: day("2025-07-01"), MaxUses: &maxUses, CurrentUses: 100}, false},
		{"one use left", models.Promotion{ValidFrom: day("2025-06-01"), ValidUntil: day("2025-07-01"), MaxUses: &maxUses, CurrentUses: 99}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PromotionUsable(&tt.promo, now))
		})
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    types.BookingStatus
		ev      BookingEvent
		want    types.BookingStatus
		wantErr bool
	}{
		{"pending confirm", types.BOOKING_PENDING, EventConfirm, types.BOOKING_CONFIRMED, false},
		{"pending cancel", types.BOOKING_PENDING, EventCancel, types.BOOKING_CANCELLED, false},
		{"pending complete", types.BOOKING_PENDING, EventComplete, types.BOOKING_COMPLETED, false},
		{"confirmed cancel", types.BOOKING_CONFIRMED, EventCancel, types.BOOKING_CANCELLED, false},
		{"confirmed complete", types.BOOKING_CONFIRMED, EventComplete, types.BOOKING_COMPLETED, false},
		{"confirmed confirm", types.BOOKING_CONFIRMED, EventConfirm, "", true},
		{"cancelled confirm", types.BOOKING_CANCELLED, EventConfirm, "", true},
		{"cancelled cancel", types.BOOKING_CANCELLED, EventCancel, "", true},
		{"completed cancel", types.BOOKING_COMPLETED, EventCancel, "", true},
		{"completed complete", types.BOOKING_COMPLETED, EventComplete, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			if tt.wantErr {
				assert.True(t, IsKind(err, InvalidTransition))
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpiredAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	pending := func(date string, end string) *models.Booking {
		return &models.Booking{Date: day(date), EndTime: end, Status: types.BOOKING_PENDING}
	}

	assert.True(t, ExpiredAt(pending("2025-06-14", "20:00"), now), "yesterday's booking expires")
	assert.True(t, ExpiredAt(pending("2025-06-15", "13:00"), now), "ended earlier today")
	assert.True(t, ExpiredAt(pending("2025-06-15", "14:00"), now), "ends exactly now")
	assert.False(t, ExpiredAt(pending("2025-06-15", "15:00"), now), "still has an hour to run")
	assert.False(t, ExpiredAt(pending("2025-06-16", "09:00"), now), "tomorrow is never expired")

	confirmed := &models.Booking{Date: day("2025-06-14"), EndTime: "20:00", Status: types.BOOKING_CONFIRMED}
	assert.False(t, ExpiredAt(confirmed, now), "only pending bookings auto-complete")
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 33.33, RoundPrice(100.0/3.0))
	assert.Equal(t, 100.0, RoundPrice(99.999))
	assert.Equal(t, 0.1, RoundPrice(0.1))
}

func TestDurationHours(t *testing.T) {
	assert.Equal(t, 2.0, DurationHours("10:00", "12:00"))
	assert.Equal(t, 1.5, DurationHours("09:30", "11:00"))
	assert.Equal(t, 0.5, DurationHours("10:00", "10:30"))
}
