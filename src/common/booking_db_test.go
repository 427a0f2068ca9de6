package common

import (
	"errors"
	"testing"

	"pbs/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("could not open stub database connection: %s", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		ConnPool: conn,
	})
	if err != nil {
		t.Fatalf("could not open gorm over the stub connection: %s", err)
	}
	return gormDB, mock
}

// Two concurrent requests for the same slot can both pass the read-then-write
// conflict check. The bookings_no_overlap exclusion constraint decides the
// race: exactly one insert commits and the loser gets SlotConflict.
func TestCreateBookingOverlapRace(t *testing.T) {
	gdb, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "pitches"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "price_per_hour", "owner_id"}).
			AddRow(1, 50.0, 2))
	mock.ExpectQuery(`SELECT \* FROM "pitch_availabilities"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "pitch_id", "day_of_week", "opening_time", "closing_time", "is_available"}).
			AddRow(1, 1, 0, "08:00", "22:00", true))
	// other writer not committed yet, the fast-path check sees a free slot
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnError(errors.New(`ERROR: conflicting key value violates exclusion constraint "bookings_no_overlap" (SQLSTATE 23P01)`))
	mock.ExpectRollback()

	booking, err := CreateBooking(gdb, 7, &types.CreateBookingRequestBody{
		PitchID:   1,
		Date:      "2025-06-02",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	assert.Nil(t, booking)
	assert.Error(t, err)
	assert.True(t, IsKind(err, SlotConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func recomputeExpectations(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT "start_time","end_time" FROM "bookings"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"start_time", "end_time"}).
			AddRow("10:00", "11:30").
			AddRow("14:00", "15:00"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

// Recomputing twice over the same booking rows yields the same value: the
// cache is a pure function of the bookings, 2.5h truncates to 2 both times.
func TestRecomputeReservedHoursIdempotent(t *testing.T) {
	gdb, mock := newMockDB(t)

	recomputeExpectations(mock)
	first, err := RecomputeReservedHours(gdb, 7)
	assert.NoError(t, err)

	recomputeExpectations(mock)
	second, err := RecomputeReservedHours(gdb, 7)
	assert.NoError(t, err)

	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
