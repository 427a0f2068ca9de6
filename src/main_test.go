package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"pbs/src/db"
	"pbs/src/middlewares"
	"pbs/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		ConnPool: conn,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	registerValidators()

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestRegisterValidation() {
	router := setupRouter()
	guestAuthRoutes(router)

	s.Run("Should reject a register body with missing fields", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{
			"email": "someone@example.com",
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject an invalid role", func() {
		w := httptest.NewRecorder()
		body := types.RegisterUserRequestBody{
			Username: "testplayer",
			Email:    "player@example.com",
			Password: "supersecret",
			Role:     "superuser",
		}
		sbody, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

// bindingValidate runs a struct through the same validator gin binding uses.
func bindingValidate(obj any) error {
	return binding.Validator.ValidateStruct(obj)
}

func (s *TestSuite) TestBookingBodyValidation() {
	tests := []struct {
		name string
		body types.CreateBookingRequestBody
		ok   bool
	}{
		{"valid interval", types.CreateBookingRequestBody{PitchID: 1, Date: "2025-06-02", StartTime: "10:00", EndTime: "11:00"}, true},
		{"end before start", types.CreateBookingRequestBody{PitchID: 1, Date: "2025-06-02", StartTime: "11:00", EndTime: "10:00"}, false},
		{"bad clock format", types.CreateBookingRequestBody{PitchID: 1, Date: "2025-06-02", StartTime: "10am", EndTime: "11:00"}, false},
		{"bad date format", types.CreateBookingRequestBody{PitchID: 1, Date: "06/02/2025", StartTime: "10:00", EndTime: "11:00"}, false},
		{"missing pitch", types.CreateBookingRequestBody{Date: "2025-06-02", StartTime: "10:00", EndTime: "11:00"}, false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := bindingValidate(&tt.body)
			if tt.ok {
				assert.Nil(s.T(), err)
			} else {
				assert.NotNil(s.T(), err)
			}
		})
	}
}

func (s *TestSuite) TestAvailabilityBodyValidation() {
	monday := 0
	tests := []struct {
		name string
		body types.UpsertAvailabilityRequestBody
		ok   bool
	}{
		{"valid template", types.UpsertAvailabilityRequestBody{PitchID: 1, DayOfWeek: &monday, OpeningTime: "08:00", ClosingTime: "22:00"}, true},
		{"closing before opening", types.UpsertAvailabilityRequestBody{PitchID: 1, DayOfWeek: &monday, OpeningTime: "22:00", ClosingTime: "08:00"}, false},
		{"missing day", types.UpsertAvailabilityRequestBody{PitchID: 1, OpeningTime: "08:00", ClosingTime: "22:00"}, false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := bindingValidate(&tt.body)
			if tt.ok {
				assert.Nil(s.T(), err)
			} else {
				assert.NotNil(s.T(), err)
			}
		})
	}
}

// A player reviewing the same pitch twice replaces their earlier review
// instead of getting a conflict.
func (s *TestSuite) TestReviewResubmissionUpdatesInPlace() {
	d, mock := NewMockDB()
	db.NewDB(d)

	router := setupRouter()
	g := apiv1Group(router)
	g.Use(func(ctx *gin.Context) {
		ctx.Set("id", uint(7))
		ctx.Set("role", string(types.ROLE_PLAYER))
	})
	reviewHandlers(g)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "pitches"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "reviews"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "pitch_id", "player_id", "rating"}).
			AddRow(5, 1, 7, 3))
	mock.ExpectExec(`UPDATE "reviews" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	jbody := map[string]any{"pitch_id": 1, "rating": 5, "comment": "better floodlights now"}
	sbody, _ := json.Marshal(&jbody)
	req, _ := http.NewRequest("POST", "/api/v1/reviews", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), int64(5), gjson.Get(string(rbytes), "data.id").Int())
	assert.Equal(s.T(), int64(5), gjson.Get(string(rbytes), "data.rating").Int())
	assert.Nil(s.T(), mock.ExpectationsWereMet())
}

func (s *TestSuite) TestAvailabilityUnknownPitch() {
	d, mock := NewMockDB()
	db.NewDB(d)

	router := setupRouter()
	g := apiv1Group(router)
	g.Use(func(ctx *gin.Context) {
		ctx.Set("id", uint(7))
		ctx.Set("role", string(types.ROLE_PLAYER))
	})
	pitchHandlers(g)

	mock.ExpectQuery(`SELECT \* FROM "pitches"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/pitches/99/availability", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 404, w.Code)
	assert.Nil(s.T(), mock.ExpectationsWereMet())
}

func (s *TestSuite) TestUnauthorizedAccess() {
	router := setupRouter()
	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware)
	bookingHandlers(authorized)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
