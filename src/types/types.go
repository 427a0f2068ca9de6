package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type UserRole string

const (
	ROLE_PLAYER UserRole = "player"
	ROLE_OWNER  UserRole = "owner"
	ROLE_ADMIN  UserRole = "admin"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_COMPLETED PaymentStatus = "completed"
	PAYMENT_FAILED    PaymentStatus = "failed"
	PAYMENT_REFUNDED  PaymentStatus = "refunded"
)

type SurfaceType string

const (
	SURFACE_TURF   SurfaceType = "turf"
	SURFACE_GRASS  SurfaceType = "grass"
	SURFACE_INDOOR SurfaceType = "indoor"
	SURFACE_OTHER  SurfaceType = "other"
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type RegisterUserRequestBody struct {
	Username    string `json:"username" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role,omitempty" binding:"omitempty,oneof=player owner admin"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type LoginRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequestBody struct {
	PhoneNumber *string `json:"phone_number,omitempty"`
	Position    *string `json:"position,omitempty"`
	SkillLevel  *int    `json:"skill_level,omitempty" binding:"omitempty,min=1,max=100"`
}

type CreatePitchRequestBody struct {
	Name         string   `json:"name" binding:"required,max=100"`
	Description  string   `json:"description,omitempty"`
	Location     string   `json:"location" binding:"required,max=255"`
	Latitude     *float64 `json:"latitude,omitempty" binding:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude,omitempty" binding:"omitempty,min=-180,max=180"`
	SurfaceType  string   `json:"surface_type" binding:"required,oneof=turf grass indoor other"`
	Size         string   `json:"size,omitempty"`
	PricePerHour float64  `json:"price_per_hour" binding:"required,gt=0"`
}

type UpsertAvailabilityRequestBody struct {
	PitchID     uint   `json:"pitch_id" binding:"required"`
	DayOfWeek   *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	OpeningTime string `json:"opening_time" binding:"required,clocktime"`
	ClosingTime string `json:"closing_time" binding:"required,clocktime,clockafter=OpeningTime"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

type CreateBookingRequestBody struct {
	PitchID   uint   `json:"pitch_id" binding:"required"`
	Date      string `json:"date" binding:"required,datevalue"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime,clockafter=StartTime"`
	PromoCode string `json:"promo_code,omitempty"`
}

type ProcessPaymentRequestBody struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type CreateReviewRequestBody struct {
	PitchID uint   `json:"pitch_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

type CreateTournamentRequestBody struct {
	Name                 string  `json:"name" binding:"required,max=100"`
	Description          string  `json:"description,omitempty"`
	PitchID              uint    `json:"pitch_id" binding:"required"`
	Date                 string  `json:"date" binding:"required,datevalue"`
	StartTime            string  `json:"start_time" binding:"required,clocktime"`
	EndTime              string  `json:"end_time" binding:"required,clocktime,clockafter=StartTime"`
	MaxTeams             *int    `json:"max_teams,omitempty" binding:"omitempty,gt=0"`
	RegistrationFee      float64 `json:"registration_fee,omitempty" binding:"omitempty,gte=0"`
	RegistrationDeadline string  `json:"registration_deadline,omitempty" binding:"omitempty,datevalue"`
}

type RegisterTeamRequestBody struct {
	Name         string `json:"name" binding:"required,max=100"`
	ContactEmail string `json:"contact_email,omitempty" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

type CreateMessageRequestBody struct {
	Content      string `json:"content" binding:"required"`
	RecipientID  *uint  `json:"recipient_id,omitempty"`
	GroupID      *uint  `json:"group_id,omitempty"`
	GroupName    string `json:"group_name,omitempty"`
	RecipientIDs []uint `json:"recipient_ids,omitempty"`
}

type CreateGroupRequestBody struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description,omitempty"`
	MemberIDs   []uint `json:"member_ids,omitempty"`
	IsPrivate   *bool  `json:"is_private,omitempty"`
}

type GroupMemberRequestBody struct {
	UserID uint `json:"user_id" binding:"required"`
}

type CreatePromotionRequestBody struct {
	Code               string `json:"code" binding:"required,max=20"`
	Description        string `json:"description,omitempty"`
	DiscountPercentage int    `json:"discount_percentage" binding:"required,min=1,max=100"`
	MaxUses            *int   `json:"max_uses,omitempty" binding:"omitempty,gt=0"`
	ValidFrom          string `json:"valid_from" binding:"required"`
	ValidUntil         string `json:"valid_until" binding:"required"`
}

type ApplyPromotionRequestBody struct {
	BookingID uint `json:"booking_id" binding:"required"`
}

type CreateSettingRequestBody struct {
	Key         string `json:"key" binding:"required,max=100"`
	Value       string `json:"value" binding:"required"`
	Description string `json:"description,omitempty"`
}

type BookingQueryFilters struct {
	Status   string `form:"status"`
	StatusIn string `form:"status__in"`
	Date     string `form:"date"`
	DateGt   string `form:"date__gt"`
	DateGte  string `form:"date__gte"`
	PitchID  uint   `form:"pitch"`
}

type Handler func(payload string)
