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

// StringSlice is a jsonb-backed ordered list of strings (team member names,
// tier benefits).
type StringSlice []string

func (a StringSlice) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringSlice) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_CLOSED    EventStatus = "closed"
	EVENT_ARCHIVED  EventStatus = "archived"
)

type RegistrationStatus string

const (
	REGISTRATION_PENDING   RegistrationStatus = "pending"
	REGISTRATION_CONFIRMED RegistrationStatus = "confirmed"
	REGISTRATION_CANCELLED RegistrationStatus = "cancelled"
	REGISTRATION_EXPIRED   RegistrationStatus = "expired"
)

type TicketStatus string

const (
	TICKET_UPCOMING  TicketStatus = "upcoming"
	TICKET_ATTENDED  TicketStatus = "attended"
	TICKET_CANCELLED TicketStatus = "cancelled"
)

type TransactionStatus string

const (
	TRANSACTION_PENDING  TransactionStatus = "pending"
	TRANSACTION_PAID     TransactionStatus = "paid"
	TRANSACTION_CANCELED TransactionStatus = "canceled"
	TRANSACTION_EXPIRED  TransactionStatus = "expired"
)

type CreateEventRequestBody struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description,omitempty"`
	Location    string                  `json:"location" binding:"required"`
	DateTime    string                  `json:"date_time" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Image       string                  `json:"image,omitempty"`
	Publish     bool                    `json:"publish,omitempty"`
	Tiers       []CreateTierRequestBody `json:"tiers,omitempty" binding:"omitempty,dive"`
}

type CreateTierRequestBody struct {
	Name              string   `json:"name" binding:"required"`
	Description       string   `json:"description,omitempty"`
	Price             string   `json:"price" binding:"required"`
	Currency          string   `json:"currency" binding:"required,len=3"`
	Benefits          []string `json:"benefits,omitempty"`
	Available         *bool    `json:"available,omitempty"`
	MaxPerTransaction uint     `json:"max_per_transaction,omitempty"`
}

type StartRegistrationRequestBody struct {
	Provider string `json:"provider,omitempty"`
}

type UpdateFieldRequestBody struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

type TeamMemberRequestBody struct {
	Name string `json:"name,omitempty"`
}

type CheckinRequestBody struct {
	Code string `json:"code" binding:"required"`
}

type LoginRequestBody struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type SessionURIParams struct {
	SessionID string `uri:"sid" binding:"required,uuid"`
}

type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
