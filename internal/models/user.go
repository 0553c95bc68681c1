package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	Phone     string    `gorm:"uniqueIndex;size:16;not null" json:"phone"`
	FirstName string    `gorm:"size:64"                     json:"first_name"`
	LastName  string    `gorm:"size:64"                     json:"last_name"`
	Email     string    `gorm:"size:128"                    json:"email"`
	Role      string    `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (User) TableName() string {
	return "users"
}

type Address struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Province      string    `gorm:"size:64;not null"     json:"province"`
	City          string    `gorm:"size:64;not null"     json:"city"`
	Street        string    `gorm:"size:255;not null"    json:"street"`
	PostalCode    string    `gorm:"size:16;not null"     json:"postal_code"`
	ReceiverName  string    `gorm:"size:128;not null"    json:"receiver_name"`
	ReceiverPhone string    `gorm:"size:16;not null"     json:"receiver_phone"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Snapshot copies the address so later edits do not leak into sessions or orders.
func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		AddressID:     a.ID,
		Province:      a.Province,
		City:          a.City,
		Street:        a.Street,
		PostalCode:    a.PostalCode,
		ReceiverName:  a.ReceiverName,
		ReceiverPhone: a.ReceiverPhone,
	}
}

type AddressSnapshot struct {
	AddressID     uuid.UUID `json:"address_id"`
	Province      string    `json:"province"`
	City          string    `json:"city"`
	Street        string    `json:"street"`
	PostalCode    string    `json:"postal_code"`
	ReceiverName  string    `json:"receiver_name"`
	ReceiverPhone string    `json:"receiver_phone"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"   json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;size:64;not null" json:"jti"`
	ExpiresAt int64     `gorm:"not null"                   json:"expires_at"`
	Revoked   bool      `gorm:"default:false"              json:"revoked"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
