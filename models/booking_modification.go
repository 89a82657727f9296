package models

import (
	"time"

	"gorm.io/datatypes"
)

// BookingModification is an append-only history entry: who changed
// what, when. Rows are never updated or deleted.
type BookingModification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	BookingID uint           `gorm:"index;column:booking_id;not null" json:"bookingId"`
	ChangedBy string         `gorm:"column:changed_by;size:128" json:"changedBy"`
	Changes   datatypes.JSON `gorm:"column:changes" json:"changes"`

	Booking Booking `gorm:"foreignKey:BookingID;references:ID" json:"-"`
}
