package models

import "time"

// InventorySlot is one (room, calendar day) unit of occupancy, the
// unit of allocation. At most one row exists per (room_id, date); the
// composite unique index is what makes the allocator's conditional
// claim atomic under concurrent confirmations.
type InventorySlot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	RoomID uint      `gorm:"column:room_id;uniqueIndex:idx_room_date;not null" json:"roomId"`
	Date   time.Time `gorm:"column:date;uniqueIndex:idx_room_date;not null" json:"date"`

	// Occupying booking; nil means the day is free unless blocked.
	BookingID *uint `gorm:"column:booking_id;index" json:"bookingId,omitempty"`

	// Administrative hold, independent of any booking.
	IsBlocked bool `gorm:"column:is_blocked;default:false" json:"isBlocked"`

	Room    Room     `gorm:"foreignKey:RoomID;references:ID" json:"-"`
	Booking *Booking `gorm:"foreignKey:BookingID;references:ID" json:"-"`
}
