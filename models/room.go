package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model

	RoomTypeID *uint  `json:"roomTypeId,omitempty" gorm:"column:room_type_id"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex;type:varchar(50)"`

	Floor        string  `json:"floor" gorm:"type:varchar(10)"`
	Price        float64 `json:"price"`
	MaxOccupancy int     `json:"maxOccupancy" gorm:"column:max_occupancy"`
	Description  string  `json:"description" gorm:"type:text"`

	// Administrative hold on the whole room. Per-day holds live on
	// InventorySlot; this flag takes the room out of inventory entirely.
	IsBlocked bool `json:"isBlocked" gorm:"column:is_blocked;default:false"`

	RoomType RoomType `gorm:"foreignKey:RoomTypeID" json:"roomType,omitempty"`
}
