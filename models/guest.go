package models

import (
	"time"
)

// Guest carries the ID-document fields the check-in KYC predicate
// consults. Document capture itself is an external workflow.
type Guest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	BookingID *uint   `gorm:"index;column:booking_id" json:"bookingId"`
	Booking   Booking `gorm:"foreignKey:BookingID" json:"-"`

	FullName    string     `json:"fullName"`
	IsMainGuest bool       `json:"isMainGuest"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Nationality string     `json:"nationality"`

	IDType          string `json:"idType"`
	IDNumber        string `json:"idNumber"`
	IDIssuedCountry string `json:"idIssuedCountry"`

	DocumentImagePath string `json:"documentImagePath"`
}
