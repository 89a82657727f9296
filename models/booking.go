package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingStatus is a closed enum; transitions go through CanTransition
// only, never through ad hoc string comparison.
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingCheckedIn  BookingStatus = "CHECKED_IN"
	BookingCheckedOut BookingStatus = "CHECKED_OUT"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// bookingTransitions is the single source of truth for legal moves.
// CHECKED_OUT and CANCELLED are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCheckedIn, BookingCancelled},
	BookingCheckedIn: {BookingCheckedOut},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RoomID     uint `gorm:"index;column:room_id" json:"roomId"`
	CustomerID uint `gorm:"index;column:customer_id" json:"customerId"`

	// Occupied range is [check_in, check_out); the checkout day itself
	// is not occupied.
	CheckIn  time.Time `gorm:"column:check_in;index" json:"checkIn"`
	CheckOut time.Time `gorm:"column:check_out;index" json:"checkOut"`
	Nights   int       `gorm:"column:nights" json:"nights"`

	Status        BookingStatus `gorm:"column:status;size:32;default:PENDING;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;size:32;default:UNPAID" json:"paymentStatus"`
	TotalAmount   float64       `gorm:"column:total_amount" json:"totalAmount"`

	ConfirmationCode   string `gorm:"column:confirmation_code;uniqueIndex;size:16" json:"confirmationCode"`
	ConfirmationDocRef string `gorm:"column:confirmation_doc_ref;size:255" json:"confirmationDocRef,omitempty"`

	ConfirmedAt  *time.Time `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	CheckedInAt  *time.Time `gorm:"column:checked_in_at" json:"checkedInAt,omitempty"`
	CheckedOutAt *time.Time `gorm:"column:checked_out_at" json:"checkedOutAt,omitempty"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`

	Room     Room     `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
	Customer Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`

	Modifications []BookingModification `gorm:"foreignKey:BookingID" json:"modifications,omitempty"`
}
