package models

import (
	"time"

	"gorm.io/gorm"
)

// TxnStatus is the payment state machine's closed enum.
type TxnStatus string

const (
	TxnPending  TxnStatus = "PENDING"
	TxnSuccess  TxnStatus = "SUCCESS"
	TxnVerified TxnStatus = "VERIFIED"
	TxnFailed   TxnStatus = "FAILED"
)

// VERIFIED and FAILED are terminal for automatic transitions; VERIFIED
// may still be referenced by refunds.
var txnTransitions = map[TxnStatus][]TxnStatus{
	TxnPending: {TxnSuccess, TxnFailed},
	TxnSuccess: {TxnVerified},
}

func (s TxnStatus) CanTransition(to TxnStatus) bool {
	for _, next := range txnTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type TxnDirection string

const (
	DirectionIn  TxnDirection = "IN"  // payment
	DirectionOut TxnDirection = "OUT" // refund
)

type PaymentMode string

const (
	ModeOnline PaymentMode = "ONLINE"
	ModeCash   PaymentMode = "CASH"
	ModeBank   PaymentMode = "BANK_TRANSFER"
)

// Online reports whether the mode settles through the external gateway.
func (m PaymentMode) Online() bool { return m == ModeOnline }

// Transaction records one monetary movement against a booking. Rows are
// append-only: they move through status transitions and are never
// deleted. Once Locked is set the row is immutable.
type Transaction struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BookingID  uint `gorm:"index;column:booking_id" json:"bookingId"`
	CustomerID uint `gorm:"index;column:customer_id" json:"customerId"`

	Amount    float64      `gorm:"column:amount;not null" json:"amount"`
	Direction TxnDirection `gorm:"column:direction;size:8;not null" json:"direction"`
	Mode      PaymentMode  `gorm:"column:mode;size:32" json:"mode"`
	Status    TxnStatus    `gorm:"column:status;size:32;default:PENDING;index" json:"status"`

	// Reference is our idempotency handle, globally unique.
	Reference string `gorm:"column:reference;uniqueIndex;size:64" json:"reference"`

	GatewayOrderID   string `gorm:"column:gateway_order_id;index;size:128" json:"gatewayOrderId,omitempty"`
	GatewaySessionID string `gorm:"column:gateway_session_id;size:255" json:"-"`

	// Offline proof artifact (upload path); presence gates PENDING->SUCCESS.
	ProofPath string `gorm:"column:proof_path;size:255" json:"proofPath,omitempty"`

	Locked     bool       `gorm:"column:locked;default:false" json:"locked"`
	VerifiedBy *uint      `gorm:"column:verified_by" json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `gorm:"column:verified_at" json:"verifiedAt,omitempty"`

	// Set only on refunds (direction OUT): the verified IN transaction
	// this one reverses.
	RefundOfID *uint        `gorm:"column:refund_of_id;index" json:"refundOfId,omitempty"`
	RefundOf   *Transaction `gorm:"foreignKey:RefundOfID;references:ID" json:"-"`

	Booking  Booking  `gorm:"foreignKey:BookingID;references:ID" json:"-"`
	Customer Customer `gorm:"foreignKey:CustomerID;references:ID" json:"-"`
}
